package storage

import "time"

// Event is one exchange between a user and the assistant: the utterance and
// the text that was answered. Dispatch internals (stage, intent) are not kept.
type Event struct {
	Timestamp         time.Time `json:"timestamp"`
	UserID            int64     `json:"user_id"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
	Terminated        bool      `json:"terminated,omitempty"`
}

// Recorder persists conversation history.
// LoadInteractions returns events in chronological order.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendInteraction(event Event) error
	LoadInteractions() ([]Event, error)
}

// Recent returns at most n latest events of userID, oldest first.
func Recent(events []Event, userID int64, n int) []Event {
	var out []Event
	for i := len(events) - 1; i >= 0 && len(out) < n; i-- {
		if events[i].UserID == userID {
			out = append(out, events[i])
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
