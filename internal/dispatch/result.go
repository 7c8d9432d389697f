package dispatch

// Kind tells the surface what to do with a Result.
type Kind int

const (
	// Respond asks the surface to deliver Text.
	Respond Kind = iota
	// Terminate asks the surface to end the conversation. Text holds an
	// optional farewell.
	Terminate
)

// StopSentinel is how a Terminate result renders as plain text.
const StopSentinel = "STOP"

type Result struct {
	Kind Kind
	Text string
}

func (r Result) String() string {
	if r.Kind == Terminate {
		return StopSentinel
	}
	return r.Text
}

func respond(text string) Result { return Result{Kind: Respond, Text: text} }
