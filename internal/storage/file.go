package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// maxLine bounds one recorded exchange; longer lines are skipped on load.
const maxLine = 1 << 20

// FileRecorder keeps the conversation history of every chat in one JSONL
// file, one Event per line in the order the exchanges happened.
type FileRecorder struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewFileRecorder creates the file and its directory when missing.
func NewFileRecorder(path string) (*FileRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create history file: %w", err)
	}
	_ = f.Close()
	return &FileRecorder{path: path, now: time.Now}, nil
}

// AppendInteraction writes one exchange of event.UserID as a single line.
// An event without a timestamp is stamped with the current UTC time. Lines of
// different users interleave; readers filter with Recent.
func (r *FileRecorder) AppendInteraction(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = r.now().UTC()
	}
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", r.path, err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("append %s: %w", r.path, err)
	}
	return f.Close()
}

// LoadInteractions returns every recorded exchange, oldest first. Blank,
// oversized and malformed lines are skipped.
func (r *FileRecorder) LoadInteractions() ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", r.path, err)
	}
	defer f.Close()

	var events []Event
	rd := bufio.NewReader(f)
	for {
		line, err := rd.ReadBytes('\n')
		if len(line) > 0 && len(line) <= maxLine {
			var ev Event
			if json.Unmarshal(line, &ev) == nil {
				events = append(events, ev)
			}
		}
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", r.path, err)
		}
	}
}
