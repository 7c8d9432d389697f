package assistant

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"voice-assistant/internal/dispatch"
	"voice-assistant/internal/skills"
	"voice-assistant/internal/storage"
)

type chat struct {
	mu        sync.Mutex
	assistant *Assistant
}

// Pool keeps one assistant per chat. Utterances of one chat resolve one at a
// time; different chats run in parallel.
type Pool struct {
	factory  *Factory
	recorder storage.Recorder
	log      *zap.Logger
	now      func() time.Time

	mu    sync.Mutex
	chats map[int64]*chat
}

// NewPool creates a pool. recorder may be nil.
func NewPool(f *Factory, recorder storage.Recorder, log *zap.Logger) *Pool {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{
		factory:  f,
		recorder: recorder,
		log:      log,
		now:      time.Now,
		chats:    make(map[int64]*chat),
	}
}

func (p *Pool) chat(userID int64) *chat {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.chats[userID]
	if !ok {
		c = &chat{}
		p.chats[userID] = c
	}
	return c
}

// Handle resolves utterance for userID, creating the chat's assistant on
// first use. n only matters when the assistant is created. A Terminate
// result drops the assistant with its game and pending reminders.
func (p *Pool) Handle(ctx context.Context, userID int64, utterance string, n skills.Notifier) (dispatch.Result, error) {
	c := p.chat(userID)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.assistant == nil {
		a, err := p.factory.New(userID, p.recording(userID, n))
		if err != nil {
			return dispatch.Result{}, err
		}
		c.assistant = a
	}

	res := c.assistant.Resolve(ctx, utterance)
	p.record(storage.Event{
		Timestamp:         p.now().UTC(),
		UserID:            userID,
		UserMessage:       utterance,
		AssistantResponse: res.Text,
		Terminated:        res.Kind == dispatch.Terminate,
	})

	if res.Kind == dispatch.Terminate {
		c.assistant.Close()
		c.assistant = nil
		p.log.Info("conversation terminated", zap.Int64("user", userID))
	}
	return res, nil
}

// Active reports whether userID currently has an assistant.
func (p *Pool) Active(userID int64) bool {
	c := p.chat(userID)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.assistant != nil
}

// Reset drops the chat's assistant as if it had terminated.
func (p *Pool) Reset(userID int64) {
	c := p.chat(userID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.assistant != nil {
		c.assistant.Close()
		c.assistant = nil
	}
}

// Close drops every assistant.
func (p *Pool) Close() {
	p.mu.Lock()
	ids := make([]int64, 0, len(p.chats))
	for id := range p.chats {
		ids = append(ids, id)
	}
	p.mu.Unlock()
	for _, id := range ids {
		p.Reset(id)
	}
}

func (p *Pool) record(e storage.Event) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.AppendInteraction(e); err != nil {
		p.log.Warn("record interaction", zap.Int64("user", e.UserID), zap.Error(err))
	}
}

// recording wraps n so pushed messages are kept in the history too.
func (p *Pool) recording(userID int64, n skills.Notifier) skills.Notifier {
	if n == nil {
		return nil
	}
	return notifierFunc(func(text string) error {
		err := n.Notify(text)
		if err == nil {
			p.record(storage.Event{Timestamp: p.now().UTC(), UserID: userID, AssistantResponse: text})
		}
		return err
	})
}

type notifierFunc func(text string) error

func (f notifierFunc) Notify(text string) error { return f(text) }
