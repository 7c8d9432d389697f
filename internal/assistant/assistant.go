// Package assistant wires one router per chat and serialises the chat's
// utterances.
package assistant

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"voice-assistant/internal/dispatch"
	"voice-assistant/internal/game"
	"voice-assistant/internal/intent"
	"voice-assistant/internal/llm"
	"voice-assistant/internal/memory"
	"voice-assistant/internal/news"
	"voice-assistant/internal/observe"
	"voice-assistant/internal/skills"
	"voice-assistant/internal/weather"
)

// Assistant is the per-chat state: its router with the game session and
// classifier context, and the reminders it has scheduled.
type Assistant struct {
	UserID    int64
	router    *dispatch.Router
	reminders *skills.ReminderSkill
}

func (a *Assistant) Resolve(ctx context.Context, utterance string) dispatch.Result {
	return a.router.Resolve(ctx, utterance)
}

// Close cancels the reminders that have not fired.
func (a *Assistant) Close() {
	if a.reminders != nil {
		a.reminders.Close()
	}
}

// Factory holds the collaborators shared by every chat.
type Factory struct {
	Table       *intent.Table
	HomeCity    string
	WeatherCity string
	Weather     weather.Provider
	News        news.Provider
	LLM         llm.Client
	Timers      skills.Timers
	Memory      *memory.Store
	Log         *zap.Logger
	Metrics     *observe.Metrics
}

// New builds a fresh assistant for userID. Reminders of this assistant are
// delivered through n.
func (f *Factory) New(userID int64, n skills.Notifier) (*Assistant, error) {
	log := f.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.Int64("user", userID))
	metrics := f.Metrics
	if metrics == nil {
		metrics = observe.Nop()
	}

	table := f.Table
	if table == nil {
		var err error
		if table, err = intent.DefaultTable(); err != nil {
			return nil, fmt.Errorf("load intent table: %w", err)
		}
	}
	var opts []intent.Option
	if f.HomeCity != "" {
		opts = append(opts, intent.WithHomeCity(f.HomeCity))
	}

	reg, reminders, err := skills.Builtin(skills.Deps{
		Weather:  f.Weather,
		HomeCity: f.WeatherCity,
		LLM:      f.LLM,
		Timers:   f.Timers,
		Notifier: n,
		Log:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("register skills: %w", err)
	}
	reminders.OnFire(func(string) {
		metrics.RemindersFired.Add(context.Background(), 1)
	})

	var mem memory.Memory
	if f.Memory != nil {
		mem = f.Memory.For(userID)
	} else {
		store, _ := memory.NewStore(nil)
		mem = store.For(userID)
	}

	router, err := dispatch.New(dispatch.Deps{
		Skills:     reg,
		Classifier: intent.New(table, opts...),
		Game:       game.NewController(log),
		Memory:     mem,
		News:       f.News,
		Log:        log,
		Metrics:    metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Assistant{UserID: userID, router: router, reminders: reminders}, nil
}
