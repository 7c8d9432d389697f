package skills

import (
	"time"

	"go.uber.org/zap"

	"voice-assistant/internal/llm"
	"voice-assistant/internal/weather"
)

// Deps are the collaborators of the built-in skills. Nil Weather or LLM leave
// the corresponding skill out.
type Deps struct {
	Weather  weather.Provider
	HomeCity string
	LLM      llm.Client
	Timers   Timers
	Notifier Notifier
	Log      *zap.Logger
	Now      func() time.Time
	Intn     func(n int) int
}

// Builtin registers the stock skills. Order decides keyword conflicts: a
// reminder mentioning time goes to reminders, "найди на ютуб" goes to search.
func Builtin(d Deps) (*Registry, *ReminderSkill, error) {
	reminders := NewReminder(d.Timers, d.Notifier, d.Log)
	if d.Now != nil {
		reminders.now = d.Now
	}

	var list []Skill
	if d.LLM != nil {
		list = append(list, NewAsk(d.LLM))
	}
	list = append(list,
		reminders,
		NewCalc(),
		NewTime(d.Now),
		NewDate(d.Now),
	)
	if d.Weather != nil {
		list = append(list, NewWeather(d.Weather, d.HomeCity))
	}
	list = append(list,
		NewSearch(),
		NewYouTube(),
		NewJoke(d.Intn),
	)

	r, err := NewRegistry(list...)
	if err != nil {
		return nil, nil, err
	}
	return r, reminders, nil
}
