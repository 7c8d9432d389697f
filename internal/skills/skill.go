// Package skills defines the keyword-activated capabilities the router can
// invoke, and the ordered registry that holds them.
package skills

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"voice-assistant/internal/memory"
)

// Names of the built-in skills, as they appear in help and logs.
const (
	NameTime     = "Время"
	NameDate     = "Дата"
	NameSearch   = "Поиск"
	NameYouTube  = "YouTube"
	NameJoke     = "Шутки"
	NameCalc     = "Калькулятор"
	NameWeather  = "Погода"
	NameReminder = "Напоминания"
	NameAsk      = "Нейросеть"
)

// Skill is one independently registered capability. Matches receives the
// lower-cased utterance; Execute receives the original one.
type Skill interface {
	Name() string
	Keywords() []string
	Matches(lower string) bool
	Execute(ctx context.Context, utterance string, mem memory.Memory) (string, error)
	Describe() string
}

// Notifier delivers out-of-band messages, such as fired reminders, to the
// user who owns the skill.
type Notifier interface {
	Notify(text string) error
}

// Base supplies substring matching and the help line. Skills embed it.
type Base struct {
	name     string
	keywords []string
}

func NewBase(name string, keywords ...string) Base {
	return Base{name: name, keywords: keywords}
}

func (b Base) Name() string { return b.name }

func (b Base) Keywords() []string {
	return append([]string(nil), b.keywords...)
}

func (b Base) Matches(lower string) bool {
	for _, k := range b.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Describe renders "Name: k1, k2, k3..." with at most three keywords.
func (b Base) Describe() string {
	shown := b.keywords
	suffix := ""
	if len(shown) > 3 {
		shown, suffix = shown[:3], "..."
	}
	return fmt.Sprintf("%s: %s%s", b.name, strings.Join(shown, ", "), suffix)
}

var ErrDuplicateSkill = errors.New("skill already registered")

// Registry keeps skills in registration order. It is built once and read
// afterwards.
type Registry struct {
	skills []Skill
}

func NewRegistry(skills ...Skill) (*Registry, error) {
	r := &Registry{}
	for _, s := range skills {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(s Skill) error {
	if s == nil {
		return errors.New("nil skill")
	}
	for _, have := range r.skills {
		if have.Name() == s.Name() {
			return fmt.Errorf("%s: %w", s.Name(), ErrDuplicateSkill)
		}
	}
	r.skills = append(r.skills, s)
	return nil
}

// Match returns the first registered skill whose keywords occur in lower.
func (r *Registry) Match(lower string) (Skill, bool) {
	for _, s := range r.skills {
		if s.Matches(lower) {
			return s, true
		}
	}
	return nil, false
}

// Lookup finds a skill by name.
func (r *Registry) Lookup(name string) (Skill, bool) {
	for _, s := range r.skills {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

func (r *Registry) All() []Skill {
	return append([]Skill(nil), r.skills...)
}
