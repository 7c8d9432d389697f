package skills

import (
	"context"
	"fmt"
	"time"

	"voice-assistant/internal/memory"
)

type TimeSkill struct {
	Base
	now func() time.Time
}

func NewTime(now func() time.Time) *TimeSkill {
	if now == nil {
		now = time.Now
	}
	return &TimeSkill{
		Base: NewBase(NameTime, "который час", "сколько времени", "время", "времени"),
		now:  now,
	}
}

func (s *TimeSkill) Execute(context.Context, string, memory.Memory) (string, error) {
	return fmt.Sprintf("Сейчас %s. Хорошего дня!", s.now().Format("15:04")), nil
}

var (
	months = [12]string{
		"января", "февраля", "марта", "апреля", "мая", "июня",
		"июля", "августа", "сентября", "октября", "ноября", "декабря",
	}
	weekdays = [7]string{
		"воскресенье", "понедельник", "вторник", "среда", "четверг", "пятница", "суббота",
	}
)

type DateSkill struct {
	Base
	now func() time.Time
}

func NewDate(now func() time.Time) *DateSkill {
	if now == nil {
		now = time.Now
	}
	return &DateSkill{
		Base: NewBase(NameDate, "какое число", "какая дата", "какой день", "дата", "число"),
		now:  now,
	}
}

func (s *DateSkill) Execute(context.Context, string, memory.Memory) (string, error) {
	t := s.now()
	return fmt.Sprintf("Сегодня %s, %d %s %d года",
		weekdays[t.Weekday()], t.Day(), months[t.Month()-1], t.Year()), nil
}
