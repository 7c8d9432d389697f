package skills

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"voice-assistant/internal/memory"
)

// Timers schedules one-shot callbacks.
type Timers interface {
	After(d time.Duration, job func()) (cron.EntryID, error)
	Remove(id cron.EntryID)
}

type reminder struct {
	entry  cron.EntryID // zero for notes without a timer
	action string
	at     time.Time
}

// ReminderSkill keeps one user's reminders. Timers fire on the scheduler's
// goroutine and only talk to the notifier.
type ReminderSkill struct {
	Base
	timers   Timers
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	reminders []*reminder
	fired     func(action string)
}

func NewReminder(timers Timers, notifier Notifier, log *zap.Logger) *ReminderSkill {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReminderSkill{
		Base:     NewBase(NameReminder, "напомни", "напоминани", "таймер", "установи напоминание"),
		timers:   timers,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// OnFire registers a hook run after each delivered reminder.
func (s *ReminderSkill) OnFire(f func(action string)) { s.fired = f }

func (s *ReminderSkill) Execute(_ context.Context, utterance string, _ memory.Memory) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(utterance))
	switch {
	case strings.Contains(lower, "напомни через") || strings.Contains(lower, "таймер на"):
		return s.setTimer(lower), nil
	case strings.Contains(lower, "удали") && strings.Contains(lower, "напомин"):
		return s.delete(lower), nil
	case strings.Contains(lower, "список напоминаний") || strings.Contains(lower, "мои напоминания"):
		return s.list(), nil
	case strings.Contains(lower, "напомни"):
		return s.note(lower), nil
	}
	return "Скажите 'напомни через [время] [действие]'", nil
}

var (
	clockRe    = regexp.MustCompile(`(\d+):(\d+)(?::(\d+))?`)
	durationRe = regexp.MustCompile(`(\d+)\s*(сек\p{L}*|мин\p{L}*|час\p{L}*|ч)?`)
)

// parseDelay finds the delay in text and returns it, a spoken form, and the
// byte offset where the delay ends.
func parseDelay(text string) (time.Duration, string, int, bool) {
	if m := clockRe.FindStringSubmatchIndex(text); m != nil {
		h, _ := strconv.Atoi(text[m[2]:m[3]])
		mi, _ := strconv.Atoi(text[m[4]:m[5]])
		sec := 0
		if m[6] >= 0 {
			sec, _ = strconv.Atoi(text[m[6]:m[7]])
		}
		d := time.Duration(h)*time.Hour + time.Duration(mi)*time.Minute + time.Duration(sec)*time.Second
		return d, fmt.Sprintf("%dч %dм %dс", h, mi, sec), m[1], true
	}
	m := durationRe.FindStringSubmatchIndex(text)
	if m == nil {
		return 0, "", 0, false
	}
	n, err := strconv.Atoi(text[m[2]:m[3]])
	if err != nil {
		return 0, "", 0, false
	}
	unit := ""
	if m[4] >= 0 {
		unit = text[m[4]:m[5]]
	}
	switch {
	case strings.HasPrefix(unit, "сек"):
		return time.Duration(n) * time.Second, fmt.Sprintf("%d секунд", n), m[1], true
	case strings.HasPrefix(unit, "ч"):
		return time.Duration(n) * time.Hour, fmt.Sprintf("%d часов", n), m[1], true
	default:
		return time.Duration(n) * time.Minute, fmt.Sprintf("%d минут", n), m[1], true
	}
}

func (s *ReminderSkill) setTimer(lower string) string {
	if s.timers == nil {
		return "Таймеры сейчас недоступны"
	}
	d, spoken, end, ok := parseDelay(lower)
	if !ok || d <= 0 {
		return "Не понял время. Скажите например: 'напомни через 30 секунд', 'таймер на 5 минут' или 'напомни через 2 часа'"
	}
	action := strings.TrimSpace(lower[end:])
	action = strings.TrimSpace(strings.TrimPrefix(action, "что"))
	if action == "" {
		action = "время вышло!"
	}

	r := &reminder{action: action, at: s.now().Add(d)}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.timers.After(d, func() { s.fire(r) })
	if err != nil {
		s.log.Error("schedule reminder", zap.Error(err))
		return "Ошибка при установке таймера"
	}
	r.entry = id
	s.reminders = append(s.reminders, r)
	return fmt.Sprintf("✅ Таймер установлен на %s! Напомню в %s: %s", spoken, r.at.Format("15:04:05"), action)
}

func (s *ReminderSkill) fire(r *reminder) {
	s.mu.Lock()
	s.removeLocked(r)
	s.mu.Unlock()

	text := "Внимание! Таймер сработал: " + r.action
	if s.notifier == nil {
		s.log.Warn("reminder fired without notifier", zap.String("action", r.action))
		return
	}
	if err := s.notifier.Notify(text); err != nil {
		s.log.Error("deliver reminder", zap.String("action", r.action), zap.Error(err))
		return
	}
	if s.fired != nil {
		s.fired(r.action)
	}
}

func (s *ReminderSkill) removeLocked(r *reminder) {
	for i, have := range s.reminders {
		if have == r {
			s.reminders = append(s.reminders[:i], s.reminders[i+1:]...)
			return
		}
	}
}

func (s *ReminderSkill) note(lower string) string {
	action := strings.TrimSpace(strings.Replace(lower, "напомни", "", 1))
	if action == "" {
		return "Что именно напомнить?"
	}
	s.mu.Lock()
	s.reminders = append(s.reminders, &reminder{action: action, at: s.now()})
	s.mu.Unlock()
	return "Запомнил: " + action
}

func (s *ReminderSkill) list() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.reminders) == 0 {
		return "У вас нет активных напоминаний"
	}
	var sb strings.Builder
	sb.WriteString("📋 Активные напоминания:")
	now := s.now()
	for _, r := range s.reminders {
		if r.entry == 0 {
			fmt.Fprintf(&sb, "\n• Заметка: %s", r.action)
			continue
		}
		fmt.Fprintf(&sb, "\n• Через %s: %s", formatLeft(r.at.Sub(now)), r.action)
	}
	return sb.String()
}

func formatLeft(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	switch {
	case total < 60:
		return fmt.Sprintf("%dс", total)
	case total < 3600:
		return fmt.Sprintf("%dм %dс", total/60, total%60)
	default:
		return fmt.Sprintf("%dч %dм", total/3600, total%3600/60)
	}
}

func (s *ReminderSkill) delete(lower string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(strings.Fields(lower), "все") {
		for _, r := range s.reminders {
			s.cancelLocked(r)
		}
		s.reminders = nil
		return "Все напоминания удалены"
	}

	i := strings.Index(lower, "напоминание")
	if i < 0 {
		return "Скажите 'удали напоминание [текст]' или 'удали все напоминания'"
	}
	term := strings.TrimSpace(lower[i+len("напоминание"):])
	if term == "" {
		return "Скажите 'удали напоминание [текст]' или 'удали все напоминания'"
	}

	kept := s.reminders[:0]
	removed := 0
	for _, r := range s.reminders {
		if strings.Contains(r.action, term) {
			s.cancelLocked(r)
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.reminders = kept
	if removed == 0 {
		return "Не нашел таких напоминаний"
	}
	return fmt.Sprintf("Удалено напоминаний: %d", removed)
}

func (s *ReminderSkill) cancelLocked(r *reminder) {
	if r.entry != 0 && s.timers != nil {
		s.timers.Remove(r.entry)
	}
}

// Close cancels every pending timer of this skill.
func (s *ReminderSkill) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reminders {
		s.cancelLocked(r)
	}
	s.reminders = nil
}
