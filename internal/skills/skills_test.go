package skills

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-assistant/internal/llm"
	"voice-assistant/internal/memory"
	"voice-assistant/internal/weather"
)

var ctx = context.Background()

type fakeMemory struct{ name string }

func (m *fakeMemory) UserName() (string, bool) { return m.name, m.name != "" }
func (m *fakeMemory) RememberName(name string) (string, error) {
	m.name = name
	return "ok", nil
}

var _ memory.Memory = (*fakeMemory)(nil)

func fixedNow() time.Time { return time.Date(2024, time.March, 8, 14, 5, 0, 0, time.UTC) }

func TestBaseDescribe(t *testing.T) {
	assert.Equal(t, "A: x, y", NewBase("A", "x", "y").Describe())
	assert.Equal(t, "B: a, b, c...", NewBase("B", "a", "b", "c", "d").Describe())
}

func TestRegistryOrderAndDuplicates(t *testing.T) {
	first := NewBase("first", "погода")
	r, err := NewRegistry(&SearchSkill{first}, NewSearch())
	require.NoError(t, err)

	s, ok := r.Match("какая погода, найди")
	require.True(t, ok)
	assert.Equal(t, "first", s.Name())

	_, ok = r.Match("ничего")
	assert.False(t, ok)

	require.ErrorIs(t, r.Register(NewSearch()), ErrDuplicateSkill)
	assert.Len(t, r.All(), 2)
}

func TestTimeAndDate(t *testing.T) {
	got, err := NewTime(fixedNow).Execute(ctx, "который час", nil)
	require.NoError(t, err)
	assert.Equal(t, "Сейчас 14:05. Хорошего дня!", got)

	got, err = NewDate(fixedNow).Execute(ctx, "какое число", nil)
	require.NoError(t, err)
	assert.Equal(t, "Сегодня пятница, 8 марта 2024 года", got)
}

func TestSearchAndYouTube(t *testing.T) {
	got, _ := NewSearch().Execute(ctx, "Найди рецепт борща", nil)
	assert.Contains(t, got, "'рецепт борща'")
	assert.Contains(t, got, "q=%D1%80%D0%B5%D1%86%D0%B5%D0%BF%D1%82+")

	got, _ = NewSearch().Execute(ctx, "найди в интернете", nil)
	assert.Equal(t, "Что вы хотите найти в интернете?", got)

	got, _ = NewYouTube().Execute(ctx, "включи на ютубе котиков", nil)
	assert.Contains(t, got, "'котиков'")
}

func TestJokeCategory(t *testing.T) {
	s := NewJoke(func(int) int { return 0 })
	got, _ := s.Execute(ctx, "расскажи шутку про математику", nil)
	assert.Equal(t, jokes["математика"][0], got)
	got, _ = s.Execute(ctx, "пошути", nil)
	assert.Equal(t, jokes[jokeDefault][0], got)
}

func TestCalc(t *testing.T) {
	s := NewCalc()
	cases := []struct{ in, want string }{
		{"посчитай 2+2", "Результат: 2+2 = 4"},
		{"сколько будет 2 * (3 + 4)", "Результат: 2 * (3 + 4) = 14"},
		{"посчитай 10 разделить на 4", "Результат: 10 / 4 = 2.5"},
		{"сколько будет 7 минус -3?", "Результат: 7 - -3 = 10"},
		{"посчитай 1 / 0", calcFailed},
		{"посчитай два и два", calcFailed},
		{"посчитай (1 + 2", calcFailed},
	}
	for _, tc := range cases {
		got, err := s.Execute(ctx, tc.in, nil)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestEvaluatePrecedence(t *testing.T) {
	v, err := Evaluate("1 + 2 * 3 - 4 / 2")
	require.NoError(t, err)
	assert.Equal(t, 5.0, v)

	_, err = Evaluate("")
	require.Error(t, err)
	_, err = Evaluate("2 2")
	require.Error(t, err)
}

type fakeWeather struct {
	city string
	err  error
}

func (f *fakeWeather) Current(_ context.Context, city string) (weather.Report, error) {
	f.city = city
	if f.err != nil {
		return weather.Report{}, f.err
	}
	c, _ := weather.Lookup(city)
	return weather.Report{City: c, Main: "Clear", Description: "ясно", Temp: 20}, nil
}

func TestWeatherSkill(t *testing.T) {
	p := &fakeWeather{}
	s := NewWeather(p, "Ivanovo")

	got, err := s.Execute(ctx, "какая погода в Казани", nil)
	require.NoError(t, err)
	assert.Equal(t, "Kazan", p.city)
	assert.Contains(t, got, "Погода в Казани: ясно")

	got, _ = s.Execute(ctx, "погода на завтра", nil)
	assert.Equal(t, "Ivanovo", p.city)
	assert.True(t, strings.HasPrefix(got, "Сейчас: "), got)
	assert.Contains(t, got, "На завтра")

	p.err = weather.ErrUnauthorized
	got, err = s.Execute(ctx, "погода", nil)
	require.NoError(t, err)
	assert.Contains(t, got, "API ключ")

	p.err = errors.New("boom")
	_, err = s.Execute(ctx, "погода", nil)
	require.Error(t, err)
}

type fakeLLM struct {
	got  []llm.Message
	resp string
	err  error
}

func (f *fakeLLM) Generate(_ context.Context, msgs []llm.Message) (llm.Response, error) {
	f.got = msgs
	return llm.Response{Content: f.resp}, f.err
}

func TestAsk(t *testing.T) {
	c := &fakeLLM{resp: " Париж. "}
	s := NewAsk(c)

	got, err := s.Execute(ctx, "Спроси нейросеть, какая столица Франции", &fakeMemory{name: "Аня"})
	require.NoError(t, err)
	assert.Equal(t, "Париж.", got)
	require.Len(t, c.got, 2)
	assert.Equal(t, "какая столица Франции", c.got[1].Content)
	assert.Contains(t, c.got[0].Content, "Аня")

	got, _ = s.Execute(ctx, "нейросеть", nil)
	assert.Equal(t, "Что спросить у нейросети?", got)

	c.err = errors.New("quota")
	_, err = s.Execute(ctx, "нейросеть, привет", nil)
	require.Error(t, err)
}

type fakeTimers struct {
	mu     sync.Mutex
	next   cron.EntryID
	jobs   map[cron.EntryID]func()
	delays map[cron.EntryID]time.Duration
}

func newFakeTimers() *fakeTimers {
	return &fakeTimers{jobs: map[cron.EntryID]func(){}, delays: map[cron.EntryID]time.Duration{}}
}

func (f *fakeTimers) After(d time.Duration, job func()) (cron.EntryID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.jobs[f.next] = job
	f.delays[f.next] = d
	return f.next, nil
}

func (f *fakeTimers) Remove(id cron.EntryID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.jobs, id)
}

func (f *fakeTimers) fire(id cron.EntryID) {
	f.mu.Lock()
	job := f.jobs[id]
	delete(f.jobs, id)
	f.mu.Unlock()
	if job != nil {
		job()
	}
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *fakeNotifier) Notify(text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, text)
	return nil
}

func TestReminderTimerFires(t *testing.T) {
	timers, notifier := newFakeTimers(), &fakeNotifier{}
	s := NewReminder(timers, notifier, nil)
	s.now = fixedNow

	got, err := s.Execute(ctx, "Напомни через 5 минут выпить чай", nil)
	require.NoError(t, err)
	assert.Equal(t, "✅ Таймер установлен на 5 минут! Напомню в 14:10:00: выпить чай", got)
	assert.Equal(t, 5*time.Minute, timers.delays[1])

	list, _ := s.Execute(ctx, "список напоминаний", nil)
	assert.Contains(t, list, "Через 5м 0с: выпить чай")

	var firedAction string
	s.OnFire(func(a string) { firedAction = a })
	timers.fire(1)
	assert.Equal(t, []string{"Внимание! Таймер сработал: выпить чай"}, notifier.sent)
	assert.Equal(t, "выпить чай", firedAction)

	list, _ = s.Execute(ctx, "список напоминаний", nil)
	assert.Equal(t, "У вас нет активных напоминаний", list)
}

func TestReminderParsing(t *testing.T) {
	cases := []struct {
		in    string
		delay time.Duration
		text  string
	}{
		{"таймер на 30 секунд", 30 * time.Second, "на 30 секунд! Напомню в 14:05:30: время вышло!"},
		{"напомни через 2 часа позвонить маме", 2 * time.Hour, "на 2 часов! Напомню в 16:05:00: позвонить маме"},
		{"напомни через 1:30 выключить духовку", 90 * time.Minute, "на 1ч 30м 0с!"},
		{"напомни через 10 проверить почту", 10 * time.Minute, "на 10 минут!"},
	}
	for _, tc := range cases {
		timers := newFakeTimers()
		s := NewReminder(timers, &fakeNotifier{}, nil)
		s.now = fixedNow
		got, _ := s.Execute(ctx, tc.in, nil)
		assert.Contains(t, got, tc.text, tc.in)
		assert.Equal(t, tc.delay, timers.delays[1], tc.in)
	}

	s := NewReminder(newFakeTimers(), nil, nil)
	got, _ := s.Execute(ctx, "напомни через немного", nil)
	assert.Contains(t, got, "Не понял время")
}

func TestReminderNotesAndDelete(t *testing.T) {
	timers := newFakeTimers()
	s := NewReminder(timers, &fakeNotifier{}, nil)
	s.now = fixedNow

	got, _ := s.Execute(ctx, "напомни купить хлеб", nil)
	assert.Equal(t, "Запомнил: купить хлеб", got)
	got, _ = s.Execute(ctx, "напомни", nil)
	assert.Equal(t, "Что именно напомнить?", got)

	s.Execute(ctx, "напомни через 5 минут выпить чай", nil)
	s.Execute(ctx, "напомни через 7 минут выпить воды", nil)

	got, _ = s.Execute(ctx, "удали напоминание выпить", nil)
	assert.Equal(t, "Удалено напоминаний: 2", got)
	assert.Empty(t, timers.jobs)

	got, _ = s.Execute(ctx, "удали напоминание выпить", nil)
	assert.Equal(t, "Не нашел таких напоминаний", got)

	s.Execute(ctx, "таймер на 1 минуту", nil)
	got, _ = s.Execute(ctx, "удали все напоминания", nil)
	assert.Equal(t, "Все напоминания удалены", got)
	assert.Empty(t, timers.jobs)
	got, _ = s.Execute(ctx, "список напоминаний", nil)
	assert.Equal(t, "У вас нет активных напоминаний", got)
}

func TestBuiltinOrder(t *testing.T) {
	r, rem, err := Builtin(Deps{Weather: &fakeWeather{}, HomeCity: "Ivanovo", LLM: &fakeLLM{}})
	require.NoError(t, err)
	require.NotNil(t, rem)

	names := func(lower string) string {
		s, ok := r.Match(lower)
		if !ok {
			return ""
		}
		return s.Name()
	}
	assert.Equal(t, "Напоминания", names("напомни через 5 минут проверить время"))
	assert.Equal(t, "Поиск", names("найди на ютуб котиков"))
	assert.Equal(t, "Калькулятор", names("сколько будет 2+2"))
	assert.Equal(t, "Погода", names("какая погода в москве"))
	assert.Equal(t, "Нейросеть", names("нейросеть, найди смысл жизни"))
	assert.Equal(t, "", names("абракадабра"))

	r, _, err = Builtin(Deps{})
	require.NoError(t, err)
	for _, s := range r.All() {
		assert.NotEqual(t, "Нейросеть", s.Name())
		assert.NotEqual(t, "Погода", s.Name())
	}
}
