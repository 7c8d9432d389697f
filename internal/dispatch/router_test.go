package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"voice-assistant/internal/game"
	"voice-assistant/internal/intent"
	"voice-assistant/internal/memory"
	"voice-assistant/internal/news"
	"voice-assistant/internal/observe"
	"voice-assistant/internal/skills"
)

var ctx = context.Background()

type fakeMemory struct {
	name  string
	err   error
	panic bool
}

func (m *fakeMemory) UserName() (string, bool) {
	if m.panic {
		panic("memory exploded")
	}
	return m.name, m.name != ""
}

func (m *fakeMemory) RememberName(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.name = name
	return "Приятно познакомиться, " + name + "! Запомнил ваше имя.", nil
}

var _ memory.Memory = (*fakeMemory)(nil)

// spySkill counts executions and returns a canned reply, error or panic.
type spySkill struct {
	skills.Base
	calls int
	reply string
	err   error
	panic bool
}

func (s *spySkill) Execute(context.Context, string, memory.Memory) (string, error) {
	s.calls++
	if s.panic {
		panic("skill exploded")
	}
	return s.reply, s.err
}

type fakeNews struct {
	cat news.Category
	err error
}

func (f *fakeNews) Headlines(_ context.Context, cat news.Category, n int) ([]string, error) {
	f.cat = cat
	if f.err != nil {
		return nil, f.err
	}
	return []string{"Первая", "Вторая", "Третья"}[:n], nil
}

type fixture struct {
	router     *Router
	memory     *fakeMemory
	classifier *intent.Classifier
	game       *game.Controller
	news       *fakeNews
}

func newFixture(t *testing.T, list ...skills.Skill) *fixture {
	t.Helper()
	reg, err := skills.NewRegistry(list...)
	require.NoError(t, err)
	table, err := intent.DefaultTable()
	require.NoError(t, err)

	f := &fixture{
		memory:     &fakeMemory{},
		classifier: intent.New(table, intent.WithRand(func(int) int { return 0 })),
		game:       game.NewController(nil),
		news:       &fakeNews{},
	}
	f.router, err = New(Deps{
		Skills:     reg,
		Classifier: f.classifier,
		Game:       f.game,
		Memory:     f.memory,
		News:       f.news,
	})
	require.NoError(t, err)
	return f
}

func TestHelpListsSkillsWithoutClassifying(t *testing.T) {
	spy := &spySkill{Base: skills.NewBase("Эхо", "эхо", "повтори", "скажи", "ещё")}
	f := newFixture(t, spy)

	res := f.router.Resolve(ctx, "Помощь")
	assert.Equal(t, Respond, res.Kind)
	assert.NotEmpty(t, res.Text)
	assert.Contains(t, res.Text, "Эхо: эхо, повтори, скажи...")

	assert.False(t, f.game.Active())
	assert.Empty(t, f.classifier.Recent())
	assert.Zero(t, spy.calls)
}

func TestExitTerminates(t *testing.T) {
	f := newFixture(t)
	res := f.router.Resolve(ctx, "Стоп")
	assert.Equal(t, Terminate, res.Kind)
	assert.Equal(t, StopSentinel, res.String())
	assert.NotEqual(t, StopSentinel, res.Text)
}

func TestExitWordMatchesWholeWord(t *testing.T) {
	f := newFixture(t)

	res := f.router.Resolve(ctx, "покажи погоду в москве")
	assert.Equal(t, Respond, res.Kind)
	assert.NotEqual(t, msgFarewell, res.Text)

	res = f.router.Resolve(ctx, "Ну всё, пока!")
	assert.Equal(t, Terminate, res.Kind)
	assert.Equal(t, msgFarewell, res.Text)
}

func TestRespondStringIsText(t *testing.T) {
	assert.Equal(t, "STOP", Result{Kind: Respond, Text: "STOP"}.Text)
	assert.Equal(t, "привет", respond("привет").String())
}

func TestGameFlow(t *testing.T) {
	f := newFixture(t)

	res := f.router.Resolve(ctx, "начать игру")
	assert.Contains(t, res.Text, "1 | 2 | 3")
	require.True(t, f.game.Active())

	res = f.router.Resolve(ctx, "5")
	assert.Contains(t, res.Text, "клетку 1")
	b, _ := f.game.Board()
	assert.Equal(t, game.Human, b.At(5))
	assert.Equal(t, game.Opponent, b.At(1))

	res = f.router.Resolve(ctx, "5")
	assert.Contains(t, res.Text, "уже занята")
	after, _ := f.game.Board()
	assert.Equal(t, b, after)

	res = f.router.Resolve(ctx, "хватит")
	assert.Equal(t, Respond, res.Kind, "leaving a game must not end the conversation")
	assert.False(t, f.game.Active())
}

func TestActiveGameCapturesEverything(t *testing.T) {
	spy := &spySkill{Base: skills.NewBase("Жадный", "помощь", "погода", "новости", "привет", "х"), reply: "нет"}
	f := newFixture(t, spy)

	f.router.Resolve(ctx, "хочу играть")
	require.True(t, f.game.Active())

	for _, in := range []string{"помощь", "какая погода", "новости", "привет", "asdkfjh", "найди котиков", ""} {
		res := f.router.Resolve(ctx, in)
		assert.Equal(t, Respond, res.Kind, in)
		assert.NotEmpty(t, res.Text, in)
	}
	assert.Zero(t, spy.calls)
	assert.Empty(t, f.classifier.Recent())
	assert.Empty(t, f.news.cat, "news provider must not be called")
	assert.True(t, f.game.Active())
}

func TestGameStatusWhenIdle(t *testing.T) {
	f := newFixture(t)
	res := f.router.Resolve(ctx, "статус игры")
	assert.Equal(t, "Сейчас нет активной игры.", res.Text)
}

func TestSkillMatchAndFailure(t *testing.T) {
	ok := &spySkill{Base: skills.NewBase("Ок", "сделай"), reply: "сделано"}
	bad := &spySkill{Base: skills.NewBase("Плохой", "сломайся"), err: errors.New("boom")}
	mad := &spySkill{Base: skills.NewBase("Бешеный", "взорвись"), panic: true}
	f := newFixture(t, ok, bad, mad)

	assert.Equal(t, "сделано", f.router.Resolve(ctx, "Сделай что-нибудь").Text)
	assert.Equal(t, MsgSkillFailed, f.router.Resolve(ctx, "сломайся").Text)
	assert.Equal(t, MsgSkillFailed, f.router.Resolve(ctx, "взорвись").Text)
	assert.Equal(t, 1, bad.calls, "failed skills are not retried")
	assert.Empty(t, f.classifier.Recent(), "failures do not fall through to the classifier")

	assert.Equal(t, "сделано", f.router.Resolve(ctx, "сделай ещё").Text)
}

func TestFirstRegisteredSkillWins(t *testing.T) {
	a := &spySkill{Base: skills.NewBase("A", "общий"), reply: "a"}
	b := &spySkill{Base: skills.NewBase("B", "общий"), reply: "b"}
	f := newFixture(t, a, b)
	assert.Equal(t, "a", f.router.Resolve(ctx, "общий").Text)
	assert.Zero(t, b.calls)
}

func TestUnrecognizedFallback(t *testing.T) {
	f := newFixture(t)
	res := f.router.Resolve(ctx, "asdkfjh")
	assert.Equal(t, Respond, res.Kind)
	assert.Contains(t, res.Text, "asdkfjh")
	require.Len(t, f.classifier.Recent(), 1)
	assert.Equal(t, intent.Unrecognized, f.classifier.Recent()[0].Tag)
}

func TestIntentSearchExtractsQuery(t *testing.T) {
	f := newFixture(t)
	res := f.router.Resolve(ctx, "что такое квазар")
	assert.Equal(t, skills.GoogleSearch("квазар"), res.Text)
}

func TestIntentWithoutHandlerUsesTemplate(t *testing.T) {
	f := newFixture(t)
	res := f.router.Resolve(ctx, "сделай скриншот")
	assert.Equal(t, "Делаю скриншот экрана!", res.Text)
}

func TestIntentGameStartsSession(t *testing.T) {
	f := newFixture(t)
	f.router.Resolve(ctx, "давай поиграем")
	assert.True(t, f.game.Active())
}

func TestIntentViaRegisteredSkill(t *testing.T) {
	noop := &spySkill{Base: skills.NewBase("noop", "zzzz")}
	joke := skills.NewJoke(func(int) int { return 0 })

	// without a joke skill the intent answers with its template
	f := newFixture(t, noop)
	assert.Equal(t, "Рассказываю шутку!", f.router.Resolve(ctx, "хочу анекдот").Text)

	f = newFixture(t, noop, joke)
	res := f.router.Resolve(ctx, "хочу анекдот")
	assert.NotEqual(t, "Рассказываю шутку!", res.Text)
	assert.NotEmpty(t, res.Text)
	assert.Zero(t, noop.calls)
}

func TestNameAndGreeting(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "Привет! Я ваш голосовой ассистент. Чем могу помочь?", f.router.Resolve(ctx, "привет").Text)

	res := f.router.Resolve(ctx, "Меня зовут анна")
	assert.Equal(t, "Приятно познакомиться, Анна! Запомнил ваше имя.", res.Text)
	assert.Equal(t, "Анна", f.memory.name)
	assert.Equal(t, "Привет, Анна! Рад тебя слышать!", f.router.Resolve(ctx, "привет").Text)

	assert.Equal(t, msgAskName, f.router.Resolve(ctx, "моё имя").Text)

	f.memory.err = errors.New("disk full")
	assert.Equal(t, MsgSkillFailed, f.router.Resolve(ctx, "запомни имя Оля").Text)
}

func TestNews(t *testing.T) {
	f := newFixture(t)
	res := f.router.Resolve(ctx, "новости технологий")
	assert.Equal(t, news.Technology, f.news.cat)
	assert.Equal(t, "Вот последние 3 новостей: Первая. Вторая. Третья", res.Text)

	f.news.err = errors.New("offline")
	assert.Equal(t, MsgSkillFailed, f.router.Resolve(ctx, "новости").Text)
}

func TestResolveIsTotal(t *testing.T) {
	f := newFixture(t)
	inputs := []string{
		"", "   ", "\n\t", "?!", "🙂🙂🙂", "ЁЁЁ",
		strings.Repeat("очень длинная фраза ", 500),
		"\xff\xfe", "1 2 3 4 5 6 7 8 9",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			res := f.router.Resolve(ctx, in)
			if res.Kind == Respond {
				assert.NotEmpty(t, res.Text, "%q", in)
			}
		})
	}
}

func TestResolveRecoversPanics(t *testing.T) {
	f := newFixture(t)
	f.memory.panic = true

	res := f.router.Resolve(ctx, "asdkfjh")
	assert.Equal(t, Result{Kind: Respond, Text: MsgApology}, res)

	f.memory.panic = false
	res = f.router.Resolve(ctx, "asdkfjh")
	assert.Contains(t, res.Text, "asdkfjh")
}

func TestMetricsByStage(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	require.NoError(t, err)

	bad := &spySkill{Base: skills.NewBase("Плохой", "сломайся"), err: errors.New("boom")}
	reg, err := skills.NewRegistry(bad)
	require.NoError(t, err)
	r, err := New(Deps{Skills: reg, Memory: &fakeMemory{}, Metrics: m})
	require.NoError(t, err)

	r.Resolve(ctx, "помощь")
	r.Resolve(ctx, "сломайся")
	r.Resolve(ctx, "asdkfjh")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	stages := map[string]int64{}
	failures := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			sum, ok := met.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				switch met.Name {
				case "assistant.resolutions":
					v, _ := dp.Attributes.Value("stage")
					stages[v.AsString()] += dp.Value
				case "assistant.skill.failures":
					v, _ := dp.Attributes.Value("skill")
					failures[v.AsString()] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, map[string]int64{StageSpecial: 1, StageSkill: 1, StageFallback: 1}, stages)
	assert.Equal(t, map[string]int64{"Плохой": 1}, failures)
}
