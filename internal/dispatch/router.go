// Package dispatch decides which resolution stage answers an utterance: an
// active game, a special command, a game command, a keyword skill, a
// classified intent or the fallback.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"voice-assistant/internal/game"
	"voice-assistant/internal/intent"
	"voice-assistant/internal/memory"
	"voice-assistant/internal/news"
	"voice-assistant/internal/observe"
	"voice-assistant/internal/skills"
)

const (
	MsgApology     = "Произошла ошибка. Попробуйте ещё раз."
	MsgSkillFailed = "Произошла ошибка при выполнении команды"
)

// Stage names label the resolution metric and log entries.
const (
	StageGame        = "game"
	StageSpecial     = "special"
	StageGameCommand = "game_command"
	StageSkill       = "skill"
	StageIntent      = "intent"
	StageFallback    = "fallback"
	StageError       = "error"
)

// IntentHandler serves a recognized intent. It receives the match with its
// extracted parameters and the original utterance.
type IntentHandler func(ctx context.Context, m intent.Match, utterance string) (string, error)

type Deps struct {
	Skills     *skills.Registry
	Classifier *intent.Classifier
	Game       *game.Controller
	Memory     memory.Memory
	News       news.Provider
	Log        *zap.Logger
	Metrics    *observe.Metrics
}

// Router owns one game controller and one classifier. It is not safe for
// concurrent use; callers resolve one utterance at a time.
type Router struct {
	skills     *skills.Registry
	classifier *intent.Classifier
	game       *game.Controller
	memory     memory.Memory
	news       news.Provider
	log        *zap.Logger
	metrics    *observe.Metrics

	lower    cases.Caser
	title    cases.Caser
	specials []specialCommand
	intents  map[string]IntentHandler
}

// New builds a router. Missing optional deps get defaults: an empty skill
// registry, a fresh game controller and the embedded intent table.
func New(d Deps) (*Router, error) {
	r := &Router{
		skills:     d.Skills,
		classifier: d.Classifier,
		game:       d.Game,
		memory:     d.Memory,
		news:       d.News,
		log:        d.Log,
		metrics:    d.Metrics,
		lower:      cases.Lower(language.Russian),
		title:      cases.Title(language.Russian),
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	if r.metrics == nil {
		r.metrics = observe.Nop()
	}
	if r.skills == nil {
		r.skills, _ = skills.NewRegistry()
	}
	if r.game == nil {
		r.game = game.NewController(r.log)
	}
	if r.classifier == nil {
		t, err := intent.DefaultTable()
		if err != nil {
			return nil, fmt.Errorf("load intent table: %w", err)
		}
		r.classifier = intent.New(t)
	}
	r.specials = r.specialCommands()
	r.intents = r.intentHandlers()
	return r, nil
}

// Resolve maps one utterance to a Result. It never panics and never fails:
// internal errors come back as an apology.
func (r *Router) Resolve(ctx context.Context, utterance string) (res Result) {
	start := time.Now()
	stage := StageError
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("resolve panicked",
				zap.String("utterance", utterance),
				zap.String("panic", fmt.Sprint(p)),
				zap.Stack("stack"))
			res, stage = respond(MsgApology), StageError
		}
		r.metrics.RecordResolution(ctx, stage, time.Since(start).Seconds())
	}()

	lower := r.lower.String(strings.TrimSpace(utterance))

	if r.game.Active() {
		stage = StageGame
		return respond(r.game.Handle(utterance))
	}

	for _, sc := range r.specials {
		if sc.matches(lower) {
			stage = StageSpecial
			r.log.Debug("special command", zap.String("command", sc.name))
			return sc.handle(ctx, lower)
		}
	}

	if cmd, ok := r.game.MatchCommand(lower); ok {
		stage = StageGameCommand
		return respond(r.gameCommand(ctx, cmd))
	}

	if s, ok := r.skills.Match(lower); ok {
		stage = StageSkill
		r.log.Info("skill matched", zap.String("skill", s.Name()))
		return respond(r.runSkill(ctx, s, utterance))
	}

	m := r.classifier.Classify(utterance, intent.Context{UserName: r.userName()})
	if m.Recognized() {
		stage = StageIntent
		return respond(r.runIntent(ctx, m, utterance))
	}

	stage = StageFallback
	return respond(m.Response)
}

func (r *Router) gameCommand(ctx context.Context, cmd game.Command) string {
	if cmd == game.CommandStart {
		r.metrics.GamesStarted.Add(ctx, 1)
		return r.game.Start()
	}
	return r.game.Status()
}

// runSkill executes s and turns errors and panics into MsgSkillFailed.
func (r *Router) runSkill(ctx context.Context, s skills.Skill, utterance string) (text string) {
	defer func() {
		if p := recover(); p != nil {
			r.skillFailed(ctx, s.Name(), utterance, fmt.Errorf("panic: %v", p))
			text = MsgSkillFailed
		}
	}()
	out, err := s.Execute(ctx, utterance, r.memory)
	if err != nil {
		r.skillFailed(ctx, s.Name(), utterance, err)
		return MsgSkillFailed
	}
	return out
}

func (r *Router) runIntent(ctx context.Context, m intent.Match, utterance string) (text string) {
	h, ok := r.intents[m.Tag]
	if !ok {
		return m.Response
	}
	name := "intent:" + m.Tag
	defer func() {
		if p := recover(); p != nil {
			r.skillFailed(ctx, name, utterance, fmt.Errorf("panic: %v", p))
			text = MsgSkillFailed
		}
	}()
	out, err := h(ctx, m, utterance)
	if err != nil {
		r.skillFailed(ctx, name, utterance, err)
		return MsgSkillFailed
	}
	return out
}

func (r *Router) skillFailed(ctx context.Context, name, utterance string, err error) {
	r.log.Error("skill failed",
		zap.String("skill", name),
		zap.String("utterance", utterance),
		zap.Error(err))
	r.metrics.RecordSkillFailure(ctx, name)
}

func (r *Router) userName() string {
	if r.memory == nil {
		return ""
	}
	name, _ := r.memory.UserName()
	return name
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
