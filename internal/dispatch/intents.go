package dispatch

import (
	"context"

	"voice-assistant/internal/intent"
	"voice-assistant/internal/news"
	"voice-assistant/internal/skills"
)

// intentHandlers is the static tag table. Tags without an entry (desktop
// actions such as screenshots) answer with the pattern's response template.
func (r *Router) intentHandlers() map[string]IntentHandler {
	return map[string]IntentHandler{
		"search":  r.intentSearch,
		"youtube": r.intentYouTube,
		"game":    r.intentGame,
		"news":    r.intentNews,
		"weather": r.viaSkill(skills.NameWeather),
		"time":    r.viaSkill(skills.NameTime),
		"joke":    r.viaSkill(skills.NameJoke),
	}
}

func (r *Router) intentSearch(_ context.Context, m intent.Match, _ string) (string, error) {
	q := m.Params["query"]
	if q == "" {
		return skills.AskSearchQuery, nil
	}
	return skills.GoogleSearch(q), nil
}

func (r *Router) intentYouTube(_ context.Context, m intent.Match, _ string) (string, error) {
	q := m.Params["query"]
	if q == "" {
		return skills.AskYouTubeQuery, nil
	}
	return skills.YouTubeSearch(q), nil
}

func (r *Router) intentGame(ctx context.Context, _ intent.Match, _ string) (string, error) {
	r.metrics.GamesStarted.Add(ctx, 1)
	return r.game.Start(), nil
}

func (r *Router) intentNews(ctx context.Context, m intent.Match, utterance string) (string, error) {
	if r.news == nil {
		return m.Response, nil
	}
	headlines, err := r.news.Headlines(ctx, news.CategoryFromText(r.lower.String(utterance)), newsHeadlines)
	if err != nil {
		return "", err
	}
	return news.Speak(headlines), nil
}

// viaSkill runs the named skill on the utterance, or falls back to the
// template when the skill is not registered.
func (r *Router) viaSkill(name string) IntentHandler {
	return func(ctx context.Context, m intent.Match, utterance string) (string, error) {
		s, ok := r.skills.Lookup(name)
		if !ok {
			return m.Response, nil
		}
		return s.Execute(ctx, utterance, r.memory)
	}
}
