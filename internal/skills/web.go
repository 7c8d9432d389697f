package skills

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"voice-assistant/internal/memory"
)

// queryOf drops the command words from utterance and keeps the rest.
func queryOf(utterance string, drop map[string]bool) string {
	var kept []string
	for _, w := range strings.Fields(utterance) {
		if !drop[strings.ToLower(strings.Trim(w, ",.!?"))] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

const (
	AskSearchQuery  = "Что вы хотите найти в интернете?"
	AskYouTubeQuery = "Что вы хотите найти на YouTube?"
)

// GoogleSearch renders the reply for a web search of q.
func GoogleSearch(q string) string {
	return fmt.Sprintf("Ищу в Google: '%s'. https://www.google.com/search?q=%s", q, url.QueryEscape(q))
}

func YouTubeSearch(q string) string {
	return fmt.Sprintf("Ищу на YouTube: '%s'. https://www.youtube.com/results?search_query=%s", q, url.QueryEscape(q))
}

type SearchSkill struct{ Base }

func NewSearch() *SearchSkill {
	return &SearchSkill{NewBase(NameSearch, "найди", "поищи", "ищи", "найти", "гугл", "поиск в интернете")}
}

var searchDrop = map[string]bool{
	"найди": true, "поищи": true, "ищи": true, "найти": true, "в": true,
	"гугл": true, "google": true, "интернете": true, "поиск": true,
}

func (s *SearchSkill) Execute(_ context.Context, utterance string, _ memory.Memory) (string, error) {
	q := queryOf(utterance, searchDrop)
	if q == "" {
		return AskSearchQuery, nil
	}
	return GoogleSearch(q), nil
}

type YouTubeSkill struct{ Base }

func NewYouTube() *YouTubeSkill {
	return &YouTubeSkill{NewBase(NameYouTube, "ютуб", "youtube", "видео", "поищи видео")}
}

var youtubeDrop = map[string]bool{
	"найди": true, "поищи": true, "на": true, "ютуб": true, "ютубе": true,
	"youtube": true, "видео": true, "включи": true,
}

func (s *YouTubeSkill) Execute(_ context.Context, utterance string, _ memory.Memory) (string, error) {
	q := queryOf(utterance, youtubeDrop)
	if q == "" {
		return AskYouTubeQuery, nil
	}
	return YouTubeSearch(q), nil
}
