package dispatch

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"voice-assistant/internal/news"
)

const (
	msgFarewell   = "До свидания! Хорошего дня!"
	msgAskName    = "Скажите 'моё имя [ваше имя]'"
	msgNoNews     = "Новости сейчас недоступны"
	newsHeadlines = 3
)

type specialCommand struct {
	name     string
	keywords []string
	// words only match as whole words
	words  []string
	handle func(ctx context.Context, lower string) Result
}

func (sc specialCommand) matches(lower string) bool {
	if containsAny(lower, sc.keywords) {
		return true
	}
	if len(sc.words) == 0 {
		return false
	}
	for _, tok := range strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if slices.Contains(sc.words, tok) {
			return true
		}
	}
	return false
}

// specialCommands is checked in declaration order; the first keyword hit wins.
// "пока" is a whole word so that "покажи" does not end the conversation.
func (r *Router) specialCommands() []specialCommand {
	return []specialCommand{
		{name: "help", keywords: []string{"помощь", "команды", "что ты умеешь"}, handle: r.help},
		{name: "exit", keywords: []string{"стоп", "выход", "заверши работу"}, words: []string{"пока"}, handle: r.exit},
		{name: "greeting", keywords: []string{"привет", "здравствуй", "добрый день", "хай"}, handle: r.greeting},
		{name: "name", keywords: []string{"моё имя", "мое имя", "зовут", "запомни имя"}, handle: r.name},
		{name: "news", keywords: []string{"новости", "что нового", "свежие новости", "последние новости"}, handle: r.readNews},
	}
}

func (r *Router) help(context.Context, string) Result {
	var sb strings.Builder
	sb.WriteString("Вот что я умею:\n\n")
	sb.WriteString("🔸 ОСНОВНЫЕ КОМАНДЫ:\n")
	sb.WriteString("• помощь, команды - этот список\n")
	sb.WriteString("• привет - поздороваться\n")
	sb.WriteString("• моё имя [имя] - запомнить имя\n")
	sb.WriteString("• новости - последние новости\n")
	sb.WriteString("• начать игру - крестики-нолики\n")
	sb.WriteString("• стоп - завершить работу\n")

	if all := r.skills.All(); len(all) > 0 {
		sb.WriteString("\n🔸 НАВЫКИ:\n")
		for _, s := range all {
			fmt.Fprintf(&sb, "• %s\n", s.Describe())
		}
	}
	return respond(strings.TrimRight(sb.String(), "\n"))
}

func (r *Router) exit(context.Context, string) Result {
	return Result{Kind: Terminate, Text: msgFarewell}
}

func (r *Router) greeting(context.Context, string) Result {
	if name := r.userName(); name != "" {
		return respond(fmt.Sprintf("Привет, %s! Рад тебя слышать!", name))
	}
	return respond("Привет! Я ваш голосовой ассистент. Чем могу помочь?")
}

// name stores the text after "зовут", else after "имя".
func (r *Router) name(_ context.Context, lower string) Result {
	var name string
	switch {
	case strings.Contains(lower, "зовут"):
		name = lower[strings.LastIndex(lower, "зовут")+len("зовут"):]
	case strings.Contains(lower, "имя"):
		name = lower[strings.LastIndex(lower, "имя")+len("имя"):]
	}
	name = strings.Trim(name, " ,.!?:")
	if name == "" || r.memory == nil {
		return respond(msgAskName)
	}

	reply, err := r.memory.RememberName(r.title.String(name))
	if err != nil {
		r.log.Error("remember name", zap.Error(err))
		return respond(MsgSkillFailed)
	}
	return respond(reply)
}

func (r *Router) readNews(ctx context.Context, lower string) Result {
	if r.news == nil {
		return respond(msgNoNews)
	}
	headlines, err := r.news.Headlines(ctx, news.CategoryFromText(lower), newsHeadlines)
	if err != nil {
		r.log.Error("news failed", zap.Error(err))
		r.metrics.RecordSkillFailure(ctx, "news")
		return respond(MsgSkillFailed)
	}
	return respond(news.Speak(headlines))
}
