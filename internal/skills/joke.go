package skills

import (
	"context"
	"math/rand/v2"
	"strings"

	"voice-assistant/internal/memory"
)

const jokeDefault = "общие"

var jokes = map[string][]string{
	"программирование": {
		"Почему программисты путают Хэллоуин и Рождество? Потому что Oct 31 == Dec 25!",
		"Сколько программистов нужно, чтобы вкрутить лампочку? Ни одного, это hardware проблема!",
		"Как называется юмор айтишников? Чёрный ящик!",
	},
	"математика": {
		"Почему математик не мог спать? Он считал овец в комплексной плоскости!",
		"Что сказал один вектор другому? Я тебя в проекции жду!",
	},
	jokeDefault: {
		"Что сказал один байт другому? Я тебя в цикле жду!",
		"Почему компьютер пошел к врачу? У него был вирус!",
	},
}

var jokeStems = []struct{ stem, category string }{
	{"программ", "программирование"},
	{"математ", "математика"},
}

type JokeSkill struct {
	Base
	intn func(n int) int
}

// NewJoke creates the skill. intn picks a joke index; nil means math/rand.
func NewJoke(intn func(n int) int) *JokeSkill {
	if intn == nil {
		intn = rand.IntN
	}
	return &JokeSkill{
		Base: NewBase(NameJoke, "расскажи шутку", "шутк", "пошути", "рассмеши", "анекдот"),
		intn: intn,
	}
}

func (s *JokeSkill) Execute(_ context.Context, utterance string, _ memory.Memory) (string, error) {
	lower := strings.ToLower(utterance)
	cat := jokeDefault
	for _, js := range jokeStems {
		if strings.Contains(lower, js.stem) {
			cat = js.category
			break
		}
	}
	list := jokes[cat]
	return list[s.intn(len(list))], nil
}
