package game

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// fuzzyThreshold is the Jaro-Winkler score a token needs to count as a
// misrecognised number word.
const fuzzyThreshold = 0.88

var fillerWords = []string{"номер", "клетка", "клетку", "ставь", "поставь", "ход"}

type numberWord struct {
	word  string
	label string
}

var numberWords = []numberWord{
	{"один", "1"}, {"два", "2"}, {"три", "3"}, {"четыре", "4"}, {"пять", "5"},
	{"шесть", "6"}, {"восемь", "8"}, {"семь", "7"}, {"девять", "9"},
	{"первый", "1"}, {"второй", "2"}, {"третий", "3"}, {"четвертый", "4"},
	{"пятый", "5"}, {"шестой", "6"}, {"седьмой", "7"}, {"восьмой", "8"},
	{"девятый", "9"}, {"раз", "1"},
}

var digitsRe = regexp.MustCompile(`\d+`)

// ParseMove extracts a cell label from free text: whole-word number words
// first, then the first run of digits, then a fuzzy match of each token
// against the number words. A digit run is returned as is, so "10" reaches
// ApplyMove and is rejected there as out of range.
func ParseMove(text string) (string, bool) {
	text = strings.ReplaceAll(strings.ToLower(text), "ё", "е")
	var tokens []string
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if !slices.Contains(fillerWords, tok) {
			tokens = append(tokens, tok)
		}
	}

	for _, tok := range tokens {
		for _, nw := range numberWords {
			if tok == nw.word {
				return nw.label, true
			}
		}
	}
	for _, tok := range tokens {
		if d := digitsRe.FindString(tok); d != "" {
			return d, true
		}
	}

	best, bestScore := "", 0.0
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) < 3 {
			continue
		}
		for _, nw := range numberWords {
			if s := matchr.JaroWinkler(tok, nw.word, false); s > bestScore {
				best, bestScore = nw.label, s
			}
		}
	}
	if bestScore >= fuzzyThreshold {
		return best, true
	}
	return "", false
}
