// Package intent scores utterances against a static table of keyword
// patterns and extracts the parameters the winning pattern asks for.
package intent

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"voice-assistant/internal/history"
)

// Unrecognized is the tag of a Match that no pattern claimed.
const Unrecognized = "unrecognized"

const (
	// minConfidence is exclusive: a winner must score strictly above it.
	minConfidence = 0.5
	hitBoost      = 0.1
	maxBoost      = 0.3
	contextSize   = 5
	minTokenRunes = 3
)

var unknownTemplates = []string{
	"Извините, я не понял команду '%s'. Скажите 'помощь' для списка команд.",
	"Не уверен, что вы имели в виду под '%s'. Попробуйте сказать команду чётче.",
	"Простите, не распознал команду '%s'. Скажите 'помощь', чтобы узнать, что я умею.",
}

// Match is the outcome of one Classify call.
type Match struct {
	Tag        string
	Confidence float64
	Params     map[string]string
	Response   string
	Text       string
}

func (m Match) Recognized() bool { return m.Tag != Unrecognized }

// Context carries caller state. It is accepted but does not affect scoring yet.
type Context struct {
	UserName string
}

type Option func(*Classifier)

// WithHomeCity sets the city reported when the text names none.
func WithHomeCity(city string) Option {
	return func(c *Classifier) { c.homeCity = city }
}

// WithRand replaces the source used to pick the unrecognized response.
func WithRand(intn func(n int) int) Option {
	return func(c *Classifier) { c.intn = intn }
}

type Classifier struct {
	table    *Table
	stop     map[string]bool
	homeCity string
	intn     func(n int) int
	recent   *history.Buffer[Match]
}

func New(t *Table, opts ...Option) *Classifier {
	c := &Classifier{
		table:    t,
		stop:     make(map[string]bool, len(t.StopWords)),
		homeCity: "Иваново",
		intn:     rand.IntN,
		recent:   history.NewBuffer[Match](contextSize),
	}
	for _, w := range t.StopWords {
		c.stop[w] = true
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Classify returns the best-scoring pattern for text or an Unrecognized match.
// The result is also appended to the rolling context, see Recent.
func (c *Classifier) Classify(text string, _ Context) Match {
	lower := strings.ToLower(text)

	best := -1
	bestScore := 0.0
	for i := range c.table.Patterns {
		s := score(lower, &c.table.Patterns[i])
		if s > bestScore && s > minConfidence {
			best, bestScore = i, s
		}
	}

	var m Match
	if best < 0 {
		m = Match{
			Tag:      Unrecognized,
			Response: fmt.Sprintf(unknownTemplates[c.intn(len(unknownTemplates))], text),
			Text:     text,
		}
	} else {
		m = c.extract(&c.table.Patterns[best], lower)
		m.Confidence = bestScore
		m.Text = text
	}
	c.recent.Push(m)
	return m
}

// Recent returns the last classifications, oldest first. Informational only.
func (c *Classifier) Recent() []Match { return c.recent.Items() }

func score(lower string, p *Pattern) float64 {
	hits := 0
	for _, k := range p.Keywords {
		if strings.Contains(lower, k) {
			hits++
		}
	}
	if hits == 0 {
		return 0
	}
	return min(1.0, p.Confidence+min(maxBoost, float64(hits)*hitBoost))
}

func (c *Classifier) extract(p *Pattern, lower string) Match {
	m := Match{Tag: p.Tag, Params: map[string]string{}}
	switch p.Mode {
	case ModeQuery:
		q := c.query(lower, p.Keywords)
		m.Params["query"] = q
		m.Response = strings.ReplaceAll(p.Response, "{query}", q)
	case ModeCity:
		city := c.city(lower)
		m.Params["city"] = city
		m.Response = strings.ReplaceAll(p.Response, "{city}", city)
	default:
		m.Response = p.Response
	}
	return m
}

func (c *Classifier) query(lower string, keywords []string) string {
	for _, k := range keywords {
		lower = strings.ReplaceAll(lower, k, "")
	}
	var words []string
	for _, w := range strings.Fields(lower) {
		if c.stop[w] || utf8.RuneCountInString(w) < minTokenRunes {
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

func (c *Classifier) city(lower string) string {
	for _, ct := range c.table.Cities {
		if strings.Contains(lower, ct.Fragment) {
			return ct.Name
		}
	}
	return c.homeCity
}
