// Package news reads headlines from RSS feeds.
package news

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

type Category string

const (
	General    Category = "general"
	Technology Category = "technology"
	Politics   Category = "politics"
	Economics  Category = "economics"
	City       Category = "city"
)

var ErrNoHeadlines = errors.New("feed has no entries")

// DefaultFeeds maps each category to its feed. General is overridden by
// configuration.
var DefaultFeeds = map[Category]string{
	General:    "https://lenta.ru/rss/news",
	Technology: "https://habr.com/ru/rss/articles/",
	Politics:   "https://ria.ru/export/rss2/index.xml",
	Economics:  "https://rssexport.rbc.ru/rbcnews/news/30/full.rss",
	City:       "https://ivgazeta.ru/rss",
}

var categoryWords = []struct {
	word string
	cat  Category
}{
	{"технологи", Technology},
	{"политик", Politics},
	{"экономик", Economics},
	{"город", City},
}

// CategoryFromText picks the first category named in lower-cased text.
func CategoryFromText(lower string) Category {
	for _, cw := range categoryWords {
		if strings.Contains(lower, cw.word) {
			return cw.cat
		}
	}
	return General
}

type Provider interface {
	Headlines(ctx context.Context, cat Category, n int) ([]string, error)
}

// RSS fetches feeds with gofeed. Unknown categories fall back to General.
type RSS struct {
	feeds   map[Category]string
	timeout time.Duration
}

func NewRSS(feeds map[Category]string, timeout time.Duration) *RSS {
	merged := make(map[Category]string, len(DefaultFeeds))
	for k, v := range DefaultFeeds {
		merged[k] = v
	}
	for k, v := range feeds {
		if v != "" {
			merged[k] = v
		}
	}
	return &RSS{feeds: merged, timeout: timeout}
}

func (r *RSS) Headlines(ctx context.Context, cat Category, n int) ([]string, error) {
	url, ok := r.feeds[cat]
	if !ok {
		url = r.feeds[General]
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	feed, err := gofeed.NewParser().ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}
	if len(feed.Items) == 0 {
		return nil, ErrNoHeadlines
	}

	out := make([]string, 0, n)
	for _, it := range feed.Items {
		if len(out) == n {
			break
		}
		if title := stripTags(it.Title); title != "" {
			out = append(out, title)
		}
	}
	return out, nil
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	return strings.TrimSpace(tagRe.ReplaceAllString(s, ""))
}

// Speak joins headlines into one reply.
func Speak(headlines []string) string {
	switch len(headlines) {
	case 0:
		return "Новости не найдены"
	case 1:
		return "Главная новость: " + headlines[0]
	default:
		return fmt.Sprintf("Вот последние %d новостей: %s", len(headlines), strings.Join(headlines, ". "))
	}
}
