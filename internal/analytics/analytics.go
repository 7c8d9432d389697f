// Package analytics summarises recorded conversations for the admin report.
package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"voice-assistant/internal/storage"
)

// DailyStats is the activity of one calendar day.
type DailyStats struct {
	Date          string              `json:"date"`
	TotalMessages int                 `json:"total_messages"`
	UniqueUsers   int                 `json:"unique_users"`
	Terminations  int                 `json:"terminations"`
	UserStats     map[int64]UserStats `json:"user_stats"`
}

type UserStats struct {
	UserID       int64 `json:"user_id"`
	Messages     int   `json:"messages"`
	Terminations int   `json:"terminations"`
}

// AnalyzeDailyLogs counts events that fall on targetDate's day, in
// targetDate's location.
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	stats := &DailyStats{
		Date:      startOfDay.Format("2006-01-02"),
		UserStats: make(map[int64]UserStats),
	}

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}
		// reminders and other pushes carry no user message
		if event.UserMessage == "" {
			continue
		}

		stats.TotalMessages++
		us := stats.UserStats[event.UserID]
		us.UserID = event.UserID
		us.Messages++
		if event.Terminated {
			stats.Terminations++
			us.Terminations++
		}
		stats.UserStats[event.UserID] = us
	}

	stats.UniqueUsers = len(stats.UserStats)
	return stats
}

// GenerateReportSummary renders the stats as a chat message.
func (ds *DailyStats) GenerateReportSummary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Статистика голосового ассистента за %s\n\n", ds.Date)
	fmt.Fprintf(&sb, "Всего сообщений: %d\n", ds.TotalMessages)
	fmt.Fprintf(&sb, "Уникальных пользователей: %d\n", ds.UniqueUsers)
	fmt.Fprintf(&sb, "Завершённых диалогов: %d\n", ds.Terminations)

	if len(ds.UserStats) == 0 {
		return sb.String()
	}

	ids := make([]int64, 0, len(ds.UserStats))
	for id := range ds.UserStats {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	sb.WriteString("\nАктивность пользователей:\n")
	for _, id := range ids {
		us := ds.UserStats[id]
		fmt.Fprintf(&sb, "- Пользователь %d: %d сообщений", id, us.Messages)
		if us.Terminations > 0 {
			fmt.Fprintf(&sb, ", %d завершений", us.Terminations)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
