package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("ALLOWED_USERS", "1:2:3")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.TelegramBotToken)
	assert.Equal(t, []int64{1, 2, 3}, cfg.AllowedUsers)
	assert.Equal(t, "Иваново", cfg.HomeCity)
	assert.Equal(t, "data/memory.json", cfg.MemoryFilePath)
	assert.Equal(t, "data/pending.json", cfg.PendingFilePath)
	assert.Equal(t, ProviderNone, cfg.LLMProvider)
	assert.Equal(t, "0 21 * * *", cfg.ReportSchedule)
}

func TestParseRejectsUnknownProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "gigachat")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gigachat")
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("HOME_CITY", "Москве")
	t.Setenv("LLM_PROVIDER", "yandex")
	t.Setenv("METRICS_ADDR", ":9090")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "Москве", cfg.HomeCity)
	assert.Equal(t, ProviderYandex, cfg.LLMProvider)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}
