package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderNone   LLMProvider = ""
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	// Telegram surface
	TelegramBotToken string  `env:"TELEGRAM_BOT_TOKEN"`
	AllowedUsers     []int64 `env:"ALLOWED_USERS" envSeparator:":"`
	AdminUserID      int64   `env:"ADMIN_USER"`

	// Dispatch
	HomeCity        string `env:"HOME_CITY" envDefault:"Иваново"`
	IntentsFilePath string `env:"INTENTS_FILE_PATH"`

	// External providers
	WeatherAPIKey  string `env:"WEATHER_API_KEY"`
	WeatherBaseURL string `env:"WEATHER_BASE_URL" envDefault:"https://api.openweathermap.org/data/2.5/weather"`
	WeatherCity    string `env:"WEATHER_HOME_CITY" envDefault:"Ivanovo"`
	NewsFeedURL    string `env:"NEWS_FEED_URL" envDefault:"https://lenta.ru/rss/news"`

	// LLM settings (optional, enables the ask skill)
	LLMProvider      LLMProvider `env:"LLM_PROVIDER"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// Storage
	LogFilePath       string `env:"LOG_FILE_PATH" envDefault:"logs/log.jsonl"`
	MemoryFilePath    string `env:"MEMORY_FILE_PATH" envDefault:"data/memory.json"`
	AllowlistFilePath string `env:"ALLOWLIST_FILE_PATH" envDefault:"data/allowlist.json"`
	PendingFilePath   string `env:"PENDING_FILE_PATH" envDefault:"data/pending.json"`

	// Observability
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"console"`
	MetricsAddr string `env:"METRICS_ADDR"`

	// Daily report to the admin, cron spec in UTC. Empty disables it.
	ReportSchedule string `env:"REPORT_SCHEDULE" envDefault:"0 21 * * *"`
}

// Parse reads the configuration from the process environment.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	switch cfg.LLMProvider {
	case ProviderNone, ProviderOpenAI, ProviderYandex:
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLMProvider)
	}
	return cfg, nil
}
