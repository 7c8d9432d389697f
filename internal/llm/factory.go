package llm

import (
	"fmt"

	"voice-assistant/internal/config"
)

// New builds the client selected by cfg.LLMProvider. It returns a nil client
// and no error when no provider is configured.
func New(cfg *config.Config) (Client, error) {
	switch cfg.LLMProvider {
	case config.ProviderNone:
		return nil, nil
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY")
		}
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), nil
	case config.ProviderYandex:
		c, err := NewYandex(cfg.YandexOAuthToken, cfg.YandexFolderID)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLMProvider)
	}
}
