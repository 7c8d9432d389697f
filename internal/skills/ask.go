package skills

import (
	"context"
	"fmt"
	"strings"

	"voice-assistant/internal/llm"
	"voice-assistant/internal/memory"
)

const askSystemPrompt = "Ты голосовой ассистент. Отвечай по-русски, коротко, одним-двумя предложениями, без разметки."

// AskSkill forwards free-form questions to an LLM.
type AskSkill struct {
	Base
	client llm.Client
}

func NewAsk(client llm.Client) *AskSkill {
	return &AskSkill{
		Base:   NewBase(NameAsk, "спроси нейросеть", "спроси у нейросети", "нейросеть"),
		client: client,
	}
}

func (s *AskSkill) Execute(ctx context.Context, utterance string, mem memory.Memory) (string, error) {
	lower := strings.ToLower(utterance)
	if len(lower) != len(utterance) {
		utterance = lower
	}
	question := utterance
	for _, k := range s.keywords {
		if i := strings.Index(lower, k); i >= 0 {
			question = utterance[i+len(k):]
			break
		}
	}
	question = strings.Trim(question, " ,.:")
	if question == "" {
		return "Что спросить у нейросети?", nil
	}

	system := askSystemPrompt
	if mem != nil {
		if name, ok := mem.UserName(); ok {
			system += fmt.Sprintf(" Собеседника зовут %s.", name)
		}
	}
	resp, err := s.client.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: question},
	})
	if err != nil {
		return "", fmt.Errorf("ask llm: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}
