package editor

import (
	"context"

	openai "github.com/yu-lin0312/news-collector/internal/infra/openai"
)

// rankSeed фиксирует выборку модели между прогонами.
const rankSeed = 42

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIBackend отправляет промпты в Chat Completions.
type OpenAIBackend struct {
	client chatClient
	model  string
}

// NewOpenAI создаёт бэкенд OpenAI.
func NewOpenAI(client chatClient, model string) *OpenAIBackend {
	if model == "" {
		model = "gpt-4.1-mini"
	}
	return &OpenAIBackend{client: client, model: model}
}

// Name реализует Backend.
func (b *OpenAIBackend) Name() string { return "openai" }

// Complete реализует Backend. Схема ответа задаётся текстом промпта, модель обязана вернуть объект JSON.
func (b *OpenAIBackend) Complete(ctx context.Context, p Prompt) (string, error) {
	seed := rankSeed
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       b.model,
		Temperature: 0.2,
		Seed:        &seed,
		Messages: []openai.ChatMessage{
			{Role: openai.RoleSystem, Content: p.System},
			{Role: openai.RoleUser, Content: p.User},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ResponseFormatTypeJSONObject},
	})
	if err != nil {
		return "", err
	}
	return resp.Content()
}
