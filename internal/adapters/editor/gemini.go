package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/yu-lin0312/news-collector/internal/infra/metrics"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiBackend отправляет промпты в Gemini со структурированным ответом.
type GeminiBackend struct {
	models contentGenerator
	model  string
}

// NewGeminiClient создаёт клиента Gemini API.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return client, nil
}

// NewGemini создаёт бэкенд. models обычно client.Models.
func NewGemini(models contentGenerator, model string) *GeminiBackend {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiBackend{models: models, model: model}
}

// Name реализует Backend.
func (b *GeminiBackend) Name() string { return "gemini" }

// Complete реализует Backend.
func (b *GeminiBackend) Complete(ctx context.Context, p Prompt) (string, error) {
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: p.User}}},
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: p.System}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    p.Schema,
	}
	start := time.Now()
	resp, err := b.models.GenerateContent(ctx, b.model, contents, cfg)
	metrics.ObserveNetworkRequest("gemini", p.Operation, b.model, start, err)
	if err != nil {
		return "", err
	}
	if usage := resp.UsageMetadata; usage != nil {
		metrics.ObserveLLMGeneration(b.model, time.Since(start), int(usage.PromptTokenCount), int(usage.CandidatesTokenCount), int(usage.TotalTokenCount))
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini: пустой ответ")
	}
	return text, nil
}
