package editor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/yu-lin0312/news-collector/internal/domain"
	openai "github.com/yu-lin0312/news-collector/internal/infra/openai"
)

type stubBackend struct {
	responses map[string]string
	err       error
	prompts   []Prompt
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Complete(_ context.Context, p Prompt) (string, error) {
	s.prompts = append(s.prompts, p)
	if s.err != nil {
		return "", s.err
	}
	return s.responses[p.Operation], nil
}

func pool(n int) []domain.ScoredCandidate {
	out := make([]domain.ScoredCandidate, n)
	for i := range out {
		out[i] = domain.ScoredCandidate{
			Candidate: domain.Candidate{Title: "Новость " + string(rune('A'+i)), URL: "https://example.com/" + string(rune('a'+i)), Source: "Nature"},
			Score:     float64(20 - i),
			Topic:     domain.TopicTechnology,
		}
	}
	return out
}

func TestRankAndSelectFiltersIDs(t *testing.T) {
	backend := &stubBackend{responses: map[string]string{"rank_and_select": "```json\n[3, 3, 99, -1, 0, 1]\n```"}}
	e := New(backend, time.Second)
	items := pool(5)
	got, err := e.RankAndSelect(context.Background(), items, 2)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(got) != 2 || got[0].Candidate.URL != items[3].Candidate.URL || got[1].Candidate.URL != items[0].Candidate.URL {
		t.Fatalf("неверный выбор: %+v", got)
	}
	if !strings.Contains(backend.prompts[0].User, "ID: 4") {
		t.Fatalf("в промпте должны быть все кандидаты")
	}
}

func TestRankAndSelectEmptyChoiceIsError(t *testing.T) {
	backend := &stubBackend{responses: map[string]string{"rank_and_select": `{"ids": [42]}`}}
	if _, err := New(backend, time.Second).RankAndSelect(context.Background(), pool(3), 2); err == nil {
		t.Fatalf("ожидали ошибку при пустом выборе")
	}
}

func TestSummarize(t *testing.T) {
	backend := &stubBackend{responses: map[string]string{"summarize": `Ответ: {"ai_rundown": " 摘要 ", "category": "Research"}`}}
	got, err := New(backend, time.Second).Summarize(context.Background(), pool(1)[0], "текст статьи")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if got.Summary != "摘要" || got.Topic != domain.TopicResearch {
		t.Fatalf("неверное обогащение: %+v", got)
	}
	if !strings.Contains(backend.prompts[0].User, "текст статьи") {
		t.Fatalf("текст статьи не попал в промпт")
	}
}

func TestSummarizeUnknownCategoryIsBreaking(t *testing.T) {
	backend := &stubBackend{responses: map[string]string{"summarize": `{"ai_rundown": "摘要", "category": "Gossip"}`}}
	got, err := New(backend, time.Second).Summarize(context.Background(), pool(1)[0], "")
	if err != nil || got.Topic != domain.TopicBreaking {
		t.Fatalf("ожидали Breaking, получили %+v %v", got, err)
	}
}

func TestSummarizeEmptyRundown(t *testing.T) {
	backend := &stubBackend{responses: map[string]string{"summarize": `{"ai_rundown": "  ", "category": "Tools"}`}}
	if _, err := New(backend, time.Second).Summarize(context.Background(), pool(1)[0], ""); err == nil {
		t.Fatalf("ожидали ошибку для пустого пересказа")
	}
}

func TestDailySummary(t *testing.T) {
	backend := &stubBackend{responses: map[string]string{"daily_summary": `{"title_summary": "標題", "key_takeaways": "重點"}`}}
	got, err := New(backend, time.Second).DailySummary(context.Background(), []domain.BriefingItem{{Rank: 1, Title: "t", Topic: domain.TopicTools}})
	if err != nil || got.Title != "標題" || got.Takeaways != "重點" {
		t.Fatalf("неверный итог: %+v %v", got, err)
	}
}

func TestBackendErrorPropagates(t *testing.T) {
	boom := errors.New("quota")
	e := New(&stubBackend{err: boom}, time.Second)
	if _, err := e.Summarize(context.Background(), pool(1)[0], ""); !errors.Is(err, boom) {
		t.Fatalf("ожидали ошибку бэкенда, получили %v", err)
	}
}

func TestNilEditorUnavailable(t *testing.T) {
	var e *Editor
	if _, err := e.DailySummary(context.Background(), []domain.BriefingItem{{Title: "x"}}); !errors.Is(err, domain.ErrEditorUnavailable) {
		t.Fatalf("ожидали ErrEditorUnavailable, получили %v", err)
	}
}

type stubChat struct {
	req openai.ChatCompletionRequest
}

func (s *stubChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.req = req
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: openai.ChatMessage{Content: `{"ids":[1]}`}}}}, nil
}

func TestOpenAIBackend(t *testing.T) {
	chat := &stubChat{}
	out, err := NewOpenAI(chat, "").Complete(context.Background(), Prompt{Operation: "x", System: "sys", User: "user"})
	if err != nil || out != `{"ids":[1]}` {
		t.Fatalf("неверный ответ: %q %v", out, err)
	}
	if chat.req.Model != "gpt-4.1-mini" || len(chat.req.Messages) != 2 || chat.req.ResponseFormat.Type != openai.ResponseFormatTypeJSONObject {
		t.Fatalf("неверный запрос: %+v", chat.req)
	}
	if chat.req.Seed == nil || *chat.req.Seed != rankSeed {
		t.Fatalf("ожидали фиксированный seed, получили %v", chat.req.Seed)
	}
}

type stubGenerator struct {
	cfg  *genai.GenerateContentConfig
	text string
}

func (s *stubGenerator) GenerateContent(_ context.Context, _ string, _ []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.cfg = cfg
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: s.text}}}}},
	}, nil
}

func TestGeminiBackendUsesSchema(t *testing.T) {
	gen := &stubGenerator{text: `{"title_summary":"a","key_takeaways":"b"}`}
	p := dailyPrompt([]domain.BriefingItem{{Title: "x"}})
	out, err := NewGemini(gen, "").Complete(context.Background(), p)
	if err != nil || out != gen.text {
		t.Fatalf("неверный ответ: %q %v", out, err)
	}
	if gen.cfg.ResponseMIMEType != "application/json" || gen.cfg.ResponseSchema != p.Schema {
		t.Fatalf("схема ответа не передана")
	}
}

func TestGeminiBackendEmpty(t *testing.T) {
	if _, err := NewGemini(&stubGenerator{}, "m").Complete(context.Background(), Prompt{}); err == nil {
		t.Fatalf("ожидали ошибку для пустого ответа")
	}
}
