package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/yu-lin0312/news-collector/internal/domain"
)

// Prompt запрос к модели: системная инструкция, текст и ожидаемая схема ответа.
type Prompt struct {
	Operation string
	System    string
	User      string
	Schema    *genai.Schema
}

// Backend отправляет промпт конкретному провайдеру и возвращает JSON-ответ.
type Backend interface {
	Complete(ctx context.Context, p Prompt) (string, error)
	Name() string
}

// Editor реализует domain.Editor поверх любого Backend.
type Editor struct {
	backend Backend
	timeout time.Duration
}

var _ domain.Editor = (*Editor)(nil)

// New создаёт редактора. timeout ограничивает один вызов модели.
func New(backend Backend, timeout time.Duration) *Editor {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Editor{backend: backend, timeout: timeout}
}

func (e *Editor) complete(ctx context.Context, p Prompt, out any) error {
	if e == nil || e.backend == nil {
		return domain.ErrEditorUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	raw, err := e.backend.Complete(ctx, p)
	if err != nil {
		return fmt.Errorf("%s %s: %w", e.backend.Name(), p.Operation, err)
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), out); err != nil {
		return fmt.Errorf("распаковка ответа %s: %w", p.Operation, err)
	}
	return nil
}

type rankResponse struct {
	IDs []int `json:"ids"`
}

// RankAndSelect просит модель выбрать до k материалов по идентификаторам пула.
// Неизвестные и повторные идентификаторы отбрасываются.
func (e *Editor) RankAndSelect(ctx context.Context, items []domain.ScoredCandidate, k int) ([]domain.ScoredCandidate, error) {
	if len(items) == 0 || k <= 0 {
		return nil, nil
	}
	var resp rankResponse
	if err := e.complete(ctx, rankPrompt(items, k), &resp); err != nil {
		return nil, err
	}
	seen := make(map[int]bool, len(resp.IDs))
	out := make([]domain.ScoredCandidate, 0, k)
	for _, id := range resp.IDs {
		if len(out) >= k {
			break
		}
		if id < 0 || id >= len(items) || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, items[id])
	}
	if len(out) == 0 {
		return nil, errors.New("редактор не выбрал ни одного материала из пула")
	}
	return out, nil
}

type summarizeResponse struct {
	Rundown  string `json:"ai_rundown"`
	Category string `json:"category"`
}

// Summarize пишет короткий пересказ и относит материал к редакционной рубрике.
func (e *Editor) Summarize(ctx context.Context, item domain.ScoredCandidate, body string) (domain.Enrichment, error) {
	var resp summarizeResponse
	if err := e.complete(ctx, summarizePrompt(item.Candidate, body), &resp); err != nil {
		return domain.Enrichment{}, err
	}
	summary := strings.TrimSpace(resp.Rundown)
	if summary == "" {
		return domain.Enrichment{}, errors.New("пустой пересказ")
	}
	return domain.Enrichment{Summary: summary, Topic: domain.ParseEditorTopic(resp.Category)}, nil
}

type dailyResponse struct {
	Title     string `json:"title_summary"`
	Takeaways string `json:"key_takeaways"`
}

// DailySummary формирует заголовок и краткий вывод по всему брифингу.
func (e *Editor) DailySummary(ctx context.Context, items []domain.BriefingItem) (domain.DailySummary, error) {
	if len(items) == 0 {
		return domain.DailySummary{}, nil
	}
	var resp dailyResponse
	if err := e.complete(ctx, dailyPrompt(items), &resp); err != nil {
		return domain.DailySummary{}, err
	}
	return domain.DailySummary{
		Title:     strings.TrimSpace(resp.Title),
		Takeaways: strings.TrimSpace(resp.Takeaways),
	}, nil
}

// extractJSON вырезает JSON из ответа, обёрнутого в markdown или пояснения.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		text = strings.TrimSpace(rest)
	}
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text
	}
	closing := "}"
	if text[start] == '[' {
		closing = "]"
	}
	end := strings.LastIndex(text, closing)
	if end < start {
		return text
	}
	text = text[start : end+1]
	if strings.HasPrefix(text, "[") {
		return `{"ids":` + text + `}`
	}
	return text
}

func clipRunes(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
