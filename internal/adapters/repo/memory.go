package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yu-lin0312/news-collector/internal/domain"
)

// Memory хранит кандидатов и брифинги в памяти процесса. Подходит для тестов и локального запуска.
type Memory struct {
	mu         sync.RWMutex
	loc        *time.Location
	order      []string
	candidates map[string]domain.Candidate
	briefings  map[string]domain.Briefing
}

var _ domain.Store = (*Memory)(nil)

// NewMemory создаёт пустое хранилище. loc задаёт календарь для окна свежести.
func NewMemory(loc *time.Location) *Memory {
	if loc == nil {
		loc = time.UTC
	}
	return &Memory{
		loc:        loc,
		candidates: make(map[string]domain.Candidate),
		briefings:  make(map[string]domain.Briefing),
	}
}

// Exists реализует domain.CandidateRepo.
func (m *Memory) Exists(_ context.Context, url string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.candidates[url]
	return ok, nil
}

// Insert реализует domain.CandidateRepo.
func (m *Memory) Insert(_ context.Context, c domain.Candidate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.candidates[c.URL]; ok {
		return false, nil
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	m.candidates[c.URL] = c
	m.order = append(m.order, c.URL)
	return true, nil
}

// QueryRecent реализует domain.CandidateRepo. Кандидаты без даты включаются.
func (m *Memory) QueryRecent(_ context.Context, windowDays int, now time.Time) ([]domain.Candidate, error) {
	from, to := Window(windowDays, now, m.loc)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Candidate, 0, len(m.order))
	for _, url := range m.order {
		c := m.candidates[url]
		if c.PublishedAt.IsZero() {
			out = append(out, c)
			continue
		}
		day := domain.DateKey(c.PublishedAt, m.loc)
		if day >= from && day <= to {
			out = append(out, c)
		}
	}
	return out, nil
}

// AttachEnrichment реализует domain.CandidateRepo.
func (m *Memory) AttachEnrichment(_ context.Context, url string, e domain.Enrichment) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[url]
	if !ok {
		return false, nil
	}
	c.Enrichment = e
	m.candidates[url] = c
	return true, nil
}

// DeleteOlderThan реализует domain.CandidateRepo. Кандидаты без даты не удаляются.
func (m *Memory) DeleteOlderThan(_ context.Context, days int, now time.Time) (int, error) {
	cutoff := domain.DateKey(now.AddDate(0, 0, -days), m.loc)
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.order[:0]
	removed := 0
	for _, url := range m.order {
		c := m.candidates[url]
		if !c.PublishedAt.IsZero() && domain.DateKey(c.PublishedAt, m.loc) < cutoff {
			delete(m.candidates, url)
			removed++
			continue
		}
		kept = append(kept, url)
	}
	m.order = kept
	return removed, nil
}

// SaveBriefing реализует domain.BriefingRepo.
func (m *Memory) SaveBriefing(_ context.Context, b domain.Briefing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]domain.BriefingItem, len(b.Items))
	copy(items, b.Items)
	b.Items = items
	m.briefings[b.Date] = b
	return nil
}

// GetBriefing реализует domain.BriefingRepo.
func (m *Memory) GetBriefing(_ context.Context, date string) (domain.Briefing, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.briefings[date]
	return b, ok, nil
}

// ListBriefings реализует domain.BriefingRepo, новые первыми.
func (m *Memory) ListBriefings(_ context.Context, limit int) ([]domain.Briefing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Briefing, 0, len(m.briefings))
	for _, b := range m.briefings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Window возвращает границы окна свежести [today-windowDays, today] как даты YYYY-MM-DD.
func Window(windowDays int, now time.Time, loc *time.Location) (string, string) {
	if windowDays < 0 {
		windowDays = 0
	}
	return domain.DateKey(now.AddDate(0, 0, -windowDays), loc), domain.DateKey(now, loc)
}
