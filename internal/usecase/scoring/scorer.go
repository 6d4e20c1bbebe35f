package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/yu-lin0312/news-collector/internal/domain"
)

// Scorer вычисляет детерминированную оценку кандидата.
type Scorer struct {
	weights  map[string]int
	keywords []Keyword
	loc      *time.Location
}

// NewScorer создаёт оценщик. overrides дополняют таблицу авторитетности, loc задаёт календарь.
func NewScorer(overrides map[string]int, loc *time.Location) *Scorer {
	weights := make(map[string]int, len(SourceWeights)+len(overrides))
	for name, w := range SourceWeights {
		weights[name] = w
	}
	for name, w := range overrides {
		if w > 0 {
			weights[name] = w
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scorer{weights: weights, keywords: Keywords, loc: loc}
}

// Authority возвращает вес источника кандидата.
func (s *Scorer) Authority(c domain.Candidate) int {
	if c.FromDiscussion() {
		return DiscussionAuthority
	}
	if w, ok := s.weights[c.Source]; ok {
		return w
	}
	return DefaultAuthority
}

// KeywordSignal суммирует веса словаря; каждое слово учитывается не более одного раза.
func (s *Scorer) KeywordSignal(c domain.Candidate) int {
	text := c.Text()
	total := 0
	for _, kw := range s.keywords {
		if strings.Contains(text, kw.Word) {
			total += kw.Weight
		}
	}
	return total
}

// Score возвращает оценку кандидата относительно дня today, округлённую до десятых.
func (s *Scorer) Score(c domain.Candidate, today time.Time) float64 {
	score := float64(s.Authority(c)) * AuthorityMultiplier
	score += float64(s.KeywordSignal(c))
	score += float64(RecencyBonus(c.PublishedAt, today, s.loc))
	return math.Round(score*10) / 10
}

// RecencyBonus бонус свежести по календарной разнице дней. Неизвестная дата даёт 0.
func RecencyBonus(published, today time.Time, loc *time.Location) int {
	if published.IsZero() {
		return 0
	}
	days := DaysBetween(published, today, loc)
	switch {
	case days <= 0:
		return 10
	case days <= 1:
		return 4
	case days <= 3:
		return 2
	case days <= 7:
		return 1
	default:
		return 0
	}
}

// DaysBetween разница календарных дат (to - from) в зоне loc, время суток не учитывается.
func DaysBetween(from, to time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	return int(calendarDay(to, loc).Sub(calendarDay(from, loc)).Hours() / 24)
}

func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
