package briefing

import (
	"sort"
	"strings"

	"github.com/yu-lin0312/news-collector/internal/domain"
	"github.com/yu-lin0312/news-collector/internal/usecase/selection"
)

// Quota сколько материалов рубрики берётся в первом проходе.
type Quota struct {
	Topic domain.Topic
	Count int
}

// RuleBasedQuotas квоты детерминированного брифинга.
var RuleBasedQuotas = []Quota{
	{Topic: domain.TopicPolicy, Count: 2},
	{Topic: domain.TopicTechnology, Count: 2},
	{Topic: domain.TopicIndustry, Count: 3},
	{Topic: domain.TopicBusiness, Count: 2},
	{Topic: domain.TopicRisk, Count: 1},
}

// Assembler собирает итоговый список: проход по рубрикам, добор по оценке, ранги.
type Assembler struct {
	quotas []Quota
	size   int
}

// NewBalanced берёт по одному лучшему материалу каждой рубрики в порядке order.
// Материалы с рубрикой вне order попадают в корзину первой рубрики.
func NewBalanced(order []domain.Topic, size int) *Assembler {
	quotas := make([]Quota, 0, len(order))
	for _, t := range order {
		quotas = append(quotas, Quota{Topic: t, Count: 1})
	}
	return NewQuota(quotas, size)
}

// NewQuota использует заданные квоты рубрик.
func NewQuota(quotas []Quota, size int) *Assembler {
	if size <= 0 {
		size = 10
	}
	return &Assembler{quotas: quotas, size: size}
}

// Assemble детерминирован: одинаковый вход даёт одинаковый порядок и ранги.
func (a *Assembler) Assemble(items []domain.ScoredCandidate) []domain.BriefingItem {
	sorted := selection.SortByScore(items)
	buckets := make(map[domain.Topic][]int, len(a.quotas))
	known := make(map[domain.Topic]bool, len(a.quotas))
	for _, q := range a.quotas {
		known[q.Topic] = true
	}
	var fallback domain.Topic
	if len(a.quotas) > 0 {
		fallback = a.quotas[0].Topic
	}
	for idx, it := range sorted {
		topic := it.Topic
		if !known[topic] {
			topic = fallback
		}
		buckets[topic] = append(buckets[topic], idx)
	}

	chosen := make(map[int]bool)
	picked := make([]int, 0, a.size)
	for _, q := range a.quotas {
		for _, idx := range firstN(buckets[q.Topic], q.Count) {
			if len(picked) >= a.size {
				break
			}
			chosen[idx] = true
			picked = append(picked, idx)
		}
	}
	for idx := range sorted {
		if len(picked) >= a.size {
			break
		}
		if chosen[idx] {
			continue
		}
		chosen[idx] = true
		picked = append(picked, idx)
	}

	sort.Ints(picked)
	out := make([]domain.BriefingItem, 0, len(picked))
	for rank, idx := range picked {
		out = append(out, toItem(sorted[idx], rank+1))
	}
	return out
}

func firstN(idx []int, n int) []int {
	if n > len(idx) {
		n = len(idx)
	}
	if n < 0 {
		n = 0
	}
	return idx[:n]
}

func toItem(sc domain.ScoredCandidate, rank int) domain.BriefingItem {
	summary := strings.TrimSpace(sc.Candidate.Enrichment.Summary)
	if summary == "" {
		summary = strings.TrimSpace(sc.Candidate.Summary)
	}
	return domain.BriefingItem{
		Rank:    rank,
		Title:   sc.Candidate.Title,
		URL:     sc.Candidate.URL,
		Source:  sc.Candidate.Source,
		Topic:   sc.Topic,
		Score:   sc.Score,
		Summary: summary,
	}
}
