package scoring

import (
	"strings"
	"time"

	"github.com/yu-lin0312/news-collector/internal/domain"
)

// Categorizer относит кандидата ровно к одной рубрике правил.
type Categorizer struct {
	categories map[string]string
}

// NewCategorizer строит индекс категорий по именам источников.
func NewCategorizer(sources []domain.SourceConfig) *Categorizer {
	categories := make(map[string]string, len(sources))
	for _, src := range sources {
		if src.Name == "" {
			continue
		}
		if _, ok := categories[src.Name]; ok {
			continue
		}
		categories[src.Name] = src.Category
	}
	return &Categorizer{categories: categories}
}

// SourceCategory возвращает категорию источника кандидата или пустую строку.
func (c *Categorizer) SourceCategory(cand domain.Candidate) string {
	if category := c.categories[cand.Source]; category != "" {
		return category
	}
	if cand.CategoryHint != "" {
		return cand.CategoryHint
	}
	if cand.FromDiscussion() {
		return GlobalTrendCategory
	}
	for _, name := range TaiwanTechSources {
		if cand.Source == name {
			return TaiwanTechCategory
		}
	}
	if strings.Contains(cand.Source, "TechCrunch") {
		return GlobalTrendCategory
	}
	return ""
}

// Categorize применяет правила по приоритету, первое совпадение побеждает.
func (c *Categorizer) Categorize(cand domain.Candidate) domain.Topic {
	text := cand.Text()
	if containsAny(text, RiskKeywords) {
		return domain.TopicRisk
	}
	category := strings.ToLower(c.SourceCategory(cand))
	switch {
	case containsAny(category, policyMarkers):
		return domain.TopicPolicy
	case containsAny(category, academicMarkers):
		return domain.TopicTechnology
	case containsAny(category, techNewsMarkers):
		if containsAny(text, BusinessKeywords) {
			return domain.TopicBusiness
		}
		return domain.TopicIndustry
	default:
		return domain.TopicBusiness
	}
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// Evaluate оценивает и классифицирует всех кандидатов, сохраняя исходный порядок.
func Evaluate(cands []domain.Candidate, scorer *Scorer, categorizer *Categorizer, today time.Time) []domain.ScoredCandidate {
	out := make([]domain.ScoredCandidate, 0, len(cands))
	for _, cand := range cands {
		out = append(out, domain.ScoredCandidate{
			Candidate: cand,
			Score:     scorer.Score(cand, today),
			Topic:     categorizer.Categorize(cand),
		})
	}
	return out
}
