package briefing

import (
	"testing"

	"github.com/yu-lin0312/news-collector/internal/domain"
)

func scored(title string, score float64, topic domain.Topic) domain.ScoredCandidate {
	return domain.ScoredCandidate{
		Candidate: domain.Candidate{Title: title, URL: "https://example.com/" + title, Source: "S", Summary: "аннотация " + title},
		Score:     score,
		Topic:     topic,
	}
}

func TestQuotaAssemblerHonorsQuotas(t *testing.T) {
	var items []domain.ScoredCandidate
	for i := 0; i < 6; i++ {
		items = append(items, scored("ind"+string(rune('a'+i)), float64(30-i), domain.TopicIndustry))
	}
	items = append(items,
		scored("risk", 1, domain.TopicRisk),
		scored("pol", 2, domain.TopicPolicy),
	)
	got := NewQuota(RuleBasedQuotas, 5).Assemble(items)
	if len(got) != 5 {
		t.Fatalf("ожидали 5 позиций, получили %d", len(got))
	}
	titles := map[string]bool{}
	for i, it := range got {
		titles[it.Title] = true
		if it.Rank != i+1 {
			t.Fatalf("ранги должны идти подряд: %+v", got)
		}
		if i > 0 && got[i-1].Score < it.Score {
			t.Fatalf("позиции должны идти по убыванию оценки: %+v", got)
		}
	}
	if !titles["pol"] || !titles["risk"] {
		t.Fatalf("квоты рубрик должны обеспечить Policy и Risk: %+v", got)
	}
}

func TestQuotaAssemblerFillsByScore(t *testing.T) {
	var items []domain.ScoredCandidate
	for i := 0; i < 12; i++ {
		items = append(items, scored("biz"+string(rune('a'+i)), float64(i), domain.TopicBusiness))
	}
	got := NewQuota(RuleBasedQuotas, 10).Assemble(items)
	if len(got) != 10 || got[0].Score != 11 || got[9].Score != 2 {
		t.Fatalf("ожидали 10 лучших по оценке: %+v", got)
	}
}

func TestBalancedAssemblerUnknownTopic(t *testing.T) {
	items := []domain.ScoredCandidate{
		scored("unknown", 3, "Gossip"),
		scored("tools", 2, domain.TopicTools),
		scored("breaking", 1, domain.TopicBreaking),
	}
	got := NewBalanced(domain.EditorTopics, 2).Assemble(items)
	if len(got) != 2 || got[0].Title != "unknown" || got[1].Title != "tools" {
		t.Fatalf("неизвестная рубрика должна занять корзину Breaking: %+v", got)
	}
	if got[0].Topic != "Gossip" {
		t.Fatalf("рубрика материала должна сохраниться: %q", got[0].Topic)
	}
}

func TestAssemblerSummaryPrefersEnrichment(t *testing.T) {
	it := scored("a", 1, domain.TopicTools)
	it.Candidate.Enrichment = domain.Enrichment{Summary: "пересказ", Topic: domain.TopicTools}
	got := NewBalanced(domain.EditorTopics, 10).Assemble([]domain.ScoredCandidate{it, scored("b", 0, domain.TopicTools)})
	if got[0].Summary != "пересказ" || got[1].Summary != "аннотация b" {
		t.Fatalf("неверные аннотации: %+v", got)
	}
}

func TestAssemblerIdempotent(t *testing.T) {
	items := []domain.ScoredCandidate{
		scored("a", 5, domain.TopicRisk),
		scored("b", 5, domain.TopicPolicy),
		scored("c", 7, domain.TopicIndustry),
		scored("d", 1, domain.TopicBusiness),
	}
	a := NewQuota(RuleBasedQuotas, 3)
	first := a.Assemble(items)
	second := a.Assemble(items)
	if len(first) != len(second) {
		t.Fatalf("результаты различаются по длине")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("позиция %d различается: %+v vs %+v", i, first[i], second[i])
		}
	}
	if len(NewQuota(RuleBasedQuotas, 3).Assemble(nil)) != 0 {
		t.Fatalf("пустой вход даёт пустой брифинг")
	}
}

func TestBalancedSingleTopicFillsAvailable(t *testing.T) {
	var items []domain.ScoredCandidate
	for i := 0; i < 5; i++ {
		it := scored("ind"+string(rune('a'+i)), 10, domain.TopicIndustry)
		it.Candidate.Source = "S" + string(rune('a'+i))
		items = append(items, it)
	}
	got := NewBalanced(domain.RuleBasedTopics, 10).Assemble(items)
	if len(got) != 5 {
		t.Fatalf("ожидали 5 позиций, получили %d", len(got))
	}
	for i, it := range got {
		if it.Rank != i+1 || it.Title != items[i].Candidate.Title {
			t.Fatalf("при равных оценках порядок входа должен сохраниться: %+v", got)
		}
	}
}
