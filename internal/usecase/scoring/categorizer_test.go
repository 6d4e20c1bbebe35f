package scoring

import (
	"testing"
	"time"

	"github.com/yu-lin0312/news-collector/internal/domain"
)

func TestCategorize(t *testing.T) {
	cat := NewCategorizer([]domain.SourceConfig{
		{Name: "Whitehouse", Category: "政府政策"},
		{Name: "Nature", Category: "學術研究"},
		{Name: "iThome", Category: "台灣科技新聞"},
		{Name: "Blog", Category: "個人"},
	})
	cases := []struct {
		name string
		cand domain.Candidate
		want domain.Topic
	}{
		{"риск побеждает политику", domain.Candidate{Source: "Whitehouse", Title: "Security memo"}, domain.TopicRisk},
		{"политика", domain.Candidate{Source: "Whitehouse", Title: "AI memo"}, domain.TopicPolicy},
		{"наука", domain.Candidate{Source: "Nature", Title: "Protein folding"}, domain.TopicTechnology},
		{"техно-новости с деньгами", domain.Candidate{Source: "iThome", Title: "新創完成融資"}, domain.TopicBusiness},
		{"техно-новости", domain.Candidate{Source: "iThome", Title: "新功能上線"}, domain.TopicIndustry},
		{"неизвестная категория", domain.Candidate{Source: "Blog", Title: "мысли"}, domain.TopicBusiness},
		{"нет конфига", domain.Candidate{Source: "Somewhere", Title: "news"}, domain.TopicBusiness},
		{"обсуждение", domain.Candidate{Source: "GitHub", Title: "agent framework", DiscussionURL: "https://hn/1"}, domain.TopicIndustry},
		{"известное тайваньское издание", domain.Candidate{Source: "科技島", Title: "AI 晶片"}, domain.TopicIndustry},
		{"TechCrunch по умолчанию", domain.Candidate{Source: "TechCrunch Startups", Title: "raises revenue"}, domain.TopicBusiness},
		{"подсказка категории", domain.Candidate{Source: "Gov", CategoryHint: "policy", Title: "x"}, domain.TopicPolicy},
	}
	for _, tc := range cases {
		got := cat.Categorize(tc.cand)
		if got != tc.want {
			t.Fatalf("%s: ожидали %s, получили %s", tc.name, tc.want, got)
		}
		if again := cat.Categorize(tc.cand); again != got {
			t.Fatalf("%s: повторный вызов дал %s", tc.name, again)
		}
	}
}

func TestCategorizeIsTotal(t *testing.T) {
	cat := NewCategorizer(nil)
	allowed := map[domain.Topic]bool{}
	for _, topic := range domain.RuleBasedTopics {
		allowed[topic] = true
	}
	inputs := []domain.Candidate{{}, {Title: "risk"}, {Source: "TechCrunch"}, {DiscussionURL: "x"}}
	for _, in := range inputs {
		if topic := cat.Categorize(in); !allowed[topic] {
			t.Fatalf("неожиданная рубрика %q", topic)
		}
	}
}

func TestEvaluateKeepsOrder(t *testing.T) {
	cands := []domain.Candidate{
		{URL: "a", Title: "a", Source: "Nature", PublishedAt: testToday},
		{URL: "b", Title: "b", Source: "Blog"},
	}
	out := Evaluate(cands, NewScorer(nil, time.UTC), NewCategorizer(nil), testToday)
	if len(out) != 2 || out[0].Candidate.URL != "a" || out[1].Candidate.URL != "b" {
		t.Fatalf("порядок нарушен: %+v", out)
	}
	if out[0].Score != 25 {
		t.Fatalf("ожидали 10*1.5+10, получили %v", out[0].Score)
	}
}
