package repo

import (
	"context"
	"testing"
	"time"

	"github.com/yu-lin0312/news-collector/internal/domain"
)

var contractNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// runStoreContract проверяет поведение, общее для всех бэкендов.
func runStoreContract(t *testing.T, store domain.Store) {
	t.Helper()
	ctx := context.Background()

	fresh := domain.Candidate{Title: "Свежая", URL: "https://example.com/fresh", Source: "Nature", PublishedAt: contractNow}
	old := domain.Candidate{Title: "Старая", URL: "https://example.com/old", Source: "Nature", PublishedAt: contractNow.AddDate(0, 0, -40)}
	undated := domain.Candidate{Title: "Без даты", URL: "https://example.com/undated", Source: "Blog"}
	edge := domain.Candidate{Title: "Край окна", URL: "https://example.com/edge", Source: "Blog", PublishedAt: contractNow.AddDate(0, 0, -7)}
	outside := domain.Candidate{Title: "За окном", URL: "https://example.com/outside", Source: "Blog", PublishedAt: contractNow.AddDate(0, 0, -8)}

	for _, c := range []domain.Candidate{fresh, old, undated, edge, outside} {
		ok, err := store.Insert(ctx, c)
		if err != nil {
			t.Fatalf("вставка %s: %v", c.URL, err)
		}
		if !ok {
			t.Fatalf("первая вставка %s должна вернуть true", c.URL)
		}
	}

	exists, err := store.Exists(ctx, fresh.URL)
	if err != nil || !exists {
		t.Fatalf("ожидали, что кандидат существует: %v %v", exists, err)
	}
	exists, err = store.Exists(ctx, "https://example.com/missing")
	if err != nil || exists {
		t.Fatalf("ожидали отсутствие кандидата: %v %v", exists, err)
	}

	dup := fresh
	dup.Title = "Другой заголовок"
	ok, err := store.Insert(ctx, dup)
	if err != nil {
		t.Fatalf("повторная вставка не должна быть ошибкой: %v", err)
	}
	if ok {
		t.Fatalf("повторная вставка должна вернуть false")
	}

	recent, err := store.QueryRecent(ctx, 7, contractNow)
	if err != nil {
		t.Fatalf("QueryRecent: %v", err)
	}
	got := map[string]domain.Candidate{}
	for _, c := range recent {
		got[c.URL] = c
	}
	for _, url := range []string{fresh.URL, undated.URL, edge.URL} {
		if _, ok := got[url]; !ok {
			t.Fatalf("ожидали %s в окне", url)
		}
	}
	for _, url := range []string{old.URL, outside.URL} {
		if _, ok := got[url]; ok {
			t.Fatalf("%s вне окна", url)
		}
	}
	if got[fresh.URL].Title != fresh.Title {
		t.Fatalf("первая запись должна сохраниться, получили %q", got[fresh.URL].Title)
	}
	if domain.DateKey(got[fresh.URL].PublishedAt, time.UTC) != "2025-03-10" {
		t.Fatalf("дата публикации искажена: %v", got[fresh.URL].PublishedAt)
	}
	if !got[undated.URL].PublishedAt.IsZero() {
		t.Fatalf("кандидат без даты должен вернуться с нулевой датой")
	}

	enrichment := domain.Enrichment{Summary: "Кратко", Topic: domain.TopicResearch}
	ok, err = store.AttachEnrichment(ctx, fresh.URL, enrichment)
	if err != nil || !ok {
		t.Fatalf("обогащение существующего: %v %v", ok, err)
	}
	ok, err = store.AttachEnrichment(ctx, fresh.URL, enrichment)
	if err != nil || !ok {
		t.Fatalf("повторное обогащение должно быть идемпотентным: %v %v", ok, err)
	}
	ok, err = store.AttachEnrichment(ctx, "https://example.com/missing", enrichment)
	if err != nil || ok {
		t.Fatalf("обогащение отсутствующего должно вернуть false: %v %v", ok, err)
	}
	recent, _ = store.QueryRecent(ctx, 7, contractNow)
	for _, c := range recent {
		if c.URL == fresh.URL && c.Enrichment != enrichment {
			t.Fatalf("обогащение не сохранилось: %+v", c.Enrichment)
		}
	}

	briefing := domain.Briefing{
		Date:        "2025-03-10",
		GeneratedAt: contractNow,
		Method:      domain.MethodRuleBased,
		Items:       []domain.BriefingItem{{Rank: 1, Title: "Свежая", URL: fresh.URL, Source: "Nature", Topic: domain.TopicTechnology, Score: 25, Summary: "s"}},
	}
	if err := store.SaveBriefing(ctx, briefing); err != nil {
		t.Fatalf("SaveBriefing: %v", err)
	}
	briefing.Method = domain.MethodDeepAnalysis
	briefing.Items = append(briefing.Items, domain.BriefingItem{Rank: 2, Title: "Ещё", URL: "u2", Topic: "Unknown", Score: 1})
	if err := store.SaveBriefing(ctx, briefing); err != nil {
		t.Fatalf("SaveBriefing повторно: %v", err)
	}
	loaded, found, err := store.GetBriefing(ctx, "2025-03-10")
	if err != nil || !found {
		t.Fatalf("GetBriefing: %v %v", found, err)
	}
	if loaded.Method != domain.MethodDeepAnalysis || len(loaded.Items) != 2 {
		t.Fatalf("брифинг должен быть заменён целиком: %+v", loaded)
	}
	if loaded.Items[1].Topic != "Unknown" {
		t.Fatalf("неизвестная рубрика должна сохраниться как есть")
	}
	_, found, err = store.GetBriefing(ctx, "2000-01-01")
	if err != nil || found {
		t.Fatalf("ожидали отсутствие брифинга: %v %v", found, err)
	}
	if err := store.SaveBriefing(ctx, domain.Briefing{Date: "2025-03-09", GeneratedAt: contractNow, Method: domain.MethodRuleBased}); err != nil {
		t.Fatalf("SaveBriefing пустого: %v", err)
	}
	list, err := store.ListBriefings(ctx, 10)
	if err != nil || len(list) != 2 || list[0].Date != "2025-03-10" {
		t.Fatalf("ListBriefings: %+v %v", list, err)
	}

	removed, err := store.DeleteOlderThan(ctx, 30, contractNow)
	if err != nil {
		t.Fatalf("DeleteOlderThan: %v", err)
	}
	if removed != 1 {
		t.Fatalf("ожидали удаление одной старой записи, удалено %d", removed)
	}
	if exists, _ := store.Exists(ctx, old.URL); exists {
		t.Fatalf("старая запись должна быть удалена")
	}
	if exists, _ := store.Exists(ctx, undated.URL); !exists {
		t.Fatalf("запись без даты не удаляется по сроку")
	}
	if _, found, _ := store.GetBriefing(ctx, "2025-03-10"); !found {
		t.Fatalf("очистка не должна трогать брифинги")
	}
}
