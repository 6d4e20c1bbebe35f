package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yu-lin0312/news-collector/internal/domain"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Demo</title><link>https://example.com</link>
<item>
  <title>Новая модель</title>
  <link>https://example.com/a</link>
  <guid>https://news.ycombinator.com/item?id=1</guid>
  <description>&lt;p&gt;Описание&lt;/p&gt;</description>
  <pubDate>Mon, 10 Mar 2025 08:00:00 +0000</pubDate>
  <enclosure url="https://example.com/a.png" type="image/png" length="1"/>
</item>
<item>
  <title></title>
  <link>https://example.com/empty</link>
</item>
<item>
  <title>Без даты</title>
  <link>https://example.com/b</link>
</item>
</channel></rss>`

func serveFeed(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssFeed))
	}))
}

func TestFetchMapsItems(t *testing.T) {
	srv := serveFeed(t)
	defer srv.Close()

	src := domain.SourceConfig{Name: "Hacker News", URL: srv.URL, Type: TypeDiscussion, Category: "全球 AI 趨勢"}
	items, err := NewRSS(time.Second, 0).Fetch(context.Background(), src)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("ожидали 2 записи без пустого заголовка, получили %d", len(items))
	}
	first := items[0]
	if first.Source != "Hacker News" || first.CategoryHint != "全球 AI 趨勢" {
		t.Fatalf("источник не проставлен: %+v", first)
	}
	if first.PublishedRaw != "2025-03-10T08:00:00Z" {
		t.Fatalf("неверная дата: %q", first.PublishedRaw)
	}
	if first.DiscussionURL != "https://news.ycombinator.com/item?id=1" {
		t.Fatalf("неверная ссылка на обсуждение: %q", first.DiscussionURL)
	}
	if first.ImageURL != "https://example.com/a.png" {
		t.Fatalf("неверная картинка: %q", first.ImageURL)
	}
	if items[1].PublishedRaw != "" {
		t.Fatalf("запись без даты должна иметь пустую сырую дату")
	}
}

func TestFetchLimit(t *testing.T) {
	srv := serveFeed(t)
	defer srv.Close()
	items, err := NewRSS(time.Second, 1).Fetch(context.Background(), domain.SourceConfig{Name: "Blog", URL: srv.URL})
	if err != nil || len(items) != 1 || items[0].DiscussionURL != "" {
		t.Fatalf("ожидали одну запись без обсуждения: %+v %v", items, err)
	}
}

func TestFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	if _, err := NewRSS(time.Second, 0).Fetch(context.Background(), domain.SourceConfig{Name: "x", URL: srv.URL}); err == nil {
		t.Fatalf("ожидали ошибку")
	}
}
