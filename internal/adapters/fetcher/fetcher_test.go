package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

const articleHTML = `<html><head><title>Demo</title><script>var x = 1;</script></head>
<body><nav>menu</nav><article><h1>Заголовок</h1>
<p>Первый абзац статьи о новой модели, которая заметно превосходит предыдущую версию по всем тестам.</p>
<p>Второй абзац статьи с подробностями о том, как компания собирается выпускать обновления дальше.</p>
<p>Третий абзац статьи, где приводятся комментарии исследователей и независимых экспертов отрасли.</p>
</article></body></html>`

func TestFetchExtractsArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Fatalf("ожидали User-Agent")
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	text, err := New(time.Second, 0).Fetch(context.Background(), srv.URL+"/post")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if !strings.Contains(text, "Первый абзац") || strings.Contains(text, "var x") {
		t.Fatalf("неверный текст: %q", text)
	}
}

func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := New(time.Second, 0).Fetch(context.Background(), srv.URL); err == nil {
		t.Fatalf("ожидали ошибку для 403")
	}
}

func TestFetchInvalidURL(t *testing.T) {
	if _, err := New(time.Second, 0).Fetch(context.Background(), "not a url"); err == nil {
		t.Fatalf("ожидали ошибку для некорректного url")
	}
}

func TestClip(t *testing.T) {
	if got := clip("абвгд", 3); got != "абв" {
		t.Fatalf("ожидали обрезку по рунам, получили %q", got)
	}
	text := New(time.Second, 10).extract([]byte("<html><body><p>один</p><p>два</p></body></html>"), &url.URL{Scheme: "https", Host: "example.com"})
	if !strings.Contains(text, "один") {
		t.Fatalf("ожидали текст абзацев, получили %q", text)
	}
}
