package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/yu-lin0312/news-collector/internal/domain"
	"github.com/yu-lin0312/news-collector/internal/infra/metrics"
)

const defaultUserAgent = "Mozilla/5.0 (compatible; news-collector/1.0)"

// ErrNoContent возвращается, если из страницы не удалось извлечь текст.
var ErrNoContent = errors.New("страница не содержит текста")

// HTTPFetcher загружает страницу и извлекает основной текст статьи.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	maxChars  int
}

var _ domain.ArticleFetcher = (*HTTPFetcher)(nil)

// New создаёт загрузчик. maxChars ограничивает длину возвращаемого текста.
func New(timeout time.Duration, maxChars int) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if maxChars <= 0 {
		maxChars = 12000
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
		maxBytes:  5 << 20,
		maxChars:  maxChars,
	}
}

// Fetch реализует domain.ArticleFetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, link string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(link))
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("некорректный url %q", link)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("fetcher", "get", parsed.Host, start, err)
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		err = fmt.Errorf("unexpected status %d", resp.StatusCode)
		metrics.ObserveNetworkRequest("fetcher", "get", parsed.Host, start, err)
		return "", err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	metrics.ObserveNetworkRequest("fetcher", "get", parsed.Host, start, err)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	text := f.extract(body, parsed)
	if text == "" {
		return "", ErrNoContent
	}
	return clip(text, f.maxChars), nil
}

// extract пробует readability, а при неудаче собирает текст абзацев через goquery.
func (f *HTTPFetcher) extract(body []byte, pageURL *url.URL) string {
	if article, err := readability.FromReader(bytes.NewReader(body), pageURL); err == nil {
		if text := normalizeSpace(article.TextContent); text != "" {
			return text
		}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript, nav, header, footer").Remove()
	var parts []string
	doc.Find("article p, main p, p").Each(func(_ int, s *goquery.Selection) {
		if text := normalizeSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		return normalizeSpace(doc.Find("body").Text())
	}
	return strings.Join(parts, "\n")
}

func normalizeSpace(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func clip(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
