package feeds

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/yu-lin0312/news-collector/internal/domain"
	"github.com/yu-lin0312/news-collector/internal/infra/metrics"
)

// TypeDiscussion тип источника-обсуждения: ссылка записи ведёт на статью, guid на обсуждение.
const TypeDiscussion = "discussion"

// RSS выгружает записи из RSS/Atom лент.
type RSS struct {
	parser  *gofeed.Parser
	maxItem int
}

var _ domain.FeedSource = (*RSS)(nil)

// NewRSS создаёт адаптер. maxItems ограничивает число записей с одной ленты.
func NewRSS(timeout time.Duration, maxItems int) *RSS {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	parser.UserAgent = "news-collector/1.0"
	return &RSS{parser: parser, maxItem: maxItems}
}

// Fetch реализует domain.FeedSource.
func (r *RSS) Fetch(ctx context.Context, src domain.SourceConfig) ([]domain.RawItem, error) {
	start := time.Now()
	feed, err := r.parser.ParseURLWithContext(src.URL, ctx)
	metrics.ObserveNetworkRequest("feeds", "parse", src.Name, start, err)
	if err != nil {
		return nil, fmt.Errorf("лента %s: %w", src.Name, err)
	}
	items := feed.Items
	if r.maxItem > 0 && len(items) > r.maxItem {
		items = items[:r.maxItem]
	}
	out := make([]domain.RawItem, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		raw := toRaw(it, src)
		if raw.Title == "" || raw.URL == "" {
			continue
		}
		out = append(out, raw)
	}
	return out, nil
}

func toRaw(it *gofeed.Item, src domain.SourceConfig) domain.RawItem {
	raw := domain.RawItem{
		Title:        strings.TrimSpace(it.Title),
		URL:          strings.TrimSpace(it.Link),
		Source:       src.Name,
		CategoryHint: src.Category,
		Summary:      it.Description,
	}
	if raw.Summary == "" {
		raw.Summary = it.Content
	}
	switch {
	case it.PublishedParsed != nil:
		raw.PublishedRaw = it.PublishedParsed.Format(time.RFC3339)
	case it.UpdatedParsed != nil:
		raw.PublishedRaw = it.UpdatedParsed.Format(time.RFC3339)
	default:
		raw.PublishedRaw = it.Published
	}
	if it.Image != nil {
		raw.ImageURL = it.Image.URL
	}
	if raw.ImageURL == "" {
		for _, enc := range it.Enclosures {
			if enc != nil && strings.HasPrefix(enc.Type, "image/") {
				raw.ImageURL = enc.URL
				break
			}
		}
	}
	if src.Type == TypeDiscussion {
		raw.DiscussionURL = raw.URL
		if strings.HasPrefix(it.GUID, "http") && it.GUID != raw.URL {
			raw.DiscussionURL = it.GUID
		}
	}
	return raw
}
