package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yu-lin0312/news-collector/internal/domain"
	"github.com/yu-lin0312/news-collector/internal/infra/metrics"
)

// Report итог сбора.
type Report struct {
	Inserted   int
	Duplicates int
	Skipped    int
	Failed     int
}

func (r *Report) add(o Report) {
	r.Inserted += o.Inserted
	r.Duplicates += o.Duplicates
	r.Skipped += o.Skipped
	r.Failed += o.Failed
}

// Service принимает сырые записи источников и сохраняет новых кандидатов.
type Service struct {
	repo  domain.CandidateRepo
	feeds domain.FeedSource
	loc   *time.Location
	log   zerolog.Logger
	now   func() time.Time
}

// NewService создаёт сервис сбора. feeds может быть nil, если используется только Ingest.
func NewService(repo domain.CandidateRepo, feeds domain.FeedSource, loc *time.Location, logger zerolog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:  repo,
		feeds: feeds,
		loc:   loc,
		log:   logger.With().Str("component", "ingest").Logger(),
		now:   time.Now,
	}
}

// Normalize превращает сырую запись в кандидата. false, если нет заголовка или ссылки.
func (s *Service) Normalize(raw domain.RawItem) (domain.Candidate, bool) {
	title := strings.Join(strings.Fields(raw.Title), " ")
	link := strings.TrimSpace(raw.URL)
	if title == "" || link == "" {
		return domain.Candidate{}, false
	}
	now := s.now()
	return domain.Candidate{
		Title:         title,
		URL:           link,
		Source:        ResolveSource(strings.TrimSpace(raw.Source), link),
		CategoryHint:  strings.TrimSpace(raw.CategoryHint),
		PublishedAt:   NormalizeDate(raw.PublishedRaw, now, s.loc),
		Summary:       StripHTML(raw.Summary),
		DiscussionURL: strings.TrimSpace(raw.DiscussionURL),
		ImageURL:      strings.TrimSpace(raw.ImageURL),
		CreatedAt:     now.UTC(),
	}, true
}

// Ingest сохраняет записи, пропуская уже известные ссылки. Ошибка одной записи не прерывает сбор.
func (s *Service) Ingest(ctx context.Context, items []domain.RawItem) Report {
	var report Report
	for _, raw := range items {
		if ctx.Err() != nil {
			break
		}
		c, ok := s.Normalize(raw)
		if !ok {
			report.Skipped++
			continue
		}
		exists, err := s.repo.Exists(ctx, c.URL)
		if err != nil {
			s.log.Warn().Err(err).Str("url", c.URL).Msg("ingest: проверка существования не удалась, пробуем вставку")
		} else if exists {
			report.Duplicates++
			metrics.IncIngested("duplicate")
			continue
		}
		inserted, err := s.repo.Insert(ctx, c)
		switch {
		case err != nil:
			report.Failed++
			metrics.IncIngested("error")
			s.log.Error().Err(err).Str("url", c.URL).Msg("ingest: не удалось сохранить кандидата")
		case inserted:
			report.Inserted++
			metrics.IncIngested("inserted")
		default:
			report.Duplicates++
			metrics.IncIngested("duplicate")
		}
	}
	return report
}

// IngestSources обходит включённые источники. Сбой источника логируется, остальные продолжают работу.
func (s *Service) IngestSources(ctx context.Context, sources []domain.SourceConfig) Report {
	var total Report
	for _, src := range sources {
		if !src.IsEnabled() {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		items, err := s.feeds.Fetch(ctx, src)
		if err != nil {
			s.log.Error().Err(err).Str("source", src.Name).Msg("ingest: источник недоступен")
			continue
		}
		report := s.Ingest(ctx, items)
		s.log.Info().
			Str("source", src.Name).
			Int("fetched", len(items)).
			Int("inserted", report.Inserted).
			Int("duplicates", report.Duplicates).
			Int("failed", report.Failed).
			Msg("ingest: источник обработан")
		total.add(report)
	}
	return total
}
