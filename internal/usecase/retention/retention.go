package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/yu-lin0312/news-collector/internal/domain"
	"github.com/yu-lin0312/news-collector/internal/infra/metrics"
)

// Cleaner удаляет кандидатов старше срока хранения.
type Cleaner struct {
	repo domain.CandidateRepo
	days int
	log  zerolog.Logger
}

// New создаёт очистку. days меньше единицы заменяется на 30.
func New(repo domain.CandidateRepo, days int, logger zerolog.Logger) *Cleaner {
	if days < 1 {
		days = 30
	}
	return &Cleaner{repo: repo, days: days, log: logger.With().Str("component", "retention").Logger()}
}

// Run удаляет кандидатов с датой публикации раньше now-days и возвращает их число.
func (c *Cleaner) Run(ctx context.Context, now time.Time) (int, error) {
	removed, err := c.repo.DeleteOlderThan(ctx, c.days, now)
	if err != nil {
		return 0, fmt.Errorf("очистка кандидатов: %w", err)
	}
	metrics.RetentionRemoved.Add(float64(removed))
	c.log.Info().Int("removed", removed).Int("days", c.days).Msg("retention: очистка завершена")
	return removed, nil
}
