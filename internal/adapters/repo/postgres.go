package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yu-lin0312/news-collector/internal/domain"
	"github.com/yu-lin0312/news-collector/internal/infra/metrics"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var candidateColumns = []string{
	"title", "url", "source", "category_hint", "published_at", "summary",
	"discussion_url", "image_url", "ai_summary", "ai_topic", "created_at",
}

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

var _ domain.Store = (*Postgres)(nil)

// NewPostgres создаёт адаптер БД. loc задаёт календарь для дат публикации.
func NewPostgres(pool *pgxpool.Pool, loc *time.Location) *Postgres {
	if loc == nil {
		loc = time.UTC
	}
	return &Postgres{pool: pool, loc: loc}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// Exists реализует domain.CandidateRepo.
func (p *Postgres) Exists(ctx context.Context, url string) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	var exists bool
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM candidates WHERE url = $1)`, url).Scan(&exists)
	metrics.ObserveNetworkRequest("postgres", "candidates_exists", "candidates", start, err)
	if err != nil {
		return false, fmt.Errorf("проверка кандидата: %w", err)
	}
	return exists, nil
}

// Insert реализует domain.CandidateRepo. Конфликт по url не меняет существующую запись.
func (p *Postgres) Insert(ctx context.Context, c domain.Candidate) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	query, args, err := psql.Insert("candidates").
		Columns(candidateColumns...).
		Values(c.Title, c.URL, c.Source, c.CategoryHint, p.dateValue(c.PublishedAt), c.Summary,
			c.DiscussionURL, c.ImageURL, c.Enrichment.Summary, string(c.Enrichment.Topic), createdAt).
		Suffix("ON CONFLICT (url) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("сборка запроса: %w", err)
	}
	start := time.Now()
	tag, err := p.pool.Exec(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", "candidates_insert", "candidates", start, err)
	if err != nil {
		return false, fmt.Errorf("вставка кандидата: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// QueryRecent реализует domain.CandidateRepo. Строки без даты публикации включаются.
func (p *Postgres) QueryRecent(ctx context.Context, windowDays int, now time.Time) ([]domain.Candidate, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	from, to := Window(windowDays, now, p.loc)
	query, args, err := psql.Select(candidateColumns...).
		From("candidates").
		Where(sq.Or{
			sq.Expr("published_at BETWEEN ?::date AND ?::date", from, to),
			sq.Eq{"published_at": nil},
		}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("сборка запроса: %w", err)
	}
	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", "candidates_recent", "candidates", start, err)
	if err != nil {
		return nil, fmt.Errorf("получение кандидатов: %w", err)
	}
	defer rows.Close()

	var out []domain.Candidate
	for rows.Next() {
		var (
			c         domain.Candidate
			published *time.Time
			topic     string
		)
		if err := rows.Scan(&c.Title, &c.URL, &c.Source, &c.CategoryHint, &published, &c.Summary,
			&c.DiscussionURL, &c.ImageURL, &c.Enrichment.Summary, &topic, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("чтение кандидата: %w", err)
		}
		if published != nil {
			y, m, d := published.Date()
			c.PublishedAt = time.Date(y, m, d, 0, 0, 0, 0, p.loc)
		}
		c.Enrichment.Topic = domain.Topic(topic)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("чтение кандидатов: %w", err)
	}
	return out, nil
}

// AttachEnrichment реализует domain.CandidateRepo.
func (p *Postgres) AttachEnrichment(ctx context.Context, url string, e domain.Enrichment) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	query, args, err := psql.Update("candidates").
		Set("ai_summary", e.Summary).
		Set("ai_topic", string(e.Topic)).
		Where(sq.Eq{"url": url}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("сборка запроса: %w", err)
	}
	start := time.Now()
	tag, err := p.pool.Exec(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", "candidates_enrich", "candidates", start, err)
	if err != nil {
		return false, fmt.Errorf("обновление кандидата: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteOlderThan реализует domain.CandidateRepo.
func (p *Postgres) DeleteOlderThan(ctx context.Context, days int, now time.Time) (int, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	cutoff := domain.DateKey(now.AddDate(0, 0, -days), p.loc)
	query, args, err := psql.Delete("candidates").
		Where(sq.Expr("published_at < ?::date", cutoff)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("сборка запроса: %w", err)
	}
	start := time.Now()
	tag, err := p.pool.Exec(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", "candidates_cleanup", "candidates", start, err)
	if err != nil {
		return 0, fmt.Errorf("очистка кандидатов: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// SaveBriefing реализует domain.BriefingRepo.
func (p *Postgres) SaveBriefing(ctx context.Context, b domain.Briefing) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	items := b.Items
	if items == nil {
		items = []domain.BriefingItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	dailyJSON, err := json.Marshal(b.Daily)
	if err != nil {
		return fmt.Errorf("marshal daily: %w", err)
	}
	statsJSON, err := json.Marshal(b.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	start := time.Now()
	_, err = p.pool.Exec(ctx, `
INSERT INTO briefings (date, generated_at, method, items, daily, stats)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (date) DO UPDATE SET generated_at = EXCLUDED.generated_at, method = EXCLUDED.method, items = EXCLUDED.items, daily = EXCLUDED.daily, stats = EXCLUDED.stats
`, b.Date, b.GeneratedAt, string(b.Method), itemsJSON, dailyJSON, statsJSON)
	metrics.ObserveNetworkRequest("postgres", "briefings_upsert", "briefings", start, err)
	if err != nil {
		return fmt.Errorf("сохранение брифинга: %w", err)
	}
	return nil
}

// GetBriefing реализует domain.BriefingRepo.
func (p *Postgres) GetBriefing(ctx context.Context, date string) (domain.Briefing, bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	start := time.Now()
	row := p.pool.QueryRow(ctx, `SELECT date, generated_at, method, items, daily, stats FROM briefings WHERE date = $1`, date)
	b, err := scanBriefing(row)
	metrics.ObserveNetworkRequest("postgres", "briefings_get", "briefings", start, ignoreNoRows(err))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Briefing{}, false, nil
	}
	if err != nil {
		return domain.Briefing{}, false, fmt.Errorf("получение брифинга: %w", err)
	}
	return b, true, nil
}

// ListBriefings реализует domain.BriefingRepo, новые первыми.
func (p *Postgres) ListBriefings(ctx context.Context, limit int) ([]domain.Briefing, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	builder := psql.Select("date", "generated_at", "method", "items", "daily", "stats").
		From("briefings").
		OrderBy("date DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("сборка запроса: %w", err)
	}
	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", "briefings_list", "briefings", start, err)
	if err != nil {
		return nil, fmt.Errorf("получение брифингов: %w", err)
	}
	defer rows.Close()
	var out []domain.Briefing
	for rows.Next() {
		b, err := scanBriefing(rows)
		if err != nil {
			return nil, fmt.Errorf("чтение брифинга: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBriefing(row pgx.Row) (domain.Briefing, error) {
	var (
		b                            domain.Briefing
		method                       string
		itemsRaw, dailyRaw, statsRaw []byte
	)
	if err := row.Scan(&b.Date, &b.GeneratedAt, &method, &itemsRaw, &dailyRaw, &statsRaw); err != nil {
		return domain.Briefing{}, err
	}
	b.Method = domain.Method(method)
	b.Items = []domain.BriefingItem{}
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &b.Items); err != nil {
			return domain.Briefing{}, fmt.Errorf("decode items: %w", err)
		}
	}
	if len(dailyRaw) > 0 {
		if err := json.Unmarshal(dailyRaw, &b.Daily); err != nil {
			return domain.Briefing{}, fmt.Errorf("decode daily: %w", err)
		}
	}
	if len(statsRaw) > 0 {
		if err := json.Unmarshal(statsRaw, &b.Stats); err != nil {
			return domain.Briefing{}, fmt.Errorf("decode stats: %w", err)
		}
	}
	return b, nil
}

func (p *Postgres) dateValue(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return domain.DateKey(t, p.loc)
}

func ignoreNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}
