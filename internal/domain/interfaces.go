package domain

import (
	"context"
	"errors"
	"time"
)

// ErrEditorUnavailable возвращается, когда редактор не настроен.
var ErrEditorUnavailable = errors.New("редактор недоступен")

// ErrCacheMiss возвращается кэшем, если ключа нет.
var ErrCacheMiss = errors.New("ключ не найден в кэше")

// ErrLocked возвращается, если блокировка уже занята.
var ErrLocked = errors.New("блокировка занята")

// CandidateRepo хранит кандидатов. URL уникален.
type CandidateRepo interface {
	Exists(ctx context.Context, url string) (bool, error)
	// Insert возвращает false без ошибки, если URL уже есть.
	Insert(ctx context.Context, c Candidate) (bool, error)
	// QueryRecent возвращает кандидатов с датой публикации в [today-windowDays, today].
	QueryRecent(ctx context.Context, windowDays int, now time.Time) ([]Candidate, error)
	// AttachEnrichment возвращает false, если URL не найден.
	AttachEnrichment(ctx context.Context, url string, e Enrichment) (bool, error)
	DeleteOlderThan(ctx context.Context, days int, now time.Time) (int, error)
}

// BriefingRepo сохраняет брифинги по дате.
type BriefingRepo interface {
	// SaveBriefing полностью заменяет брифинг за дату.
	SaveBriefing(ctx context.Context, b Briefing) error
	GetBriefing(ctx context.Context, date string) (Briefing, bool, error)
	ListBriefings(ctx context.Context, limit int) ([]Briefing, error)
}

// Store объединяет оба репозитория одного бэкенда.
type Store interface {
	CandidateRepo
	BriefingRepo
}

// Editor внешний редактор: ранжирование и пересказ.
type Editor interface {
	RankAndSelect(ctx context.Context, items []ScoredCandidate, k int) ([]ScoredCandidate, error)
	Summarize(ctx context.Context, item ScoredCandidate, body string) (Enrichment, error)
	DailySummary(ctx context.Context, items []BriefingItem) (DailySummary, error)
}

// ArticleFetcher загружает полный текст статьи.
type ArticleFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FeedSource выгружает сырые записи одного источника.
type FeedSource interface {
	Fetch(ctx context.Context, src SourceConfig) ([]RawItem, error)
}

// Notifier доставляет опубликованный брифинг.
type Notifier interface {
	Notify(ctx context.Context, b Briefing) error
}

// Cache используется для блокировок и простых TTL-хранилищ.
type Cache interface {
	// Once выполняет fn, если ключ ещё не задан; ключ живёт ttl после успеха.
	Once(ctx context.Context, key string, ttl time.Duration, fn func() error) error
	// Lock выполняет fn под ключом и снимает его после завершения. ErrLocked, если ключ занят.
	Lock(ctx context.Context, key string, ttl time.Duration, fn func() error) error
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
}
