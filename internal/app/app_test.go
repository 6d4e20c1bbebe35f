package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yu-lin0312/news-collector/internal/adapters/repo"
	"github.com/yu-lin0312/news-collector/internal/infra/cache"
	"github.com/yu-lin0312/news-collector/internal/infra/config"
)

func memoryConfig(t *testing.T) config.AppConfig {
	t.Helper()
	var cfg config.AppConfig
	cfg.TZ = "Asia/Taipei"
	cfg.Store.Backend = "memory"
	cfg.Editor.Provider = "none"
	cfg.Queues.Backend = "redis"
	cfg.Queues.Key = "briefing_jobs"
	cfg.Fetch.SourcesFile = filepath.Join(t.TempDir(), "sources.yaml")
	return cfg
}

func TestNewMemoryApp(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(t), zerolog.Nop())
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	defer a.Close()
	if _, ok := a.Store.(*repo.Memory); !ok {
		t.Fatalf("ожидали хранилище в памяти, получили %T", a.Store)
	}
	if _, ok := a.Cache.(*cache.MemoryCache); !ok {
		t.Fatalf("без REDIS_ADDR ожидали кэш в памяти, получили %T", a.Cache)
	}
	if _, err := a.Queue(); err == nil {
		t.Fatalf("очередь redis без REDIS_ADDR должна вернуть ошибку")
	}
	ed, err := a.Editor(context.Background())
	if err != nil || ed != nil {
		t.Fatalf("редактор none должен быть nil: %v %v", ed, err)
	}
	notifiers, err := a.Notifiers()
	if err != nil || len(notifiers) != 0 {
		t.Fatalf("без реквизитов уведомлений быть не должно: %d %v", len(notifiers), err)
	}
	if svc, err := a.BriefingService(context.Background()); err != nil || svc == nil {
		t.Fatalf("сервис брифингов не собран: %v", err)
	}
	if a.IngestService() == nil || a.Retention() == nil {
		t.Fatalf("сервисы сбора и очистки не собраны")
	}
}

func TestUnknownBackends(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Store.Backend = "sqlite"
	if _, err := New(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatalf("ожидали ошибку для неизвестного хранилища")
	}

	cfg = memoryConfig(t)
	cfg.Store.Backend = "postgres"
	if _, err := New(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatalf("ожидали ошибку без PG_DSN")
	}

	cfg = memoryConfig(t)
	cfg.Editor.Provider = "claude"
	cfg.Queues.Backend = "kafka"
	a, err := New(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	defer a.Close()
	if _, err := a.Editor(context.Background()); err == nil {
		t.Fatalf("ожидали ошибку для неизвестного редактора")
	}
	if _, err := a.Queue(); err == nil {
		t.Fatalf("ожидали ошибку для неизвестной очереди")
	}
}

func TestEditorWithoutKeyDisabled(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Editor.Provider = "gemini"
	a, err := New(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	defer a.Close()
	ed, err := a.Editor(context.Background())
	if err != nil || ed != nil {
		t.Fatalf("без ключа редактор должен быть отключён: %v %v", ed, err)
	}
}

func TestSourcesAndWeights(t *testing.T) {
	cfg := memoryConfig(t)
	data := "sources:\n  - {name: Nature, url: https://nature.com/rss, weight: 12}\n  - {name: Blog, url: https://blog.example/rss}\n"
	if err := os.WriteFile(cfg.Fetch.SourcesFile, []byte(data), 0o600); err != nil {
		t.Fatalf("запись источников: %v", err)
	}
	a := &App{Config: cfg, Log: zerolog.Nop()}
	sources := a.Sources()
	if len(sources) != 2 {
		t.Fatalf("ожидали 2 источника, получили %d", len(sources))
	}
	weights := sourceWeights(sources)
	if weights["Nature"] != 12 {
		t.Fatalf("ожидали вес 12, получили %d", weights["Nature"])
	}
	if _, ok := weights["Blog"]; ok {
		t.Fatalf("источник без веса не должен переопределять таблицу")
	}
}

func TestSelectionParams(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Selection.PoolSize = 30
	cfg.Selection.MaxPerSource = 2
	cfg.Selection.AggregatorHost = "agg.example"
	a := &App{Config: cfg}
	p := a.selectionParams()
	if p.PoolSize != 30 || p.MaxPerSource != 2 || p.AggregatorHost != "agg.example" {
		t.Fatalf("неверные параметры: %+v", p)
	}
	if p.SimilarityThreshold != 0.85 || p.MaxAggregator != 4 {
		t.Fatalf("незаданные параметры должны остаться по умолчанию: %+v", p)
	}
}
