package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/yu-lin0312/news-collector/internal/adapters/editor"
	"github.com/yu-lin0312/news-collector/internal/adapters/feeds"
	"github.com/yu-lin0312/news-collector/internal/adapters/fetcher"
	"github.com/yu-lin0312/news-collector/internal/adapters/notify"
	"github.com/yu-lin0312/news-collector/internal/adapters/repo"
	"github.com/yu-lin0312/news-collector/internal/domain"
	"github.com/yu-lin0312/news-collector/internal/infra/cache"
	"github.com/yu-lin0312/news-collector/internal/infra/config"
	"github.com/yu-lin0312/news-collector/internal/infra/db"
	"github.com/yu-lin0312/news-collector/internal/infra/openai"
	"github.com/yu-lin0312/news-collector/internal/infra/queue"
	"github.com/yu-lin0312/news-collector/internal/usecase/briefing"
	"github.com/yu-lin0312/news-collector/internal/usecase/ingest"
	"github.com/yu-lin0312/news-collector/internal/usecase/retention"
	"github.com/yu-lin0312/news-collector/internal/usecase/scoring"
	"github.com/yu-lin0312/news-collector/internal/usecase/selection"
)

// App собирает адаптеры по конфигурации. Общие для всех бинарников соединения живут здесь.
type App struct {
	Config config.AppConfig
	Log    zerolog.Logger
	Store  domain.Store
	Cache  domain.Cache

	redis   *redis.Client
	closers []func()
}

// New открывает хранилище и кэш.
func New(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Log: logger}
	store, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store

	if cfg.RedisAddr != "" {
		client, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = client
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.Cache = cache.NewRedis(client)
	} else {
		logger.Warn().Msg("app: REDIS_ADDR не задан, кэш и блокировки только в памяти процесса")
		a.Cache = cache.NewMemory()
	}
	return a, nil
}

// Close освобождает соединения в обратном порядке.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) openStore(ctx context.Context) (domain.Store, error) {
	cfg := a.Config
	loc := cfg.Location()
	switch strings.ToLower(cfg.Store.Backend) {
	case "postgres", "":
		if cfg.Store.PGDSN == "" {
			return nil, fmt.Errorf("app: не указан PG_DSN")
		}
		pool, err := db.Connect(ctx, cfg.Store.PGDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		return repo.NewPostgres(pool, loc), nil
	case "mongo":
		if cfg.Store.MongoURI == "" {
			return nil, fmt.Errorf("app: не указан MONGO_URI")
		}
		client, err := db.ConnectMongo(ctx, cfg.Store.MongoURI)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Disconnect(context.Background()) })
		store := repo.NewMongo(client.Database(cfg.Store.MongoDB), loc)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case "memory":
		return repo.NewMemory(loc), nil
	default:
		return nil, fmt.Errorf("app: неизвестное хранилище %q", cfg.Store.Backend)
	}
}

// Sources читает список источников. Отсутствующий файл не ошибка: работаем со встроенными таблицами.
func (a *App) Sources() []domain.SourceConfig {
	sources, err := config.LoadSources(a.Config.Fetch.SourcesFile)
	if err != nil {
		a.Log.Warn().Err(err).Msg("app: источники не загружены")
		return nil
	}
	return sources
}

// Editor выбирает бэкенд редактора. nil означает отбор только по правилам.
func (a *App) Editor(ctx context.Context) (domain.Editor, error) {
	cfg := a.Config.Editor
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		if cfg.GeminiKey == "" {
			a.Log.Warn().Msg("app: GEMINI_API_KEY не задан, редактор отключён")
			return nil, nil
		}
		client, err := editor.NewGeminiClient(ctx, cfg.GeminiKey)
		if err != nil {
			return nil, err
		}
		return editor.New(editor.NewGemini(client.Models, cfg.GeminiModel), cfg.Timeout), nil
	case "openai":
		if cfg.OpenAIKey == "" {
			a.Log.Warn().Msg("app: OPENAI_API_KEY не задан, редактор отключён")
			return nil, nil
		}
		client := openai.NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.Timeout)
		return editor.New(editor.NewOpenAI(client, cfg.OpenAIModel), cfg.Timeout), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("app: неизвестный редактор %q", cfg.Provider)
	}
}

// Notifiers включает каналы доставки, для которых заданы реквизиты.
func (a *App) Notifiers() ([]domain.Notifier, error) {
	var out []domain.Notifier
	if tg := a.Config.Telegram; tg.Token != "" && tg.ChatID != 0 {
		bot, err := notify.NewTelegramBot(tg.Token)
		if err != nil {
			return nil, err
		}
		out = append(out, notify.NewTelegram(bot, tg.ChatID))
	}
	if smtp := a.Config.SMTP; smtp.Host != "" && len(smtp.To) > 0 {
		out = append(out, notify.NewEmail(notify.EmailConfig{
			Host: smtp.Host,
			Port: smtp.Port,
			User: smtp.User,
			Pass: smtp.Pass,
			From: smtp.From,
			To:   smtp.To,
		}))
	}
	return out, nil
}

// Queue открывает очередь задач на построение брифингов.
func (a *App) Queue() (domain.GenerationQueue, error) {
	cfg := a.Config.Queues
	switch strings.ToLower(cfg.Backend) {
	case "redis", "":
		if a.redis == nil {
			return nil, fmt.Errorf("app: очередь redis требует REDIS_ADDR")
		}
		return queue.NewRedisGenerationQueue(a.redis, cfg.Key), nil
	case "rabbitmq":
		if cfg.RabbitURL == "" {
			return nil, fmt.Errorf("app: не указан адрес RabbitMQ (RABBITMQ_URL)")
		}
		q, err := queue.NewRabbitGenerationQueue(cfg.RabbitURL, cfg.Key)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = q.Close() })
		return q, nil
	default:
		return nil, fmt.Errorf("app: неизвестная очередь %q", cfg.Backend)
	}
}

// BriefingService собирает сервис брифингов.
func (a *App) BriefingService(ctx context.Context) (*briefing.Service, error) {
	ed, err := a.Editor(ctx)
	if err != nil {
		return nil, err
	}
	notifiers, err := a.Notifiers()
	if err != nil {
		return nil, err
	}
	cfg := a.Config
	loc := cfg.Location()
	sources := a.Sources()
	deps := briefing.Deps{
		Candidates:  a.Store,
		Briefings:   a.Store,
		Editor:      ed,
		Fetcher:     fetcher.New(cfg.Fetch.Timeout, cfg.Fetch.MaxChars),
		Cache:       a.Cache,
		Notifiers:   notifiers,
		Scorer:      scoring.NewScorer(sourceWeights(sources), loc),
		Categorizer: scoring.NewCategorizer(sources),
		Selector:    selection.New(a.selectionParams()),
	}
	opts := briefing.DefaultOptions()
	opts.WindowDays = cfg.Briefing.WindowDays
	opts.RuleWindowDays = cfg.Briefing.RuleWindowDays
	opts.BriefingSize = cfg.Briefing.Size
	opts.EditorPick = cfg.Briefing.EditorPick
	opts.MaxEnriched = cfg.Briefing.MaxEnriched
	opts.ItemTimeout = cfg.Briefing.ItemTimeout
	opts.Location = loc
	return briefing.NewService(deps, opts, a.Log), nil
}

// IngestService собирает сервис сбора кандидатов.
func (a *App) IngestService() *ingest.Service {
	rss := feeds.NewRSS(a.Config.Fetch.FeedTimeout, a.Config.Fetch.FeedItems)
	return ingest.NewService(a.Store, rss, a.Config.Location(), a.Log)
}

// Retention собирает очистку устаревших кандидатов.
func (a *App) Retention() *retention.Cleaner {
	return retention.New(a.Store, a.Config.Briefing.RetentionDays, a.Log)
}

func (a *App) selectionParams() selection.Params {
	s := a.Config.Selection
	p := selection.DefaultParams()
	if s.PoolSize > 0 {
		p.PoolSize = s.PoolSize
	}
	if s.PerTopicGuarantee >= 0 {
		p.PerTopicGuarantee = s.PerTopicGuarantee
	}
	if s.MaxPerSource > 0 {
		p.MaxPerSource = s.MaxPerSource
	}
	if s.SimilarityThreshold > 0 {
		p.SimilarityThreshold = s.SimilarityThreshold
	}
	if s.DiscussionFloor >= 0 {
		p.DiscussionFloor = s.DiscussionFloor
	}
	if s.AggregatorHost != "" {
		p.AggregatorHost = s.AggregatorHost
	}
	if s.MaxAggregator > 0 {
		p.MaxAggregator = s.MaxAggregator
	}
	if s.DesperationThreshold >= 0 {
		p.DesperationThreshold = s.DesperationThreshold
	}
	return p
}

func sourceWeights(sources []domain.SourceConfig) map[string]int {
	weights := make(map[string]int, len(sources))
	for _, src := range sources {
		if src.Weight > 0 {
			weights[src.Name] = src.Weight
		}
	}
	return weights
}
