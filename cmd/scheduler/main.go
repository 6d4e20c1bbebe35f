package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yu-lin0312/news-collector/internal/app"
	"github.com/yu-lin0312/news-collector/internal/domain"
	"github.com/yu-lin0312/news-collector/internal/infra/config"
	applog "github.com/yu-lin0312/news-collector/internal/infra/log"
	"github.com/yu-lin0312/news-collector/internal/infra/metrics"
	"github.com/yu-lin0312/news-collector/internal/usecase/schedule"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv, cfg.LogLevel)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.Metrics)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: не удалось инициализировать зависимости")
	}
	defer a.Close()

	jobs, err := a.Queue()
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: не удалось инициализировать очередь")
	}
	ingestService := a.IngestService()
	cleaner := a.Retention()
	loc := cfg.Location()

	tasks := []schedule.Task{
		{
			Name: "ingest",
			Cron: cfg.Schedule.Ingest,
			Run: func(ctx context.Context, _ time.Time) error {
				sources, err := config.LoadSources(cfg.Fetch.SourcesFile)
				if err != nil {
					return err
				}
				ingestService.IngestSources(ctx, sources)
				return nil
			},
		},
		{
			Name: "briefing",
			Cron: cfg.Schedule.Briefing,
			Run: func(ctx context.Context, now time.Time) error {
				return jobs.Enqueue(ctx, domain.GenerationJob{
					ID:          uuid.NewString(),
					Date:        domain.DateKey(now, loc),
					Method:      cfg.Method(),
					RequestedAt: now.UTC(),
					Cause:       domain.GenerationCauseScheduled,
				})
			},
		},
		{
			Name: "retention",
			Cron: cfg.Schedule.Retention,
			Run: func(ctx context.Context, now time.Time) error {
				_, err := cleaner.Run(ctx, now)
				return err
			},
		},
	}
	scheduler, err := schedule.NewService(tasks, a.Cache, loc, time.Now(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: некорректное расписание")
	}
	for _, name := range []string{"ingest", "briefing", "retention"} {
		if next, ok := scheduler.Next(name); ok {
			logger.Info().Str("task", name).Time("next", next).Msg("scheduler: задача запланирована")
		}
	}
	scheduler.Run(ctx, 30*time.Second)
	logger.Info().Msg("scheduler: остановлен")
}
