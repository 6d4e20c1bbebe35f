package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yu-lin0312/news-collector/internal/app"
	"github.com/yu-lin0312/news-collector/internal/infra/config"
	applog "github.com/yu-lin0312/news-collector/internal/infra/log"
	"github.com/yu-lin0312/news-collector/internal/infra/metrics"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv, cfg.LogLevel)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("ingester: не удалось инициализировать зависимости")
	}
	defer a.Close()

	sources, err := config.LoadSources(cfg.Fetch.SourcesFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("ingester: не удалось загрузить источники")
	}
	report := a.IngestService().IngestSources(ctx, sources)
	logger.Info().
		Int("inserted", report.Inserted).
		Int("duplicates", report.Duplicates).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("ingester: сбор завершён")
}
