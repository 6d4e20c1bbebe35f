package main

import (
	"context"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yu-lin0312/news-collector/internal/app"
	"github.com/yu-lin0312/news-collector/internal/infra/config"
	httpinfra "github.com/yu-lin0312/news-collector/internal/infra/http"
	applog "github.com/yu-lin0312/news-collector/internal/infra/log"
	"github.com/yu-lin0312/news-collector/internal/infra/metrics"
	"github.com/yu-lin0312/news-collector/internal/usecase/briefing"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv, cfg.LogLevel)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: не удалось инициализировать зависимости")
	}
	defer a.Close()

	jobs, err := a.Queue()
	if err != nil {
		logger.Warn().Err(err).Msg("api: очередь недоступна, перестроение отключено")
	}

	// для чтения редактор и уведомления не нужны
	reader := briefing.NewService(briefing.Deps{Candidates: a.Store, Briefings: a.Store}, briefing.Options{Location: cfg.Location()}, logger)

	srv := httpinfra.NewServer(logger.With().Str("component", "http").Logger())
	handlers := &httpinfra.BriefingHandlers{Briefings: reader, Jobs: jobs, Location: cfg.Location()}
	handlers.Mount(srv.Router)

	go func() {
		if err := srv.Start(":" + strconv.Itoa(cfg.Port)); err != nil {
			logger.Error().Err(err).Msg("api: сервер остановлен")
			stop()
		}
	}()
	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
