package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yu-lin0312/news-collector/internal/app"
	"github.com/yu-lin0312/news-collector/internal/domain"
	"github.com/yu-lin0312/news-collector/internal/infra/config"
	applog "github.com/yu-lin0312/news-collector/internal/infra/log"
	"github.com/yu-lin0312/news-collector/internal/infra/metrics"
	"github.com/yu-lin0312/news-collector/internal/usecase/briefing"
)

func main() {
	var (
		date   string
		method string
		worker bool
	)
	flag.StringVar(&date, "date", "", "Дата брифинга YYYY-MM-DD, по умолчанию сегодня")
	flag.StringVar(&method, "method", string(domain.MethodDeepAnalysis), "rule-based или deep-ai-analysis")
	flag.BoolVar(&worker, "worker", false, "Обрабатывать задачи из очереди вместо одного прогона")
	flag.Parse()

	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv, cfg.LogLevel)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("generator: не удалось инициализировать зависимости")
	}
	defer a.Close()

	service, err := a.BriefingService(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("generator: не удалось собрать сервис брифингов")
	}

	if worker {
		metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.Metrics)
		jobs, err := a.Queue()
		if err != nil {
			logger.Fatal().Err(err).Msg("generator: не удалось инициализировать очередь")
		}
		logger.Info().Msg("generator: запуск обработки очереди")
		briefing.NewWorker(jobs, service, cfg.Location(), logger).Run(ctx)
		logger.Info().Msg("generator: остановлен")
		return
	}

	day := time.Now().In(cfg.Location())
	if date != "" {
		day, err = time.ParseInLocation(domain.DateLayout, date, cfg.Location())
		if err != nil {
			logger.Fatal().Err(err).Msg("generator: некорректная дата")
		}
	}
	m := domain.Method(method)
	if m != domain.MethodRuleBased && m != domain.MethodDeepAnalysis {
		logger.Fatal().Str("method", method).Msg("generator: неизвестный метод")
	}

	b, err := service.Generate(ctx, day, m)
	switch {
	case err == nil:
		logger.Info().Str("date", b.Date).Int("items", len(b.Items)).Msg("generator: брифинг сохранён")
	case errors.Is(err, briefing.ErrNoCandidates), errors.Is(err, briefing.ErrKeptPrevious):
		logger.Warn().Err(err).Msg("generator: брифинг пуст")
	default:
		logger.Error().Err(err).Msg("generator: прогон завершился ошибкой")
		a.Close()
		os.Exit(1)
	}
}
