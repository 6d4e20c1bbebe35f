package main

import (
	"flag"

	"github.com/yu-lin0312/news-collector/internal/infra/config"
	"github.com/yu-lin0312/news-collector/internal/infra/db"
	applog "github.com/yu-lin0312/news-collector/internal/infra/log"
)

func main() {
	var (
		direction string
		steps     int
	)
	flag.StringVar(&direction, "direction", "up", "up или down")
	flag.IntVar(&steps, "steps", 0, "Количество шагов, 0 применяет все")
	flag.Parse()

	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if cfg.Store.PGDSN == "" {
		logger.Fatal().Msg("migrate: не указан PG_DSN")
	}
	if err := db.Migrate(cfg.Store.PGDSN, direction, steps); err != nil {
		logger.Fatal().Err(err).Str("direction", direction).Msg("migrate: миграция не удалась")
	}
	logger.Info().Str("direction", direction).Int("steps", steps).Msg("migrate: готово")
}
