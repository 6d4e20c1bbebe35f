package schedule

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/rs/zerolog"

	"github.com/yu-lin0312/news-collector/internal/domain"
)

// Task периодическая задача с cron-выражением.
type Task struct {
	Name string
	Cron string
	Run  func(ctx context.Context, now time.Time) error
}

type entry struct {
	task Task
	expr *cronexpr.Expression
	next time.Time
}

// Service запускает задачи по расписанию. Срабатывание одной даты выполняется
// один раз даже при нескольких репликах, если задан общий кэш.
type Service struct {
	entries []*entry
	once    domain.Cache
	loc     *time.Location
	log     zerolog.Logger
}

// NewService разбирает cron-выражения. now задаёт точку отсчёта первого срабатывания.
func NewService(tasks []Task, once domain.Cache, loc *time.Location, now time.Time, logger zerolog.Logger) (*Service, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Service{once: once, loc: loc, log: logger.With().Str("component", "scheduler").Logger()}
	for _, task := range tasks {
		if task.Cron == "" {
			continue
		}
		expr, err := cronexpr.Parse(task.Cron)
		if err != nil {
			return nil, fmt.Errorf("расписание %s: %w", task.Name, err)
		}
		s.entries = append(s.entries, &entry{task: task, expr: expr, next: expr.Next(now.In(loc))})
	}
	return s, nil
}

// Next возвращает ближайшее срабатывание задачи name.
func (s *Service) Next(name string) (time.Time, bool) {
	for _, e := range s.entries {
		if e.task.Name == name {
			return e.next, true
		}
	}
	return time.Time{}, false
}

// Tick выполняет наступившие задачи и возвращает их количество.
func (s *Service) Tick(ctx context.Context, now time.Time) int {
	now = now.In(s.loc)
	fired := 0
	for _, e := range s.entries {
		if e.next.IsZero() || e.next.After(now) {
			continue
		}
		due := e.next
		e.next = e.expr.Next(now)
		fired++
		s.fire(ctx, e.task, due, now)
	}
	return fired
}

func (s *Service) fire(ctx context.Context, task Task, due, now time.Time) {
	logger := s.log.With().Str("task", task.Name).Time("due", due).Logger()
	run := func() error {
		logger.Info().Msg("scheduler: запуск задачи")
		return task.Run(ctx, now)
	}
	var err error
	if s.once != nil {
		key := "schedule:" + task.Name + ":" + strconv.FormatInt(due.Unix(), 10)
		err = s.once.Once(ctx, key, 24*time.Hour, run)
	} else {
		err = run()
	}
	if err != nil {
		logger.Error().Err(err).Msg("scheduler: задача завершилась ошибкой")
	}
}

// Run проверяет расписание раз в interval до отмены контекста.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}
