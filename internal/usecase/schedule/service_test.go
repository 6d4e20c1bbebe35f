package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/yu-lin0312/news-collector/internal/infra/cache"
)

func TestTickFiresDueTasks(t *testing.T) {
	start := time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)
	var runs []time.Time
	tasks := []Task{{
		Name: "briefing",
		Cron: "30 7 * * *",
		Run: func(_ context.Context, now time.Time) error {
			runs = append(runs, now)
			return nil
		},
	}}
	s, err := NewService(tasks, nil, time.UTC, start, zerolog.Nop())
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	next, ok := s.Next("briefing")
	if !ok || !next.Equal(time.Date(2025, 3, 10, 7, 30, 0, 0, time.UTC)) {
		t.Fatalf("неверное ближайшее срабатывание: %v", next)
	}
	if n := s.Tick(context.Background(), start.Add(10*time.Minute)); n != 0 {
		t.Fatalf("рано для запуска, запущено %d", n)
	}
	if n := s.Tick(context.Background(), start.Add(31*time.Minute)); n != 1 {
		t.Fatalf("ожидали один запуск, получили %d", n)
	}
	if n := s.Tick(context.Background(), start.Add(40*time.Minute)); n != 0 {
		t.Fatalf("повторный запуск в тот же день: %d", n)
	}
	next, _ = s.Next("briefing")
	if !next.Equal(time.Date(2025, 3, 11, 7, 30, 0, 0, time.UTC)) {
		t.Fatalf("следующий запуск должен быть завтра: %v", next)
	}
	if len(runs) != 1 {
		t.Fatalf("ожидали один вызов, получили %d", len(runs))
	}
}

func TestTickUsesLocation(t *testing.T) {
	taipei := time.FixedZone("UTC+8", 8*3600)
	start := time.Date(2025, 3, 9, 22, 0, 0, 0, time.UTC)
	s, err := NewService([]Task{{Name: "briefing", Cron: "30 7 * * *", Run: func(context.Context, time.Time) error { return nil }}}, nil, taipei, start, zerolog.Nop())
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	next, _ := s.Next("briefing")
	if !next.Equal(time.Date(2025, 3, 9, 23, 30, 0, 0, time.UTC)) {
		t.Fatalf("ожидали 07:30 по UTC+8, получили %v", next.UTC())
	}
}

func TestSharedCacheRunsOncePerSlot(t *testing.T) {
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	shared := cache.NewMemory()
	calls := 0
	tasks := []Task{{Name: "ingest", Cron: "0 */2 * * *", Run: func(context.Context, time.Time) error {
		calls++
		return nil
	}}}
	a, err := NewService(tasks, shared, time.UTC, start, zerolog.Nop())
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	b, _ := NewService(tasks, shared, time.UTC, start, zerolog.Nop())
	at := start.Add(2*time.Hour + time.Minute)
	a.Tick(context.Background(), at)
	b.Tick(context.Background(), at)
	if calls != 1 {
		t.Fatalf("две реплики должны выполнить задачу один раз, выполнено %d", calls)
	}
}

func TestFailedTaskRetriesOnOtherReplica(t *testing.T) {
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	shared := cache.NewMemory()
	calls := 0
	tasks := []Task{{Name: "retention", Cron: "0 3 * * *", Run: func(context.Context, time.Time) error {
		calls++
		if calls == 1 {
			return errors.New("db down")
		}
		return nil
	}}}
	a, _ := NewService(tasks, shared, time.UTC, start, zerolog.Nop())
	b, _ := NewService(tasks, shared, time.UTC, start, zerolog.Nop())
	at := start.Add(3*time.Hour + time.Minute)
	a.Tick(context.Background(), at)
	b.Tick(context.Background(), at)
	if calls != 2 {
		t.Fatalf("после ошибки слот должен освободиться, вызовов %d", calls)
	}
}

func TestInvalidCron(t *testing.T) {
	if _, err := NewService([]Task{{Name: "bad", Cron: "not a cron"}}, nil, time.UTC, time.Now(), zerolog.Nop()); err == nil {
		t.Fatalf("ожидали ошибку разбора")
	}
}
