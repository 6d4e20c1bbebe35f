package briefing

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/yu-lin0312/news-collector/internal/domain"
)

const maxDeliveryAttempts = 3

// Generator строит брифинг за дату.
type Generator interface {
	Generate(ctx context.Context, date time.Time, method domain.Method) (domain.Briefing, error)
}

// Worker разбирает очередь задач на построение брифингов.
type Worker struct {
	queue     domain.GenerationQueue
	generator Generator
	loc       *time.Location
	log       zerolog.Logger
	backoff   time.Duration
	attempts  map[string]int
}

// NewWorker создаёт обработчик очереди.
func NewWorker(queue domain.GenerationQueue, generator Generator, loc *time.Location, logger zerolog.Logger) *Worker {
	if loc == nil {
		loc = time.UTC
	}
	return &Worker{
		queue:     queue,
		generator: generator,
		loc:       loc,
		log:       logger.With().Str("component", "briefing_worker").Logger(),
		backoff:   time.Second,
		attempts:  make(map[string]int),
	}
}

type jobOutcome int

const (
	jobOutcomeCompleted jobOutcome = iota
	jobOutcomeRetry
)

// Run читает задачи до отмены контекста.
func (w *Worker) Run(ctx context.Context) {
	for {
		job, ack, err := w.queue.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			w.log.Error().Err(err).Msg("worker: ошибка чтения очереди")
			w.sleep(ctx)
			continue
		}
		w.process(ctx, job, ack)
	}
}

func (w *Worker) process(ctx context.Context, job domain.GenerationJob, ack domain.AckFunc) {
	jobLog := w.log.With().
		Str("job_id", job.ID).
		Str("date", job.Date).
		Str("method", string(job.Method)).
		Str("cause", string(job.Cause)).
		Logger()

	outcome := w.handle(ctx, job, jobLog)
	if outcome == jobOutcomeRetry {
		w.attempts[job.ID]++
		if w.attempts[job.ID] < maxDeliveryAttempts {
			jobLog.Warn().Int("attempt", w.attempts[job.ID]).Msg("worker: задача вернётся в очередь")
			if err := ack(false); err != nil {
				jobLog.Error().Err(err).Msg("worker: не удалось вернуть задачу в очередь")
			}
			w.sleep(ctx)
			return
		}
		jobLog.Error().Msg("worker: достигнут предел попыток, задача снята")
	}
	delete(w.attempts, job.ID)
	if err := ack(true); err != nil {
		jobLog.Error().Err(err).Msg("worker: не удалось подтвердить задачу")
	}
}

func (w *Worker) handle(ctx context.Context, job domain.GenerationJob, jobLog zerolog.Logger) jobOutcome {
	date, err := time.ParseInLocation(domain.DateLayout, job.Date, w.loc)
	if err != nil {
		jobLog.Error().Err(err).Msg("worker: некорректная дата задачи, пропускаем")
		return jobOutcomeCompleted
	}
	method := job.Method
	if method != domain.MethodRuleBased {
		method = domain.MethodDeepAnalysis
	}
	b, err := w.generator.Generate(ctx, date, method)
	switch {
	case err == nil:
		jobLog.Info().Int("items", len(b.Items)).Msg("worker: брифинг построен")
		return jobOutcomeCompleted
	case errors.Is(err, ErrNoCandidates), errors.Is(err, ErrKeptPrevious):
		return jobOutcomeCompleted
	default:
		jobLog.Error().Err(err).Msg("worker: построение брифинга не удалось")
		return jobOutcomeRetry
	}
}

func (w *Worker) sleep(ctx context.Context) {
	t := time.NewTimer(w.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
