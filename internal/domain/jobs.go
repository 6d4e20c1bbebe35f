package domain

import (
	"context"
	"time"
)

// GenerationCause описывает источник запроса на построение брифинга.
type GenerationCause string

const (
	// GenerationCauseManual брифинг запрошен через API.
	GenerationCauseManual GenerationCause = "manual"
	// GenerationCauseScheduled брифинг запланирован по расписанию.
	GenerationCauseScheduled GenerationCause = "scheduled"
)

// GenerationJob задача на построение брифинга за дату.
type GenerationJob struct {
	ID          string          `json:"job_id,omitempty"`
	Date        string          `json:"date"`
	Method      Method          `json:"method"`
	RequestedAt time.Time       `json:"requested_at"`
	Cause       GenerationCause `json:"cause"`
}

// GenerationQueue очередь задач на построение брифингов.
type GenerationQueue interface {
	Enqueue(ctx context.Context, job GenerationJob) error
	Receive(ctx context.Context) (GenerationJob, AckFunc, error)
}

// AckFunc подтверждает обработку задачи или просит вернуть её в очередь.
type AckFunc func(success bool) error
