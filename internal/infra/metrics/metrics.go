package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	BriefingBuildSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "briefing_build_seconds",
		Help:    "Время построения брифинга",
		Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300, 600, 900, 1200},
	}, []string{"method"})
	BriefingItems = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "briefing_items",
		Help: "Количество позиций в последнем опубликованном брифинге",
	}, []string{"method"})
	BriefingOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "briefing_outcomes_total",
		Help: "Итоги прогонов построения брифинга",
	}, []string{"outcome"})
	EditorCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "editor_calls_total",
		Help: "Вызовы внешнего редактора",
	}, []string{"operation", "status"})
	Degradations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "capability_degradations_total",
		Help: "Переходы на запасной вариант из-за недоступной возможности",
	}, []string{"capability"})
	CandidatesIngested = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "candidates_ingested_total",
		Help: "Результаты вставки кандидатов",
	}, []string{"result"})
	RetentionRemoved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "retention_removed_total",
		Help: "Удалённые по сроку давности кандидаты",
	})
	NotifySendErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_send_errors_total",
		Help: "Ошибки доставки брифинга",
	}, []string{"channel"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30, 45, 60, 90, 120},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})

	LLMGenerationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_generation_duration_seconds",
		Help:    "Длительность генерации ответа LLM",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	LLMTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_tokens_total",
		Help: "Количество токенов, использованных LLM",
	}, []string{"model", "type"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		BriefingBuildSeconds,
		BriefingItems,
		BriefingOutcomes,
		EditorCalls,
		Degradations,
		CandidatesIngested,
		RetentionRemoved,
		NotifySendErrors,
		NetworkRequestDuration,
		NetworkRequestTotal,
		LLMGenerationDuration,
		LLMTokensTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveLLMGeneration записывает длительность и токены генерации LLM.
func ObserveLLMGeneration(model string, duration time.Duration, promptTokens, completionTokens, totalTokens int) {
	if model == "" {
		model = "unknown"
	}
	LLMGenerationDuration.WithLabelValues(model).Observe(duration.Seconds())
	if promptTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
	if totalTokens <= 0 {
		totalTokens = promptTokens + completionTokens
	}
	if totalTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "total").Add(float64(totalTokens))
	}
}

// ObserveBriefing фиксирует итог прогона.
func ObserveBriefing(method, outcome string, items int, start time.Time) {
	BriefingBuildSeconds.WithLabelValues(method).Observe(time.Since(start).Seconds())
	BriefingOutcomes.WithLabelValues(outcome).Inc()
	if outcome == "published" {
		BriefingItems.WithLabelValues(method).Set(float64(items))
	}
}

// ObserveEditorCall считает вызов редактора.
func ObserveEditorCall(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	EditorCalls.WithLabelValues(operation, status).Inc()
}

// IncDegradation отмечает отключённую на прогон возможность.
func IncDegradation(capability string) {
	Degradations.WithLabelValues(capability).Inc()
}

// IncIngested считает результат вставки: inserted, duplicate или error.
func IncIngested(result string) {
	CandidatesIngested.WithLabelValues(result).Inc()
}
