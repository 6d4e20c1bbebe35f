package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yu-lin0312/news-collector/internal/domain"
)

const (
	defaultListLimit = 30
	maxListLimit     = 365
)

// BriefingReader отдаёт сохранённые брифинги.
type BriefingReader interface {
	Get(ctx context.Context, date string) (domain.Briefing, bool, error)
	List(ctx context.Context, limit int) ([]domain.Briefing, error)
}

// BriefingHandlers HTTP-ручки чтения брифингов и постановки перестроения в очередь.
type BriefingHandlers struct {
	Briefings BriefingReader
	Jobs      domain.GenerationQueue
	Location  *time.Location
	Now       func() time.Time
}

// Mount регистрирует маршруты /api/v1/briefings.
func (h *BriefingHandlers) Mount(r chi.Router) {
	r.Route("/api/v1/briefings", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/{date}", h.get)
		r.Post("/{date}/regenerate", h.regenerate)
	})
}

func (h *BriefingHandlers) list(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}
	items, err := h.Briefings.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list briefings")
		return
	}
	if items == nil {
		items = []domain.Briefing{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"briefings": items})
}

func (h *BriefingHandlers) get(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	b, found, err := h.Briefings.Get(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load briefing")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "briefing not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BriefingHandlers) regenerate(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	if h.Jobs == nil {
		writeError(w, http.StatusServiceUnavailable, "generation queue is not configured")
		return
	}
	method := domain.MethodDeepAnalysis
	switch m := domain.Method(r.URL.Query().Get("method")); m {
	case "":
	case domain.MethodRuleBased, domain.MethodDeepAnalysis:
		method = m
	default:
		writeError(w, http.StatusBadRequest, "unknown method")
		return
	}
	job := domain.GenerationJob{
		ID:          uuid.NewString(),
		Date:        date,
		Method:      method,
		RequestedAt: h.now().UTC(),
		Cause:       domain.GenerationCauseManual,
	}
	if err := h.Jobs.Enqueue(r.Context(), job); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to enqueue job")
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

// dateParam проверяет дату YYYY-MM-DD; будущие даты отклоняются.
func (h *BriefingHandlers) dateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "date")
	loc := h.Location
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(domain.DateLayout, raw, loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return "", false
	}
	if domain.DateKey(day, loc) > domain.DateKey(h.now(), loc) {
		writeError(w, http.StatusBadRequest, "date is in the future")
		return "", false
	}
	return raw, true
}

func (h *BriefingHandlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
