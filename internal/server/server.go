// Package server exposes a read-only HTTP view of the daemon: liveness,
// running statistics, the latest health report, and journal history.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gitsyncd/gitsyncd/internal/api"
	"github.com/gitsyncd/gitsyncd/internal/journal"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const defaultHistoryLimit = 20

// StatusSource is what the HTTP layer needs from the daemon.
type StatusSource interface {
	Snapshot() api.DaemonStatus
	LastHealth() *api.HealthSnapshot
}

// Handler serves the status API.
type Handler struct {
	daemon  StatusSource
	journal journal.Store
	logger  *slog.Logger
}

// NewHandler creates an API handler over the daemon and its journal.
func NewHandler(daemon StatusSource, store journal.Store, logger *slog.Logger) *Handler {
	if store == nil {
		store = journal.Discard{}
	}
	return &Handler{daemon: daemon, journal: store, logger: logger}
}

// Router builds the chi router for the status API.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleLiveness)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", h.handleStatus)
		r.Get("/health", h.handleHealth)
		r.Get("/history", h.handleHistory)
	})
	return r
}

func (h *Handler) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.APIResponse{Message: "ok"})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.APIResponse{
		Message: "daemon status",
		Data:    h.daemon.Snapshot(),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := h.daemon.LastHealth()
	if health == nil {
		writeJSON(w, http.StatusNotFound, api.APIResponse{Message: "no health report yet"})
		return
	}
	writeJSON(w, http.StatusOK, api.APIResponse{
		Message: "latest health report",
		Data:    health,
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, api.APIResponse{Message: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	records, err := h.journal.ListAttempts(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list journal attempts", "error", err)
		writeJSON(w, http.StatusInternalServerError, api.APIResponse{Message: "journal unavailable"})
		return
	}

	summaries := make([]api.AttemptSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, api.AttemptSummary{
			ID:         record.ID,
			StartedAt:  record.StartedAt,
			FinishedAt: record.FinishedAt,
			Stage:      record.Stage,
			Success:    record.Success,
			CommitHash: record.CommitHash,
			Error:      record.Error,
		})
	}
	writeJSON(w, http.StatusOK, api.APIResponse{
		Message: "sync history",
		Data:    summaries,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
