// Package handler exposes the REST surface of the api service.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
	"github.com/timur-mustafin/gamified-task-manager/internal/lifecycle"
	"github.com/timur-mustafin/gamified-task-manager/internal/postgres"
	redisstore "github.com/timur-mustafin/gamified-task-manager/internal/redis"
)

// REST handles HTTP requests for the api service.
type REST struct {
	lifecycle *lifecycle.Service
	store     *postgres.Store
	presence  redisstore.Presence
	limiter   redisstore.RateLimiter
	logger    *slog.Logger
}

// NewREST creates a new REST handler.
func NewREST(lc *lifecycle.Service, store *postgres.Store, presence redisstore.Presence, limiter redisstore.RateLimiter, logger *slog.Logger) *REST {
	return &REST{lifecycle: lc, store: store, presence: presence, limiter: limiter, logger: logger}
}

// Healthz handles GET /healthz.
func (h *REST) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Readyz handles GET /readyz — checks Redis and Postgres connectivity.
func (h *REST) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := h.presence.IsOnline(ctx, "__readyz__"); err != nil {
		writeError(w, http.StatusServiceUnavailable, "redis not ready")
		return
	}
	if _, err := h.store.GetUser(ctx, "__readyz__"); err != nil {
		var notFound *domain.UserNotFoundError
		if !errors.As(err, &notFound) {
			writeError(w, http.StatusServiceUnavailable, "postgres not ready")
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeDomainError maps domain errors onto HTTP status codes. Anything
// unrecognised is a 500 with a generic message.
func (h *REST) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation   *domain.ValidationError
		taskNotFound *domain.TaskNotFoundError
		userNotFound *domain.UserNotFoundError
		invalid      *domain.InvalidTransitionError
		conflict     *domain.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &taskNotFound):
		writeError(w, http.StatusNotFound, taskNotFound.Error())
	case errors.As(err, &userNotFound):
		writeError(w, http.StatusNotFound, userNotFound.Error())
	case errors.As(err, &invalid):
		writeError(w, http.StatusConflict, invalid.Error())
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, conflict.Error())
	default:
		h.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
