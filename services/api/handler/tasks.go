package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
	"github.com/timur-mustafin/gamified-task-manager/internal/lifecycle"
	"github.com/timur-mustafin/gamified-task-manager/internal/postgres"
	"github.com/timur-mustafin/gamified-task-manager/services/api/middleware"
)

// CreateTaskRequest is the JSON body for POST /api/v1/tasks.
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	AssigneeID  *string    `json:"assignee_id,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Difficulty  string     `json:"difficulty,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	ApproxTime  float64    `json:"approx_time,omitempty"`
}

// TransitionRequest is the JSON body for POST /api/v1/tasks/{id}/transitions.
type TransitionRequest struct {
	Action string `json:"action"`
	Status string `json:"status,omitempty"`
}

// CreateTask handles POST /api/v1/tasks.
func (h *REST) CreateTask(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("api").Start(r.Context(), "api.create_task")
	defer span.End()

	actorID := middleware.ActorID(ctx)

	allowed, err := h.limiter.Allow(ctx, actorID)
	if err != nil {
		h.logger.Warn("rate limiter unavailable, allowing request",
			slog.String("user_id", actorID), slog.String("error", err.Error()))
	} else if !allowed {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(h.limiter.Limit()))
		writeError(w, http.StatusTooManyRequests, "task creation rate limit exceeded")
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.lifecycle.Create(ctx, actorID, lifecycle.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		Priority:    domain.Priority(req.Priority),
		Difficulty:  domain.Difficulty(req.Difficulty),
		Deadline:    req.Deadline,
		ApproxTime:  req.ApproxTime,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	span.SetAttributes(attribute.String("task.id", task.ID))
	writeJSON(w, http.StatusCreated, task)
}

// GetTask handles GET /api/v1/tasks/{id}.
func (h *REST) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.store.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// ListTasks handles GET /api/v1/tasks with optional giver_id, assignee_id and
// status filters. Newest first.
func (h *REST) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := postgres.TaskFilter{
		GiverID:    q.Get("giver_id"),
		AssigneeID: q.Get("assignee_id"),
		Status:     domain.Status(q.Get("status")),
		Limit:      100,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status filter")
		return
	}

	tasks, err := h.store.ListTasks(r.Context(), filter)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// UpdateTask handles PATCH /api/v1/tasks/{id}.
func (h *REST) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       *string    `json:"title,omitempty"`
		Description *string    `json:"description,omitempty"`
		Priority    *string    `json:"priority,omitempty"`
		Difficulty  *string    `json:"difficulty,omitempty"`
		Deadline    *time.Time `json:"deadline,omitempty"`
		ApproxTime  *float64   `json:"approx_time,omitempty"`
		AssigneeID  *string    `json:"assignee_id,omitempty"`
	}
	body, err := decodeFields(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := lifecycle.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		ApproxTime:  req.ApproxTime,
		AssigneeID:  req.AssigneeID,
	}
	if req.Priority != nil {
		p := domain.Priority(*req.Priority)
		in.Priority = &p
	}
	if req.Difficulty != nil {
		d := domain.Difficulty(*req.Difficulty)
		in.Difficulty = &d
	}
	// A present-but-null assignee_id means unassign; absence leaves it alone.
	_, in.SetAssignee = body["assignee_id"]

	task, err := h.lifecycle.Update(r.Context(), chi.URLParam(r, "id"), middleware.ActorID(r.Context()), in)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// DeleteTask handles DELETE /api/v1/tasks/{id}.
func (h *REST) DeleteTask(w http.ResponseWriter, r *http.Request) {
	err := h.lifecycle.Delete(r.Context(), chi.URLParam(r, "id"), middleware.ActorID(r.Context()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyTransition handles POST /api/v1/tasks/{id}/transitions.
func (h *REST) ApplyTransition(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.lifecycle.Apply(r.Context(), chi.URLParam(r, "id"), middleware.ActorID(r.Context()), lifecycle.Request{
		Action: lifecycle.Action(req.Action),
		Status: domain.Status(req.Status),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// GetStatusLog handles GET /api/v1/tasks/{id}/logs.
func (h *REST) GetStatusLog(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")
	if _, err := h.store.GetTask(r.Context(), taskID); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	entries, err := h.lifecycle.StatusLog(r.Context(), taskID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.StatusLogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetAssigneeHistory handles GET /api/v1/tasks/{id}/assignee-history.
func (h *REST) GetAssigneeHistory(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")
	if _, err := h.store.GetTask(r.Context(), taskID); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	entries, err := h.store.AssigneeHistory(r.Context(), taskID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.AssigneeHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// decodeFields decodes the body into v and also returns the raw top-level
// field set, so handlers can tell an explicit null from an absent field.
func decodeFields(r *http.Request, v any) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, err
	}
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(buf, v); err != nil {
		return nil, err
	}
	return raw, nil
}
