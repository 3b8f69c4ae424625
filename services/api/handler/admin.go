package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/timur-mustafin/gamified-task-manager/internal/postgres"
	"github.com/timur-mustafin/gamified-task-manager/services/api/middleware"
)

// AdminUserActionRequest is the JSON body for POST /api/v1/admin/user-actions.
type AdminUserActionRequest struct {
	UserID string `json:"user_id"`
	Action string `json:"action"`
}

// AdminUserAction handles POST /api/v1/admin/user-actions. Only admins may
// call it; the action runs against the target user's account.
func (h *REST) AdminUserAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := h.store.GetUser(ctx, middleware.ActorID(ctx))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if !actor.Role.IsAdmin() {
		writeError(w, http.StatusForbidden, "admin role required")
		return
	}

	var req AdminUserActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.Action == "" {
		writeError(w, http.StatusBadRequest, "fields 'user_id' and 'action' are required")
		return
	}

	if err := h.store.ApplyAdminAction(ctx, req.UserID, postgres.AdminUserAction(req.Action)); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.logger.Info("admin user action",
		slog.String("admin_id", actor.ID),
		slog.String("target_id", req.UserID),
		slog.String("action", req.Action),
	)
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}
