package handler

import (
	"net/http"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
	"github.com/timur-mustafin/gamified-task-manager/services/api/middleware"
)

// ListNotifications handles GET /api/v1/notifications for the acting user.
// ?unread=true narrows to unread entries.
func (h *REST) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.ActorID(r.Context())
	unreadOnly := r.URL.Query().Get("unread") == "true"

	items, err := h.store.ListNotifications(r.Context(), actorID, unreadOnly, 100)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, items)
}

// MarkAllRead handles POST /api/v1/notifications/read-all.
func (h *REST) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.ActorID(r.Context())

	n, err := h.store.MarkAllNotificationsRead(r.Context(), actorID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"marked_read": n})
}
