package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
	"github.com/timur-mustafin/gamified-task-manager/internal/level"
)

// ProfileResponse is a user profile enriched with the level curve outputs and
// live presence.
type ProfileResponse struct {
	domain.User
	Badge         string     `json:"badge,omitempty"`
	ExpBarPercent int        `json:"exp_bar_percent"`
	NextLevelExp  int        `json:"next_level_exp"`
	IsOnline      bool       `json:"is_online"`
	OnlineSince   *time.Time `json:"online_since,omitempty"`
}

// GetProfile handles GET /api/v1/users/{id}.
func (h *REST) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "id")

	u, err := h.store.GetUser(ctx, userID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	resp := h.profile(r, u)
	writeJSON(w, http.StatusOK, resp)
}

// HallOfFame handles GET /api/v1/hall-of-fame: active users by level then exp,
// both descending.
func (h *REST) HallOfFame(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.HallOfFame(r.Context(), 50)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	resp := make([]ProfileResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, h.profile(r, u))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *REST) profile(r *http.Request, u *domain.User) ProfileResponse {
	resp := ProfileResponse{
		User:          *u,
		ExpBarPercent: level.BarPercent(u.Exp),
		NextLevelExp:  level.ToExp(u.Level + 1),
	}
	if b := level.ForLevel(u.Level); b != level.BadgeNone {
		resp.Badge = string(b)
	}

	online, err := h.presence.IsOnline(r.Context(), u.ID)
	if err != nil {
		h.logger.Warn("presence lookup failed",
			slog.String("user_id", u.ID), slog.String("error", err.Error()))
		return resp
	}
	resp.IsOnline = online
	if online {
		if seen, err := h.presence.LastSeen(r.Context(), u.ID); err == nil && !seen.IsZero() {
			resp.OnlineSince = &seen
		}
	}
	return resp
}
