package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	redisstore "github.com/timur-mustafin/gamified-task-manager/internal/redis"
)

// ActorHeader carries the authenticated user's ID. The auth layer in front of
// this service populates it; requests without it are rejected.
const ActorHeader = "X-User-ID"

type actorKey struct{}

// ActorID returns the acting user's ID stored by the Actor middleware.
func ActorID(ctx context.Context) string {
	id, _ := ctx.Value(actorKey{}).(string)
	return id
}

// lastSeenRecorder is the durable side of presence, implemented by the
// postgres store.
type lastSeenRecorder interface {
	TouchLastSeen(ctx context.Context, userID string, at time.Time) error
}

// Actor extracts the acting user from the request, refreshes the user's
// presence key and records last_seen. Presence failures are logged, never
// propagated; the request proceeds either way.
func Actor(presence redisstore.Presence, recorder lastSeenRecorder, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get(ActorHeader)
			if userID == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"missing ` + ActorHeader + ` header"}`))
				return
			}

			ctx := context.WithValue(r.Context(), actorKey{}, userID)

			if err := presence.Touch(ctx, userID); err != nil {
				logger.Warn("presence touch failed",
					slog.String("user_id", userID), slog.String("error", err.Error()))
			}
			if err := recorder.TouchLastSeen(ctx, userID, time.Now().UTC()); err != nil {
				logger.Warn("last_seen update failed",
					slog.String("user_id", userID), slog.String("error", err.Error()))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
