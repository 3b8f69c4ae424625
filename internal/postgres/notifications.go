package postgres

import (
	"context"
	"fmt"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
)

// InsertNotification writes one inbox entry. The notifier service is the only
// writer.
func (s *Store) InsertNotification(ctx context.Context, n *domain.Notification) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, title, message, type, category, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		n.ID, n.UserID, n.Title, n.Message,
		string(n.Type), string(n.Category), n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification for user %s: %w", n.UserID, err)
	}
	return nil
}

// ListNotifications returns a user's inbox, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, user_id, title, message, type, category, read, created_at
		FROM notifications
		WHERE user_id = $1`
	if unreadOnly {
		query += ` AND NOT read`
	}
	query += `
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var typ, cat string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &typ, &cat, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = domain.NotificationType(typ)
		n.Category = domain.NotificationCategory(cat)
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkAllNotificationsRead flips every unread entry in the user's inbox and
// returns how many were flipped.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read for user %s: %w", userID, err)
	}
	return tag.RowsAffected(), nil
}
