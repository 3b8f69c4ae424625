package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
)

// GetUser returns one user.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, username, email, job_position, role, exp, honor, level, active, last_seen, created_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row, id)
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, username, email, job_position, role, exp, honor, level, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		u.ID, u.Username, u.Email, u.JobPosition, string(u.Role),
		u.Exp, u.Honor, u.Level, u.Active, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user %s: %w", u.ID, err)
	}
	return nil
}

// HallOfFame returns active users ordered by level then exp, both descending.
func (s *Store) HallOfFame(ctx context.Context, limit int) ([]*domain.User, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, username, email, job_position, role, exp, honor, level, active, last_seen, created_at
		FROM users
		WHERE active
		ORDER BY level DESC, exp DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query hall of fame: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows, "")
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// TouchLastSeen records request activity on the profile. Presence itself lives
// in Redis; this is the durable trace of it.
func (s *Store) TouchLastSeen(ctx context.Context, userID string, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET last_seen = $1 WHERE id = $2`, at, userID)
	if err != nil {
		return fmt.Errorf("touch last_seen for user %s: %w", userID, err)
	}
	return nil
}

// AdminUserAction names a privileged mutation of another user's account.
type AdminUserAction string

const (
	ActionResetExp   AdminUserAction = "reset_exp"
	ActionResetHonor AdminUserAction = "reset_honor"
	ActionToggleRole AdminUserAction = "toggle_role"
	ActionDeactivate AdminUserAction = "deactivate"
)

// ApplyAdminAction runs one admin action against the target user.
func (s *Store) ApplyAdminAction(ctx context.Context, targetID string, action AdminUserAction) error {
	var query string
	switch action {
	case ActionResetExp:
		query = `UPDATE users SET exp = 0, level = 0 WHERE id = $1`
	case ActionResetHonor:
		query = `UPDATE users SET honor = 0 WHERE id = $1`
	case ActionToggleRole:
		query = `UPDATE users SET role = CASE WHEN role = 'admin' THEN 'user' ELSE 'admin' END WHERE id = $1`
	case ActionDeactivate:
		query = `UPDATE users SET active = FALSE WHERE id = $1`
	default:
		return &domain.ValidationError{Field: "action", Reason: "unknown admin action"}
	}

	tag, err := s.pool.Exec(ctx, query, targetID)
	if err != nil {
		return fmt.Errorf("admin action %s on user %s: %w", action, targetID, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.UserNotFoundError{UserID: targetID}
	}
	return nil
}
