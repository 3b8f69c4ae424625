package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
	"github.com/timur-mustafin/gamified-task-manager/internal/level"
	"github.com/timur-mustafin/gamified-task-manager/internal/lifecycle"
)

// Store implements lifecycle.Store on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ lifecycle.Store = (*Store)(nil)

// NewStore wraps a pool with the lifecycle.Store interface.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// WithTx runs fn inside one transaction. A serialization or deadlock failure
// surfaces as a domain.ConflictError so callers can retry.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx lifecycle.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &storeTx{tx: tx}); err != nil {
		return mapPgError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapPgError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// StatusLog returns a task's log entries ordered by timestamp ascending.
func (s *Store) StatusLog(ctx context.Context, taskID string) ([]domain.StatusLogEntry, error) {
	return queryStatusLog(ctx, s.pool, taskID)
}

// storeTx adapts a pgx transaction to lifecycle.Tx.
type storeTx struct {
	tx pgx.Tx
}

var _ lifecycle.Tx = (*storeTx)(nil)

const taskColumns = `
	id, title, description, giver_id, assignee_id, status, priority, difficulty,
	deadline, approx_time, created_at, updated_at,
	moderation_started_at, moderation_stopped_at,
	exp_earned, honor_earned, time_in_work`

func (t *storeTx) GetTaskForUpdate(ctx context.Context, id string) (*domain.Task, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1
		FOR UPDATE
	`, id)
	return scanTask(row, id)
}

func (t *storeTx) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT id, username, email, job_position, role, exp, honor, level, active, last_seen, created_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row, id)
}

func (t *storeTx) InsertTask(ctx context.Context, task *domain.Task) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO tasks
			(id, title, description, giver_id, assignee_id, status, priority, difficulty,
			 deadline, approx_time, created_at, updated_at,
			 moderation_started_at, moderation_stopped_at,
			 exp_earned, honor_earned, time_in_work)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		task.ID, task.Title, task.Description, task.GiverID, task.AssigneeID,
		string(task.Status), string(task.Priority), string(task.Difficulty),
		task.Deadline, task.ApproxTime, task.CreatedAt, task.UpdatedAt,
		task.ModerationStartedAt, task.ModerationStoppedAt,
		task.ExpEarned, task.HonorEarned, task.TimeInWork,
	)
	if err != nil {
		return fmt.Errorf("insert task %s: %w", task.ID, err)
	}
	return nil
}

func (t *storeTx) UpdateTask(ctx context.Context, task *domain.Task) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE tasks
		SET title = $1, description = $2, assignee_id = $3, status = $4,
		    priority = $5, difficulty = $6, deadline = $7, approx_time = $8,
		    updated_at = $9, moderation_started_at = $10, moderation_stopped_at = $11,
		    exp_earned = $12, honor_earned = $13, time_in_work = $14
		WHERE id = $15
	`,
		task.Title, task.Description, task.AssigneeID, string(task.Status),
		string(task.Priority), string(task.Difficulty), task.Deadline, task.ApproxTime,
		task.UpdatedAt, task.ModerationStartedAt, task.ModerationStoppedAt,
		task.ExpEarned, task.HonorEarned, task.TimeInWork,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task %s: %w", task.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.TaskNotFoundError{TaskID: task.ID}
	}
	return nil
}

func (t *storeTx) DeleteTask(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.TaskNotFoundError{TaskID: id}
	}
	return nil
}

func (t *storeTx) AppendStatusLog(ctx context.Context, entry *domain.StatusLogEntry) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO task_status_log (id, task_id, user_id, old_status, new_status, ts)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		entry.ID, entry.TaskID, entry.UserID,
		string(entry.OldStatus), string(entry.NewStatus), entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append status log for task %s: %w", entry.TaskID, err)
	}
	return nil
}

func (t *storeTx) AppendAssigneeHistory(ctx context.Context, entry *domain.AssigneeHistoryEntry) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO task_assignee_history
			(id, task_id, old_assignee_id, new_assignee_id, changed_by_id, ts)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		entry.ID, entry.TaskID, entry.OldAssigneeID, entry.NewAssigneeID,
		entry.ChangedByID, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append assignee history for task %s: %w", entry.TaskID, err)
	}
	return nil
}

func (t *storeTx) StatusLog(ctx context.Context, taskID string) ([]domain.StatusLogEntry, error) {
	return queryStatusLog(ctx, t.tx, taskID)
}

func (t *storeTx) CreditUser(ctx context.Context, userID string, exp, honor int) error {
	var newExp int
	err := t.tx.QueryRow(ctx, `
		UPDATE users
		SET exp = exp + $1, honor = honor + $2
		WHERE id = $3
		RETURNING exp
	`, exp, honor, userID).Scan(&newExp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.UserNotFoundError{UserID: userID}
		}
		return fmt.Errorf("credit user %s: %w", userID, err)
	}
	// Keep the denormalised level in lockstep with exp.
	_, err = t.tx.Exec(ctx,
		`UPDATE users SET level = $1 WHERE id = $2`, level.FromExp(newExp), userID)
	if err != nil {
		return fmt.Errorf("refresh level for user %s: %w", userID, err)
	}
	return nil
}

// querier is satisfied by both pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryStatusLog(ctx context.Context, q querier, taskID string) ([]domain.StatusLogEntry, error) {
	rows, err := q.Query(ctx, `
		SELECT id, task_id, user_id, old_status, new_status, ts
		FROM task_status_log
		WHERE task_id = $1
		ORDER BY ts ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query status log for task %s: %w", taskID, err)
	}
	defer rows.Close()

	var entries []domain.StatusLogEntry
	for rows.Next() {
		var e domain.StatusLogEntry
		var oldStatus, newStatus string
		if err := rows.Scan(&e.ID, &e.TaskID, &e.UserID, &oldStatus, &newStatus, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan status log entry: %w", err)
		}
		e.OldStatus = domain.Status(oldStatus)
		e.NewStatus = domain.Status(newStatus)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// scanTask reads a task row from any pgx row type.
func scanTask(row pgx.Row, id string) (*domain.Task, error) {
	var task domain.Task
	var status, priority, difficulty string
	err := row.Scan(
		&task.ID, &task.Title, &task.Description, &task.GiverID, &task.AssigneeID,
		&status, &priority, &difficulty,
		&task.Deadline, &task.ApproxTime, &task.CreatedAt, &task.UpdatedAt,
		&task.ModerationStartedAt, &task.ModerationStoppedAt,
		&task.ExpEarned, &task.HonorEarned, &task.TimeInWork,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.TaskNotFoundError{TaskID: id}
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	task.Status = domain.Status(status)
	task.Priority = domain.Priority(priority)
	task.Difficulty = domain.Difficulty(difficulty)
	return &task, nil
}

func scanUser(row pgx.Row, id string) (*domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.JobPosition, &role,
		&u.Exp, &u.Honor, &u.Level, &u.Active, &u.LastSeen, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.UserNotFoundError{UserID: id}
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}

// mapPgError translates driver-level serialization failures into the domain's
// retryable conflict error. Domain errors pass through untouched.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected.
		if pgErr.Code == "40001" || pgErr.Code == "40P01" {
			return &domain.ConflictError{}
		}
	}
	return err
}
