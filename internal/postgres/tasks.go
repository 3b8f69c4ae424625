package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
)

// TaskFilter narrows ListTasks. Zero values mean "no filter".
type TaskFilter struct {
	GiverID    string
	AssigneeID string
	Status     domain.Status
	Limit      int
}

// GetTask returns one task without locking it.
func (s *Store) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1
	`, id)
	return scanTask(row, id)
}

// ListTasks returns tasks matching the filter, newest first.
func (s *Store) ListTasks(ctx context.Context, f TaskFilter) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var (
		args  []any
		where []string
	)
	add := func(cond string, val any) {
		args = append(args, val)
		where = append(where, cond+" $"+strconv.Itoa(len(args)))
	}
	if f.GiverID != "" {
		add("giver_id =", f.GiverID)
	}
	if f.AssigneeID != "" {
		add("assignee_id =", f.AssigneeID)
	}
	if f.Status != "" {
		add("status =", string(f.Status))
	}
	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows, "")
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// ListDeadlinesWithin returns non-terminal tasks whose deadline falls inside
// (now, now + window]. The notifier's reminder sweep drives this.
func (s *Store) ListDeadlinesWithin(ctx context.Context, windowHours float64) ([]*domain.Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE deadline IS NOT NULL
		  AND status NOT IN ('completed', 'failed')
		  AND deadline > now()
		  AND deadline <= now() + ($1 * interval '1 hour')
		ORDER BY deadline ASC
	`, windowHours)
	if err != nil {
		return nil, fmt.Errorf("list upcoming deadlines: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows, "")
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// AssigneeHistory returns a task's reassignment records, oldest first.
func (s *Store) AssigneeHistory(ctx context.Context, taskID string) ([]domain.AssigneeHistoryEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, task_id, old_assignee_id, new_assignee_id, changed_by_id, ts
		FROM task_assignee_history
		WHERE task_id = $1
		ORDER BY ts ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query assignee history for task %s: %w", taskID, err)
	}
	defer rows.Close()

	var entries []domain.AssigneeHistoryEntry
	for rows.Next() {
		var e domain.AssigneeHistoryEntry
		if err := rows.Scan(&e.ID, &e.TaskID, &e.OldAssigneeID, &e.NewAssigneeID, &e.ChangedByID, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan assignee history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
