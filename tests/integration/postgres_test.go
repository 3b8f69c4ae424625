//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
	"github.com/timur-mustafin/gamified-task-manager/internal/level"
	"github.com/timur-mustafin/gamified-task-manager/internal/lifecycle"
	"github.com/timur-mustafin/gamified-task-manager/internal/notify"
	"github.com/timur-mustafin/gamified-task-manager/internal/postgres"
)

// newStore returns a store connected to the test Postgres container and
// truncates all tables on cleanup. The pool is returned as well so tests can
// seed rows the store has no write path for.
func newStore(t *testing.T) (*postgres.Store, *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, testPostgresDSN)
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Exec(ctx, "TRUNCATE purchases, store_items, notifications, task_assignee_history, task_status_log, tasks, users CASCADE") //nolint:errcheck
		pool.Close()
	})
	return postgres.NewStore(pool), pool
}

func seedUser(t *testing.T, store *postgres.Store, username string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:        uuid.New().String(),
		Username:  username,
		Role:      role,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

// createTask persists a task through the real lifecycle service so the status
// log row is written in the same transaction, exactly as the api service does.
func createTask(t *testing.T, store *postgres.Store, giver *domain.User, assignee *string, deadline *time.Time) *domain.Task {
	t.Helper()
	svc := lifecycle.NewService(store, notify.Nop{})
	task, err := svc.Create(context.Background(), giver.ID, lifecycle.CreateInput{
		Title:      "integration task",
		AssigneeID: assignee,
		Priority:   domain.PriorityMedium,
		Difficulty: domain.DifficultyMedium,
		Deadline:   deadline,
		ApproxTime: 2,
	})
	require.NoError(t, err)
	return task
}

func TestPostgres_CreateUser_GetUser(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	u := seedUser(t, store, "alice", domain.RoleUser)

	got, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, domain.RoleUser, got.Role)
	assert.True(t, got.Active)
	assert.Zero(t, got.Exp)
}

func TestPostgres_GetUser_NotFound(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.GetUser(context.Background(), uuid.New().String())
	require.Error(t, err)

	var notFound *domain.UserNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestPostgres_CreateTask_PersistsWithStatusLog(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	giver := seedUser(t, store, "giver", domain.RoleUser)
	worker := seedUser(t, store, "worker", domain.RoleUser)
	task := createTask(t, store, giver, &worker.ID, nil)

	got, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotInWork, got.Status)
	assert.Equal(t, giver.ID, got.GiverID)
	require.NotNil(t, got.AssigneeID)
	assert.Equal(t, worker.ID, *got.AssigneeID)

	log, err := store.StatusLog(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, domain.StatusNotInWork, log[0].OldStatus)
	assert.Equal(t, domain.StatusNotInWork, log[0].NewStatus)
	assert.Equal(t, giver.ID, log[0].UserID)
}

func TestPostgres_GetTask_NotFound(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.GetTask(context.Background(), uuid.New().String())
	require.Error(t, err)

	var notFound *domain.TaskNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestPostgres_CreditUser_RefreshesLevel(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	u := seedUser(t, store, "climber", domain.RoleUser)

	err := store.WithTx(ctx, func(ctx context.Context, tx lifecycle.Tx) error {
		return tx.CreditUser(ctx, u.ID, 2500, 40)
	})
	require.NoError(t, err)

	got, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2500, got.Exp)
	assert.Equal(t, 40, got.Honor)
	assert.Equal(t, level.FromExp(2500), got.Level, "level column should track the exp total")
}

func TestPostgres_DeleteTask_CascadesLogsAndHistory(t *testing.T) {
	store, pool := newStore(t)
	ctx := context.Background()

	giver := seedUser(t, store, "giver", domain.RoleUser)
	worker := seedUser(t, store, "worker", domain.RoleUser)
	task := createTask(t, store, giver, &worker.ID, nil)

	// A transition plus a reassignment so both dependent tables have rows.
	svc := lifecycle.NewService(store, notify.Nop{})
	_, err := svc.Apply(ctx, task.ID, worker.ID, lifecycle.Request{
		Action: lifecycle.ActionUpdateStatus,
		Status: domain.StatusInWork,
	})
	require.NoError(t, err)

	other := seedUser(t, store, "other", domain.RoleUser)
	_, err = svc.Update(ctx, task.ID, giver.ID, lifecycle.UpdateInput{
		AssigneeID:  &other.ID,
		SetAssignee: true,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, task.ID, giver.ID))

	var logs, history int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM task_status_log WHERE task_id = $1", task.ID).Scan(&logs))
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM task_assignee_history WHERE task_id = $1", task.ID).Scan(&history))
	assert.Zero(t, logs, "status log rows should cascade on delete")
	assert.Zero(t, history, "assignee history rows should cascade on delete")
}

func TestPostgres_HallOfFame_OrderingAndActiveFilter(t *testing.T) {
	store, pool := newStore(t)
	ctx := context.Background()

	bronze := seedUser(t, store, "bronze", domain.RoleUser)
	silver := seedUser(t, store, "silver", domain.RoleUser)
	gold := seedUser(t, store, "gold", domain.RoleUser)
	ghost := seedUser(t, store, "ghost", domain.RoleUser)

	set := func(id string, lvl, exp int, active bool) {
		_, err := pool.Exec(ctx, "UPDATE users SET level = $1, exp = $2, active = $3 WHERE id = $4", lvl, exp, active, id)
		require.NoError(t, err)
	}
	set(bronze.ID, 10, 10000, true)
	set(silver.ID, 30, 90000, true)
	set(gold.ID, 30, 95000, true)
	set(ghost.ID, 99, 1000000, false)

	ranked, err := store.HallOfFame(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 3, "inactive users stay off the board")
	assert.Equal(t, "gold", ranked[0].Username, "exp breaks level ties")
	assert.Equal(t, "silver", ranked[1].Username)
	assert.Equal(t, "bronze", ranked[2].Username)
}

func TestPostgres_ListDeadlinesWithin(t *testing.T) {
	store, pool := newStore(t)
	ctx := context.Background()

	giver := seedUser(t, store, "giver", domain.RoleUser)
	worker := seedUser(t, store, "worker", domain.RoleUser)

	soon := time.Now().UTC().Add(2 * time.Hour)
	far := time.Now().UTC().Add(48 * time.Hour)

	urgent := createTask(t, store, giver, &worker.ID, &soon)
	createTask(t, store, giver, &worker.ID, &far)
	done := createTask(t, store, giver, &worker.ID, &soon)

	_, err := pool.Exec(ctx, "UPDATE tasks SET status = 'completed' WHERE id = $1", done.ID)
	require.NoError(t, err)

	due, err := store.ListDeadlinesWithin(ctx, 24)
	require.NoError(t, err)
	require.Len(t, due, 1, "only open tasks inside the window qualify")
	assert.Equal(t, urgent.ID, due[0].ID)
}

func TestPostgres_ListTasks_Filters(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	giver := seedUser(t, store, "giver", domain.RoleUser)
	worker := seedUser(t, store, "worker", domain.RoleUser)
	other := seedUser(t, store, "other", domain.RoleUser)

	mine := createTask(t, store, giver, &worker.ID, nil)
	createTask(t, store, giver, &other.ID, nil)

	byAssignee, err := store.ListTasks(ctx, postgres.TaskFilter{AssigneeID: worker.ID})
	require.NoError(t, err)
	require.Len(t, byAssignee, 1)
	assert.Equal(t, mine.ID, byAssignee[0].ID)

	byGiver, err := store.ListTasks(ctx, postgres.TaskFilter{GiverID: giver.ID})
	require.NoError(t, err)
	assert.Len(t, byGiver, 2)

	inWork, err := store.ListTasks(ctx, postgres.TaskFilter{Status: domain.StatusInWork})
	require.NoError(t, err)
	assert.Empty(t, inWork)
}

// ── Store purchases ──────────────────────────────────────────────────────────

func seedItem(t *testing.T, pool *pgxpool.Pool, name string, cost int, active bool) string {
	t.Helper()
	id := uuid.New().String()
	_, err := pool.Exec(context.Background(),
		"INSERT INTO store_items (id, name, cost, active) VALUES ($1, $2, $3, $4)",
		id, name, cost, active)
	require.NoError(t, err)
	return id
}

func TestPostgres_Purchase_DebitsHonor(t *testing.T) {
	store, pool := newStore(t)
	ctx := context.Background()

	buyer := seedUser(t, store, "buyer", domain.RoleUser)
	_, err := pool.Exec(ctx, "UPDATE users SET honor = 100 WHERE id = $1", buyer.ID)
	require.NoError(t, err)
	itemID := seedItem(t, pool, "day off", 60, true)

	p, err := store.Purchase(ctx, buyer.ID, itemID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 60, p.Cost)

	got, err := store.GetUser(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.Honor)

	history, err := store.ListPurchases(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, itemID, history[0].ItemID)
}

func TestPostgres_Purchase_InsufficientHonor(t *testing.T) {
	store, pool := newStore(t)
	ctx := context.Background()

	buyer := seedUser(t, store, "broke", domain.RoleUser)
	_, err := pool.Exec(ctx, "UPDATE users SET honor = 10 WHERE id = $1", buyer.ID)
	require.NoError(t, err)
	itemID := seedItem(t, pool, "day off", 60, true)

	_, err = store.Purchase(ctx, buyer.ID, itemID, time.Now().UTC())
	require.Error(t, err)

	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)

	got, err := store.GetUser(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Honor, "failed purchase must not debit")

	history, err := store.ListPurchases(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

// ── Notifications inbox ──────────────────────────────────────────────────────

func TestPostgres_Notifications_UnreadFlow(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	u := seedUser(t, store, "reader", domain.RoleUser)

	for i := range 3 {
		n := &domain.Notification{
			ID:        uuid.New().String(),
			UserID:    u.ID,
			Title:     "New Task Assigned",
			Message:   "You have been assigned a new task.",
			Type:      domain.NotificationInfo,
			Category:  domain.CategoryTask,
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Millisecond),
		}
		require.NoError(t, store.InsertNotification(ctx, n))
	}

	unread, err := store.ListNotifications(ctx, u.ID, true, 0)
	require.NoError(t, err)
	assert.Len(t, unread, 3)

	marked, err := store.MarkAllNotificationsRead(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, marked)

	unread, err = store.ListNotifications(ctx, u.ID, true, 0)
	require.NoError(t, err)
	assert.Empty(t, unread)

	all, err := store.ListNotifications(ctx, u.ID, false, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
