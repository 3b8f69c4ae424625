package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
)

// ListStoreItems returns the purchasable catalogue.
func (s *Store) ListStoreItems(ctx context.Context, activeOnly bool) ([]domain.StoreItem, error) {
	query := `SELECT id, name, description, cost, active FROM store_items`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY cost ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list store items: %w", err)
	}
	defer rows.Close()

	var items []domain.StoreItem
	for rows.Next() {
		var it domain.StoreItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.Cost, &it.Active); err != nil {
			return nil, fmt.Errorf("scan store item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Purchase buys one item for the user: a conditional honor debit and the
// purchase record commit together or not at all. Insufficient honor surfaces
// as a ValidationError with no side effects.
func (s *Store) Purchase(ctx context.Context, userID, itemID string, now time.Time) (*domain.Purchase, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin purchase tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		cost   int
		active bool
	)
	err = tx.QueryRow(ctx,
		`SELECT cost, active FROM store_items WHERE id = $1`, itemID,
	).Scan(&cost, &active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.ValidationError{Field: "item_id", Reason: "unknown item"}
		}
		return nil, fmt.Errorf("load store item %s: %w", itemID, err)
	}
	if !active {
		return nil, &domain.ValidationError{Field: "item_id", Reason: "item is not purchasable"}
	}

	// The WHERE clause makes the debit conditional on the balance, so two
	// concurrent purchases can never overdraw.
	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET honor = honor - $1
		WHERE id = $2 AND honor >= $1
	`, cost, userID)
	if err != nil {
		return nil, fmt.Errorf("debit honor for user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID,
		).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check user %s: %w", userID, err)
		}
		if !exists {
			return nil, &domain.UserNotFoundError{UserID: userID}
		}
		return nil, &domain.ValidationError{Field: "honor", Reason: "insufficient balance"}
	}

	p := &domain.Purchase{
		ID:        uuid.New().String(),
		UserID:    userID,
		ItemID:    itemID,
		Cost:      cost,
		Timestamp: now,
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO purchases (id, user_id, item_id, cost, ts)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.UserID, p.ItemID, p.Cost, p.Timestamp); err != nil {
		return nil, fmt.Errorf("record purchase: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapPgError(fmt.Errorf("commit purchase: %w", err))
	}
	return p, nil
}

// ListPurchases returns a user's purchase history, newest first.
func (s *Store) ListPurchases(ctx context.Context, userID string) ([]domain.Purchase, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, item_id, cost, ts
		FROM purchases
		WHERE user_id = $1
		ORDER BY ts DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchases for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []domain.Purchase
	for rows.Next() {
		var p domain.Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.ItemID, &p.Cost, &p.Timestamp); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
