package repository

import (
	"context"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
)

func (r *Repository) ListCartRows(ctx context.Context, userID string) ([]domain.CartRow, error) {
	query := `SELECT user_id, product_id, quantity FROM cart_items WHERE user_id = $1 ORDER BY updated_at, product_id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	var out []domain.CartRow
	for rows.Next() {
		var row domain.CartRow
		if err := rows.Scan(&row.UserID, &row.ProductID, &row.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item row: %w", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return out, nil
}

// ReplaceCartRows makes the stored cart of userID exactly rows.
func (r *Repository) ReplaceCartRows(ctx context.Context, userID string, rows []domain.CartRow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cart items tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}

	for _, row := range rows {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO cart_items (user_id, product_id, quantity, updated_at) VALUES ($1, $2, $3, NOW())`,
			userID, row.ProductID, row.Quantity)
		if err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cart items: %w", err)
	}
	return nil
}

func (r *Repository) DeleteCartRows(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}
	return nil
}
