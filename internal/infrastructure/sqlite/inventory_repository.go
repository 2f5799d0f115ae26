package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-pos/internal/domain/inventory"
)

type InventoryRepository struct {
	q querier
}

func (r *InventoryRepository) Get(ctx context.Context, productID string) (int, error) {
	var qty int
	err := r.q.QueryRowContext(ctx, `SELECT quantity FROM inventory WHERE product_id = ?`, productID).Scan(&qty)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("sqlite: get inventory %s: %w", productID, err)
	}
	return qty, nil
}

func (r *InventoryRepository) Set(ctx context.Context, productID string, quantity int) error {
	qty := domain.NewItem(productID, quantity).Quantity
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO inventory (product_id, quantity) VALUES (?, ?)
		 ON CONFLICT(product_id) DO UPDATE SET quantity = excluded.quantity`,
		productID, qty,
	)
	if err != nil {
		return fmt.Errorf("sqlite: set inventory %s: %w", productID, err)
	}
	return nil
}

func (r *InventoryRepository) List(ctx context.Context) (map[string]int, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT product_id, quantity FROM inventory`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list inventory: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]int)
	for rows.Next() {
		var (
			id  string
			qty int
		)
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, fmt.Errorf("sqlite: scan inventory: %w", err)
		}
		out[id] = qty
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list inventory: %w", err)
	}
	return out, nil
}
