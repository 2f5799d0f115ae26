package order

import "context"

type Repository interface {
	Get(ctx context.Context, id string) (*Order, error)
	// Insert fails with ErrConflict instead of overwriting an existing id.
	Insert(ctx context.Context, order *Order) error
	// Update fails with ErrNotFound when the id is absent.
	Update(ctx context.Context, order *Order) error
	// List returns orders by creation time, lines included.
	List(ctx context.Context) ([]*Order, error)
}
