package inventory

import (
	"context"
)

// Repository stores one integer quantity per product id.
type Repository interface {
	// Get returns 0 for products that have no inventory record.
	Get(ctx context.Context, productID string) (int, error)
	// Set upserts the record, clamping negative quantities to 0.
	Set(ctx context.Context, productID string, quantity int) error
	List(ctx context.Context) (map[string]int, error)
}
