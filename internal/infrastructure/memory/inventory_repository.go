package memory

import (
	"context"

	domain "github.com/Zhima-Mochi/minishop-pos/internal/domain/inventory"
)

type InventoryRepository struct {
	v *view
}

func (r *InventoryRepository) Get(ctx context.Context, productID string) (int, error) {
	_ = ctx

	r.v.mu.RLock()
	defer r.v.mu.RUnlock()

	return r.v.data().inventory[productID], nil
}

func (r *InventoryRepository) Set(ctx context.Context, productID string, quantity int) error {
	_ = ctx

	r.v.mu.Lock()
	defer r.v.mu.Unlock()

	r.v.data().inventory[productID] = domain.NewItem(productID, quantity).Quantity
	return nil
}

func (r *InventoryRepository) List(ctx context.Context) (map[string]int, error) {
	_ = ctx

	r.v.mu.RLock()
	defer r.v.mu.RUnlock()

	inv := r.v.data().inventory
	out := make(map[string]int, len(inv))
	for k, v := range inv {
		out[k] = v
	}
	return out, nil
}
