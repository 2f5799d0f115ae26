package memory

import (
	"context"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-pos/internal/domain/order"
)

type OrderRepository struct {
	v *view
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.v.mu.Lock()
	defer r.v.mu.Unlock()

	d := r.v.data()
	if _, exists := d.orders[order.ID]; exists {
		return domain.ErrConflict
	}
	d.orders[order.ID] = order.Clone()
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	_ = ctx

	r.v.mu.RLock()
	defer r.v.mu.RUnlock()

	order, ok := r.v.data().orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.v.mu.Lock()
	defer r.v.mu.Unlock()

	d := r.v.data()
	if _, exists := d.orders[order.ID]; !exists {
		return domain.ErrNotFound
	}
	d.orders[order.ID] = order.Clone()
	return nil
}

func (r *OrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	_ = ctx

	r.v.mu.RLock()
	defer r.v.mu.RUnlock()

	return r.v.data().sortedOrders(), nil
}
