package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Zhima-Mochi/minishop-pos/internal/application"
	domorder "github.com/Zhima-Mochi/minishop-pos/internal/domain/order"
	domproduct "github.com/Zhima-Mochi/minishop-pos/internal/domain/product"
)

type dataset struct {
	products  map[string]domproduct.Product
	barcodes  map[string]string
	orders    map[string]*domorder.Order
	inventory map[string]int
}

func newDataset() *dataset {
	return &dataset{
		products:  make(map[string]domproduct.Product),
		barcodes:  make(map[string]string),
		orders:    make(map[string]*domorder.Order),
		inventory: make(map[string]int),
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.barcodes {
		c.barcodes[k] = v
	}
	for k, v := range d.orders {
		c.orders[k] = v.Clone()
	}
	for k, v := range d.inventory {
		c.inventory[k] = v
	}
	return c
}

func (d *dataset) sortedOrders() []*domorder.Order {
	out := make([]*domorder.Order, 0, len(d.orders))
	for _, o := range d.orders {
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type locker interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
}

// noLock is used inside Do, where the store lock is already held.
type noLock struct{}

func (noLock) Lock()    {}
func (noLock) Unlock()  {}
func (noLock) RLock()   {}
func (noLock) RUnlock() {}

type view struct {
	mu   locker
	data func() *dataset
}

// Store keeps products, orders and inventory in process memory.
type Store struct {
	mu   sync.RWMutex
	data *dataset
}

func NewStore() *Store {
	return &Store{data: newDataset()}
}

func (s *Store) view() *view {
	return &view{mu: &s.mu, data: func() *dataset { return s.data }}
}

// Stores returns repositories that read and write the store directly.
func (s *Store) Stores() application.Stores {
	v := s.view()
	return application.Stores{
		Products:  &ProductRepository{v: v},
		Orders:    &OrderRepository{v: v},
		Inventory: &InventoryRepository{v: v},
	}
}

// Do runs fn against a private copy of the data and swaps it in when fn
// succeeds. The store is locked for the duration, so fn must only use tx.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx application.Stores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.data.clone()
	v := &view{mu: noLock{}, data: func() *dataset { return work }}
	tx := application.Stores{
		Products:  &ProductRepository{v: v},
		Orders:    &OrderRepository{v: v},
		Inventory: &InventoryRepository{v: v},
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *Store) Close() error { return nil }
