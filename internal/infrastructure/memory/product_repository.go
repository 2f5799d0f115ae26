package memory

import (
	"context"
	"fmt"
	"sort"

	domain "github.com/Zhima-Mochi/minishop-pos/internal/domain/product"
)

type ProductRepository struct {
	v *view
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	_ = ctx
	r.v.mu.RLock()
	defer r.v.mu.RUnlock()

	p, ok := r.v.data().products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *ProductRepository) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	_ = ctx
	if barcode == "" {
		return nil, domain.ErrNotFound
	}
	r.v.mu.RLock()
	defer r.v.mu.RUnlock()

	d := r.v.data()
	id, ok := d.barcodes[barcode]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p := d.products[id]
	return &p, nil
}

func (r *ProductRepository) Add(ctx context.Context, p *domain.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return domain.ErrInvalidID
	}
	r.v.mu.Lock()
	defer r.v.mu.Unlock()

	d := r.v.data()
	if _, exists := d.products[p.ID]; exists {
		return fmt.Errorf("%w: id %s", domain.ErrConflict, p.ID)
	}
	if p.HasBarcode() {
		if _, taken := d.barcodes[p.Barcode]; taken {
			return fmt.Errorf("%w: barcode %s", domain.ErrConflict, p.Barcode)
		}
		d.barcodes[p.Barcode] = p.ID
	}
	d.products[p.ID] = *p
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return domain.ErrInvalidID
	}
	r.v.mu.Lock()
	defer r.v.mu.Unlock()

	d := r.v.data()
	old, exists := d.products[p.ID]
	if !exists {
		return domain.ErrNotFound
	}
	if p.HasBarcode() {
		if owner, taken := d.barcodes[p.Barcode]; taken && owner != p.ID {
			return fmt.Errorf("%w: barcode %s", domain.ErrConflict, p.Barcode)
		}
	}
	if old.HasBarcode() {
		delete(d.barcodes, old.Barcode)
	}
	if p.HasBarcode() {
		d.barcodes[p.Barcode] = p.ID
	}
	d.products[p.ID] = *p
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.v.mu.Lock()
	defer r.v.mu.Unlock()

	d := r.v.data()
	old, exists := d.products[id]
	if !exists {
		return domain.ErrNotFound
	}
	if old.HasBarcode() {
		delete(d.barcodes, old.Barcode)
	}
	delete(d.products, id)
	return nil
}

func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	_ = ctx
	r.v.mu.RLock()
	defer r.v.mu.RUnlock()

	d := r.v.data()
	out := make([]domain.Product, 0, len(d.products))
	for _, p := range d.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
