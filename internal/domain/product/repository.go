package product

import "context"

type Repository interface {
	Get(ctx context.Context, id string) (*Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*Product, error)
	// Add fails with ErrConflict when the id or a non-empty barcode is taken.
	Add(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	// List returns every product ordered by id.
	List(ctx context.Context) ([]Product, error)
}
