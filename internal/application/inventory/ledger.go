package inventory

import (
	"context"
	"errors"
	"fmt"

	dominv "github.com/Zhima-Mochi/minishop-pos/internal/domain/inventory"
)

// Ledger guards per-product stock. Each call touches one product; callers
// that need several products to move together wrap the calls in a unit of work.
type Ledger struct {
	repo dominv.Repository
}

func NewLedger(repo dominv.Repository) *Ledger {
	return &Ledger{repo: repo}
}

// Stock returns the on-hand quantity, 0 for unknown products.
func (l *Ledger) Stock(ctx context.Context, productID string) (int, error) {
	qty, err := l.repo.Get(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("inventory: get %s: %w", productID, err)
	}
	return qty, nil
}

func (l *Ledger) HasStock(ctx context.Context, productID string, qty int) (bool, error) {
	stock, err := l.Stock(ctx, productID)
	if err != nil {
		return false, err
	}
	return dominv.NewItem(productID, stock).Covers(qty), nil
}

// Check returns an *InsufficientStockError carrying the available quantity
// when qty units are not on hand.
func (l *Ledger) Check(ctx context.Context, productID string, qty int) error {
	stock, err := l.Stock(ctx, productID)
	if err != nil {
		return err
	}
	if !dominv.NewItem(productID, stock).Covers(qty) {
		return &dominv.InsufficientStockError{ProductID: productID, Requested: qty, Available: stock}
	}
	return nil
}

// Reduce decrements stock only when enough is on hand. It reports false and
// leaves stock untouched otherwise.
func (l *Ledger) Reduce(ctx context.Context, productID string, qty int) (bool, error) {
	stock, err := l.Stock(ctx, productID)
	if err != nil {
		return false, err
	}
	item := dominv.NewItem(productID, stock)
	if err := item.Deduct(qty); err != nil {
		if errors.Is(err, dominv.ErrInsufficientStock) {
			return false, nil
		}
		return false, err
	}
	if err := l.repo.Set(ctx, productID, item.Quantity); err != nil {
		return false, fmt.Errorf("inventory: set %s: %w", productID, err)
	}
	return true, nil
}

// Add increments stock unconditionally; used for restocking and returns.
func (l *Ledger) Add(ctx context.Context, productID string, qty int) error {
	stock, err := l.Stock(ctx, productID)
	if err != nil {
		return err
	}
	item := dominv.NewItem(productID, stock)
	if err := item.Restock(qty); err != nil {
		return err
	}
	if err := l.repo.Set(ctx, productID, item.Quantity); err != nil {
		return fmt.Errorf("inventory: set %s: %w", productID, err)
	}
	return nil
}

// SetStock upserts the record, clamping negative input to 0.
func (l *Ledger) SetStock(ctx context.Context, productID string, qty int) error {
	item := dominv.NewItem(productID, qty)
	if err := l.repo.Set(ctx, productID, item.Quantity); err != nil {
		return fmt.Errorf("inventory: set %s: %w", productID, err)
	}
	return nil
}
