package inventory

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity   = errors.New("inventory: quantity must be zero or greater")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
)

// InsufficientStockError carries the stock that was actually available.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("inventory: insufficient stock for %s: available %d, requested %d", e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// Item is the stock record of one product. Quantity never drops below zero.
type Item struct {
	ProductID string
	Quantity  int
}

// NewItem clamps a negative quantity to zero, matching the write boundary of the store.
func NewItem(productID string, quantity int) *Item {
	return &Item{ProductID: productID, Quantity: max(0, quantity)}
}

func (i *Item) Covers(quantity int) bool {
	return i.Quantity >= quantity
}

// Deduct removes quantity only when enough stock is on hand; otherwise the item is left as is.
func (i *Item) Deduct(quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if !i.Covers(quantity) {
		return &InsufficientStockError{ProductID: i.ProductID, Requested: quantity, Available: i.Quantity}
	}
	i.Quantity -= quantity
	return nil
}

func (i *Item) Restock(quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	i.Quantity += quantity
	return nil
}
