package product

import (
	"errors"
	"math"
	"strings"
)

var (
	ErrNotFound     = errors.New("product: not found")
	ErrConflict     = errors.New("product: already exists")
	ErrInvalidID    = errors.New("product: id is required")
	ErrInvalidName  = errors.New("product: name is required")
	ErrInvalidPrice = errors.New("product: price must be a finite amount, zero or greater")
)

// Product is a catalog entry. Orders copy its price at sale time, so later
// edits never change a settled order.
type Product struct {
	ID       string
	Name     string
	Price    float64
	Barcode  string
	Category string
}

func New(id, name string, price float64, barcode, category string) (*Product, error) {
	p := &Product{
		ID:       strings.TrimSpace(id),
		Name:     strings.TrimSpace(name),
		Price:    price,
		Barcode:  strings.TrimSpace(barcode),
		Category: strings.TrimSpace(category),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Product) Validate() error {
	switch {
	case p.ID == "":
		return ErrInvalidID
	case p.Name == "":
		return ErrInvalidName
	case math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price < 0:
		return ErrInvalidPrice
	}
	return nil
}

// HasBarcode reports whether the optional barcode is set.
func (p Product) HasBarcode() bool { return p.Barcode != "" }
