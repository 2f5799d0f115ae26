package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/minishop-pos/internal/application"
	dominv "github.com/Zhima-Mochi/minishop-pos/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-pos/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-pos/internal/observability"
)

const (
	inventoryService    = "inventory-service"
	useCaseReport       = "inventory.report"
	useCaseSearch       = "inventory.search"
	DefaultLowThreshold = 10
)

type Level string

const (
	LevelInStock    Level = "in_stock"
	LevelLowStock   Level = "low_stock"
	LevelOutOfStock Level = "out_of_stock"
)

// LevelFor classifies a quantity; low stock is anything above zero and below threshold.
func LevelFor(qty, threshold int) Level {
	switch {
	case qty <= 0:
		return LevelOutOfStock
	case qty < threshold:
		return LevelLowStock
	default:
		return LevelInStock
	}
}

type Entry struct {
	Product  product.Product
	Quantity int
	Level    Level
}

// Summary counts products by level. InStock includes low-stock products.
type Summary struct {
	TotalProducts int
	InStock       int
	OutOfStock    int
	LowStock      int
	TotalItems    int
}

type Report struct {
	Entries   []Entry
	Summary   Summary
	Threshold int
}

// Lookup serves the read-only inventory screen.
type Lookup struct {
	products  product.Repository
	inventory dominv.Repository
	threshold int
	inst      *application.Instrument
}

func NewLookup(products product.Repository, inventory dominv.Repository, threshold int, tel observability.Observability) *Lookup {
	if threshold <= 0 {
		threshold = DefaultLowThreshold
	}
	return &Lookup{
		products:  products,
		inventory: inventory,
		threshold: threshold,
		inst:      application.NewInstrument(tel, inventoryService),
	}
}

func (l *Lookup) Threshold() int { return l.threshold }

// Report lists every product with its stock, sorted by product id.
func (l *Lookup) Report(ctx context.Context) (_ Report, err error) {
	ctx, call := l.inst.Start(ctx, useCaseReport, "InventoryReport")
	defer func() { call.End(err) }()

	products, err := l.products.List(ctx)
	if err != nil {
		call.Fail("PRODUCT_LIST_FAILED")
		return Report{}, fmt.Errorf("inventory: list products: %w", err)
	}
	entries, err := l.entries(ctx, products)
	if err != nil {
		call.Fail("INVENTORY_READ_FAILED")
		return Report{}, err
	}

	report := Report{Entries: entries, Threshold: l.threshold}
	for _, e := range entries {
		report.Summary.TotalProducts++
		report.Summary.TotalItems += e.Quantity
		switch e.Level {
		case LevelOutOfStock:
			report.Summary.OutOfStock++
		case LevelLowStock:
			report.Summary.LowStock++
			report.Summary.InStock++
		default:
			report.Summary.InStock++
		}
	}
	call.Field("products", report.Summary.TotalProducts)
	return report, nil
}

// Search matches an exact product id first, then a case-insensitive name substring.
func (l *Lookup) Search(ctx context.Context, query string) (_ []Entry, err error) {
	query = strings.TrimSpace(query)
	ctx, call := l.inst.Start(ctx, useCaseSearch, "InventorySearch", attribute.String("query", query))
	defer func() { call.End(err) }()

	if query == "" {
		return nil, nil
	}

	p, err := l.products.Get(ctx, query)
	switch {
	case err == nil:
		return l.entries(ctx, []product.Product{*p})
	case !errors.Is(err, product.ErrNotFound):
		call.Fail("PRODUCT_LOOKUP_FAILED")
		return nil, fmt.Errorf("inventory: get product: %w", err)
	}

	all, err := l.products.List(ctx)
	if err != nil {
		call.Fail("PRODUCT_LIST_FAILED")
		return nil, fmt.Errorf("inventory: list products: %w", err)
	}
	needle := strings.ToLower(query)
	var matches []product.Product
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		call.SetStatus("NO_MATCH")
	}
	return l.entries(ctx, matches)
}

func (l *Lookup) entries(ctx context.Context, products []product.Product) ([]Entry, error) {
	out := make([]Entry, 0, len(products))
	for _, p := range products {
		qty, err := l.inventory.Get(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("inventory: get %s: %w", p.ID, err)
		}
		out = append(out, Entry{Product: p, Quantity: qty, Level: LevelFor(qty, l.threshold)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Product.ID < out[j].Product.ID })
	return out, nil
}
