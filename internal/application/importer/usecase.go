package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-pos/internal/application"
	domorder "github.com/Zhima-Mochi/minishop-pos/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-pos/internal/domain/payment"
	domproduct "github.com/Zhima-Mochi/minishop-pos/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-pos/internal/observability"
)

const (
	importService = "import-service"
	useCaseImport = "import.batch"
)

// LineRecord is an order line as stored by the legacy data files.
type LineRecord struct {
	ProductID string
	Quantity  int
	UnitPrice float64
}

type OrderRecord struct {
	ID            string
	Lines         []LineRecord
	PaymentMethod string
	PaymentStatus string
	Status        string
	CreatedAt     time.Time
}

// Batch is one bulk load. Products are inserted first so order lines can
// resolve against them.
type Batch struct {
	Products  []domproduct.Product
	Orders    []OrderRecord
	Inventory map[string]int
}

type Counts struct {
	Inserted int
	Skipped  int
}

type Report struct {
	Products  Counts
	Orders    Counts
	Inventory Counts
}

// UseCase inserts records whose key does not exist yet and skips the rest.
type UseCase struct {
	uow  application.UnitOfWork
	inst *application.Instrument
}

func New(uow application.UnitOfWork, tel observability.Observability) *UseCase {
	return &UseCase{uow: uow, inst: application.NewInstrument(tel, importService)}
}

var _ application.UseCase[Batch, Report] = (*UseCase)(nil)

func (uc *UseCase) Execute(ctx context.Context, batch Batch) (_ Report, err error) {
	ctx, call := uc.inst.Start(ctx, useCaseImport, "ImportBatch")
	defer func() { call.End(err) }()

	var report Report
	err = uc.uow.Do(ctx, func(ctx context.Context, tx application.Stores) error {
		report = Report{}
		logger := call.Logger()
		var err error
		if report.Products, err = importProducts(ctx, tx, batch.Products, logger); err != nil {
			return err
		}
		if report.Orders, err = importOrders(ctx, tx, batch.Orders, logger); err != nil {
			return err
		}
		report.Inventory, err = importInventory(ctx, tx, batch.Inventory)
		return err
	})
	if err != nil {
		call.Fail("IMPORT_FAILED")
		return Report{}, err
	}

	call.Field("products_inserted", report.Products.Inserted)
	call.Field("orders_inserted", report.Orders.Inserted)
	call.Field("inventory_inserted", report.Inventory.Inserted)
	return report, nil
}

func importProducts(ctx context.Context, tx application.Stores, products []domproduct.Product, logger observability.Logger) (Counts, error) {
	var c Counts
	for _, raw := range products {
		p, err := domproduct.New(raw.ID, raw.Name, raw.Price, raw.Barcode, raw.Category)
		if err != nil {
			logger.Warn("import_product_invalid", observability.F("product_id", raw.ID), observability.F("error", err))
			c.Skipped++
			continue
		}
		switch _, err := tx.Products.Get(ctx, p.ID); {
		case err == nil:
			c.Skipped++
			continue
		case !errors.Is(err, domproduct.ErrNotFound):
			return c, fmt.Errorf("import: get product %s: %w", p.ID, err)
		}
		if err := tx.Products.Add(ctx, p); err != nil {
			if errors.Is(err, domproduct.ErrConflict) {
				logger.Warn("import_product_conflict", observability.F("product_id", p.ID), observability.F("error", err))
				c.Skipped++
				continue
			}
			return c, fmt.Errorf("import: add product %s: %w", p.ID, err)
		}
		c.Inserted++
	}
	return c, nil
}

func importOrders(ctx context.Context, tx application.Stores, orders []OrderRecord, logger observability.Logger) (Counts, error) {
	var c Counts
	for _, rec := range orders {
		switch _, err := tx.Orders.Get(ctx, rec.ID); {
		case err == nil:
			c.Skipped++
			continue
		case !errors.Is(err, domorder.ErrNotFound):
			return c, fmt.Errorf("import: get order %s: %w", rec.ID, err)
		}

		o, err := buildOrder(ctx, tx, rec)
		if err != nil {
			logger.Warn("import_order_invalid", observability.F("order_id", rec.ID), observability.F("error", err))
			c.Skipped++
			continue
		}
		if err := tx.Orders.Insert(ctx, o); err != nil {
			if errors.Is(err, domorder.ErrConflict) {
				c.Skipped++
				continue
			}
			return c, fmt.Errorf("import: insert order %s: %w", rec.ID, err)
		}
		c.Inserted++
	}
	return c, nil
}

// buildOrder resolves lines against known products; lines for unknown
// products are dropped and the total is derived from what remains.
func buildOrder(ctx context.Context, tx application.Stores, rec OrderRecord) (*domorder.Order, error) {
	lines := make([]domorder.Line, 0, len(rec.Lines))
	for _, l := range rec.Lines {
		if l.Quantity <= 0 {
			continue
		}
		p, err := tx.Products.Get(ctx, l.ProductID)
		if err != nil {
			if errors.Is(err, domproduct.ErrNotFound) {
				continue
			}
			return nil, err
		}
		lines = append(lines, domorder.Line{Product: *p, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}

	var method payment.Method
	if strings.TrimSpace(rec.PaymentMethod) != "" {
		m, err := payment.ParseMethod(rec.PaymentMethod)
		if err != nil {
			return nil, err
		}
		method = m
	}
	paymentStatus, err := parsePaymentStatus(rec.PaymentStatus)
	if err != nil {
		return nil, err
	}
	status := domorder.Status(strings.ToLower(strings.TrimSpace(rec.Status)))
	if status == "" {
		status = domorder.StatusCompleted
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return domorder.Restore(rec.ID, lines, method, paymentStatus, createdAt, status)
}

func parsePaymentStatus(s string) (payment.Status, error) {
	switch st := payment.Status(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return payment.StatusPending, nil
	case payment.StatusPending, payment.StatusPaid, payment.StatusRefunded:
		return st, nil
	default:
		return "", fmt.Errorf("import: unknown payment status %q", s)
	}
}

func importInventory(ctx context.Context, tx application.Stores, stock map[string]int) (Counts, error) {
	var c Counts
	if len(stock) == 0 {
		return c, nil
	}
	existing, err := tx.Inventory.List(ctx)
	if err != nil {
		return c, fmt.Errorf("import: list inventory: %w", err)
	}
	for id, qty := range stock {
		if _, ok := existing[id]; ok {
			c.Skipped++
			continue
		}
		if err := tx.Inventory.Set(ctx, id, qty); err != nil {
			return c, fmt.Errorf("import: set inventory %s: %w", id, err)
		}
		c.Inserted++
	}
	return c, nil
}
