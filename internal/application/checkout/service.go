package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/minishop-pos/internal/application"
	"github.com/Zhima-Mochi/minishop-pos/internal/application/inventory"
	dominv "github.com/Zhima-Mochi/minishop-pos/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-pos/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-pos/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-pos/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-pos/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-pos/internal/observability"
	"github.com/Zhima-Mochi/minishop-pos/internal/observability/logctx"
)

const (
	checkoutService       = "checkout-service"
	useCaseAddItem        = "checkout.add_item"
	useCaseUpdateQuantity = "checkout.update_quantity"
	useCaseRemoveItem     = "checkout.remove_item"
	useCasePay            = "checkout.pay"
)

var (
	ErrEmptyOrder           = errors.New("checkout: no items in order")
	ErrNoActiveOrder        = errors.New("checkout: no active order")
	ErrNoSession            = errors.New("checkout: no session")
	ErrDuplicateOrder       = errors.New("checkout: order already exists")
	ErrStockReductionFailed = errors.New("checkout: failed to reduce stock")
	ErrRepository           = errors.New("checkout: repository failure")
)

type IDGenerator interface {
	NewID() string
}

// Receipt is the outcome of a successful payment.
type Receipt struct {
	Order   *domorder.Order
	Payment payment.Record
}

type Option func(*Service)

// WithClock overrides the time source used for order creation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service runs the checkout workflow against a caller-owned Session.
type Service struct {
	products  product.Repository
	ledger    *inventory.Ledger
	uow       application.UnitOfWork
	ids       IDGenerator
	publisher domoutbox.Publisher
	now       func() time.Time

	inst  *application.Instrument
	sales observability.Counter // sales_amount_total{payment_method}
}

func NewService(
	stores application.Stores,
	uow application.UnitOfWork,
	ids IDGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
	opts ...Option,
) *Service {
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		metricsProvider = tel.Metrics()
	}
	s := &Service{
		products:  stores.Products,
		ledger:    inventory.NewLedger(stores.Inventory),
		uow:       uow,
		ids:       ids,
		publisher: publisher,
		now:       time.Now,
		inst:      application.NewInstrument(tel, checkoutService),
		sales:     metricsProvider.Counter(observability.MSalesAmount),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartOrder discards any unpaid draft and opens a new one.
func (s *Service) StartOrder(ctx context.Context, sess *Session) (*domorder.Order, error) {
	if sess == nil {
		return nil, ErrNoSession
	}
	o := domorder.New(s.ids.NewID(), s.now())
	sess.reset(o)
	logctx.FromOr(ctx, s.inst.Logger()).Debug("draft_started", observability.F("order_id", o.ID))
	return o.Clone(), nil
}

// CancelOrder drops the draft without touching stock or storage.
func (s *Service) CancelOrder(ctx context.Context, sess *Session) {
	if sess == nil {
		return
	}
	if sess.Active() {
		logctx.FromOr(ctx, s.inst.Logger()).Debug("draft_cancelled", observability.F("order_id", sess.draft.ID))
	}
	sess.reset(nil)
}

// FindProduct resolves a scanned code as a product id, then as a barcode.
func (s *Service) FindProduct(ctx context.Context, code string) (*product.Product, error) {
	p, err := s.products.Get(ctx, code)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, product.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	p, err = s.products.GetByBarcode(ctx, code)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, fmt.Errorf("checkout: product %s: %w", code, product.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	return p, nil
}

// AddItem adds qty units of a product to the draft, starting one if needed.
// Stock is checked against the combined quantity already on the draft. A
// draft is only started once the product and stock checks pass.
func (s *Service) AddItem(ctx context.Context, sess *Session, productID string, qty int) (_ *domorder.Order, err error) {
	ctx, call := s.inst.Start(ctx, useCaseAddItem, "AddItem",
		attribute.String("product.id", productID),
		attribute.Int("quantity", qty),
	)
	defer func() { call.End(err) }()

	if qty <= 0 {
		call.Fail("INVALID_QUANTITY")
		return nil, domorder.ErrInvalidQuantity
	}
	if sess == nil {
		call.Fail("NO_SESSION")
		return nil, ErrNoSession
	}

	p, err := s.products.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			call.Fail("PRODUCT_NOT_FOUND")
			return nil, fmt.Errorf("checkout: product %s: %w", productID, err)
		}
		call.Fail("PRODUCT_LOOKUP_FAILED")
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}

	held := 0
	if sess.Active() {
		held = sess.draft.QuantityOf(p.ID)
	}
	if err := s.ledger.Check(ctx, p.ID, held+qty); err != nil {
		call.Fail(stockStatus(err))
		return nil, err
	}
	if !sess.Active() {
		if _, err := s.StartOrder(ctx, sess); err != nil {
			return nil, err
		}
	}
	call.Field("order_id", sess.draft.ID)
	if err := sess.draft.AddItem(*p, qty); err != nil {
		call.Fail("DRAFT_UPDATE_FAILED")
		return nil, err
	}
	return sess.draft.Clone(), nil
}

// RemoveItem drops a product's line. Absent products are ignored.
func (s *Service) RemoveItem(ctx context.Context, sess *Session, productID string) (err error) {
	_, call := s.inst.Start(ctx, useCaseRemoveItem, "RemoveItem", attribute.String("product.id", productID))
	defer func() { call.End(err) }()

	if !sess.Active() {
		call.Fail("NO_ACTIVE_ORDER")
		return ErrNoActiveOrder
	}
	call.Field("order_id", sess.draft.ID)
	if _, ok := sess.draft.Line(productID); !ok {
		call.SetStatus("ITEM_ABSENT")
	}
	if err := sess.draft.RemoveItem(productID); err != nil {
		call.Fail("DRAFT_UPDATE_FAILED")
		return err
	}
	return nil
}

// UpdateItemQuantity sets a line's absolute quantity; zero or less removes it.
func (s *Service) UpdateItemQuantity(ctx context.Context, sess *Session, productID string, qty int) (err error) {
	ctx, call := s.inst.Start(ctx, useCaseUpdateQuantity, "UpdateItemQuantity",
		attribute.String("product.id", productID),
		attribute.Int("quantity", qty),
	)
	defer func() { call.End(err) }()

	if !sess.Active() {
		call.Fail("NO_ACTIVE_ORDER")
		return ErrNoActiveOrder
	}
	if qty <= 0 {
		call.SetStatus("ITEM_REMOVED")
		return sess.draft.RemoveItem(productID)
	}
	if _, ok := sess.draft.Line(productID); !ok {
		call.Fail("ITEM_NOT_IN_ORDER")
		return fmt.Errorf("%w: %s", domorder.ErrLineNotFound, productID)
	}
	if err := s.ledger.Check(ctx, productID, qty); err != nil {
		call.Fail(stockStatus(err))
		return err
	}
	return sess.draft.SetQuantity(productID, qty)
}

// ProcessPayment settles the draft. Stock for every line is verified and then
// reduced, and the order inserted, inside one unit of work. The draft is
// left untouched on any failure.
func (s *Service) ProcessPayment(ctx context.Context, sess *Session, method string, paid *float64) (_ *Receipt, err error) {
	ctx, call := s.inst.Start(ctx, useCasePay, "ProcessPayment", attribute.String("payment.method", method))
	defer func() { call.End(err) }()

	if !sess.Active() || sess.draft.IsEmpty() {
		call.Fail("EMPTY_ORDER")
		return nil, ErrEmptyOrder
	}
	draft := sess.draft
	call.Field("order_id", draft.ID)
	call.Span().SetAttributes(attribute.String("order.id", draft.ID))

	record, err := payment.Process(method, draft.Total(), paid)
	if err != nil {
		call.Fail("PAYMENT_INVALID")
		return nil, fmt.Errorf("checkout: payment: %w", err)
	}

	settled := draft.Clone()
	if err := settled.MarkPaid(record.Method); err != nil {
		call.Fail("STATE_TRANSITION_FAILED")
		return nil, err
	}

	err = s.uow.Do(ctx, func(ctx context.Context, tx application.Stores) error {
		if err := reduceStock(ctx, inventory.NewLedger(tx.Inventory), settled.Lines()); err != nil {
			return err
		}
		if err := tx.Orders.Insert(ctx, settled); err != nil {
			if errors.Is(err, domorder.ErrConflict) {
				return fmt.Errorf("%w: %s: %w", ErrDuplicateOrder, settled.ID, err)
			}
			return fmt.Errorf("%w: insert order: %w", ErrRepository, err)
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrStockReductionFailed):
			call.Fail("STOCK_REDUCTION_FAILED")
		case errors.Is(err, ErrDuplicateOrder):
			call.Fail("DUPLICATE_ORDER")
		default:
			call.Fail("REPO_FAILED")
		}
		return nil, err
	}

	sess.reset(nil)
	s.sales.Add(settled.Total(), observability.L("payment_method", record.Method.String()))
	call.Field("total", settled.Total())

	if s.publisher != nil {
		if perr := s.publisher.Publish(ctx, domorder.NewOrderPaidEvent(settled)); perr != nil {
			call.Field("event_publish_error", perr.Error())
		}
	}
	return &Receipt{Order: settled, Payment: record}, nil
}

// reduceStock verifies every line before reducing any. If a reduction still
// fails, the lines already reduced are added back before returning.
func reduceStock(ctx context.Context, ledger *inventory.Ledger, lines []domorder.Line) error {
	for _, l := range lines {
		if err := ledger.Check(ctx, l.ProductID(), l.Quantity); err != nil {
			return fmt.Errorf("%w for %s: %w", ErrStockReductionFailed, l.Product.Name, err)
		}
	}

	reduced := make([]domorder.Line, 0, len(lines))
	for _, l := range lines {
		ok, err := ledger.Reduce(ctx, l.ProductID(), l.Quantity)
		if err == nil && ok {
			reduced = append(reduced, l)
			continue
		}
		cause := err
		if cause == nil {
			cause = dominv.ErrInsufficientStock
		}
		if cerr := compensate(ctx, ledger, reduced); cerr != nil {
			return fmt.Errorf("%w for %s: %w (compensation: %w)", ErrStockReductionFailed, l.Product.Name, cause, cerr)
		}
		return fmt.Errorf("%w for %s: %w", ErrStockReductionFailed, l.Product.Name, cause)
	}
	return nil
}

func compensate(ctx context.Context, ledger *inventory.Ledger, reduced []domorder.Line) error {
	var errs []error
	for _, l := range reduced {
		if err := ledger.Add(ctx, l.ProductID(), l.Quantity); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func stockStatus(err error) string {
	if errors.Is(err, dominv.ErrInsufficientStock) {
		return "INSUFFICIENT_STOCK"
	}
	return "INVENTORY_READ_FAILED"
}
