package returns

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/minishop-pos/internal/application"
	"github.com/Zhima-Mochi/minishop-pos/internal/application/inventory"
	domorder "github.com/Zhima-Mochi/minishop-pos/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-pos/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-pos/internal/observability"
)

const (
	returnService        = "return-service"
	useCaseFindOrder     = "returns.find_order"
	useCaseProcessReturn = "returns.process"
)

var (
	ErrNotFound         = domorder.ErrNotFound
	ErrAlreadyReturned  = domorder.ErrAlreadyReturned
	ErrItemNotInOrder   = errors.New("returns: product not found in order")
	ErrExceedsPurchased = errors.New("returns: cannot return more than purchased")
	ErrNoItemsToReturn  = errors.New("returns: no items to return")
	ErrUpdateFailed     = errors.New("returns: order update failed")
	ErrRepository       = errors.New("returns: repository failure")
)

// Returnable describes how much of a line may still be returned.
type Returnable struct {
	Line      domorder.Line
	Quantity  int
	CanReturn bool
}

type Request struct {
	OrderID string
	Items   map[string]int // product id -> quantity to return
	Reason  string
}

type ReturnedLine struct {
	Line     domorder.Line
	Quantity int
	Refund   float64
}

type Record struct {
	OrderID    string
	Amount     float64
	Lines      []ReturnedLine
	Reason     string
	Status     domorder.Status
	ReturnedAt time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

type Service struct {
	orders    domorder.Repository
	uow       application.UnitOfWork
	publisher domoutbox.Publisher
	now       func() time.Time

	inst    *application.Instrument
	refunds observability.Counter // refund_amount_total
}

func NewService(
	stores application.Stores,
	uow application.UnitOfWork,
	publisher domoutbox.Publisher,
	tel observability.Observability,
	opts ...Option,
) *Service {
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		metricsProvider = tel.Metrics()
	}
	s := &Service{
		orders:    stores.Orders,
		uow:       uow,
		publisher: publisher,
		now:       time.Now,
		inst:      application.NewInstrument(tel, returnService),
		refunds:   metricsProvider.Counter(observability.MRefundAmount),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) FindOrder(ctx context.Context, orderID string) (_ *domorder.Order, err error) {
	ctx, call := s.inst.Start(ctx, useCaseFindOrder, "FindOrder", attribute.String("order.id", orderID))
	defer func() { call.End(err) }()

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, domorder.ErrNotFound) {
			call.Fail("ORDER_NOT_FOUND")
			return nil, fmt.Errorf("returns: order %s: %w", orderID, err)
		}
		call.Fail("REPO_FAILED")
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	return o, nil
}

// ReturnableItems reports every line as fully returnable until the order is
// marked returned. Earlier partial returns are not tracked per line.
func ReturnableItems(o *domorder.Order) []Returnable {
	lines := o.Lines()
	out := make([]Returnable, 0, len(lines))
	for _, l := range lines {
		qty := l.Quantity
		if o.Status == domorder.StatusReturned {
			qty = 0
		}
		out = append(out, Returnable{Line: l, Quantity: qty, CanReturn: qty > 0})
	}
	return out
}

// ProcessReturn validates the whole request before touching anything, then
// restocks and updates the order inside one unit of work.
func (s *Service) ProcessReturn(ctx context.Context, req Request) (_ *Record, err error) {
	ctx, call := s.inst.Start(ctx, useCaseProcessReturn, "ProcessReturn", attribute.String("order.id", req.OrderID))
	call.Field("order_id", req.OrderID)
	defer func() { call.End(err) }()

	var (
		record  *Record
		updated *domorder.Order
	)
	err = s.uow.Do(ctx, func(ctx context.Context, tx application.Stores) error {
		o, err := tx.Orders.Get(ctx, req.OrderID)
		if err != nil {
			if errors.Is(err, domorder.ErrNotFound) {
				return fmt.Errorf("returns: order %s: %w", req.OrderID, err)
			}
			return fmt.Errorf("%w: %w", ErrRepository, err)
		}
		if o.Status == domorder.StatusReturned {
			return fmt.Errorf("returns: order %s: %w", o.ID, ErrAlreadyReturned)
		}

		accepted, err := validate(o, req.Items)
		if err != nil {
			return err
		}

		ledger := inventory.NewLedger(tx.Inventory)
		rec := &Record{OrderID: o.ID, Reason: req.Reason, ReturnedAt: s.now()}
		returnedQty := 0
		for _, rl := range accepted {
			if err := ledger.Add(ctx, rl.Line.ProductID(), rl.Quantity); err != nil {
				return fmt.Errorf("returns: restock %s: %w", rl.Line.ProductID(), err)
			}
			rec.Lines = append(rec.Lines, rl)
			rec.Amount += rl.Refund
			returnedQty += rl.Quantity
		}

		if err := o.RegisterReturn(returnedQty); err != nil {
			return err
		}
		if err := tx.Orders.Update(ctx, o); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrUpdateFailed, o.ID, err)
		}
		rec.Status = o.Status
		record, updated = rec, o
		return nil
	})
	if err != nil {
		call.Fail(failureStatus(err))
		return nil, err
	}

	s.refunds.Add(record.Amount)
	call.Field("return_amount", record.Amount)
	call.Field("order_status", string(record.Status))

	if s.publisher != nil {
		quantities := make(map[string]int, len(record.Lines))
		for _, rl := range record.Lines {
			quantities[rl.Line.ProductID()] = rl.Quantity
		}
		if perr := s.publisher.Publish(ctx, domorder.NewOrderReturnedEvent(updated, record.Amount, quantities)); perr != nil {
			call.Field("event_publish_error", perr.Error())
		}
	}
	return record, nil
}

// validate checks requested product ids in sorted order and stops at the
// first offending entry. Accepted lines come back in the order's line order.
func validate(o *domorder.Order, items map[string]int) ([]ReturnedLine, error) {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	wanted := make(map[string]int, len(ids))
	for _, id := range ids {
		qty := items[id]
		if qty <= 0 {
			continue
		}
		line, ok := o.Line(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrItemNotInOrder, id)
		}
		if qty > line.Quantity {
			return nil, fmt.Errorf("%w: %s (purchased %d, requested %d)", ErrExceedsPurchased, line.Product.Name, line.Quantity, qty)
		}
		wanted[id] = qty
	}
	if len(wanted) == 0 {
		return nil, ErrNoItemsToReturn
	}

	accepted := make([]ReturnedLine, 0, len(wanted))
	for _, l := range o.Lines() {
		qty, ok := wanted[l.ProductID()]
		if !ok {
			continue
		}
		accepted = append(accepted, ReturnedLine{Line: l, Quantity: qty, Refund: l.UnitPrice * float64(qty)})
	}
	return accepted, nil
}

func failureStatus(err error) string {
	switch {
	case errors.Is(err, domorder.ErrNotFound) && !errors.Is(err, ErrUpdateFailed):
		return "ORDER_NOT_FOUND"
	case errors.Is(err, ErrAlreadyReturned):
		return "ALREADY_RETURNED"
	case errors.Is(err, ErrItemNotInOrder):
		return "ITEM_NOT_IN_ORDER"
	case errors.Is(err, ErrExceedsPurchased):
		return "EXCEEDS_PURCHASED"
	case errors.Is(err, ErrNoItemsToReturn):
		return "NO_ITEMS_TO_RETURN"
	case errors.Is(err, ErrUpdateFailed):
		return "UPDATE_FAILED"
	case errors.Is(err, domorder.ErrInvalidStateTransition):
		return "ORDER_NOT_SETTLED"
	default:
		return "REPO_FAILED"
	}
}
