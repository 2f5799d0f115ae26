package order

import (
	"time"

	"github.com/Zhima-Mochi/minishop-pos/internal/domain/payment"
)

// LineSnapshot is the event view of an order line.
type LineSnapshot struct {
	ProductID string
	Quantity  int
	UnitPrice float64
}

// OrderPaidEvent is emitted after a paid order and its stock reductions are committed.
type OrderPaidEvent struct {
	OrderID    string
	Total      float64
	Method     payment.Method
	Lines      []LineSnapshot
	OccurredAt time.Time
}

func (OrderPaidEvent) EventName() string { return "order.paid" }

func NewOrderPaidEvent(o *Order) OrderPaidEvent {
	lines := make([]LineSnapshot, 0, len(o.lines))
	for _, l := range o.lines {
		lines = append(lines, LineSnapshot{ProductID: l.ProductID(), Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return OrderPaidEvent{
		OrderID:    o.ID,
		Total:      o.Total(),
		Method:     o.PaymentMethod,
		Lines:      lines,
		OccurredAt: time.Now().UTC(),
	}
}

// OrderReturnedEvent is emitted after a return has restocked inventory and updated the order.
type OrderReturnedEvent struct {
	OrderID    string
	Amount     float64
	Status     Status
	Quantities map[string]int
	OccurredAt time.Time
}

func (OrderReturnedEvent) EventName() string { return "order.returned" }

func NewOrderReturnedEvent(o *Order, amount float64, quantities map[string]int) OrderReturnedEvent {
	q := make(map[string]int, len(quantities))
	for k, v := range quantities {
		q[k] = v
	}
	return OrderReturnedEvent{
		OrderID:    o.ID,
		Amount:     amount,
		Status:     o.Status,
		Quantities: q,
		OccurredAt: time.Now().UTC(),
	}
}
