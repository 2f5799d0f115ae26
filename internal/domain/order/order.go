package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-pos/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-pos/internal/domain/product"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrConflict               = errors.New("order: already exists")
	ErrInvalidQuantity        = errors.New("order: quantity must be greater than zero")
	ErrLineNotFound           = errors.New("order: item not found in order")
	ErrInvalidStateTransition = errors.New("order: invalid state transition")
	ErrAlreadyReturned        = errors.New("order: already fully returned")
)

type Status string

const (
	StatusCompleted       Status = "completed"
	StatusPartialReturned Status = "partial_returned"
	StatusReturned        Status = "returned"
)

func (s Status) Valid() bool {
	switch s {
	case StatusCompleted, StatusPartialReturned, StatusReturned:
		return true
	}
	return false
}

// Line is one product entry with the unit price captured when it was added.
type Line struct {
	Product   product.Product
	Quantity  int
	UnitPrice float64
}

func (l Line) ProductID() string { return l.Product.ID }

func (l Line) Subtotal() float64 { return float64(l.Quantity) * l.UnitPrice }

// Order is a sale. While PaymentStatus is pending it is a draft whose lines
// may change; once paid only returns can move it forward.
type Order struct {
	ID            string
	PaymentMethod payment.Method
	PaymentStatus payment.Status
	Status        Status
	CreatedAt     time.Time

	lines []Line
	total float64
}

// New starts an empty draft.
func New(id string, createdAt time.Time) *Order {
	return &Order{
		ID:            id,
		PaymentStatus: payment.StatusPending,
		Status:        StatusCompleted,
		CreatedAt:     createdAt,
	}
}

// Restore rebuilds a persisted order. The total is always derived from the lines.
func Restore(id string, lines []Line, method payment.Method, paymentStatus payment.Status, createdAt time.Time, status Status) (*Order, error) {
	if id == "" {
		return nil, errors.New("order: id is required")
	}
	if !status.Valid() {
		return nil, fmt.Errorf("order: unknown status %q", status)
	}
	o := &Order{
		ID:            id,
		PaymentMethod: method,
		PaymentStatus: paymentStatus,
		Status:        status,
		CreatedAt:     createdAt,
		lines:         make([]Line, 0, len(lines)),
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: %s has quantity %d", ErrInvalidQuantity, l.ProductID(), l.Quantity)
		}
		o.lines = append(o.lines, l)
	}
	o.recalculate()
	return o, nil
}

// Lines returns a copy of the order lines in insertion order.
func (o *Order) Lines() []Line {
	out := make([]Line, len(o.lines))
	copy(out, o.lines)
	return out
}

func (o *Order) Line(productID string) (Line, bool) {
	if i := o.indexOf(productID); i >= 0 {
		return o.lines[i], true
	}
	return Line{}, false
}

// QuantityOf returns the quantity already on the order for a product, 0 when absent.
func (o *Order) QuantityOf(productID string) int {
	l, _ := o.Line(productID)
	return l.Quantity
}

func (o *Order) Total() float64 { return o.total }

func (o *Order) TotalQuantity() int {
	n := 0
	for _, l := range o.lines {
		n += l.Quantity
	}
	return n
}

func (o *Order) IsEmpty() bool { return len(o.lines) == 0 }

func (o *Order) IsDraft() bool { return o.PaymentStatus == payment.StatusPending }

// AddItem merges qty into the product's line, or appends a line at the product's current price.
func (o *Order) AddItem(p product.Product, qty int) error {
	if !o.IsDraft() {
		return fmt.Errorf("%w: order %s is no longer a draft", ErrInvalidStateTransition, o.ID)
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if i := o.indexOf(p.ID); i >= 0 {
		o.lines[i].Quantity += qty
	} else {
		o.lines = append(o.lines, Line{Product: p, Quantity: qty, UnitPrice: p.Price})
	}
	o.recalculate()
	return nil
}

// SetQuantity replaces a line's quantity; a quantity of zero or less drops the line.
func (o *Order) SetQuantity(productID string, qty int) error {
	if !o.IsDraft() {
		return fmt.Errorf("%w: order %s is no longer a draft", ErrInvalidStateTransition, o.ID)
	}
	i := o.indexOf(productID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLineNotFound, productID)
	}
	if qty <= 0 {
		o.lines = append(o.lines[:i], o.lines[i+1:]...)
	} else {
		o.lines[i].Quantity = qty
	}
	o.recalculate()
	return nil
}

// RemoveItem drops the product's line. Removing an absent product is a no-op.
func (o *Order) RemoveItem(productID string) error {
	if !o.IsDraft() {
		return fmt.Errorf("%w: order %s is no longer a draft", ErrInvalidStateTransition, o.ID)
	}
	if i := o.indexOf(productID); i >= 0 {
		o.lines = append(o.lines[:i], o.lines[i+1:]...)
	}
	o.recalculate()
	return nil
}

// MarkPaid settles the draft with the given method.
func (o *Order) MarkPaid(method payment.Method) error {
	next, err := o.state().OnPaid(o, method)
	if err != nil {
		return err
	}
	o.Status = next.Status()
	return nil
}

// RegisterReturn records that returnedQty units went back to the shelf.
func (o *Order) RegisterReturn(returnedQty int) error {
	if returnedQty <= 0 {
		return ErrInvalidQuantity
	}
	next, err := o.state().OnReturn(o, returnedQty)
	if err != nil {
		return err
	}
	o.Status = next.Status()
	return nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.lines = o.Lines()
	return &c
}

func (o *Order) indexOf(productID string) int {
	for i, l := range o.lines {
		if l.ProductID() == productID {
			return i
		}
	}
	return -1
}

func (o *Order) recalculate() {
	total := 0.0
	for _, l := range o.lines {
		total += l.Subtotal()
	}
	o.total = total
}
