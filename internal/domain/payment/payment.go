package payment

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidInput        = errors.New("payment: invalid input")
	ErrInvalidMethod       = fmt.Errorf("%w: unsupported payment method", ErrInvalidInput)
	ErrInvalidAmount       = fmt.Errorf("%w: amount must be greater than zero", ErrInvalidInput)
	ErrInsufficientPayment = fmt.Errorf("%w: insufficient payment", ErrInvalidInput)
)

// Status is the settlement state of an order's payment.
type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusRefunded Status = "refunded"
)

// Record is the outcome of a successful tender.
type Record struct {
	Method     Method
	Amount     float64
	PaidAmount float64
	Change     float64
	Status     Status
}

// Validate checks a tender against the amount due. paid may be nil when the
// customer pays the exact amount (card, wallets).
func Validate(method string, amount float64, paid *float64) error {
	if _, err := ParseMethod(method); err != nil {
		return err
	}
	if !finite(amount) || amount <= 0 {
		return ErrInvalidAmount
	}
	if paid != nil && !finite(*paid) {
		return fmt.Errorf("%w: paid amount %v", ErrInvalidAmount, *paid)
	}
	if paid != nil && *paid < amount {
		return fmt.Errorf("%w: required %.2f, paid %.2f", ErrInsufficientPayment, amount, *paid)
	}
	return nil
}

// Process validates the tender and computes the change. It has no side effects.
func Process(method string, amount float64, paid *float64) (Record, error) {
	if err := Validate(method, amount, paid); err != nil {
		return Record{}, err
	}
	m, _ := ParseMethod(method)

	paidAmount := amount
	if paid != nil {
		paidAmount = *paid
	}
	return Record{
		Method:     m,
		Amount:     amount,
		PaidAmount: paidAmount,
		Change:     max(0, paidAmount-amount),
		Status:     StatusPaid,
	}, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
