package order

import (
	"fmt"

	"github.com/Zhima-Mochi/minishop-pos/internal/domain/payment"
)

// OrderState implements the state pattern for order lifecycle transitions.
type OrderState interface {
	Status() Status
	OnPaid(o *Order, method payment.Method) (OrderState, error)
	OnReturn(o *Order, returnedQty int) (OrderState, error)
}

func (o *Order) state() OrderState {
	if o.PaymentStatus == payment.StatusPending {
		return draftState{}
	}
	switch o.Status {
	case StatusPartialReturned:
		return partialReturnedState{}
	case StatusReturned:
		return returnedState{}
	default:
		return completedState{}
	}
}

type draftState struct{}

func (draftState) Status() Status { return StatusCompleted }

func (draftState) OnPaid(o *Order, method payment.Method) (OrderState, error) {
	if o.IsEmpty() {
		return nil, fmt.Errorf("%w: order %s has no items", ErrInvalidStateTransition, o.ID)
	}
	o.PaymentMethod = method
	o.PaymentStatus = payment.StatusPaid
	return completedState{}, nil
}

func (draftState) OnReturn(o *Order, _ int) (OrderState, error) {
	return nil, fmt.Errorf("%w: order %s is not paid", ErrInvalidStateTransition, o.ID)
}

type completedState struct{}

func (completedState) Status() Status { return StatusCompleted }

func (completedState) OnPaid(o *Order, _ payment.Method) (OrderState, error) {
	return nil, fmt.Errorf("%w: order %s already paid", ErrInvalidStateTransition, o.ID)
}

func (completedState) OnReturn(o *Order, returnedQty int) (OrderState, error) {
	return settleReturn(o, returnedQty), nil
}

type partialReturnedState struct{}

func (partialReturnedState) Status() Status { return StatusPartialReturned }

func (partialReturnedState) OnPaid(o *Order, _ payment.Method) (OrderState, error) {
	return nil, fmt.Errorf("%w: order %s already paid", ErrInvalidStateTransition, o.ID)
}

func (partialReturnedState) OnReturn(o *Order, returnedQty int) (OrderState, error) {
	return settleReturn(o, returnedQty), nil
}

type returnedState struct{}

func (returnedState) Status() Status { return StatusReturned }

func (returnedState) OnPaid(o *Order, _ payment.Method) (OrderState, error) {
	return nil, fmt.Errorf("%w: order %s already paid", ErrInvalidStateTransition, o.ID)
}

func (returnedState) OnReturn(*Order, int) (OrderState, error) {
	return nil, ErrAlreadyReturned
}

// settleReturn compares this return against everything ordered; per-line
// history of earlier partial returns is not tracked.
func settleReturn(o *Order, returnedQty int) OrderState {
	if returnedQty >= o.TotalQuantity() {
		o.PaymentStatus = payment.StatusRefunded
		return returnedState{}
	}
	return partialReturnedState{}
}
