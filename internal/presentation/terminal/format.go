package terminal

import (
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-pos/internal/application/checkout"
	"github.com/Zhima-Mochi/minishop-pos/internal/application/returns"
	dominv "github.com/Zhima-Mochi/minishop-pos/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-pos/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-pos/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-pos/internal/domain/product"
)

const timeLayout = "2006-01-02 15:04:05"

func (t *Terminal) lineTable(o *domorder.Order) {
	t.printf("%-20s %-8s %-12s %-12s\n", "Product Name", "Qty", "Unit Price", "Subtotal")
	t.println(rule("-", 60))
	for _, l := range o.Lines() {
		t.printf("%-20s %-8d $%-11.2f $%-11.2f\n", l.Product.Name, l.Quantity, l.UnitPrice, l.Subtotal())
	}
	t.println(rule("-", 60))
	t.printf("%-40s $%.2f\n", "Total", o.Total())
}

func (t *Terminal) currentOrder(o *domorder.Order) {
	if o == nil || o.IsEmpty() {
		t.println("\nCurrent order is empty")
		return
	}
	t.header("Current Order Details", 60)
	t.lineTable(o)
	t.println(rule("=", 60))
}

func (t *Terminal) receipt(r *checkout.Receipt) {
	t.header("RECEIPT", 60)
	t.printf("Order ID: %s\n", r.Order.ID)
	t.printf("Time: %s\n", formatTime(r.Order.CreatedAt))
	t.println(rule("-", 60))
	t.lineTable(r.Order)
	t.printf("Payment Method: %s\n", r.Payment.Method)
	if r.Payment.PaidAmount > 0 {
		t.printf("Amount Paid: $%.2f\n", r.Payment.PaidAmount)
	}
	if r.Payment.Change > 0 {
		t.printf("Change: $%.2f\n", r.Payment.Change)
	}
	t.println(rule("=", 60))
	t.println("Thank you for your purchase!")
	t.println(rule("=", 60))
}

func (t *Terminal) orderDetails(o *domorder.Order) {
	t.header("Order Details", 60)
	t.printf("Order ID: %s\n", o.ID)
	t.printf("Order Time: %s\n", formatTime(o.CreatedAt))
	t.printf("Order Status: %s\n", o.Status)
	t.printf("Payment Status: %s\n", o.PaymentStatus)
	t.println(rule("-", 60))
	t.lineTable(o)
	t.println(rule("=", 60))
}

func (t *Terminal) returnReceipt(r *returns.Record) {
	t.header("RETURN RECEIPT", 60)
	t.printf("Order ID: %s\n", r.OrderID)
	t.printf("Return Time: %s\n", formatTime(r.ReturnedAt))
	if r.Reason != "" {
		t.printf("Return Reason: %s\n", r.Reason)
	}
	t.println(rule("-", 60))
	t.printf("%-20s %-12s %-12s\n", "Product Name", "Return Qty", "Refund Amount")
	t.println(rule("-", 60))
	for _, l := range r.Lines {
		t.printf("%-20s %-12d $%.2f\n", l.Line.Product.Name, l.Quantity, l.Refund)
	}
	t.println(rule("-", 60))
	t.printf("%-32s $%.2f\n", "Total Refund", r.Amount)
	t.println(rule("=", 60))
	t.println("Return processed successfully")
	t.println(rule("=", 60))
}

// describe turns a use case error into the message shown to the operator.
func describe(err error) string {
	var short *dominv.InsufficientStockError
	switch {
	case errors.As(err, &short):
		return fmt.Sprintf("Insufficient stock. Available: %d, Requested: %d", short.Available, short.Requested)
	case errors.Is(err, checkout.ErrStockReductionFailed):
		return "Failed to reduce stock, order not saved"
	case errors.Is(err, checkout.ErrDuplicateOrder), errors.Is(err, checkout.ErrRepository):
		return "Failed to save order"
	case errors.Is(err, checkout.ErrEmptyOrder):
		return "No items in order"
	case errors.Is(err, payment.ErrInvalidInput):
		return "Payment rejected: " + err.Error()
	case errors.Is(err, product.ErrNotFound):
		return "Product not found"
	case errors.Is(err, domorder.ErrNotFound):
		return "Order not found"
	case errors.Is(err, returns.ErrAlreadyReturned):
		return "Order has already been fully returned"
	case errors.Is(err, returns.ErrItemNotInOrder):
		return "Product not found in order"
	case errors.Is(err, returns.ErrExceedsPurchased):
		return "Cannot return more than purchased"
	case errors.Is(err, returns.ErrNoItemsToReturn):
		return "No items to return"
	case errors.Is(err, domorder.ErrInvalidStateTransition):
		return "Order cannot be returned in its current state"
	default:
		return err.Error()
	}
}

func formatTime(ts time.Time) string { return ts.Local().Format(timeLayout) }
