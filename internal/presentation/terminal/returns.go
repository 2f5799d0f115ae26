package terminal

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Zhima-Mochi/minishop-pos/internal/application/returns"
	domorder "github.com/Zhima-Mochi/minishop-pos/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-pos/internal/observability"
	"github.com/Zhima-Mochi/minishop-pos/internal/observability/logctx"
)

func (t *Terminal) returnScreen(ctx context.Context) error {
	t.header("Return System", 60)

	t.println("\nEnter order ID:")
	orderID, err := t.ask("> ")
	if err != nil {
		return err
	}
	ctx = logctx.Enrich(ctx, t.log, observability.F("order_id", orderID))

	o, err := t.returns.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, returns.ErrNotFound) {
			t.printf("Order not found: %s\n", orderID)
			return nil
		}
		return err
	}

	t.orderDetails(o)
	if o.Status == domorder.StatusReturned {
		t.println("\nThis order has already been fully returned")
		return nil
	}

	items, err := t.selectReturnItems(o)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		t.println("No items selected for return")
		return nil
	}

	t.println("\nEnter return reason (optional, press Enter to skip):")
	reason, err := t.ask("> ")
	if err != nil {
		return err
	}

	t.println("\nConfirm return? (y/n):")
	confirm, err := t.ask("> ")
	if err != nil {
		return err
	}
	if strings.ToLower(confirm) != "y" {
		t.println("Return cancelled")
		return nil
	}

	record, err := t.returns.ProcessReturn(ctx, returns.Request{OrderID: o.ID, Items: items, Reason: reason})
	if err != nil {
		t.printf("\n✗ %s\n", describe(err))
		if errors.Is(err, returns.ErrRepository) || errors.Is(err, returns.ErrUpdateFailed) {
			return err
		}
		return nil
	}
	t.println("\n✓ Return processed successfully")
	t.returnReceipt(record)
	return nil
}

// selectReturnItems lists the returnable lines and collects a quantity for
// each selected one. Entries that fail validation are reported and skipped.
func (t *Terminal) selectReturnItems(o *domorder.Order) (map[string]int, error) {
	t.println("\nSelect items to return:")
	t.println(rule("-", 60))

	candidates := returns.ReturnableItems(o)
	valid := make(map[int]returns.Returnable, len(candidates))
	for i, r := range candidates {
		n := i + 1
		if !r.CanReturn {
			t.printf("%d. %s (Purchased: %d, Returnable: 0) - Already returned\n", n, r.Line.Product.Name, r.Line.Quantity)
			continue
		}
		t.printf("%d. %s (Purchased: %d, Returnable: %d)\n", n, r.Line.Product.Name, r.Line.Quantity, r.Quantity)
		valid[n] = r
	}
	if len(valid) == 0 {
		t.println("No items available for return")
		return nil, nil
	}

	t.println("\nEnter item numbers to return (separate multiple with commas, e.g., 1,2):")
	selection, err := t.ask("> ")
	if err != nil {
		return nil, err
	}

	var picks []int
	for _, part := range strings.Split(selection, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			t.println("Invalid input")
			return nil, nil
		}
		picks = append(picks, n)
	}

	items := make(map[string]int)
	for _, n := range picks {
		r, ok := valid[n]
		if !ok {
			t.printf("Invalid item number: %d\n", n)
			continue
		}
		t.printf("\n%s - Enter return quantity (max: %d):\n", r.Line.Product.Name, r.Quantity)
		raw, err := t.ask("> ")
		if err != nil {
			return nil, err
		}
		qty, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			t.println("Invalid quantity")
		case qty <= 0:
			t.println("Quantity must be greater than 0")
		case qty > r.Quantity:
			t.printf("Return quantity cannot exceed %d\n", r.Quantity)
		default:
			items[r.Line.ProductID()] = qty
		}
	}
	return items, nil
}
