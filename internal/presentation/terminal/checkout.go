package terminal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Zhima-Mochi/minishop-pos/internal/application/checkout"
	"github.com/Zhima-Mochi/minishop-pos/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-pos/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-pos/internal/observability"
	"github.com/Zhima-Mochi/minishop-pos/internal/observability/logctx"
)

var doneWords = map[string]bool{"done": true, "finish": true, "complete": true}

func (t *Terminal) checkoutScreen(ctx context.Context) error {
	t.header("Checkout System", 60)

	sess := checkout.NewSession()
	draft, err := t.checkout.StartOrder(ctx, sess)
	if err != nil {
		return err
	}
	ctx = logctx.Enrich(ctx, t.log, observability.F("order_id", draft.ID))
	defer t.checkout.CancelOrder(ctx, sess)

	for {
		more, err := t.scanItem(ctx, sess)
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}

	if !sess.Active() || sess.Draft().IsEmpty() {
		t.println("Order cancelled")
		return nil
	}
	return t.takePayment(ctx, sess)
}

// scanItem handles one product entry. It reports false once the operator
// finishes adding items.
func (t *Terminal) scanItem(ctx context.Context, sess *checkout.Session) (bool, error) {
	t.println("\nEnter product ID or barcode (type 'done' to finish adding items):")
	code, err := t.ask("> ")
	if err != nil {
		return false, err
	}
	if doneWords[strings.ToLower(code)] {
		return false, nil
	}
	if code == "" {
		return true, nil
	}

	p, err := t.checkout.FindProduct(ctx, code)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			t.printf("Product not found: %s\n", code)
			return true, nil
		}
		return false, err
	}

	t.printf("Product found: %s ($%.2f)\n", p.Name, p.Price)
	t.println("Enter quantity (default: 1):")
	raw, err := t.ask("> ")
	if err != nil {
		return false, err
	}
	qty := 1
	if raw != "" {
		qty, err = strconv.Atoi(raw)
		if err != nil {
			t.println("Invalid quantity")
			return true, nil
		}
		if qty <= 0 {
			t.println("Quantity must be greater than 0")
			return true, nil
		}
	}

	before := 0
	if d := sess.Draft(); d != nil {
		before = d.QuantityOf(p.ID)
	}
	o, err := t.checkout.AddItem(ctx, sess, p.ID, qty)
	if err != nil {
		t.println(describe(err))
		return true, nil
	}
	if before > 0 {
		t.printf("Updated quantity for %s\n", p.Name)
	} else {
		t.printf("Added %s x%d\n", p.Name, qty)
	}
	t.currentOrder(o)
	return true, nil
}

func (t *Terminal) takePayment(ctx context.Context, sess *checkout.Session) error {
	t.printf("\nOrder Total: $%.2f\n", sess.Total())
	t.println("\nSelect payment method:")
	methods := payment.Methods()
	for i, m := range methods {
		t.printf("%d. %s\n", i+1, methodLabel(m))
	}

	choice, err := t.ask("> ")
	if err != nil {
		return err
	}
	method := strings.ToLower(choice)
	if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= len(methods) {
		method = methods[n-1].String()
	}

	var paid *float64
	if method == payment.MethodCash.String() {
		t.println("Enter amount paid:")
		raw, err := t.ask("> ")
		if err != nil {
			return err
		}
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			t.println("Invalid amount")
			return nil
		}
		paid = &amount
	}

	receipt, err := t.checkout.ProcessPayment(ctx, sess, method, paid)
	if err != nil {
		t.printf("\n✗ %s\n", describe(err))
		if errors.Is(err, checkout.ErrRepository) {
			return fmt.Errorf("terminal: payment: %w", err)
		}
		return nil
	}
	t.println("\n✓ Payment processed successfully")
	t.receipt(receipt)
	return nil
}

func methodLabel(m payment.Method) string {
	switch m {
	case payment.MethodWeChat:
		return "WeChat"
	case payment.MethodAlipay:
		return "Alipay"
	default:
		s := m.String()
		return strings.ToUpper(s[:1]) + s[1:]
	}
}
