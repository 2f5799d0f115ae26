package terminal_test

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Zhima-Mochi/minishop-pos/internal/application/checkout"
	"github.com/Zhima-Mochi/minishop-pos/internal/application/inventory"
	"github.com/Zhima-Mochi/minishop-pos/internal/application/returns"
	domorder "github.com/Zhima-Mochi/minishop-pos/internal/domain/order"
	domproduct "github.com/Zhima-Mochi/minishop-pos/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-pos/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-pos/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-pos/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-pos/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-pos/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-pos/internal/presentation/terminal"
)

type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return "ORD-" + strconv.Itoa(s.n)
}

type harness struct {
	store *memory.Store
	deps  terminal.Deps
	logs  *observer.ObservedLogs
	reg   *prometrics.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	stores := store.Stores()
	for _, p := range []domproduct.Product{
		{ID: "P1", Name: "Cola", Price: 3.50, Barcode: "690", Category: "Beverage"},
		{ID: "P2", Name: "Chips", Price: 6.00},
		{ID: "P3", Name: "Cola Zero", Price: 4.00},
	} {
		require.NoError(t, stores.Products.Add(ctx, &p))
	}
	require.NoError(t, stores.Inventory.Set(ctx, "P1", 10))
	require.NoError(t, stores.Inventory.Set(ctx, "P2", 0))
	require.NoError(t, stores.Inventory.Set(ctx, "P3", 5))

	core, logs := observer.New(zap.DebugLevel)
	reg := prometrics.New("pos")
	tel := infraobs.New(nil, zaplogger.New(zap.New(core)), reg)
	bus := outbox.NewBus(tel.Logger())

	return &harness{
		store: store,
		logs:  logs,
		reg:   reg,
		deps: terminal.Deps{
			Checkout: checkout.NewService(stores, store, &seqIDs{}, bus, tel),
			Returns:  returns.NewService(stores, store, bus, tel),
			Lookup:   inventory.NewLookup(stores.Products, stores.Inventory, inventory.DefaultLowThreshold, tel),
			Tel:      tel,
		},
	}
}

func (h *harness) run(t *testing.T, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	require.NoError(t, terminal.New(h.deps, in, &out).Run(context.Background()))
	return out.String()
}

func (h *harness) stock(t *testing.T, id string) int {
	t.Helper()
	qty, err := h.store.Stores().Inventory.Get(context.Background(), id)
	require.NoError(t, err)
	return qty
}

func (h *harness) order(t *testing.T, id string) *domorder.Order {
	t.Helper()
	o, err := h.store.Stores().Orders.Get(context.Background(), id)
	require.NoError(t, err)
	return o
}

func TestCheckout_CashWithChange(t *testing.T) {
	h := newHarness(t)

	out := h.run(t, "1", "P1", "2", "done", "1", "20", "4")

	assert.Contains(t, out, "Product found: Cola ($3.50)")
	assert.Contains(t, out, "Added Cola x2")
	assert.Contains(t, out, "Order Total: $7.00")
	assert.Contains(t, out, "✓ Payment processed successfully")
	assert.Contains(t, out, "Order ID: ORD-1")
	assert.Contains(t, out, "Payment Method: cash")
	assert.Contains(t, out, "Amount Paid: $20.00")
	assert.Contains(t, out, "Change: $13.00")
	assert.Contains(t, out, "Goodbye!")

	assert.Equal(t, 8, h.stock(t, "P1"))
	o := h.order(t, "ORD-1")
	assert.InDelta(t, 7.00, o.Total(), 1e-9)
}

func TestCheckout_BarcodeDefaultsAndRejections(t *testing.T) {
	h := newHarness(t)

	out := h.run(t, "1", "XXX", "690", "", "P1", "50", "P1", "abc", "P1", "0", "done", "2", "4")

	assert.Contains(t, out, "Product not found: XXX")
	assert.Contains(t, out, "Added Cola x1")
	assert.Contains(t, out, "Insufficient stock. Available: 10, Requested: 51")
	assert.Contains(t, out, "Invalid quantity")
	assert.Contains(t, out, "Quantity must be greater than 0")
	assert.Contains(t, out, "Payment Method: card")
	assert.Equal(t, 9, h.stock(t, "P1"))
}

func TestCheckout_MergesRepeatedScans(t *testing.T) {
	h := newHarness(t)

	out := h.run(t, "1", "P1", "1", "690", "2", "done", "3", "4")

	assert.Contains(t, out, "Updated quantity for Cola")
	assert.Contains(t, out, "Payment Method: alipay")
	assert.Equal(t, 3, h.order(t, "ORD-1").QuantityOf("P1"))
}

func TestCheckout_EmptyOrderIsCancelled(t *testing.T) {
	h := newHarness(t)

	out := h.run(t, "1", "done", "4")

	assert.Contains(t, out, "Order cancelled")
	orders, err := h.store.Stores().Orders.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCheckout_CashShortfallKeepsStock(t *testing.T) {
	h := newHarness(t)

	out := h.run(t, "1", "P1", "2", "done", "cash", "5", "4")

	assert.Contains(t, out, "✗ Payment rejected")
	assert.Equal(t, 10, h.stock(t, "P1"))
}

func TestCheckout_NonFiniteCashRejected(t *testing.T) {
	h := newHarness(t)

	out := h.run(t, "1", "P1", "2", "done", "1", "NaN", "1", "P1", "1", "done", "1", "+Inf", "4")

	assert.Contains(t, out, "✗ Payment rejected")
	assert.NotContains(t, out, "RECEIPT")
	assert.Equal(t, 10, h.stock(t, "P1"))
	orders, err := h.store.Stores().Orders.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCheckout_UnknownMethodAndBadAmount(t *testing.T) {
	h := newHarness(t)

	out := h.run(t, "1", "P1", "1", "done", "bitcoin", "1", "P1", "1", "done", "1", "lots", "4")

	assert.Contains(t, out, "✗ Payment rejected")
	assert.Contains(t, out, "Invalid amount")
	assert.Equal(t, 10, h.stock(t, "P1"))
}

func TestReturn_PartialThenFull(t *testing.T) {
	h := newHarness(t)

	out := h.run(t,
		"1", "P1", "3", "done", "2",
		"2", "ORD-1", "1", "2", "damaged", "y",
		"4",
	)
	assert.Contains(t, out, "Order Status: completed")
	assert.Contains(t, out, "1. Cola (Purchased: 3, Returnable: 3)")
	assert.Contains(t, out, "RETURN RECEIPT")
	assert.Contains(t, out, "Return Reason: damaged")
	assert.Contains(t, out, "$7.00")
	assert.Equal(t, 9, h.stock(t, "P1"))
	assert.Equal(t, domorder.StatusPartialReturned, h.order(t, "ORD-1").Status)

	out = h.run(t, "2", "ORD-1", "1", "3", "", "y", "4")
	assert.Contains(t, out, "Return processed successfully")
	assert.NotContains(t, out, "Return Reason:")
	assert.Equal(t, domorder.StatusReturned, h.order(t, "ORD-1").Status)

	out = h.run(t, "2", "ORD-1", "4")
	assert.Contains(t, out, "This order has already been fully returned")
}

func TestReturn_RejectionsAndCancel(t *testing.T) {
	h := newHarness(t)
	h.run(t, "1", "P1", "2", "done", "2", "4")

	out := h.run(t, "2", "NOPE", "4")
	assert.Contains(t, out, "Order not found: NOPE")

	out = h.run(t, "2", "ORD-1", "x", "4")
	assert.Contains(t, out, "Invalid input")
	assert.Contains(t, out, "No items selected for return")

	out = h.run(t, "2", "ORD-1", "1,7", "5", "4")
	assert.Contains(t, out, "Invalid item number: 7")
	assert.Contains(t, out, "Return quantity cannot exceed 2")
	assert.Contains(t, out, "No items selected for return")

	out = h.run(t, "2", "ORD-1", "1", "1", "", "n", "4")
	assert.Contains(t, out, "Return cancelled")
	assert.Equal(t, 8, h.stock(t, "P1"))
	assert.Equal(t, domorder.StatusCompleted, h.order(t, "ORD-1").Status)
}

func TestInventory_Report(t *testing.T) {
	h := newHarness(t)

	out := h.run(t, "3", "", "4")

	assert.Contains(t, out, "Inventory Status")
	assert.Contains(t, out, "Out of Stock")
	assert.Contains(t, out, "Low Stock")
	assert.Contains(t, out, "Total Products: 3")
	assert.Contains(t, out, "In Stock: 2")
	assert.Contains(t, out, "Out of Stock: 1")
	assert.Contains(t, out, "Low Stock (<10): 1")
	assert.Contains(t, out, "Total Items: 15")
}

func TestInventory_Search(t *testing.T) {
	h := newHarness(t)

	out := h.run(t, "3", "P2", "4")
	assert.Contains(t, out, "Product Inventory Details")
	assert.Contains(t, out, "Product Name: Chips")
	assert.Contains(t, out, "Status: Out of Stock")

	out = h.run(t, "3", "cola", "P3", "4")
	assert.Contains(t, out, "Found 2 matching products:")
	assert.Contains(t, out, "P1 - Cola (Stock: 10)")
	assert.Contains(t, out, "Current Stock: 5")

	out = h.run(t, "3", "tea", "4")
	assert.Contains(t, out, "No product found matching: tea")
}

func TestRun_InvalidSelectionAndEOF(t *testing.T) {
	h := newHarness(t)

	out := h.run(t, "9", "4")
	assert.Contains(t, out, "Invalid selection, please try again")

	var buf bytes.Buffer
	err := terminal.New(h.deps, strings.NewReader("1\nP1\n"), &buf).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Operation cancelled")
	assert.Equal(t, 10, h.stock(t, "P1"))
}

func TestRun_ScreenTelemetry(t *testing.T) {
	h := newHarness(t)

	h.run(t, "1", "P1", "1", "done", "2", "3", "", "4")

	done := h.logs.FilterMessage("screen_done").All()
	require.Len(t, done, 2)
	first := done[0].ContextMap()
	assert.Equal(t, "checkout", first["screen"])
	assert.Equal(t, "success", first["outcome"])
	assert.NotEmpty(t, first["session_id"])
	assert.Equal(t, "inventory", done[1].ContextMap()["screen"])

	n, err := testutil.GatherAndCount(h.reg.Gatherer(), "pos_terminal_screens_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, h.logs.FilterMessage("terminal_started").Len())
}

func TestNew_NilTelemetry(t *testing.T) {
	h := newHarness(t)
	h.deps.Tel = nil
	assert.NotPanics(t, func() { h.run(t, "4") })
}
