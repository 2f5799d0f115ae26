package inventory

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/minishop-pos/internal/application"
	dominv "github.com/Zhima-Mochi/minishop-pos/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-pos/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-pos/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-pos/internal/observability"
)

const (
	workerService   = "inventory_worker"
	useCaseLowStock = "inventory.worker.order_paid"
)

// LowStockWorker warns about products that dropped below the threshold after a sale.
type LowStockWorker struct {
	subscriber domoutbox.Subscriber
	inventory  dominv.Repository
	threshold  int
	inst       *application.Instrument
	alerts     observability.Counter // low_stock_alerts_total{product_id}
}

func NewLowStockWorker(
	subscriber domoutbox.Subscriber,
	inventory dominv.Repository,
	threshold int,
	tel observability.Observability,
) *LowStockWorker {
	if threshold <= 0 {
		threshold = DefaultLowThreshold
	}
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		metricsProvider = tel.Metrics()
	}
	return &LowStockWorker{
		subscriber: subscriber,
		inventory:  inventory,
		threshold:  threshold,
		inst:       application.NewInstrument(tel, workerService),
		alerts:     metricsProvider.Counter(observability.MLowStockAlerts),
	}
}

func (w *LowStockWorker) Start() {
	if w.subscriber == nil || w.inventory == nil {
		return
	}
	w.subscriber.Subscribe(domorder.OrderPaidEvent{}.EventName(), w.handleOrderPaid)
}

func (w *LowStockWorker) handleOrderPaid(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(domorder.OrderPaidEvent)
	if !ok {
		return nil
	}

	ctx, call := w.inst.Start(ctx, useCaseLowStock, "OrderPaid",
		attribute.String("event", e.EventName()),
		attribute.String("order.id", evt.OrderID),
	)
	call.Field("order_id", evt.OrderID)
	defer func() { call.End(err) }()

	alerts := 0
	for _, line := range evt.Lines {
		qty, gerr := w.inventory.Get(ctx, line.ProductID)
		if gerr != nil {
			call.Fail("INVENTORY_READ_FAILED")
			return fmt.Errorf("worker: read stock %s: %w", line.ProductID, gerr)
		}
		if LevelFor(qty, w.threshold) == LevelInStock {
			continue
		}
		alerts++
		w.alerts.Add(1, observability.L("product_id", line.ProductID))
		call.Logger().Warn("low_stock",
			observability.F("product_id", line.ProductID),
			observability.F("quantity", qty),
			observability.F("threshold", w.threshold),
		)
	}
	call.Field("alerts", alerts)
	return nil
}
