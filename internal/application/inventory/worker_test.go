package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Zhima-Mochi/minishop-pos/internal/application/inventory"
	domorder "github.com/Zhima-Mochi/minishop-pos/internal/domain/order"
	infraobs "github.com/Zhima-Mochi/minishop-pos/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-pos/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-pos/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-pos/internal/infrastructure/outbox"
)

func TestLowStockWorker_WarnsBelowThreshold(t *testing.T) {
	stores := seededStores(t)
	core, logs := observer.New(zap.DebugLevel)
	reg := prometrics.New("pos")
	tel := infraobs.New(nil, zaplogger.New(zap.New(core)), reg)

	bus := outbox.NewBus(tel.Logger())
	inventory.NewLowStockWorker(bus, stores.Inventory, 10, tel).Start()

	err := bus.Publish(context.Background(), domorder.OrderPaidEvent{
		OrderID: "ORD-1",
		Lines: []domorder.LineSnapshot{
			{ProductID: "P001", Quantity: 1, UnitPrice: 3.5},
			{ProductID: "P002", Quantity: 1, UnitPrice: 2},
			{ProductID: "P003", Quantity: 1, UnitPrice: 8},
		},
		OccurredAt: time.Now(),
	})
	require.NoError(t, err)

	warnings := logs.FilterMessage("low_stock").All()
	require.Len(t, warnings, 2)
	assert.Equal(t, "P002", warnings[0].ContextMap()["product_id"])
	assert.Equal(t, "P003", warnings[1].ContextMap()["product_id"])

	n, err := testutil.GatherAndCount(reg.Gatherer(), "pos_low_stock_alerts_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	done := logs.FilterMessage("use_case_done").All()
	require.Len(t, done, 1)
	assert.EqualValues(t, 2, done[0].ContextMap()["alerts"])
}

func TestLowStockWorker_IgnoresOtherEvents(t *testing.T) {
	stores := seededStores(t)
	bus := outbox.NewBus(nil)
	inventory.NewLowStockWorker(bus, stores.Inventory, 10, nil).Start()

	assert.NoError(t, bus.Publish(context.Background(), domorder.OrderReturnedEvent{OrderID: "ORD-1"}))
}
