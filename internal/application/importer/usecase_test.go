package importer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-pos/internal/application"
	"github.com/Zhima-Mochi/minishop-pos/internal/application/importer"
	domorder "github.com/Zhima-Mochi/minishop-pos/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-pos/internal/domain/payment"
	domproduct "github.com/Zhima-Mochi/minishop-pos/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-pos/internal/infrastructure/memory"
)

func batch() importer.Batch {
	created := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	return importer.Batch{
		Products: []domproduct.Product{
			{ID: "P001", Name: "Coca Cola", Price: 3.50, Barcode: "6901234567890", Category: "Beverage"},
			{ID: "P002", Name: "Mineral Water", Price: 2.00},
			{ID: "", Name: "Nameless"},
		},
		Orders: []importer.OrderRecord{
			{
				ID: "ORD-OLD-1",
				Lines: []importer.LineRecord{
					{ProductID: "P001", Quantity: 2, UnitPrice: 3.00},
					{ProductID: "P404", Quantity: 1, UnitPrice: 9.99},
				},
				PaymentMethod: "Cash",
				PaymentStatus: "paid",
				Status:        "completed",
				CreatedAt:     created,
			},
			{ID: "ORD-OLD-2", PaymentMethod: "bitcoin", PaymentStatus: "paid"},
		},
		Inventory: map[string]int{"P001": 50, "P002": -5},
	}
}

func TestImport_InsertsThenSkips(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	uc := importer.New(store, nil)

	report, err := uc.Execute(ctx, batch())
	require.NoError(t, err)
	assert.Equal(t, importer.Counts{Inserted: 2, Skipped: 1}, report.Products)
	assert.Equal(t, importer.Counts{Inserted: 1, Skipped: 1}, report.Orders)
	assert.Equal(t, importer.Counts{Inserted: 2}, report.Inventory)

	o, err := store.Stores().Orders.Get(ctx, "ORD-OLD-1")
	require.NoError(t, err)
	require.Len(t, o.Lines(), 1)
	assert.InDelta(t, 6.00, o.Total(), 1e-9)
	assert.Equal(t, payment.MethodCash, o.PaymentMethod)
	assert.Equal(t, payment.StatusPaid, o.PaymentStatus)
	assert.Equal(t, domorder.StatusCompleted, o.Status)

	qty, _ := store.Stores().Inventory.Get(ctx, "P002")
	assert.Zero(t, qty)

	again, err := uc.Execute(ctx, batch())
	require.NoError(t, err)
	assert.Equal(t, importer.Counts{Skipped: 3}, again.Products)
	assert.Equal(t, importer.Counts{Skipped: 2}, again.Orders)
	assert.Equal(t, importer.Counts{Skipped: 2}, again.Inventory)
}

func TestImport_KeepsExistingRecords(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Stores().Products.Add(ctx, &domproduct.Product{ID: "P001", Name: "House Cola", Price: 1}))
	require.NoError(t, store.Stores().Inventory.Set(ctx, "P001", 7))

	_, err := importer.New(store, nil).Execute(ctx, batch())
	require.NoError(t, err)

	p, err := store.Stores().Products.Get(ctx, "P001")
	require.NoError(t, err)
	assert.Equal(t, "House Cola", p.Name)
	qty, _ := store.Stores().Inventory.Get(ctx, "P001")
	assert.Equal(t, 7, qty)
}

type failingUoW struct{ err error }

func (f failingUoW) Do(context.Context, func(context.Context, application.Stores) error) error {
	return f.err
}

func TestImport_PropagatesStoreFailure(t *testing.T) {
	boom := errors.New("disk gone")
	_, err := importer.New(failingUoW{err: boom}, nil).Execute(context.Background(), batch())
	assert.ErrorIs(t, err, boom)
}
