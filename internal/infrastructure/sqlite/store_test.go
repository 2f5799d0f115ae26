package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-pos/internal/application"
	domorder "github.com/Zhima-Mochi/minishop-pos/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-pos/internal/domain/payment"
	domproduct "github.com/Zhima-Mochi/minishop-pos/internal/domain/product"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

var (
	cola  = domproduct.Product{ID: "P001", Name: "Coca Cola", Price: 3.50, Barcode: "6901234567890", Category: "Beverage"}
	bread = domproduct.Product{ID: "P003", Name: "Bread", Price: 8.00}
)

func TestOpen_CreatesFileAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "pos.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, NewStore(db).Stores().Products.Add(ctx, &cola))
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	p, err := NewStore(db).Stores().Products.Get(ctx, "P001")
	require.NoError(t, err)
	assert.Equal(t, cola, *p)
}

func TestProductRepository_RoundTripAndConflicts(t *testing.T) {
	ctx := context.Background()
	repo := openMemory(t).Stores().Products

	require.NoError(t, repo.Add(ctx, &cola))
	require.NoError(t, repo.Add(ctx, &bread))

	dup := domproduct.Product{ID: "P001", Name: "Imposter", Price: 1}
	assert.ErrorIs(t, repo.Add(ctx, &dup), domproduct.ErrConflict)
	got, err := repo.Get(ctx, "P001")
	require.NoError(t, err)
	assert.Equal(t, cola, *got)

	clash := domproduct.Product{ID: "P009", Name: "Clash", Barcode: cola.Barcode}
	assert.ErrorIs(t, repo.Add(ctx, &clash), domproduct.ErrConflict)

	byCode, err := repo.GetByBarcode(ctx, cola.Barcode)
	require.NoError(t, err)
	assert.Equal(t, "P001", byCode.ID)

	got, err = repo.Get(ctx, "P003")
	require.NoError(t, err)
	assert.Empty(t, got.Barcode)

	updated := bread
	updated.Price = 9
	require.NoError(t, repo.Update(ctx, &updated))
	assert.ErrorIs(t, repo.Update(ctx, &domproduct.Product{ID: "P404", Name: "x"}), domproduct.ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 9.0, list[1].Price)

	require.NoError(t, repo.Delete(ctx, "P003"))
	assert.ErrorIs(t, repo.Delete(ctx, "P003"), domproduct.ErrNotFound)
	_, err = repo.Get(ctx, "P003")
	assert.ErrorIs(t, err, domproduct.ErrNotFound)
}

func TestInventoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := openMemory(t).Stores().Inventory

	qty, err := repo.Get(ctx, "P001")
	require.NoError(t, err)
	assert.Zero(t, qty)

	require.NoError(t, repo.Set(ctx, "P001", 12))
	require.NoError(t, repo.Set(ctx, "P001", 7))
	require.NoError(t, repo.Set(ctx, "P002", -1))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"P001": 7, "P002": 0}, all)
}

func TestOrderRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	stores := openMemory(t).Stores()
	require.NoError(t, stores.Products.Add(ctx, &cola))
	require.NoError(t, stores.Products.Add(ctx, &bread))

	created := time.Date(2024, 1, 15, 14, 30, 5, 123456789, time.UTC)
	o := domorder.New("ORD-20240115143005-ABCDEF12", created)
	require.NoError(t, o.AddItem(cola, 2))
	require.NoError(t, o.AddItem(bread, 1))
	require.NoError(t, o.MarkPaid(payment.MethodAlipay))
	require.NoError(t, stores.Orders.Insert(ctx, o))

	assert.ErrorIs(t, stores.Orders.Insert(ctx, o), domorder.ErrConflict)

	got, err := stores.Orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, o.Lines(), got.Lines())
	assert.InDelta(t, o.Total(), got.Total(), 1e-9)
	assert.Equal(t, payment.MethodAlipay, got.PaymentMethod)
	assert.Equal(t, payment.StatusPaid, got.PaymentStatus)
	assert.Equal(t, domorder.StatusCompleted, got.Status)
	assert.True(t, created.Equal(got.CreatedAt))

	require.NoError(t, got.RegisterReturn(3))
	require.NoError(t, stores.Orders.Update(ctx, got))
	again, err := stores.Orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusReturned, again.Status)
	assert.Equal(t, payment.StatusRefunded, again.PaymentStatus)
	assert.Len(t, again.Lines(), 2)

	missing := domorder.New("ORD-MISSING", created)
	assert.ErrorIs(t, stores.Orders.Update(ctx, missing), domorder.ErrNotFound)
	_, err = stores.Orders.Get(ctx, "ORD-MISSING")
	assert.ErrorIs(t, err, domorder.ErrNotFound)
}

func TestOrderRepository_ListOrdersByCreation(t *testing.T) {
	ctx := context.Background()
	stores := openMemory(t).Stores()
	require.NoError(t, stores.Products.Add(ctx, &cola))

	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"ORD-C", "ORD-A", "ORD-B"} {
		o := domorder.New(id, base.Add(time.Duration(2-i)*time.Hour))
		require.NoError(t, o.AddItem(cola, i+1))
		require.NoError(t, o.MarkPaid(payment.MethodCash))
		require.NoError(t, stores.Orders.Insert(ctx, o))
	}

	list, err := stores.Orders.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"ORD-B", "ORD-A", "ORD-C"}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, 3, list[0].TotalQuantity())
}

func TestOrderRepository_LegacyTimestampAndDeletedProduct(t *testing.T) {
	ctx := context.Background()
	store := openMemory(t)
	_, err := store.db.ExecContext(ctx,
		`INSERT INTO orders (order_id, total_amount, payment_method, payment_status, created_at, status)
		 VALUES ('ORD-LEGACY', 7.0, 'cash', 'paid', '2024-01-15 14:30:00', 'completed')`)
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx,
		`INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES ('ORD-LEGACY', 'GONE', 2, 3.5)`)
	require.NoError(t, err)

	o, err := store.Stores().Orders.Get(ctx, "ORD-LEGACY")
	require.NoError(t, err)
	assert.Equal(t, 2024, o.CreatedAt.Year())
	require.Len(t, o.Lines(), 1)
	assert.Equal(t, "GONE", o.Lines()[0].Product.Name)
	assert.InDelta(t, 7.0, o.Total(), 1e-9)
}

func TestStore_DoCommitsAndRollsBack(t *testing.T) {
	ctx := context.Background()
	store := openMemory(t)
	require.NoError(t, store.Stores().Inventory.Set(ctx, "P001", 10))

	boom := errors.New("boom")
	err := store.Do(ctx, func(ctx context.Context, tx application.Stores) error {
		require.NoError(t, tx.Inventory.Set(ctx, "P001", 2))
		require.NoError(t, tx.Products.Add(ctx, &bread))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	qty, err := store.Stores().Inventory.Get(ctx, "P001")
	require.NoError(t, err)
	assert.Equal(t, 10, qty)
	_, err = store.Stores().Products.Get(ctx, "P003")
	assert.ErrorIs(t, err, domproduct.ErrNotFound)

	err = store.Do(ctx, func(ctx context.Context, tx application.Stores) error {
		return tx.Inventory.Set(ctx, "P001", 4)
	})
	require.NoError(t, err)
	qty, err = store.Stores().Inventory.Get(ctx, "P001")
	require.NoError(t, err)
	assert.Equal(t, 4, qty)
}

func TestParseTime(t *testing.T) {
	ts, err := parseTime("2024-05-06T07:08:09.5Z")
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, time.Duration(ts.Nanosecond()))

	_, err = parseTime("yesterday")
	assert.Error(t, err)
}

var _ querier = (*sql.DB)(nil)
var _ querier = (*sql.Tx)(nil)

func TestFormatTime_SortsLexically(t *testing.T) {
	whole := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	frac := whole.Add(500 * time.Millisecond)
	assert.Less(t, formatTime(whole), formatTime(frac))

	back, err := parseTime(formatTime(frac))
	require.NoError(t, err)
	assert.True(t, frac.Equal(back))
}
