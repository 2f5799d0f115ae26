package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-pos/internal/application"
	domorder "github.com/Zhima-Mochi/minishop-pos/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-pos/internal/domain/payment"
	domproduct "github.com/Zhima-Mochi/minishop-pos/internal/domain/product"
)

func paidOrder(t *testing.T, id string, created time.Time) *domorder.Order {
	t.Helper()
	o := domorder.New(id, created)
	require.NoError(t, o.AddItem(domproduct.Product{ID: "P001", Name: "Coca Cola", Price: 3.50}, 2))
	require.NoError(t, o.MarkPaid(payment.MethodCash))
	return o
}

func TestProductRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Stores().Products

	require.NoError(t, repo.Add(ctx, &domproduct.Product{ID: "P002", Name: "Water", Price: 2, Barcode: "690"}))
	require.NoError(t, repo.Add(ctx, &domproduct.Product{ID: "P001", Name: "Cola", Price: 3.5}))

	err := repo.Add(ctx, &domproduct.Product{ID: "P002", Name: "Other", Price: 9})
	assert.ErrorIs(t, err, domproduct.ErrConflict)
	p, err := repo.Get(ctx, "P002")
	require.NoError(t, err)
	assert.Equal(t, "Water", p.Name)

	assert.ErrorIs(t, repo.Add(ctx, &domproduct.Product{ID: "P003", Name: "Dup", Barcode: "690"}), domproduct.ErrConflict)

	byCode, err := repo.GetByBarcode(ctx, "690")
	require.NoError(t, err)
	assert.Equal(t, "P002", byCode.ID)
	_, err = repo.GetByBarcode(ctx, "")
	assert.ErrorIs(t, err, domproduct.ErrNotFound)

	require.NoError(t, repo.Update(ctx, &domproduct.Product{ID: "P002", Name: "Water", Price: 2, Barcode: "691"}))
	_, err = repo.GetByBarcode(ctx, "690")
	assert.ErrorIs(t, err, domproduct.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &domproduct.Product{ID: "P404", Name: "x"}), domproduct.ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "P001", list[0].ID)

	require.NoError(t, repo.Delete(ctx, "P002"))
	assert.ErrorIs(t, repo.Delete(ctx, "P002"), domproduct.ErrNotFound)
	_, err = repo.GetByBarcode(ctx, "691")
	assert.ErrorIs(t, err, domproduct.ErrNotFound)
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Stores().Orders
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	late := paidOrder(t, "ORD-B", base.Add(time.Minute))
	early := paidOrder(t, "ORD-A", base)
	require.NoError(t, repo.Insert(ctx, late))
	require.NoError(t, repo.Insert(ctx, early))
	assert.ErrorIs(t, repo.Insert(ctx, paidOrder(t, "ORD-A", base)), domorder.ErrConflict)

	got, err := repo.Get(ctx, "ORD-A")
	require.NoError(t, err)
	assert.InDelta(t, 7.0, got.Total(), 1e-9)

	require.NoError(t, got.RegisterReturn(1))
	stored, err := repo.Get(ctx, "ORD-A")
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusCompleted, stored.Status)

	require.NoError(t, repo.Update(ctx, got))
	stored, err = repo.Get(ctx, "ORD-A")
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusPartialReturned, stored.Status)

	assert.ErrorIs(t, repo.Update(ctx, paidOrder(t, "ORD-Z", base)), domorder.ErrNotFound)
	_, err = repo.Get(ctx, "ORD-Z")
	assert.ErrorIs(t, err, domorder.ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ORD-A", list[0].ID)
	assert.Equal(t, "ORD-B", list[1].ID)
}

func TestInventoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Stores().Inventory

	qty, err := repo.Get(ctx, "P001")
	require.NoError(t, err)
	assert.Zero(t, qty)

	require.NoError(t, repo.Set(ctx, "P001", 5))
	require.NoError(t, repo.Set(ctx, "P002", -3))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"P001": 5, "P002": 0}, all)

	all["P001"] = 99
	qty, _ = repo.Get(ctx, "P001")
	assert.Equal(t, 5, qty)
}

func TestStore_DoCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.Do(ctx, func(ctx context.Context, tx application.Stores) error {
		if err := tx.Inventory.Set(ctx, "P001", 10); err != nil {
			return err
		}
		return tx.Orders.Insert(ctx, paidOrder(t, "ORD-1", time.Now()))
	})
	require.NoError(t, err)

	qty, _ := store.Stores().Inventory.Get(ctx, "P001")
	assert.Equal(t, 10, qty)
	_, err = store.Stores().Orders.Get(ctx, "ORD-1")
	assert.NoError(t, err)
}

func TestStore_DoDiscardsOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Stores().Inventory.Set(ctx, "P001", 10))
	boom := errors.New("boom")

	err := store.Do(ctx, func(ctx context.Context, tx application.Stores) error {
		require.NoError(t, tx.Inventory.Set(ctx, "P001", 1))
		require.NoError(t, tx.Products.Add(ctx, &domproduct.Product{ID: "P009", Name: "Gum"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	qty, _ := store.Stores().Inventory.Get(ctx, "P001")
	assert.Equal(t, 10, qty)
	_, err = store.Stores().Products.Get(ctx, "P009")
	assert.ErrorIs(t, err, domproduct.ErrNotFound)
}

func TestStore_DoHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := NewStore().Do(ctx, func(context.Context, application.Stores) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
