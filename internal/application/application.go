package application

import (
	"context"

	"github.com/Zhima-Mochi/minishop-pos/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-pos/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-pos/internal/domain/product"
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

// Stores bundles the repositories a use case may touch.
type Stores struct {
	Products  product.Repository
	Orders    order.Repository
	Inventory inventory.Repository
}

// UnitOfWork runs fn against transaction-bound stores. Writes made through
// those stores are committed only when fn returns nil.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Stores) error) error
}
