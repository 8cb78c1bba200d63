package application

import (
	"context"

	"github.com/SivanLevi100/storefront/internal/domain/cart"
	"github.com/SivanLevi100/storefront/internal/domain/catalog"
	"github.com/SivanLevi100/storefront/internal/domain/order"
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

// Stores are the store views bound to one open transaction.
type Stores interface {
	Orders() order.Store
	Carts() cart.Store
	Catalog() catalog.Store
}

// UnitOfWork runs fn inside a single transaction. A non-nil error from fn, a panic
// or an expired context rolls back every write made through the supplied Stores.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
