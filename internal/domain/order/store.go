package order

import (
	"context"
)

// Store persists orders and their items. Implementations bound to a transaction
// must see their own uncommitted writes.
type Store interface {
	// Insert assigns o.ID. A clash on o.Number returns ErrDuplicateNumber.
	Insert(ctx context.Context, o *Order) error
	// InsertItem assigns item.ID.
	InsertItem(ctx context.Context, item *Item) error
	// Get returns the order with its items.
	Get(ctx context.Context, id int64) (*Order, error)
	Items(ctx context.Context, orderID int64) ([]Item, error)
	// List returns orders without items, newest first.
	List(ctx context.Context, f Filter) ([]Order, error)
	// UpdateStatus moves id from one status to another. It returns ErrInvalidStateTransition
	// when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id int64, from, to Status) error
	UpdateTotals(ctx context.Context, id int64, t Totals) error
	DeleteItems(ctx context.Context, orderID int64) error
	Delete(ctx context.Context, id int64) error
}

// Filter narrows List. A Limit of zero or less means no limit.
type Filter struct {
	UserID *int64
	Status Status
	Limit  int
	Offset int
}

// NumberGenerator produces human-readable order numbers.
type NumberGenerator interface {
	Next() string
}
