package catalog

import "context"

type Store interface {
	Get(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, f Filter) ([]Product, error)
	// PriceAndStock reads a product for checkout, locking its row when called inside a transaction.
	PriceAndStock(ctx context.Context, id int64) (PriceAndStock, error)
	// DecrementStock fails with ErrInsufficientStock rather than going negative.
	DecrementStock(ctx context.Context, id int64, amount int) error
	IncrementStock(ctx context.Context, id int64, amount int) error
	// Create assigns p.ID.
	Create(ctx context.Context, p *Product) error
	// Update writes name, description and price.
	Update(ctx context.Context, p *Product) error
	// Delete fails with ErrInUse while any order item references the product.
	Delete(ctx context.Context, id int64) error
}

type Filter struct {
	Query  string
	Limit  int
	Offset int
}
