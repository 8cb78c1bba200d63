package cart

import (
	"context"
	"errors"
	"time"
)

var (
	ErrLineNotFound    = errors.New("cart: line not found")
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than zero")
)

// Line is one pending purchase. A user has at most one line per product.
type Line struct {
	UserID    int64
	ProductID int64
	Quantity  int
	UpdatedAt time.Time
}

type Store interface {
	// Lines returns the user's lines ordered by product id.
	Lines(ctx context.Context, userID int64) ([]Line, error)
	// Add creates the line or increments its quantity.
	Add(ctx context.Context, userID, productID int64, quantity int) (Line, error)
	SetQuantity(ctx context.Context, userID, productID int64, quantity int) (Line, error)
	Remove(ctx context.Context, userID, productID int64) error
	Clear(ctx context.Context, userID int64) error
}
