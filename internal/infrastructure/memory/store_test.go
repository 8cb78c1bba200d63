package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SivanLevi100/storefront/internal/application"
	"github.com/SivanLevi100/storefront/internal/domain/cart"
	"github.com/SivanLevi100/storefront/internal/domain/catalog"
	"github.com/SivanLevi100/storefront/internal/domain/order"
)

func seedProduct(t *testing.T, s *Store, price string, stock int) *catalog.Product {
	t.Helper()
	p := &catalog.Product{Name: "item", Price: decimal.RequireFromString(price), StockQuantity: stock}
	require.NoError(t, s.Catalog().Create(context.Background(), p))
	return p
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p := seedProduct(t, s, "5.00", 10)
	_, err := s.Carts().Add(ctx, 1, p.ID, 2)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithinTx(ctx, func(ctx context.Context, tx application.Stores) error {
		require.NoError(t, tx.Catalog().DecrementStock(ctx, p.ID, 4))
		require.NoError(t, tx.Carts().Clear(ctx, 1))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Catalog().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.StockQuantity)
	lines, err := s.Carts().Lines(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestWithinTx_RollsBackOnExpiredContext(t *testing.T) {
	s := NewStore()
	p := seedProduct(t, s, "5.00", 10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	err := s.WithinTx(ctx, func(ctx context.Context, tx application.Stores) error {
		require.NoError(t, tx.Catalog().DecrementStock(ctx, p.ID, 1))
		<-ctx.Done()
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	got, err := s.Catalog().Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.StockQuantity)
}

func TestCatalog_DecrementNeverNegative(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p := seedProduct(t, s, "1.00", 3)

	assert.ErrorIs(t, s.Catalog().DecrementStock(ctx, p.ID, 4), catalog.ErrInsufficientStock)
	require.NoError(t, s.Catalog().DecrementStock(ctx, p.ID, 3))
	assert.ErrorIs(t, s.Catalog().DecrementStock(ctx, 999, 1), catalog.ErrNotFound)
}

func TestCatalog_DeleteBlockedWhileReferenced(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p := seedProduct(t, s, "1.00", 3)
	_, err := s.Carts().Add(ctx, 1, p.ID, 1)
	require.NoError(t, err)

	o := &order.Order{Number: "ORD-1", UserID: 1, Status: order.StatusPending}
	require.NoError(t, s.Orders().Insert(ctx, o))
	require.NoError(t, s.Orders().InsertItem(ctx, &order.Item{OrderID: o.ID, ProductID: p.ID, Quantity: 1, UnitPrice: p.Price}))

	assert.ErrorIs(t, s.Catalog().Delete(ctx, p.ID), catalog.ErrInUse)

	require.NoError(t, s.Orders().Delete(ctx, o.ID))
	require.NoError(t, s.Catalog().Delete(ctx, p.ID))

	lines, err := s.Carts().Lines(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, lines, "cart lines cascade with the product")
}

func TestOrders_DuplicateNumber(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Orders().Insert(ctx, &order.Order{Number: "ORD-1"}))
	assert.ErrorIs(t, s.Orders().Insert(ctx, &order.Order{Number: "ORD-1"}), order.ErrDuplicateNumber)
}

func TestOrders_UpdateStatusComparesCurrent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	o := &order.Order{Number: "ORD-1", Status: order.StatusPending}
	require.NoError(t, s.Orders().Insert(ctx, o))

	require.NoError(t, s.Orders().UpdateStatus(ctx, o.ID, order.StatusPending, order.StatusConfirmed))
	err := s.Orders().UpdateStatus(ctx, o.ID, order.StatusPending, order.StatusCancelled)
	assert.ErrorIs(t, err, order.ErrInvalidStateTransition)
	assert.ErrorIs(t, s.Orders().UpdateStatus(ctx, 42, order.StatusPending, order.StatusConfirmed), order.ErrNotFound)
}

func TestOrders_ListFiltersAndPages(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, user := range []int64{1, 2, 1, 1} {
		o := &order.Order{
			Number:    string(rune('A' + i)),
			UserID:    user,
			Status:    order.StatusPending,
			OrderDate: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, s.Orders().Insert(ctx, o))
	}

	user := int64(1)
	got, err := s.Orders().List(ctx, order.Filter{UserID: &user, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "D", got[0].Number)
	assert.Equal(t, "C", got[1].Number)

	got, err = s.Orders().List(ctx, order.Filter{UserID: &user, Offset: 2})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Number)
}

func TestCart_AddIncrementsAndValidates(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p := seedProduct(t, s, "1.00", 3)

	_, err := s.Carts().Add(ctx, 1, p.ID, 1)
	require.NoError(t, err)
	l, err := s.Carts().Add(ctx, 1, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, l.Quantity)

	_, err = s.Carts().Add(ctx, 1, p.ID, 0)
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)
	_, err = s.Carts().Add(ctx, 1, 999, 1)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	_, err = s.Carts().SetQuantity(ctx, 2, p.ID, 1)
	assert.ErrorIs(t, err, cart.ErrLineNotFound)
	assert.ErrorIs(t, s.Carts().Remove(ctx, 2, p.ID), cart.ErrLineNotFound)
}
