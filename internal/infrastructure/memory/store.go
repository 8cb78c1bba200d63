package memory

import (
	"context"
	"sync"

	"github.com/SivanLevi100/storefront/internal/application"
	"github.com/SivanLevi100/storefront/internal/domain/cart"
	"github.com/SivanLevi100/storefront/internal/domain/catalog"
	"github.com/SivanLevi100/storefront/internal/domain/order"
)

// Store is an in-process relational stand-in. Transactions are serialized and work on a
// private snapshot that replaces the live state only on success.
type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

var _ application.UnitOfWork = (*Store)(nil)

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx application.Stores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.state.clone()
	v := view{lock: noLock, state: func() *state { return work }}
	if err := fn(ctx, txStores{v: v}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Orders, Carts and Catalog return auto-committing stores; each call is its own transaction.
func (s *Store) Orders() order.Store    { return orderView{s.autoView()} }
func (s *Store) Carts() cart.Store      { return cartView{s.autoView()} }
func (s *Store) Catalog() catalog.Store { return catalogView{s.autoView()} }

func (s *Store) autoView() view {
	return view{
		lock: func() func() {
			s.mu.Lock()
			return s.mu.Unlock
		},
		state: func() *state { return s.state },
	}
}

type txStores struct{ v view }

func (t txStores) Orders() order.Store    { return orderView{t.v} }
func (t txStores) Carts() cart.Store      { return cartView{t.v} }
func (t txStores) Catalog() catalog.Store { return catalogView{t.v} }

type view struct {
	lock  func() func()
	state func() *state
}

func noLock() func() { return func() {} }

type state struct {
	products map[int64]catalog.Product
	lines    map[int64]map[int64]cart.Line // user -> product -> line
	orders   map[int64]order.Order         // items kept in items
	items    map[int64][]order.Item        // order -> items
	numbers  map[string]int64

	nextProductID int64
	nextOrderID   int64
	nextItemID    int64
}

func newState() *state {
	return &state{
		products: make(map[int64]catalog.Product),
		lines:    make(map[int64]map[int64]cart.Line),
		orders:   make(map[int64]order.Order),
		items:    make(map[int64][]order.Item),
		numbers:  make(map[string]int64),
	}
}

func (st *state) clone() *state {
	c := newState()
	for k, v := range st.products {
		c.products[k] = v
	}
	for user, lines := range st.lines {
		m := make(map[int64]cart.Line, len(lines))
		for k, v := range lines {
			m[k] = v
		}
		c.lines[user] = m
	}
	for k, v := range st.orders {
		c.orders[k] = v
	}
	for k, v := range st.items {
		c.items[k] = append([]order.Item(nil), v...)
	}
	for k, v := range st.numbers {
		c.numbers[k] = v
	}
	c.nextProductID = st.nextProductID
	c.nextOrderID = st.nextOrderID
	c.nextItemID = st.nextItemID
	return c
}

func (st *state) productReferenced(id int64) bool {
	for _, items := range st.items {
		for _, it := range items {
			if it.ProductID == id {
				return true
			}
		}
	}
	return false
}

func page[T any](in []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(in) {
			return []T{}
		}
		in = in[offset:]
	}
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
