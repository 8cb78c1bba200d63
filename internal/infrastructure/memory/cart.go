package memory

import (
	"context"
	"sort"
	"time"

	"github.com/SivanLevi100/storefront/internal/domain/cart"
	"github.com/SivanLevi100/storefront/internal/domain/catalog"
)

type cartView struct{ view }

func (c cartView) Lines(_ context.Context, userID int64) ([]cart.Line, error) {
	defer c.lock()()
	lines := c.state().lines[userID]
	out := make([]cart.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (c cartView) Add(_ context.Context, userID, productID int64, quantity int) (cart.Line, error) {
	defer c.lock()()
	if quantity <= 0 {
		return cart.Line{}, cart.ErrInvalidQuantity
	}
	st := c.state()
	if _, ok := st.products[productID]; !ok {
		return cart.Line{}, catalog.ErrNotFound
	}
	lines, ok := st.lines[userID]
	if !ok {
		lines = make(map[int64]cart.Line)
		st.lines[userID] = lines
	}
	l := lines[productID]
	l.UserID, l.ProductID = userID, productID
	l.Quantity += quantity
	l.UpdatedAt = time.Now().UTC()
	lines[productID] = l
	return l, nil
}

func (c cartView) SetQuantity(_ context.Context, userID, productID int64, quantity int) (cart.Line, error) {
	defer c.lock()()
	if quantity <= 0 {
		return cart.Line{}, cart.ErrInvalidQuantity
	}
	l, ok := c.state().lines[userID][productID]
	if !ok {
		return cart.Line{}, cart.ErrLineNotFound
	}
	l.Quantity = quantity
	l.UpdatedAt = time.Now().UTC()
	c.state().lines[userID][productID] = l
	return l, nil
}

func (c cartView) Remove(_ context.Context, userID, productID int64) error {
	defer c.lock()()
	if _, ok := c.state().lines[userID][productID]; !ok {
		return cart.ErrLineNotFound
	}
	delete(c.state().lines[userID], productID)
	return nil
}

func (c cartView) Clear(_ context.Context, userID int64) error {
	defer c.lock()()
	delete(c.state().lines, userID)
	return nil
}
