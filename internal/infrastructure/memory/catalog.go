package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/SivanLevi100/storefront/internal/domain/catalog"
)

type catalogView struct{ view }

func (c catalogView) Get(_ context.Context, id int64) (*catalog.Product, error) {
	defer c.lock()()
	p, ok := c.state().products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

func (c catalogView) List(_ context.Context, f catalog.Filter) ([]catalog.Product, error) {
	defer c.lock()()
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]catalog.Product, 0, len(c.state().products))
	for _, p := range c.state().products {
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, f.Limit, f.Offset), nil
}

func (c catalogView) PriceAndStock(_ context.Context, id int64) (catalog.PriceAndStock, error) {
	defer c.lock()()
	p, ok := c.state().products[id]
	if !ok {
		return catalog.PriceAndStock{}, catalog.ErrNotFound
	}
	return catalog.PriceAndStock{ProductID: p.ID, Price: p.Price, StockQuantity: p.StockQuantity}, nil
}

func (c catalogView) DecrementStock(_ context.Context, id int64, amount int) error {
	defer c.lock()()
	st := c.state()
	p, ok := st.products[id]
	if !ok {
		return catalog.ErrNotFound
	}
	if err := p.Deduct(amount); err != nil {
		return err
	}
	st.products[id] = p
	return nil
}

func (c catalogView) IncrementStock(_ context.Context, id int64, amount int) error {
	defer c.lock()()
	st := c.state()
	p, ok := st.products[id]
	if !ok {
		return catalog.ErrNotFound
	}
	if err := p.Restock(amount); err != nil {
		return err
	}
	st.products[id] = p
	return nil
}

func (c catalogView) Create(_ context.Context, p *catalog.Product) error {
	defer c.lock()()
	st := c.state()
	st.nextProductID++
	p.ID = st.nextProductID
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Price = catalog.NormalizePrice(p.Price)
	st.products[p.ID] = *p
	return nil
}

func (c catalogView) Update(_ context.Context, p *catalog.Product) error {
	defer c.lock()()
	st := c.state()
	cur, ok := st.products[p.ID]
	if !ok {
		return catalog.ErrNotFound
	}
	cur.Name = p.Name
	cur.Description = p.Description
	cur.Price = catalog.NormalizePrice(p.Price)
	cur.UpdatedAt = time.Now().UTC()
	st.products[p.ID] = cur
	*p = cur
	return nil
}

func (c catalogView) Delete(_ context.Context, id int64) error {
	defer c.lock()()
	st := c.state()
	if _, ok := st.products[id]; !ok {
		return catalog.ErrNotFound
	}
	if st.productReferenced(id) {
		return catalog.ErrInUse
	}
	delete(st.products, id)
	for _, lines := range st.lines {
		delete(lines, id)
	}
	return nil
}
