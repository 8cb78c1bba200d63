package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SivanLevi100/storefront/internal/domain/catalog"
	"github.com/SivanLevi100/storefront/internal/domain/order"
)

type orderView struct{ view }

func (o orderView) Insert(_ context.Context, ord *order.Order) error {
	defer o.lock()()
	if ord == nil || ord.Number == "" {
		return fmt.Errorf("order store: number is required")
	}
	st := o.state()
	if _, exists := st.numbers[ord.Number]; exists {
		return order.ErrDuplicateNumber
	}
	st.nextOrderID++
	ord.ID = st.nextOrderID
	row := *ord
	row.Items = nil
	st.orders[row.ID] = row
	st.numbers[row.Number] = row.ID
	return nil
}

func (o orderView) InsertItem(_ context.Context, item *order.Item) error {
	defer o.lock()()
	st := o.state()
	if _, ok := st.orders[item.OrderID]; !ok {
		return order.ErrNotFound
	}
	if _, ok := st.products[item.ProductID]; !ok {
		return catalog.ErrNotFound
	}
	st.nextItemID++
	item.ID = st.nextItemID
	st.items[item.OrderID] = append(st.items[item.OrderID], *item)
	return nil
}

func (o orderView) Get(_ context.Context, id int64) (*order.Order, error) {
	defer o.lock()()
	st := o.state()
	row, ok := st.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	row.Items = append([]order.Item(nil), st.items[id]...)
	return &row, nil
}

func (o orderView) Items(_ context.Context, orderID int64) ([]order.Item, error) {
	defer o.lock()()
	return append([]order.Item{}, o.state().items[orderID]...), nil
}

func (o orderView) List(_ context.Context, f order.Filter) ([]order.Order, error) {
	defer o.lock()()
	out := make([]order.Order, 0, len(o.state().orders))
	for _, row := range o.state().orders {
		if f.UserID != nil && row.UserID != *f.UserID {
			continue
		}
		if f.Status != "" && row.Status != f.Status {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.After(out[j].OrderDate)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, f.Limit, f.Offset), nil
}

func (o orderView) UpdateStatus(_ context.Context, id int64, from, to order.Status) error {
	defer o.lock()()
	st := o.state()
	row, ok := st.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	if row.Status != from {
		return fmt.Errorf("%w: stored status is %s", order.ErrInvalidStateTransition, row.Status)
	}
	row.Status = to
	row.UpdatedAt = time.Now().UTC()
	st.orders[id] = row
	return nil
}

func (o orderView) UpdateTotals(_ context.Context, id int64, t order.Totals) error {
	defer o.lock()()
	st := o.state()
	row, ok := st.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	row.TotalItems = t.Items
	row.TotalAmount = t.Amount
	row.UpdatedAt = time.Now().UTC()
	st.orders[id] = row
	return nil
}

func (o orderView) DeleteItems(_ context.Context, orderID int64) error {
	defer o.lock()()
	delete(o.state().items, orderID)
	return nil
}

func (o orderView) Delete(_ context.Context, id int64) error {
	defer o.lock()()
	st := o.state()
	row, ok := st.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	delete(st.orders, id)
	delete(st.items, id)
	delete(st.numbers, row.Number)
	return nil
}
