package order

import "time"

// PlacedEvent is emitted after a checkout transaction commits.
type PlacedEvent struct {
	OrderID    int64
	Number     string
	UserID     int64
	ProductIDs []int64
	OccurredAt time.Time
}

func (PlacedEvent) EventName() string { return "order.placed" }

func NewPlacedEvent(o *Order) PlacedEvent {
	return PlacedEvent{
		OrderID:    o.ID,
		Number:     o.Number,
		UserID:     o.UserID,
		ProductIDs: productIDs(o.Items),
		OccurredAt: time.Now().UTC(),
	}
}

// DeletedEvent is emitted after an order was deleted and its stock restored.
type DeletedEvent struct {
	OrderID    int64
	ProductIDs []int64
	OccurredAt time.Time
}

func (DeletedEvent) EventName() string { return "order.deleted" }

func NewDeletedEvent(o *Order) DeletedEvent {
	return DeletedEvent{
		OrderID:    o.ID,
		ProductIDs: productIDs(o.Items),
		OccurredAt: time.Now().UTC(),
	}
}

func productIDs(items []Item) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	return ids
}
