package catalog

import "time"

// ProductChangedEvent is emitted when price, stock or existence of a product changed
// outside of checkout.
type ProductChangedEvent struct {
	ProductID  int64
	Reason     string
	OccurredAt time.Time
}

func (ProductChangedEvent) EventName() string { return "catalog.product_changed" }

const (
	ReasonUpdated   = "updated"
	ReasonRestocked = "restocked"
	ReasonDeleted   = "deleted"
)

func NewProductChangedEvent(productID int64, reason string) ProductChangedEvent {
	return ProductChangedEvent{
		ProductID:  productID,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
}
