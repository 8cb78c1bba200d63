package order

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/SivanLevi100/storefront/internal/application"
	domain "github.com/SivanLevi100/storefront/internal/domain/order"
	domoutbox "github.com/SivanLevi100/storefront/internal/domain/outbox"
	"github.com/SivanLevi100/storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const useCaseOrderDelete = "order.delete"

// DeleteOrderUseCase removes an order and returns its items to stock atomically.
type DeleteOrderUseCase struct {
	uow       application.UnitOfWork
	publisher domoutbox.Publisher
	in        instruments
}

func NewDeleteOrderUseCase(uow application.UnitOfWork, publisher domoutbox.Publisher, tel observability.Observability) *DeleteOrderUseCase {
	return &DeleteOrderUseCase{uow: uow, publisher: publisher, in: newInstruments(tel)}
}

type DeleteOrderInput struct {
	OrderID int64
}

type DeletedOrder struct {
	OrderID       int64
	OrderNumber   string
	RestoredUnits int
}

func (uc *DeleteOrderUseCase) Execute(ctx context.Context, cmd DeleteOrderInput) (_ *DeletedOrder, err error) {
	ctx, r := uc.in.begin(ctx, useCaseOrderDelete, "DeleteOrder", attribute.Int64("order.id", cmd.OrderID))
	defer func() { r.end(err) }()
	r.note(observability.F("order_id", cmd.OrderID))

	if cmd.OrderID <= 0 {
		r.fail("ORDER_ID_REQUIRED")
		return nil, newValidation("order id is required")
	}

	var deleted *domain.Order
	err = uc.uow.WithinTx(ctx, func(ctx context.Context, s application.Stores) error {
		o, err := s.Orders().Get(ctx, cmd.OrderID)
		if err != nil {
			return err
		}

		// Same ascending product order as checkout so concurrent locks never cross.
		items := append([]domain.Item(nil), o.Items...)
		sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
		for _, it := range items {
			if err := s.Catalog().IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				return fmt.Errorf("restock product %d: %w", it.ProductID, err)
			}
		}
		if err := s.Orders().DeleteItems(ctx, o.ID); err != nil {
			return fmt.Errorf("delete items: %w", err)
		}
		if err := s.Orders().Delete(ctx, o.ID); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		deleted = o
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.fail("ORDER_NOT_FOUND")
			return nil, ErrNotFound
		}
		r.fail("TX_FAILED")
		return nil, wrapStorageError(err)
	}

	restored := domain.ComputeTotals(deleted.Items).Items
	r.note(observability.F("restored_units", restored))

	if pubErr := uc.in.publish(ctx, uc.publisher, domain.NewDeletedEvent(deleted)); pubErr != nil {
		r.status = "EVENT_PUBLISH_FAILED"
		r.note(observability.F("event_publish_error", pubErr.Error()))
	}

	return &DeletedOrder{
		OrderID:       deleted.ID,
		OrderNumber:   deleted.Number,
		RestoredUnits: restored,
	}, nil
}
