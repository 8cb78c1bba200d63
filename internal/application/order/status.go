package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/SivanLevi100/storefront/internal/application"
	domain "github.com/SivanLevi100/storefront/internal/domain/order"
	"github.com/SivanLevi100/storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const useCaseOrderStatus = "order.update_status"

// UpdateOrderStatusUseCase applies an administrative lifecycle transition.
type UpdateOrderStatusUseCase struct {
	uow application.UnitOfWork
	in  instruments
}

func NewUpdateOrderStatusUseCase(uow application.UnitOfWork, tel observability.Observability) *UpdateOrderStatusUseCase {
	return &UpdateOrderStatusUseCase{uow: uow, in: newInstruments(tel)}
}

type UpdateOrderStatusInput struct {
	OrderID int64
	Status  domain.Status
}

func (uc *UpdateOrderStatusUseCase) Execute(ctx context.Context, cmd UpdateOrderStatusInput) (_ *domain.Order, err error) {
	ctx, r := uc.in.begin(ctx, useCaseOrderStatus, "UpdateOrderStatus",
		attribute.Int64("order.id", cmd.OrderID),
		attribute.String("order.target_status", string(cmd.Status)),
	)
	defer func() { r.end(err) }()
	r.note(observability.F("order_id", cmd.OrderID), observability.F("target_status", string(cmd.Status)))

	if cmd.OrderID <= 0 {
		r.fail("ORDER_ID_REQUIRED")
		return nil, newValidation("order id is required")
	}

	var updated *domain.Order
	err = uc.uow.WithinTx(ctx, func(ctx context.Context, s application.Stores) error {
		o, err := s.Orders().Get(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		from := o.Status
		if err := o.TransitionTo(cmd.Status); err != nil {
			return err
		}
		if err := s.Orders().UpdateStatus(ctx, o.ID, from, o.Status); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		updated = o
		return nil
	})
	switch {
	case err == nil:
		r.note(observability.F("new_status", string(updated.Status)))
		return updated, nil
	case errors.Is(err, domain.ErrNotFound):
		r.fail("ORDER_NOT_FOUND")
		return nil, ErrNotFound
	case errors.Is(err, domain.ErrInvalidStateTransition), errors.Is(err, domain.ErrInvalidStatus):
		r.fail("INVALID_TRANSITION")
		return nil, err
	default:
		r.fail("TX_FAILED")
		return nil, wrapStorageError(err)
	}
}
