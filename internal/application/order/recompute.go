package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/SivanLevi100/storefront/internal/application"
	domain "github.com/SivanLevi100/storefront/internal/domain/order"
	"github.com/SivanLevi100/storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const useCaseOrderRecompute = "order.recompute_totals"

// RecomputeOrderTotalsUseCase rewrites an order's totals from its current items.
type RecomputeOrderTotalsUseCase struct {
	uow application.UnitOfWork
	in  instruments
}

func NewRecomputeOrderTotalsUseCase(uow application.UnitOfWork, tel observability.Observability) *RecomputeOrderTotalsUseCase {
	return &RecomputeOrderTotalsUseCase{uow: uow, in: newInstruments(tel)}
}

type RecomputeOrderTotalsInput struct {
	OrderID int64
}

type RecomputedTotals struct {
	OrderID     int64
	TotalItems  int
	TotalAmount decimal.Decimal
	Changed     bool
}

func (uc *RecomputeOrderTotalsUseCase) Execute(ctx context.Context, cmd RecomputeOrderTotalsInput) (_ *RecomputedTotals, err error) {
	ctx, r := uc.in.begin(ctx, useCaseOrderRecompute, "RecomputeOrderTotals", attribute.Int64("order.id", cmd.OrderID))
	defer func() { r.end(err) }()
	r.note(observability.F("order_id", cmd.OrderID))

	if cmd.OrderID <= 0 {
		r.fail("ORDER_ID_REQUIRED")
		return nil, newValidation("order id is required")
	}

	var result *RecomputedTotals
	err = uc.uow.WithinTx(ctx, func(ctx context.Context, s application.Stores) error {
		o, err := s.Orders().Get(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		totals := domain.ComputeTotals(o.Items)
		if err := s.Orders().UpdateTotals(ctx, o.ID, totals); err != nil {
			return fmt.Errorf("update totals: %w", err)
		}
		result = &RecomputedTotals{
			OrderID:     o.ID,
			TotalItems:  totals.Items,
			TotalAmount: totals.Amount,
			Changed:     totals.Items != o.TotalItems || !totals.Amount.Equal(o.TotalAmount),
		}
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

	r.note(observability.F("changed", result.Changed))
	return result, nil
}
