package order

import (
	"context"
	"errors"

	domain "github.com/SivanLevi100/storefront/internal/domain/order"
	"github.com/SivanLevi100/storefront/internal/observability"
	"github.com/SivanLevi100/storefront/internal/observability/logctx"
)

// Service serves the read side of orders.
type Service struct {
	store domain.Store
	log   observability.Logger
}

func NewService(store domain.Store, tel observability.Observability) *Service {
	return &Service{store: store, log: newInstruments(tel).log}
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Order, error) {
	if id <= 0 {
		return nil, newValidation("order id is required")
	}
	o, err := s.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logctx.FromOr(ctx, s.log).Error("order_load_failed",
				observability.F("order_id", id),
				observability.Err(err),
			)
		}
		return nil, wrapStorageError(err)
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, f domain.Filter) ([]domain.Order, error) {
	orders, err := s.store.List(ctx, f)
	if err != nil {
		logctx.FromOr(ctx, s.log).Error("order_list_failed", observability.Err(err))
		return nil, wrapStorageError(err)
	}
	return orders, nil
}
