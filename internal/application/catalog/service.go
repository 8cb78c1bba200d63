package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/SivanLevi100/storefront/internal/application"
	domain "github.com/SivanLevi100/storefront/internal/domain/catalog"
	domoutbox "github.com/SivanLevi100/storefront/internal/domain/outbox"
	"github.com/SivanLevi100/storefront/internal/observability"
	"github.com/SivanLevi100/storefront/internal/observability/logctx"
)

const (
	catalogService = "catalog-service"
	cacheName      = "product"
	publishTimeout = 300 * time.Millisecond
)

var (
	ErrNotFound        = domain.ErrNotFound
	ErrInUse           = domain.ErrInUse
	ErrInvalidPrice    = domain.ErrInvalidPrice
	ErrInvalidQuantity = domain.ErrInvalidQuantity
	ErrInvalidName     = domain.ErrInvalidName
	ErrStorage         = errors.New("catalog: storage failure")
)

// Cache is a read-through copy of single products. Implementations report a miss with
// ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, id int64) (p *domain.Product, ok bool, err error)
	Set(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, ids ...int64) error
}

type Service struct {
	store     domain.Store
	uow       application.UnitOfWork
	cache     Cache
	publisher domoutbox.Publisher
	group     singleflight.Group

	log          observability.Logger
	cacheCounter observability.Counter // cache_requests_total{cache,result}
}

// NewService builds the catalog service. cache and publisher may be nil.
func NewService(store domain.Store, uow application.UnitOfWork, cache Cache, publisher domoutbox.Publisher, tel observability.Observability) *Service {
	baseLog := observability.NopLogger()
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		baseLog = tel.Logger()
		metricsProvider = tel.Metrics()
	}
	return &Service{
		store:        store,
		uow:          uow,
		cache:        cache,
		publisher:    publisher,
		log:          baseLog.With(observability.F("service", catalogService)),
		cacheCounter: metricsProvider.Counter(observability.MCacheRequests),
	}
}

func (s *Service) List(ctx context.Context, f domain.Filter) ([]domain.Product, error) {
	products, err := s.store.List(ctx, f)
	if err != nil {
		return nil, s.storageError(ctx, "product_list_failed", err)
	}
	return products, nil
}

// Get serves a product from the cache, falling back to the store. Concurrent misses for
// the same id share one store read.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	if s.cache != nil {
		p, ok, err := s.cache.Get(ctx, id)
		switch {
		case err != nil:
			s.countCache("error")
			logctx.FromOr(ctx, s.log).Warn("product_cache_read_failed",
				observability.F("product_id", id),
				observability.Err(err),
			)
		case ok:
			s.countCache("hit")
			return p, nil
		default:
			s.countCache("miss")
		}
	}

	v, err, _ := s.group.Do(strconv.FormatInt(id, 10), func() (any, error) {
		p, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, p); err != nil {
				logctx.FromOr(ctx, s.log).Warn("product_cache_write_failed",
					observability.F("product_id", id),
					observability.Err(err),
				)
			}
		}
		return p, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.storageError(ctx, "product_load_failed", err)
	}
	p := *v.(*domain.Product)
	return &p, nil
}

type CreateProductInput struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
}

func (s *Service) Create(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	p, err := domain.NewProduct(in.Name, in.Description, in.Price, in.StockQuantity)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, s.storageError(ctx, "product_create_failed", err)
	}
	logctx.FromOr(ctx, s.log).Info("product_created", observability.F("product_id", p.ID))
	return p, nil
}

type UpdateProductInput struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
}

// Update rewrites the descriptive fields and price. Stock only moves through Restock and checkout.
func (s *Service) Update(ctx context.Context, in UpdateProductInput) (*domain.Product, error) {
	var updated *domain.Product
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx application.Stores) error {
		p, err := tx.Catalog().Get(ctx, in.ID)
		if err != nil {
			return err
		}
		p.Name = in.Name
		p.Description = in.Description
		p.Price = in.Price
		if err := p.Validate(); err != nil {
			return err
		}
		if err := tx.Catalog().Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, s.mapError(ctx, "product_update_failed", err)
	}
	s.changed(ctx, updated.ID, domain.ReasonUpdated)
	return updated, nil
}

func (s *Service) Restock(ctx context.Context, id int64, quantity int) (*domain.Product, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	var restocked *domain.Product
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx application.Stores) error {
		if err := tx.Catalog().IncrementStock(ctx, id, quantity); err != nil {
			return err
		}
		p, err := tx.Catalog().Get(ctx, id)
		if err != nil {
			return err
		}
		restocked = p
		return nil
	})
	if err != nil {
		return nil, s.mapError(ctx, "product_restock_failed", err)
	}
	logctx.FromOr(ctx, s.log).Info("product_restocked",
		observability.F("product_id", id),
		observability.F("quantity", quantity),
		observability.F("stock_quantity", restocked.StockQuantity),
	)
	s.changed(ctx, id, domain.ReasonRestocked)
	return restocked, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return s.mapError(ctx, "product_delete_failed", err)
	}
	s.changed(ctx, id, domain.ReasonDeleted)
	return nil
}

// Invalidate drops cached copies of the given products.
func (s *Service) Invalidate(ctx context.Context, ids ...int64) error {
	if s.cache == nil || len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		s.group.Forget(strconv.FormatInt(id, 10))
	}
	return s.cache.Delete(ctx, ids...)
}

func (s *Service) changed(ctx context.Context, id int64, reason string) {
	logger := logctx.FromOr(ctx, s.log)
	if err := s.Invalidate(ctx, id); err != nil {
		logger.Warn("product_cache_invalidate_failed",
			observability.F("product_id", id),
			observability.Err(err),
		)
	}
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, domain.NewProductChangedEvent(id, reason)); err != nil {
		logger.Warn("product_event_publish_failed",
			observability.F("product_id", id),
			observability.F("reason", reason),
			observability.Err(err),
		)
	}
}

func (s *Service) countCache(result string) {
	if s.cacheCounter != nil {
		s.cacheCounter.Add(1,
			observability.L("cache", cacheName),
			observability.L("result", result),
		)
	}
}

func (s *Service) mapError(ctx context.Context, event string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInUse),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidName):
		return err
	default:
		return s.storageError(ctx, event, err)
	}
}

func (s *Service) storageError(ctx context.Context, event string, err error) error {
	logctx.FromOr(ctx, s.log).Error(event, observability.Err(err))
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
