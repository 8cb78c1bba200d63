package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SivanLevi100/storefront/internal/application"
	domcatalog "github.com/SivanLevi100/storefront/internal/domain/catalog"
	domain "github.com/SivanLevi100/storefront/internal/domain/order"
	domoutbox "github.com/SivanLevi100/storefront/internal/domain/outbox"
	"github.com/SivanLevi100/storefront/internal/observability"
	"github.com/SivanLevi100/storefront/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	orderService       = "order-service"
	useCaseOrderCreate = "order.create"
	spanPrefix         = "UC."
	publishPeer        = "outbox"
	publishTimeout     = 300 * time.Millisecond

	defaultNumberAttempts = 3
)

var (
	ErrEmptyCart              = domain.ErrEmptyCart
	ErrInsufficientStock      = domain.ErrInsufficientStock
	ErrNotFound               = domain.ErrNotFound
	ErrInvalidStateTransition = domain.ErrInvalidStateTransition
	ErrStorage                = errors.New("order: storage failure")
)

// CreateOrderFromCartUseCase turns a user's cart into an order in a single transaction.
type CreateOrderFromCartUseCase struct {
	uow         application.UnitOfWork
	numbers     domain.NumberGenerator
	publisher   domoutbox.Publisher
	maxAttempts int
	now         func() time.Time

	log    observability.Logger
	tracer observability.Tracer
	// RED metrics (supplied via DI; do not instantiate inside methods).
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}

	events instruments
}

type CreateOption func(*CreateOrderFromCartUseCase)

// WithNumberAttempts bounds how often checkout is retried after an order number collision.
func WithNumberAttempts(n int) CreateOption {
	return func(uc *CreateOrderFromCartUseCase) {
		if n > 0 {
			uc.maxAttempts = n
		}
	}
}

func WithClock(now func() time.Time) CreateOption {
	return func(uc *CreateOrderFromCartUseCase) {
		if now != nil {
			uc.now = now
		}
	}
}

// NewCreateOrderFromCartUseCase wires the dependencies required to execute the use case.
func NewCreateOrderFromCartUseCase(
	uow application.UnitOfWork,
	numbers domain.NumberGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
	opts ...CreateOption,
) *CreateOrderFromCartUseCase {
	in := newInstruments(tel)
	uc := &CreateOrderFromCartUseCase{
		uow:          uow,
		numbers:      numbers,
		publisher:    publisher,
		maxAttempts:  defaultNumberAttempts,
		now:          time.Now,
		log:          in.log,
		tracer:       in.tracer,
		reqCounter:   in.reqCounter,
		durHistogram: in.durHistogram,
		events:       in,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type CreateOrderFromCartInput struct {
	UserID int64
}

type PlacedOrder struct {
	OrderID     int64
	OrderNumber string
	TotalAmount decimal.Decimal
	TotalItems  int
}

// Execute performs the checkout flow.
func (uc *CreateOrderFromCartUseCase) Execute(ctx context.Context, cmd CreateOrderFromCartInput) (_ *PlacedOrder, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseOrderCreate),
		observability.F("user_id", cmd.UserID),
	)

	var placed *domain.Order
	var attempts int
	var publishErr error

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"CreateOrderFromCart",
		attribute.String("use_case", useCaseOrderCreate),
		attribute.Int64("order.user_id", cmd.UserID),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		if uc.reqCounter != nil {
			uc.reqCounter.Add(1,
				observability.L("use_case", useCaseOrderCreate),
				observability.L("outcome", outcome),
			)
		}
		if uc.durHistogram != nil {
			uc.durHistogram.Observe(lat,
				observability.L("use_case", useCaseOrderCreate),
			)
		}

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
			observability.F("attempts", attempts),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if placed != nil {
			fields = append(fields,
				observability.F("order_id", placed.ID),
				observability.F("order_number", placed.Number),
				observability.F("total_amount", placed.TotalAmount.StringFixed(2)),
			)
		}
		if publishErr != nil {
			fields = append(fields, observability.F("event_publish_error", publishErr.Error()))
		}
		if err != nil {
			fields = append(fields, observability.Err(err))
		}

		logger.Info("use_case_done", fields...)
	}()

	if cmd.UserID <= 0 {
		outcome, statusText = "error", "USER_ID_REQUIRED"
		return nil, newValidation("user id is required")
	}
	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	for attempts = 1; ; attempts++ {
		placed, err = uc.checkout(ctx, cmd.UserID)
		if err == nil || !errors.Is(err, domain.ErrDuplicateNumber) || attempts >= uc.maxAttempts {
			break
		}
		span.AddEvent("order.number_collision",
			trace.WithAttributes(attribute.Int("attempt", attempts)),
		)
		logger.Warn("order_number_collision", observability.F("attempt", attempts))
	}

	if err != nil {
		var stockErr *domain.InsufficientStockError
		switch {
		case errors.Is(err, domain.ErrEmptyCart):
			outcome, statusText = "error", "EMPTY_CART"
			return nil, err
		case errors.As(err, &stockErr):
			outcome, statusText = "error", "INSUFFICIENT_STOCK"
			span.SetAttributes(attribute.Int64("product.id", stockErr.ProductID))
			return nil, stockErr
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			outcome, statusText = "error", "TX_TIMEOUT"
			return nil, wrapStorageError(err)
		case errors.Is(err, domain.ErrDuplicateNumber):
			outcome, statusText = "error", "ORDER_NUMBER_EXHAUSTED"
			return nil, wrapStorageError(err)
		default:
			outcome, statusText = "error", "TX_FAILED"
			return nil, wrapStorageError(err)
		}
	}

	if uc.publisher != nil {
		publishErr = uc.events.publish(ctx, uc.publisher, domain.NewPlacedEvent(placed))
		if publishErr != nil {
			statusText = "EVENT_PUBLISH_FAILED"
		}
	}

	span.SetAttributes(
		attribute.Int64("order.id", placed.ID),
		attribute.String("order.number", placed.Number),
		attribute.String("order.status", string(placed.Status)),
	)
	span.AddEvent("order.created",
		trace.WithAttributes(
			attribute.Int64("order.id", placed.ID),
		),
	)

	return &PlacedOrder{
		OrderID:     placed.ID,
		OrderNumber: placed.Number,
		TotalAmount: placed.TotalAmount,
		TotalItems:  placed.TotalItems,
	}, nil
}

// checkout runs one transactional attempt. Every precondition is evaluated before the
// first write; any failure rolls the whole attempt back.
func (uc *CreateOrderFromCartUseCase) checkout(ctx context.Context, userID int64) (*domain.Order, error) {
	var placed *domain.Order

	err := uc.uow.WithinTx(ctx, func(ctx context.Context, s application.Stores) error {
		lines, err := s.Carts().Lines(ctx, userID)
		if err != nil {
			return fmt.Errorf("read cart: %w", err)
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}

		items := make([]domain.Item, 0, len(lines))
		for _, line := range lines {
			ps, err := s.Catalog().PriceAndStock(ctx, line.ProductID)
			if errors.Is(err, domcatalog.ErrNotFound) {
				return &domain.InsufficientStockError{ProductID: line.ProductID, Requested: line.Quantity}
			}
			if err != nil {
				return fmt.Errorf("read product %d: %w", line.ProductID, err)
			}
			if ps.StockQuantity < line.Quantity {
				return &domain.InsufficientStockError{
					ProductID: line.ProductID,
					Requested: line.Quantity,
					Available: ps.StockQuantity,
				}
			}
			items = append(items, domain.Item{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: ps.Price,
			})
		}

		o, err := domain.New(uc.numbers.Next(), userID, items, uc.now())
		if err != nil {
			return err
		}
		if err := s.Orders().Insert(ctx, o); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i := range o.Items {
			item := &o.Items[i]
			item.OrderID = o.ID
			if err := s.Orders().InsertItem(ctx, item); err != nil {
				return fmt.Errorf("insert item for product %d: %w", item.ProductID, err)
			}
			if err := s.Catalog().DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, domcatalog.ErrInsufficientStock) {
					return &domain.InsufficientStockError{ProductID: item.ProductID, Requested: item.Quantity}
				}
				return fmt.Errorf("decrement stock for product %d: %w", item.ProductID, err)
			}
		}

		if err := s.Carts().Clear(ctx, userID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

func wrapStorageError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrStorage):
		return err
	case errors.Is(err, domain.ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
}

func newValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

var ErrValidation = errors.New("order: validation failed")
