package workerpresentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	domcatalog "github.com/SivanLevi100/storefront/internal/domain/catalog"
	domorder "github.com/SivanLevi100/storefront/internal/domain/order"
	domoutbox "github.com/SivanLevi100/storefront/internal/domain/outbox"
	"github.com/SivanLevi100/storefront/internal/observability"
	"github.com/SivanLevi100/storefront/internal/observability/logctx"
)

const (
	componentCacheWorker = "cache_worker"
	spanPrefix           = "Worker."
)

// Invalidator drops cached product reads.
type Invalidator interface {
	Invalidate(ctx context.Context, ids ...int64) error
}

// CacheWorker keeps cached product reads in step with committed stock and price changes.
type CacheWorker struct {
	subscriber  domoutbox.Subscriber
	invalidator Invalidator
	tracer      observability.Tracer
	log         observability.Logger

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewCacheWorker(subscriber domoutbox.Subscriber, invalidator Invalidator, tel observability.Observability) *CacheWorker {
	baseLogger := observability.NopLogger()
	tracer := observability.NopTracer()
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		baseLogger = tel.Logger()
		tracer = tel.Tracer()
		metricsProvider = tel.Metrics()
	}
	return &CacheWorker{
		subscriber:   subscriber,
		invalidator:  invalidator,
		tracer:       tracer,
		log:          baseLogger.With(observability.F("component", componentCacheWorker)),
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
	}
}

func (w *CacheWorker) Start() {
	if w.subscriber == nil || w.invalidator == nil {
		return
	}
	domoutbox.SubscribeAll(w.subscriber, w.handle,
		domorder.PlacedEvent{},
		domorder.DeletedEvent{},
		domcatalog.ProductChangedEvent{},
	)
}

func (w *CacheWorker) handle(ctx context.Context, e domoutbox.Event) (err error) {
	const useCase = "catalog.worker.invalidate"

	var ids []int64
	attrs := map[string]string{"use_case": useCase, "event": e.EventName()}
	switch evt := e.(type) {
	case domorder.PlacedEvent:
		ids = evt.ProductIDs
		attrs["order_id"] = strconv.FormatInt(evt.OrderID, 10)
	case domorder.DeletedEvent:
		ids = evt.ProductIDs
		attrs["order_id"] = strconv.FormatInt(evt.OrderID, 10)
	case domcatalog.ProductChangedEvent:
		ids = []int64{evt.ProductID}
		attrs["reason"] = evt.Reason
	default:
		w.count(useCase, "ignored")
		return nil
	}

	ctx, span := w.tracer.Start(ctx, spanPrefix+"InvalidateProducts",
		attribute.String("use_case", useCase),
		attribute.String("event", e.EventName()),
		attribute.Int("products", len(ids)),
	)
	ctx = WithEventContext(ctx, logctx.FromOr(ctx, w.log), attrs)
	logger := logctx.From(ctx)
	start := time.Now()

	defer func() {
		lat := time.Since(start).Seconds()
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, "CACHE_INVALIDATE_FAILED")
		} else {
			span.SetStatus(codes.Ok, "OK")
		}
		w.observe(useCase, outcome, lat)
		logger.Info("use_case_done",
			observability.F("outcome", outcome),
			observability.F("latency_seconds", lat),
			observability.F("products", len(ids)),
		)
		span.End()
	}()

	if err := w.invalidator.Invalidate(ctx, ids...); err != nil {
		return fmt.Errorf("worker: invalidate products: %w", err)
	}
	return nil
}

func (w *CacheWorker) count(useCase, outcome string) {
	w.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
}

func (w *CacheWorker) observe(useCase, outcome string, latencySeconds float64) {
	w.count(useCase, outcome)
	w.durHistogram.Observe(latencySeconds, observability.L("use_case", useCase))
}
