package order

import (
	"context"
	"time"

	domoutbox "github.com/SivanLevi100/storefront/internal/domain/outbox"
	"github.com/SivanLevi100/storefront/internal/observability"
	"github.com/SivanLevi100/storefront/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type instruments struct {
	log    observability.Logger
	tracer observability.Tracer

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func newInstruments(tel observability.Observability) instruments {
	baseLog := observability.NopLogger()
	tracer := observability.NopTracer()
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		baseLog = tel.Logger()
		tracer = tel.Tracer()
		metricsProvider = tel.Metrics()
	}
	return instruments{
		log:          baseLog.With(observability.F("service", orderService)),
		tracer:       tracer,
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
		extCounter:   metricsProvider.Counter(observability.MExternalRequests),
		extHistogram: metricsProvider.Histogram(observability.MExternalRequestDuration),
	}
}

// run tracks one use case execution and emits its span status, RED metrics and
// the use_case_done log line on end.
type run struct {
	in      instruments
	useCase string
	ctx     context.Context
	span    trace.Span
	logger  observability.Logger
	start   time.Time
	outcome string
	status  string
	fields  []observability.Field
}

func (in instruments) begin(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *run) {
	logger := logctx.FromOr(ctx, in.log).With(observability.F("use_case", useCase))
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := in.tracer.Start(ctx, spanPrefix+spanName, attrs...)
	return ctx, &run{
		in:      in,
		useCase: useCase,
		ctx:     ctx,
		span:    span,
		logger:  logger,
		start:   time.Now(),
		outcome: "success",
		status:  "OK",
	}
}

func (r *run) fail(status string) {
	r.outcome, r.status = "error", status
}

func (r *run) note(fields ...observability.Field) {
	r.fields = append(r.fields, fields...)
}

func (r *run) end(err error) {
	lat := time.Since(r.start).Seconds()

	if r.span != nil {
		if err != nil {
			r.span.RecordError(err)
			r.span.SetStatus(codes.Error, r.status)
		} else {
			r.span.SetStatus(codes.Ok, r.status)
		}
		r.span.End()
	}

	if r.in.reqCounter != nil {
		r.in.reqCounter.Add(1,
			observability.L("use_case", r.useCase),
			observability.L("outcome", r.outcome),
		)
	}
	if r.in.durHistogram != nil {
		r.in.durHistogram.Observe(lat,
			observability.L("use_case", r.useCase),
		)
	}

	fields := []observability.Field{
		observability.F("outcome", r.outcome),
		observability.F("status", r.status),
		observability.F("latency_seconds", lat),
	}
	if sc := trace.SpanContextFromContext(r.ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	fields = append(fields, r.fields...)
	if err != nil {
		fields = append(fields, observability.Err(err))
	}

	r.logger.Info("use_case_done", fields...)
}

// publish hands e to the bus with a bounded wait and records it as an external call.
func (in instruments) publish(ctx context.Context, publisher domoutbox.Publisher, e domoutbox.Event) error {
	if publisher == nil || e == nil {
		return nil
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	start := time.Now()
	err := publisher.Publish(pubCtx, e)
	outcome := "success"
	if err != nil {
		outcome = "error"
	} else if pubCtx.Err() != nil {
		outcome = "canceled"
		err = pubCtx.Err()
	}
	cancel()

	if in.extCounter != nil {
		in.extCounter.Add(1,
			observability.L("peer", publishPeer),
			observability.L("endpoint", e.EventName()),
			observability.L("outcome", outcome),
		)
	}
	if in.extHistogram != nil {
		in.extHistogram.Observe(time.Since(start).Seconds(),
			observability.L("peer", publishPeer),
			observability.L("endpoint", e.EventName()),
		)
	}
	return err
}
