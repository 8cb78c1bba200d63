package logctx

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/SivanLevi100/storefront/internal/observability"
)

type loggerKey struct{}

// With stores logger on ctx. A nil logger leaves ctx untouched.
func With(ctx context.Context, logger observability.Logger) context.Context {
	if logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// From returns the logger stored on ctx or nil.
func From(ctx context.Context) observability.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerKey{}).(observability.Logger)
	return logger
}

func FromOr(ctx context.Context, fallback observability.Logger) observability.Logger {
	if logger := From(ctx); logger != nil {
		return logger
	}
	return fallback
}

// Enrich replaces the stored logger with one carrying fields. Without a stored logger
// ctx is returned as is.
func Enrich(ctx context.Context, fields ...observability.Field) context.Context {
	logger := From(ctx)
	if logger == nil || len(fields) == 0 {
		return ctx
	}
	return With(ctx, logger.With(fields...))
}

// TraceFields returns trace_id and span_id of the span active on ctx, if it is valid.
func TraceFields(ctx context.Context) []observability.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []observability.Field{
		observability.F("trace_id", sc.TraceID().String()),
		observability.F("span_id", sc.SpanID().String()),
	}
}
