package oteltrace

import (
	"context"

	"github.com/SivanLevi100/storefront/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type tracer struct{ t trace.Tracer }

// New returns a tracer bound to the global otel TracerProvider.
func New(name string) observability.Tracer {
	if name == "" {
		name = "storefront"
	}
	return &tracer{t: otel.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Without an SDK TracerProvider installed via otel.SetTracerProvider the spans are non-recording.
