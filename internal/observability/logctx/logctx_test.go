package logctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/SivanLevi100/storefront/internal/observability"
)

type fieldLogger struct{ fields []observability.Field }

func (l *fieldLogger) With(fields ...observability.Field) observability.Logger {
	return &fieldLogger{fields: append(append([]observability.Field(nil), l.fields...), fields...)}
}
func (l *fieldLogger) Debug(string, ...observability.Field) {}
func (l *fieldLogger) Info(string, ...observability.Field)  {}
func (l *fieldLogger) Warn(string, ...observability.Field)  {}
func (l *fieldLogger) Error(string, ...observability.Field) {}

func TestFromOr(t *testing.T) {
	fallback := observability.NopLogger()
	assert.Nil(t, From(context.Background()))
	assert.Equal(t, fallback, FromOr(context.Background(), fallback))

	stored := &fieldLogger{}
	ctx := With(context.Background(), stored)
	assert.Same(t, stored, FromOr(ctx, fallback))
	assert.Equal(t, ctx, With(ctx, nil))
}

func TestEnrich(t *testing.T) {
	bare := context.Background()
	assert.Equal(t, bare, Enrich(bare, observability.F("user_id", 7)))

	ctx := Enrich(With(bare, &fieldLogger{}), observability.F("user_id", 7))
	l, ok := From(ctx).(*fieldLogger)
	require.True(t, ok)
	assert.Equal(t, []observability.Field{observability.F("user_id", 7)}, l.fields)
}

func TestTraceFields(t *testing.T) {
	assert.Empty(t, TraceFields(context.Background()))

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1},
		SpanID:  trace.SpanID{2},
	})
	fields := TraceFields(trace.ContextWithSpanContext(context.Background(), sc))
	require.Len(t, fields, 2)
	assert.Equal(t, "trace_id", fields[0].Key)
	assert.Equal(t, sc.TraceID().String(), fields[0].Value)
	assert.Equal(t, "span_id", fields[1].Key)
}
