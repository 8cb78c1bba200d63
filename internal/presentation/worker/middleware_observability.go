package workerpresentation

import (
	"context"

	"github.com/google/uuid"

	"github.com/SivanLevi100/storefront/internal/observability"
	"github.com/SivanLevi100/storefront/internal/observability/logctx"
)

// WithEventContext stores an event-scoped logger in ctx. The logger carries an event_id
// (generated when attrs has none), the trace identifiers of the active span and the
// remaining attrs, which must stay low-cardinality.
func WithEventContext(
	ctx context.Context,
	base observability.Logger,
	attrs map[string]string,
) context.Context {
	if base == nil {
		base = logctx.FromOr(ctx, observability.NopLogger())
	}

	fields := make([]observability.Field, 0, len(attrs)+3)

	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields = append(fields, observability.F("event_id", evtID))

	fields = append(fields, logctx.TraceFields(ctx)...)

	for k, v := range attrs {
		if k == "event_id" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}

	return logctx.With(ctx, base.With(fields...))
}
