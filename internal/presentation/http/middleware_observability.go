package httppresentation

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/SivanLevi100/storefront/internal/infrastructure/id"
	"github.com/SivanLevi100/storefront/internal/observability"
	"github.com/SivanLevi100/storefront/internal/observability/logctx"
)

const unknownRoute = "unknown"

// ObservabilityMiddleware combines:
// - request-scoped logger injection (request_id, trace_id, span_id)
// - X-Request-ID generation + echo
// - HTTP metrics with the chi route pattern as a low-cardinality label
// - one access log line per request
//
// The server span itself is created by otelhttp around the router.
func ObservabilityMiddleware(base observability.Logger, tel observability.Observability) func(http.Handler) http.Handler {
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		metricsProvider = tel.Metrics()
		if base == nil {
			base = tel.Logger()
		}
	}
	if base == nil {
		base = observability.NopLogger()
	}
	requests := metricsProvider.Counter(observability.MHTTPRequests)
	durations := metricsProvider.Histogram(observability.MHTTPRequestDuration)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			rid := r.Header.Get(headerRequestID)
			if rid == "" {
				rid = id.RequestID()
			}
			w.Header().Set(headerRequestID, rid)

			fields := append([]observability.Field{observability.F("request_id", rid)}, logctx.TraceFields(ctx)...)
			reqLogger := base.With(fields...)
			ctx = logctx.With(ctx, reqLogger)

			start := time.Now()
			lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(lrw, r.WithContext(ctx))
			latency := time.Since(start)

			// chi fills the pattern while routing, so it is only complete now
			route := unknownRoute
			if rctx := chi.RouteContext(ctx); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			if span := trace.SpanFromContext(ctx); span.IsRecording() {
				span.SetName(r.Method + " " + route)
				span.SetAttributes(attribute.String("http.route", route))
			}

			status := strconv.Itoa(lrw.status)
			labels := []observability.Label{
				observability.L("method", r.Method),
				observability.L("route", route),
				observability.L("status", status),
			}
			requests.Add(1, labels...)
			durations.Observe(latency.Seconds(), labels...)

			reqLogger.Info("http_access",
				observability.F("method", r.Method),
				observability.F("route", route),
				observability.F("path", r.URL.Path),
				observability.F("status", lrw.status),
				observability.F("latency_ms", latency.Milliseconds()),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusRecorder) Unwrap() http.ResponseWriter { return w.ResponseWriter }
