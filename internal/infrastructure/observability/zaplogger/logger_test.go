package zaplogger

import (
	"errors"
	"testing"

	"github.com/SivanLevi100/storefront/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_FixedAndScopedFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core), observability.F("service", "storefront"))

	l.With(observability.F("request_id", "r-1")).Info("use_case_done",
		observability.F("outcome", "success"),
		observability.Err(errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "use_case_done", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "storefront", fields["service"])
	assert.Equal(t, "r-1", fields["request_id"])
	assert.Equal(t, "success", fields["outcome"])
	assert.Equal(t, "boom", fields["error"])
}

func TestLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	l := New(zap.New(core))

	l.Debug("dropped")
	l.Info("dropped")
	l.Warn("kept")
	l.Error("kept")

	assert.Equal(t, 2, logs.Len())
}

func TestNew_NilBase(t *testing.T) {
	l := New(nil)
	assert.NotPanics(t, func() { l.Info("noop") })
}

func TestLogger_NilErrorFieldIsSkipped(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := New(zap.New(core))

	l.Info("event_bus_stopped", observability.Err(nil), observability.F("drained", true))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.NotContains(t, fields, "error")
	assert.Equal(t, true, fields["drained"])
}
