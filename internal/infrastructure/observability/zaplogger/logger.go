package zaplogger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/SivanLevi100/storefront/internal/observability"
)

// Logger implements observability.Logger on top of zap.
type Logger struct{ z *zap.Logger }

// New wraps base and pins fixed on every entry. A nil base discards everything.
func New(base *zap.Logger, fixed ...observability.Field) *Logger {
	if base == nil {
		base = zap.NewNop()
	}
	if len(fixed) > 0 {
		base = base.With(toZapFields(fixed)...)
	}
	return &Logger{z: base}
}

func (l *Logger) With(fields ...observability.Field) observability.Logger {
	if len(fields) == 0 {
		return l
	}
	return &Logger{z: l.z.With(toZapFields(fields)...)}
}

func (l *Logger) Debug(msg string, fields ...observability.Field) {
	l.write(zapcore.DebugLevel, msg, fields)
}

func (l *Logger) Info(msg string, fields ...observability.Field) {
	l.write(zapcore.InfoLevel, msg, fields)
}

func (l *Logger) Warn(msg string, fields ...observability.Field) {
	l.write(zapcore.WarnLevel, msg, fields)
}

func (l *Logger) Error(msg string, fields ...observability.Field) {
	l.write(zapcore.ErrorLevel, msg, fields)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error { return l.z.Sync() }

// write converts fields only for entries the core will keep.
func (l *Logger) write(level zapcore.Level, msg string, fields []observability.Field) {
	if ce := l.z.Check(level, msg); ce != nil {
		ce.Write(toZapFields(fields)...)
	}
}

func toZapFields(fs []observability.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fs))
	for _, f := range fs {
		switch v := f.Value.(type) {
		case error:
			out = append(out, zap.NamedError(f.Key, v))
		case nil:
			out = append(out, zap.Skip())
		default:
			out = append(out, zap.Any(f.Key, v))
		}
	}
	return out
}
