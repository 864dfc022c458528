// Package logging builds the zap loggers used across the service. Every line is a
// JSON object with "ts" rendered in the configured time zone, "level" and "msg".
package logging

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON logger writing to w at info level and above.
func New(w io.Writer, loc *time.Location) *zap.Logger {
	return NewWithLevel(w, loc, zapcore.InfoLevel)
}

// NewWithLevel is New with an explicit minimum level.
func NewWithLevel(w io.Writer, loc *time.Location, level zapcore.Level) *zap.Logger {
	if loc == nil {
		loc = time.UTC
	}
	enc := zapcore.NewJSONEncoder(encoderConfig(loc))
	core := zapcore.NewCore(enc, zapcore.AddSync(w), level)
	return zap.New(core)
}

// Stdout is New writing to standard output.
func Stdout(loc *time.Location) *zap.Logger {
	return New(os.Stdout, loc)
}

func encoderConfig(loc *time.Location) zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.LevelKey = "level"
	cfg.MessageKey = "msg"
	cfg.CallerKey = zapcore.OmitKey
	cfg.StacktraceKey = zapcore.OmitKey
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.In(loc).Format(time.RFC3339Nano))
	}
	cfg.EncodeDuration = zapcore.MillisDurationEncoder
	return cfg
}

// Event logs a lifecycle step of a component (startup, migration, tracing) as
// component/event/status fields.
func Event(log *zap.Logger, component, event, status string, fields ...zap.Field) {
	all := append([]zap.Field{
		zap.String("component", component),
		zap.String("event", event),
		zap.String("status", status),
	}, fields...)
	if status == "error" || status == "failed" {
		log.Error(event, all...)
		return
	}
	log.Info(event, all...)
}
