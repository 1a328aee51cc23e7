package observability

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
)

// basic global logger, JSON to stdout until Init is called.
var logger atomic.Pointer[zap.Logger]

func init() {
	l, err := build("info", "json")
	if err != nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

// Init replaces the global logger. format is "json" or "console".
func Init(level, format string) error {
	l, err := build(level, format)
	if err != nil {
		return err
	}
	SetLogger(l)
	return nil
}

// SetLogger swaps the global logger. Tests use it with an observer core.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

func build(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stdout"}

	return cfg.Build()
}

func Logger() *zap.Logger {
	return logger.Load()
}

// Sync flushes buffered entries. Call it before exit.
func Sync() {
	_ = Logger().Sync()
}

// WithFields returns a logger with additional fields.
func WithFields(fields ...zap.Field) *zap.Logger {
	return Logger().With(fields...)
}

// WithRequestID stores a request_id in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// RequestIDFromContext returns the request_id stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	reqID, _ := ctx.Value(ctxKeyRequestID).(string)
	return reqID
}

// LoggerFromContext adds request_id if present.
func LoggerFromContext(ctx context.Context) *zap.Logger {
	reqID := RequestIDFromContext(ctx)
	if reqID == "" {
		return Logger()
	}
	return Logger().With(zap.String("request_id", reqID))
}
