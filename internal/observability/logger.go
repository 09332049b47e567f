package observability

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerKey struct{}

var noopLogger = zap.NewNop()

// LoggerOption adjusts NewLogger.
type LoggerOption func(*zap.Config)

// WithConsole switches to the human-readable console encoder. Used in dev mode.
func WithConsole() LoggerOption {
	return func(cfg *zap.Config) {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	}
}

// ParseLevel maps a LOG_LEVEL value to a zap level. Empty or unknown values give info.
func ParseLevel(s string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// NewLogger builds the process logger: JSON lines on stdout with severity, message
// and timestamp keys, unsampled, stack traces only from Recovery.
func NewLogger(level string, opts ...LoggerOption) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	cfg.Sampling = nil
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "severity"
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	cfg.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg.Build()
}

// WithLogger returns a copy of ctx carrying logger. A nil logger stores the no-op logger.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = noopLogger
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the request logger, or a no-op logger when none was injected.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return noopLogger
	}
	if logger, _ := ctx.Value(loggerKey{}).(*zap.Logger); logger != nil {
		return logger
	}
	return noopLogger
}
