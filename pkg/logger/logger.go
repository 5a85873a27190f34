package logger

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the logger flavour and level
type Config struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

var base atomic.Pointer[zap.Logger]

func init() {
	base.Store(zap.NewNop())
}

// New builds a zap logger from config and installs it as the base logger
// returned by FromContext when no request logger is set
func New(config Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if config.Level != "" {
		if err := level.UnmarshalText([]byte(config.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", config.Level, err)
		}
	}

	zapConfig := zap.NewProductionConfig()
	if config.Development {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	log, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	base.Store(log)
	return log, nil
}

type ctxLogger struct{}

// WithContext returns a copy of ctx carrying log
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxLogger{}, log)
}

// FromContext returns the request scoped logger.
// If context based logger is not found base logger is returned
func FromContext(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxLogger{}).(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return base.Load()
}

// OrNop returns log, or a no-op logger when log is nil
func OrNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
