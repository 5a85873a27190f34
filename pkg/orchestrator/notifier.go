package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/jecitDev/jec-salesgrid/pkg/logger"
)

// Severity classifies a user-facing notification
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Notifier receives one message for every terminal outcome of an operation
type Notifier interface {
	Notify(ctx context.Context, message string, severity Severity)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, message string, severity Severity)

func (f NotifierFunc) Notify(ctx context.Context, message string, severity Severity) {
	f(ctx, message, severity)
}

// LogNotifier writes notifications to zap. Without a Logger it uses the one in ctx.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) Notify(ctx context.Context, message string, severity Severity) {
	log := n.Logger
	if log == nil {
		log = logger.FromContext(ctx)
	}

	switch severity {
	case SeverityError:
		log.Warn(message, zap.String("severity", string(severity)))
	default:
		log.Info(message, zap.String("severity", string(severity)))
	}
}
