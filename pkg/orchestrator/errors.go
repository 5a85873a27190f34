package orchestrator

import (
	"errors"
	"strings"

	customvalidator "github.com/jecitDev/jec-salesgrid/pkg/customValidator"
)

var (
	ErrPermissionDenied        = errors.New("permission denied")
	ErrValidationFailed        = errors.New("validation failed")
	ErrNotFound                = errors.New("not found")
	ErrRemotePersistenceFailed = errors.New("remote persistence failed")
	// ErrUnauthorized and ErrUnsupportedField are returned by Rollback only
	ErrUnauthorized     = errors.New("unauthorized")
	ErrUnsupportedField = errors.New("unsupported field")
)

// ValidationError lists every field rule a payload broke
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

func newValidationError(err error) *ValidationError {
	return &ValidationError{Messages: customvalidator.Messages(err)}
}
