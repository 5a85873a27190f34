package approval

import (
	"errors"
	"fmt"
	"time"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
)

// Status is the lifecycle state of an approval request
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

var (
	// ErrInvalidTransition is returned when a request is moved out of a terminal state
	ErrInvalidTransition = errors.New("invalid approval transition")
	// ErrNotFound is returned when no request has the given id
	ErrNotFound = errors.New("approval request not found")
)

// Terminal reports whether no further transition is allowed from s
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Request is a deferred gated field change awaiting a decision
type Request struct {
	ID          string         `json:"id" db:"id"`
	EntityType  crm.EntityType `json:"entityType" db:"entity_type"`
	EntityID    string         `json:"entityId" db:"entity_id"`
	FieldName   string         `json:"fieldName" db:"field_name"`
	OldValue    string         `json:"oldValue" db:"old_value"`
	NewValue    string         `json:"newValue" db:"new_value"`
	RequestedBy string         `json:"requestedBy" db:"requested_by"`
	RequestedAt time.Time      `json:"requestedAt" db:"requested_at"`
	Status      Status         `json:"status" db:"status"`
	ApprovedBy  string         `json:"approvedBy,omitempty" db:"approved_by"`
	ResolvedAt  *time.Time     `json:"resolvedAt,omitempty" db:"resolved_at"`
	Notes       string         `json:"notes,omitempty" db:"notes"`
}

// Transition moves the request to status to. Only PENDING -> APPROVED and
// PENDING -> REJECTED are allowed.
func (r *Request) Transition(to Status) error {
	if r.Status != StatusPending || !to.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, to)
	}
	r.Status = to
	return nil
}

// LatencyMinutes is the whole number of minutes between request and resolution
func (r Request) LatencyMinutes() (int, bool) {
	if r.ResolvedAt == nil {
		return 0, false
	}
	return int(r.ResolvedAt.Sub(r.RequestedAt) / time.Minute), true
}
