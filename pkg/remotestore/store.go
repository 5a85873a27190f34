package remotestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jecitDev/jec-salesgrid/pkg/approval"
	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
)

// ErrNoSnapshot is returned by stores that only accept writes
var ErrNoSnapshot = errors.New("store has no snapshot")

// Store is the optional remote persistence the orchestrator syncs to after
// every optimistic local change
type Store interface {
	// Upsert creates or replaces an entity
	Upsert(ctx context.Context, entity crm.Entity) error

	// Delete removes an entity
	Delete(ctx context.Context, entityType crm.EntityType, id string) error

	// RecordChange persists one change log entry
	RecordChange(ctx context.Context, entry datachangelog.ChangeLogEntry) error

	// UpsertApproval creates or replaces an approval request
	UpsertApproval(ctx context.Context, req approval.Request) error

	// ResolveApproval records the decision on an approval request
	ResolveApproval(ctx context.Context, id string, status approval.Status, resolver, notes string) error

	// FetchSnapshot loads every collection
	FetchSnapshot(ctx context.Context) (*Snapshot, error)
}

// Snapshot is the full remote state used to bootstrap the local state
type Snapshot struct {
	Companies  []crm.Company                  `json:"companies"`
	Contacts   []crm.Contact                  `json:"contacts"`
	Deals      []crm.Deal                     `json:"deals"`
	Activities []crm.Activity                 `json:"activities"`
	ChangeLogs []datachangelog.ChangeLogEntry `json:"changeLogs"`
	Approvals  []approval.Request             `json:"approvals,omitempty"`
}

// Collection returns the REST collection and table name of an entity type
func Collection(entityType crm.EntityType) (string, error) {
	switch entityType {
	case crm.EntityCompany:
		return "companies", nil
	case crm.EntityContact:
		return "contacts", nil
	case crm.EntityDeal:
		return "deals", nil
	case crm.EntityActivity:
		return "activities", nil
	}
	return "", fmt.Errorf("unsupported entity type %q", entityType)
}
