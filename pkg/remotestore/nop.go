package remotestore

import (
	"context"

	"github.com/jecitDev/jec-salesgrid/pkg/approval"
	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
)

// nopStore accepts every write and has no snapshot
type nopStore struct{}

func (nopStore) Upsert(context.Context, crm.Entity) error                         { return nil }
func (nopStore) Delete(context.Context, crm.EntityType, string) error             { return nil }
func (nopStore) RecordChange(context.Context, datachangelog.ChangeLogEntry) error { return nil }
func (nopStore) UpsertApproval(context.Context, approval.Request) error           { return nil }
func (nopStore) ResolveApproval(context.Context, string, approval.Status, string, string) error {
	return nil
}
func (nopStore) FetchSnapshot(context.Context) (*Snapshot, error) { return nil, ErrNoSnapshot }
