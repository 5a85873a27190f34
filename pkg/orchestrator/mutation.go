package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jecitDev/jec-salesgrid/pkg/approval"
	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
	"github.com/jecitDev/jec-salesgrid/pkg/remotestore"
)

// mutation tracks what one operation added to the local stores so that it
// can be undone when the remote write fails
type mutation struct {
	e           *Engine
	operation   string
	checkpoint  crm.Checkpoint
	entries     []datachangelog.ChangeLogEntry
	approvalIDs []string
}

func (e *Engine) begin(operation string) *mutation {
	return &mutation{e: e, operation: operation, checkpoint: e.state.Checkpoint()}
}

func (m *mutation) record(entries ...datachangelog.ChangeLogEntry) {
	m.entries = append(m.entries, m.e.logs.Append(entries...)...)
}

func (m *mutation) request(req approval.Request) approval.Request {
	created := m.e.approvals.Create(req)
	m.approvalIDs = append(m.approvalIDs, created.ID)
	return created
}

func (m *mutation) logIDs() []string {
	ids := make([]string, 0, len(m.entries))
	for _, entry := range m.entries {
		ids = append(ids, entry.ID)
	}
	return ids
}

func (m *mutation) compensate() {
	m.e.state.Restore(m.checkpoint)
	m.e.logs.Revert(m.logIDs()...)
	m.e.approvals.Remove(m.approvalIDs...)
}

// commit syncs the mutation to the remote store. On failure the local state,
// log entries and approval requests created by the mutation are rolled back.
// On success the new entries are forwarded to the remote change log.
func (m *mutation) commit(ctx context.Context, push func(ctx context.Context, remote remotestore.Store) error, message string, severity Severity) (Result, error) {
	e := m.e
	result := Result{LogIDs: m.logIDs(), ApprovalIDs: m.approvalIDs}

	if e.remote != nil {
		if err := push(ctx, e.remote); err != nil {
			m.compensate()
			e.log.Error("remote sync failed, local change reverted",
				zap.String("operation", m.operation),
				zap.Strings("log_ids", result.LogIDs),
				zap.Strings("approval_ids", result.ApprovalIDs),
				zap.Error(err))
			err = fmt.Errorf("%w: %s: %w", ErrRemotePersistenceFailed, m.operation, err)
			e.notify(ctx, err.Error(), SeverityError)
			return Result{Status: StatusCompensatedFailure}, err
		}
		e.forward(ctx, m.entries)
	}

	result.Status = StatusApplied
	if len(m.approvalIDs) > 0 {
		result.Status = StatusPendingApproval
	}
	e.notify(ctx, message, severity)
	return result, nil
}

// forward records entries remotely on a best-effort basis
func (e *Engine) forward(ctx context.Context, entries []datachangelog.ChangeLogEntry) {
	if e.remote == nil {
		return
	}
	for _, entry := range entries {
		if err := e.remote.RecordChange(ctx, entry); err != nil {
			e.log.Warn("failed to record change remotely",
				zap.String("entry_id", entry.ID),
				zap.String("entity_type", string(entry.EntityType)),
				zap.String("entity_id", entry.EntityID),
				zap.Error(err))
		}
	}
}

func upsert(entity crm.Entity) func(context.Context, remotestore.Store) error {
	return func(ctx context.Context, remote remotestore.Store) error {
		return remote.Upsert(ctx, entity)
	}
}

func remove(entityType crm.EntityType, id string) func(context.Context, remotestore.Store) error {
	return func(ctx context.Context, remote remotestore.Store) error {
		return remote.Delete(ctx, entityType, id)
	}
}

// narrative builds a lifecycle entry that maps to no concrete field
func narrative(entityType crm.EntityType, entityID, fieldName, oldValue, newValue, changedBy string, changeType datachangelog.ChangeType) datachangelog.ChangeLogEntry {
	return datachangelog.ChangeLogEntry{
		EntityType: entityType,
		EntityID:   entityID,
		FieldName:  fieldName,
		OldValue:   oldValue,
		NewValue:   newValue,
		ChangedBy:  changedBy,
		ChangeType: changeType,
		Tracked:    false,
	}
}

func permissionDenied(actor crm.Actor, action string) error {
	return fmt.Errorf("%w: %s (%s) may not %s", ErrPermissionDenied, actor.Name, actor.Role, action)
}

func notFound(entityType crm.EntityType, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, entityType, id)
}

// authorizeCompany checks a restricted actor against the parent company, when it exists
func authorizeCompany(actor crm.Actor, company crm.Company, found bool, action string) error {
	if !actor.Role.Known() {
		return permissionDenied(actor, action)
	}
	if found && !actor.OwnsCompany(company) {
		return permissionDenied(actor, action)
	}
	return nil
}
