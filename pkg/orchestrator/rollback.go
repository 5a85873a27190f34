package orchestrator

import (
	"context"
	"fmt"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
)

// Rollback restores the old value of a logged field change and logs the
// reversal as a new tracked UPDATE
func (e *Engine) Rollback(ctx context.Context, actor crm.Actor, entry datachangelog.ChangeLogEntry) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !actor.Role.CanManage() {
		return e.reject(ctx, "rollback", fmt.Errorf("%w: %s (%s) may not roll back changes", ErrUnauthorized, actor.Name, actor.Role))
	}
	key, ok := crm.LookupField(entry.EntityType, entry.FieldName)
	if !ok {
		return e.reject(ctx, "rollback", fmt.Errorf("%w: %s.%s", ErrUnsupportedField, entry.EntityType, entry.FieldName))
	}
	// a truncated value would overwrite the field with a prefix of the original
	if entry.OldValueTruncated {
		return e.reject(ctx, "rollback", fmt.Errorf("%w: %s.%s old value was truncated (%d runes)",
			ErrUnsupportedField, entry.EntityType, entry.FieldName, entry.OldValueLength))
	}

	var entity crm.Entity
	switch entry.EntityType {
	case crm.EntityCompany:
		company, found := e.state.Company(entry.EntityID)
		if !found {
			break
		}
		if err := company.SetField(key, entry.OldValue); err != nil {
			return e.reject(ctx, "rollback", fmt.Errorf("%w: %w", ErrUnsupportedField, err))
		}
		entity = company
	case crm.EntityContact:
		contact, found := e.state.Contact(entry.EntityID)
		if !found {
			break
		}
		if err := contact.SetField(key, entry.OldValue); err != nil {
			return e.reject(ctx, "rollback", fmt.Errorf("%w: %w", ErrUnsupportedField, err))
		}
		entity = contact
	case crm.EntityDeal:
		deal, found := e.state.Deal(entry.EntityID)
		if !found {
			break
		}
		if err := deal.SetField(key, entry.OldValue); err != nil {
			return e.reject(ctx, "rollback", fmt.Errorf("%w: %w", ErrUnsupportedField, err))
		}
		deal.LastUpdated = e.now()
		entity = deal
	}
	if entity == nil {
		return e.reject(ctx, "rollback", notFound(entry.EntityType, entry.EntityID))
	}

	m := e.begin("rollback")
	switch v := entity.(type) {
	case crm.Company:
		e.state.PutCompany(v)
	case crm.Contact:
		e.state.PutContact(v)
	case crm.Deal:
		e.state.PutDeal(v)
	}
	m.record(datachangelog.ChangeLogEntry{
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		FieldName:  entry.FieldName + crm.LabelRollbackSuffix,
		OldValue:   entry.NewValue,
		NewValue:   entry.OldValue,
		ChangedBy:  actor.Name,
		ChangeType: datachangelog.ChangeUpdate,
		Reason:     datachangelog.ReasonRollback,
		Tracked:    true,
	})

	result, err := m.commit(ctx, upsert(entity), "Rolled back "+entry.FieldName, SeveritySuccess)
	result.EntityID = entry.EntityID
	return result, err
}
