package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jecitDev/jec-salesgrid/pkg/approval"
	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
	patchtools "github.com/jecitDev/jec-salesgrid/pkg/patchTools"
)

// ResolveApproval approves or rejects a PENDING request. An approved Deal
// stage or amount change is then applied as a direct update by the resolver.
func (e *Engine) ResolveApproval(ctx context.Context, resolver crm.Actor, id string, approve bool, notes string) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !resolver.Role.CanApprove() {
		return e.reject(ctx, "resolve_approval", permissionDenied(resolver, "resolve approval requests"))
	}

	before, after, err := e.approvals.Resolve(id, approve, resolver.Name, notes)
	if err != nil {
		if errors.Is(err, approval.ErrNotFound) || errors.Is(err, approval.ErrInvalidTransition) {
			err = fmt.Errorf("%w: pending approval request %s", ErrNotFound, id)
		}
		return e.reject(ctx, "resolve_approval", err)
	}

	if e.remote != nil {
		if err := e.remote.ResolveApproval(ctx, id, after.Status, resolver.Name, notes); err != nil {
			e.approvals.Restore(before)
			e.log.Error("remote approval resolution failed, request restored",
				zap.String("approval_id", id),
				zap.Error(err))
			err = fmt.Errorf("%w: resolve_approval: %w", ErrRemotePersistenceFailed, err)
			e.notify(ctx, err.Error(), SeverityError)
			return Result{Status: StatusCompensatedFailure}, err
		}
	}

	entry := datachangelog.ChangeLogEntry{
		EntityType: after.EntityType,
		EntityID:   after.EntityID,
		FieldName:  after.FieldName,
		OldValue:   after.OldValue,
		NewValue:   after.NewValue,
		ChangedBy:  resolver.Name,
		ChangeType: datachangelog.ChangeApproval,
		Reason:     datachangelog.ReasonRejected,
		Tracked:    true,
	}
	if approve {
		entry.Reason = datachangelog.ReasonApproved
	}
	if latency, ok := after.LatencyMinutes(); ok {
		entry.LatencyMinutes = &latency
	}
	if after.ResolvedAt != nil {
		entry.ChangedAt = *after.ResolvedAt
	}
	stored := e.logs.Append(entry)
	e.forward(ctx, stored)

	result := Result{Status: StatusApplied, EntityID: after.EntityID, LogIDs: []string{stored[0].ID}, ApprovalIDs: []string{id}}
	if !approve {
		e.notify(ctx, "Request rejected: "+after.FieldName, SeverityInfo)
		return result, nil
	}
	e.notify(ctx, "Request approved: "+after.FieldName, SeveritySuccess)

	replayed, ok := e.replayApproved(ctx, resolver, after)
	if ok {
		result.LogIDs = append(result.LogIDs, replayed.LogIDs...)
	}
	return result, nil
}

// replayApproved applies an approved Deal stage or amount change. Requests
// for other fields, for missing deals or with an unparsable value are skipped.
func (e *Engine) replayApproved(ctx context.Context, resolver crm.Actor, req approval.Request) (Result, bool) {
	if req.EntityType != crm.EntityDeal {
		return Result{}, false
	}
	key, ok := crm.LookupField(crm.EntityDeal, req.FieldName)
	if !ok || !crm.IsGatedField(crm.EntityDeal, key) {
		return Result{}, false
	}
	deal, ok := e.state.Deal(req.EntityID)
	if !ok {
		e.log.Info("approved deal no longer exists", zap.String("deal_id", req.EntityID))
		return Result{}, false
	}

	var patch crm.DealPatch
	if err := patchtools.PopulateStruct([]patchtools.Data{{Field: key, Value: req.NewValue}}, &patch); err != nil {
		e.log.Warn("approved value cannot be applied",
			zap.String("approval_id", req.ID),
			zap.String("field", key),
			zap.Error(err))
		return Result{}, false
	}

	result, err := e.updateDeal(ctx, resolver, deal.CompanyID, deal.ID, patch)
	if err != nil {
		e.log.Warn("failed to apply approved change",
			zap.String("approval_id", req.ID),
			zap.Error(err))
		return Result{}, false
	}
	return result, true
}
