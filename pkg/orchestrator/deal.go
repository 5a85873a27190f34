package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jecitDev/jec-salesgrid/pkg/approval"
	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
	"github.com/jecitDev/jec-salesgrid/pkg/remotestore"
)

// CreateDeal opens a deal under the company
func (e *Engine) CreateDeal(ctx context.Context, actor crm.Actor, companyID string, deal crm.Deal) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	company, found := e.state.Company(companyID)
	if err := authorizeCompany(actor, company, found, "open deals for company "+companyID); err != nil {
		return e.reject(ctx, "create_deal", err)
	}

	if deal.ID == "" {
		deal.ID = uuid.New().String()
	}
	deal.CompanyID = companyID
	if deal.Owner == "" {
		deal.Owner = actor.Name
	}
	if deal.Stage == "" {
		deal.Stage = crm.StageLead
	}
	if deal.Status == "" {
		deal.Status = crm.DealInProgress
	}
	deal.LastUpdated = e.now()
	if err := e.validate(deal); err != nil {
		return e.reject(ctx, "create_deal", err)
	}
	if !found {
		return e.reject(ctx, "create_deal", notFound(crm.EntityCompany, companyID))
	}

	m := e.begin("create_deal")
	e.state.PutDeal(deal)
	m.record(narrative(crm.EntityDeal, deal.ID, crm.LabelDealCreated, "", deal.Name, actor.Name, datachangelog.ChangeCreate))

	result, err := m.commit(ctx, upsert(deal), "Deal created: "+deal.Name, SeveritySuccess)
	result.EntityID = deal.ID
	return result, err
}

// UpdateDeal applies patch to a deal. When a restricted actor changes stage or
// amount, the deal is left untouched and one approval request is opened per
// changed gated field instead.
func (e *Engine) UpdateDeal(ctx context.Context, actor crm.Actor, companyID, dealID string, patch crm.DealPatch) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.updateDeal(ctx, actor, companyID, dealID, patch)
}

func (e *Engine) updateDeal(ctx context.Context, actor crm.Actor, companyID, dealID string, patch crm.DealPatch) (Result, error) {
	before, found := e.state.Deal(dealID)
	if !actor.Role.Known() || (found && !actor.OwnsDeal(before)) {
		return e.reject(ctx, "update_deal", permissionDenied(actor, "update deal "+dealID))
	}
	if !found || before.CompanyID != companyID {
		return e.reject(ctx, "update_deal", notFound(crm.EntityDeal, dealID))
	}

	after := patch.Apply(before)
	if err := e.validate(after); err != nil {
		return e.reject(ctx, "update_deal", err)
	}

	if actor.Role.Restricted() {
		gated := datachangelog.ChangedFields(before.Fields(), after.Fields(), crm.FieldStage, crm.FieldAmount)
		if len(gated) > 0 {
			return e.requestApproval(ctx, actor, before, gated)
		}
	}

	after.LastUpdated = e.now()
	m := e.begin("update_deal")
	e.state.PutDeal(after)
	diffs := e.diff.CalculateEntityDiff(before, after)
	m.record(e.diff.Entries(crm.EntityDeal, dealID, actor.Name, diffs)...)

	result, err := m.commit(ctx, upsert(after), "Deal saved: "+after.Name, SeveritySuccess)
	result.EntityID = dealID
	return result, err
}

func (e *Engine) requestApproval(ctx context.Context, actor crm.Actor, deal crm.Deal, gated []datachangelog.FieldDiff) (Result, error) {
	m := e.begin("request_approval")

	requests := make([]approval.Request, 0, len(gated))
	for _, diff := range gated {
		req := m.request(approval.Request{
			EntityType:  crm.EntityDeal,
			EntityID:    deal.ID,
			FieldName:   diff.FieldName,
			OldValue:    diff.OldValue,
			NewValue:    diff.NewValue,
			RequestedBy: actor.Name,
		})
		requests = append(requests, req)

		entry := narrative(crm.EntityDeal, deal.ID, diff.FieldName, diff.OldValue, diff.NewValue, actor.Name, datachangelog.ChangeApproval)
		entry.Reason = datachangelog.ReasonApprovalRequest
		m.record(entry)
	}

	push := func(ctx context.Context, remote remotestore.Store) error {
		for _, req := range requests {
			if err := remote.UpsertApproval(ctx, req); err != nil {
				return fmt.Errorf("failed to submit approval request %s: %w", req.ID, err)
			}
		}
		return nil
	}

	result, err := m.commit(ctx, push, fmt.Sprintf("Approval requested for %d field(s) of %s", len(requests), deal.Name), SeverityInfo)
	result.EntityID = deal.ID
	return result, err
}

// DeleteDeal removes a deal
func (e *Engine) DeleteDeal(ctx context.Context, actor crm.Actor, companyID, dealID string) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	deal, found := e.state.Deal(dealID)
	if !actor.Role.CanDelete() || (found && !actor.OwnsDeal(deal)) {
		return e.reject(ctx, "delete_deal", permissionDenied(actor, "delete deal "+dealID))
	}
	if !found || deal.CompanyID != companyID {
		return e.reject(ctx, "delete_deal", notFound(crm.EntityDeal, dealID))
	}

	m := e.begin("delete_deal")
	e.state.RemoveDeal(dealID)
	m.record(narrative(crm.EntityDeal, dealID, crm.LabelDealDeleted, deal.Name, "", actor.Name, datachangelog.ChangeDelete))

	result, err := m.commit(ctx, remove(crm.EntityDeal, dealID), "Deal deleted: "+deal.Name, SeverityInfo)
	result.EntityID = dealID
	return result, err
}
