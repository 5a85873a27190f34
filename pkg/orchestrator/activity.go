package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
)

// Activity entries are narrative and are filed under their company

// CreateActivity records an activity against the company
func (e *Engine) CreateActivity(ctx context.Context, actor crm.Actor, companyID string, activity crm.Activity) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	company, found := e.state.Company(companyID)
	if err := authorizeCompany(actor, company, found, "log activities for company "+companyID); err != nil {
		return e.reject(ctx, "create_activity", err)
	}

	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	activity.CompanyID = companyID
	if activity.Actor == "" {
		activity.Actor = actor.Name
	}
	if activity.OccurredAt.IsZero() {
		activity.OccurredAt = e.now()
	}
	if activity.Type == "" {
		activity.Type = crm.ActivityCall
	}
	if err := e.validate(activity); err != nil {
		return e.reject(ctx, "create_activity", err)
	}
	if !found {
		return e.reject(ctx, "create_activity", notFound(crm.EntityCompany, companyID))
	}

	m := e.begin("create_activity")
	e.state.PutActivity(activity)
	m.record(narrative(crm.EntityCompany, companyID, crm.LabelActivityCreated, "", activity.Summary, actor.Name, datachangelog.ChangeCreate))

	result, err := m.commit(ctx, upsert(activity), "Activity logged", SeveritySuccess)
	result.EntityID = activity.ID
	return result, err
}

// UpdateActivity applies patch to an activity of the company
func (e *Engine) UpdateActivity(ctx context.Context, actor crm.Actor, companyID, activityID string, patch crm.ActivityPatch) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	company, found := e.state.Company(companyID)
	if err := authorizeCompany(actor, company, found, "update activities of company "+companyID); err != nil {
		return e.reject(ctx, "update_activity", err)
	}
	before, ok := e.state.Activity(activityID)
	if !found || !ok || before.CompanyID != companyID {
		return e.reject(ctx, "update_activity", notFound(crm.EntityActivity, activityID))
	}

	after := patch.Apply(before)
	if err := e.validate(after); err != nil {
		return e.reject(ctx, "update_activity", err)
	}

	m := e.begin("update_activity")
	e.state.PutActivity(after)
	m.record(narrative(crm.EntityCompany, companyID, crm.LabelActivityUpdated, before.Summary, after.Summary, actor.Name, datachangelog.ChangeUpdate))

	result, err := m.commit(ctx, upsert(after), "Activity saved", SeveritySuccess)
	result.EntityID = activityID
	return result, err
}

// DeleteActivity removes an activity of the company
func (e *Engine) DeleteActivity(ctx context.Context, actor crm.Actor, companyID, activityID string) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	company, found := e.state.Company(companyID)
	if !actor.Role.CanDelete() {
		return e.reject(ctx, "delete_activity", permissionDenied(actor, "delete activities"))
	}
	if err := authorizeCompany(actor, company, found, "delete activities of company "+companyID); err != nil {
		return e.reject(ctx, "delete_activity", err)
	}
	activity, ok := e.state.Activity(activityID)
	if !found || !ok || activity.CompanyID != companyID {
		return e.reject(ctx, "delete_activity", notFound(crm.EntityActivity, activityID))
	}

	m := e.begin("delete_activity")
	e.state.RemoveActivity(activityID)
	m.record(narrative(crm.EntityCompany, companyID, crm.LabelActivityDeleted, activity.Summary, "", actor.Name, datachangelog.ChangeDelete))

	result, err := m.commit(ctx, remove(crm.EntityActivity, activityID), "Activity deleted", SeverityInfo)
	result.EntityID = activityID
	return result, err
}
