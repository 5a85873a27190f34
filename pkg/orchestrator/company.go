package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
)

// CreateCompany adds a company. Missing id, owner, status, createdAt and
// lastContact are filled in.
func (e *Engine) CreateCompany(ctx context.Context, actor crm.Actor, company crm.Company) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !actor.Role.Known() {
		return e.reject(ctx, "create_company", permissionDenied(actor, "create companies"))
	}

	if company.ID == "" {
		company.ID = uuid.New().String()
	}
	if company.Owner == "" {
		company.Owner = actor.Name
	}
	if company.Status == "" {
		company.Status = crm.StageLead
	}
	if company.CreatedAt == "" {
		company.CreatedAt = e.today()
	}
	if company.LastContact == "" {
		company.LastContact = e.today()
	}
	// a rep can only create companies they own
	if !actor.OwnsCompany(company) {
		return e.reject(ctx, "create_company", permissionDenied(actor, "create companies owned by others"))
	}
	if err := e.validate(company); err != nil {
		return e.reject(ctx, "create_company", err)
	}

	m := e.begin("create_company")
	e.state.PutCompany(company)
	m.record(narrative(crm.EntityCompany, company.ID, crm.LabelCompanyCreated, "", company.Name, actor.Name, datachangelog.ChangeCreate))

	result, err := m.commit(ctx, upsert(company), "Company created: "+company.Name, SeveritySuccess)
	result.EntityID = company.ID
	return result, err
}

// UpdateCompany applies patch to a company and logs every changed tracked field
func (e *Engine) UpdateCompany(ctx context.Context, actor crm.Actor, id string, patch crm.CompanyPatch) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	before, found := e.state.Company(id)
	if err := authorizeCompany(actor, before, found, "update company "+id); err != nil {
		return e.reject(ctx, "update_company", err)
	}
	if !found {
		return e.reject(ctx, "update_company", notFound(crm.EntityCompany, id))
	}

	after := patch.Apply(before)
	after.ID = before.ID
	if err := e.validate(after); err != nil {
		return e.reject(ctx, "update_company", err)
	}

	m := e.begin("update_company")
	e.state.PutCompany(after)
	diffs := e.diff.CalculateEntityDiff(before, after)
	m.record(e.diff.Entries(crm.EntityCompany, id, actor.Name, diffs)...)

	result, err := m.commit(ctx, upsert(after), "Company saved: "+after.Name, SeveritySuccess)
	result.EntityID = id
	return result, err
}

// DeleteCompany removes a company. Its contacts, deals and activities are kept.
func (e *Engine) DeleteCompany(ctx context.Context, actor crm.Actor, id string) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	company, found := e.state.Company(id)
	if !actor.Role.CanDelete() {
		return e.reject(ctx, "delete_company", permissionDenied(actor, "delete companies"))
	}
	if err := authorizeCompany(actor, company, found, "delete company "+id); err != nil {
		return e.reject(ctx, "delete_company", err)
	}
	if !found {
		return e.reject(ctx, "delete_company", notFound(crm.EntityCompany, id))
	}

	m := e.begin("delete_company")
	e.state.RemoveCompany(id)
	m.record(narrative(crm.EntityCompany, id, crm.LabelCompanyDeleted, company.Name, "", actor.Name, datachangelog.ChangeDelete))

	result, err := m.commit(ctx, remove(crm.EntityCompany, id), "Company deleted: "+company.Name, SeverityInfo)
	result.EntityID = id
	return result, err
}
