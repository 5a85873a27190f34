package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
)

// CreateContact adds a contact to the company
func (e *Engine) CreateContact(ctx context.Context, actor crm.Actor, companyID string, contact crm.Contact) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	company, found := e.state.Company(companyID)
	if err := authorizeCompany(actor, company, found, "add contacts to company "+companyID); err != nil {
		return e.reject(ctx, "create_contact", err)
	}

	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	contact.CompanyID = companyID
	if err := e.validate(contact); err != nil {
		return e.reject(ctx, "create_contact", err)
	}
	if !found {
		return e.reject(ctx, "create_contact", notFound(crm.EntityCompany, companyID))
	}

	m := e.begin("create_contact")
	e.state.PutContact(contact)
	m.record(narrative(crm.EntityContact, contact.ID, crm.LabelContactCreated, "", contact.Name, actor.Name, datachangelog.ChangeCreate))

	result, err := m.commit(ctx, upsert(contact), "Contact created: "+contact.Name, SeveritySuccess)
	result.EntityID = contact.ID
	return result, err
}

// UpdateContact applies patch to a contact of the company
func (e *Engine) UpdateContact(ctx context.Context, actor crm.Actor, companyID, contactID string, patch crm.ContactPatch) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	company, found := e.state.Company(companyID)
	if err := authorizeCompany(actor, company, found, "update contacts of company "+companyID); err != nil {
		return e.reject(ctx, "update_contact", err)
	}
	before, ok := e.state.Contact(contactID)
	if !found || !ok || before.CompanyID != companyID {
		return e.reject(ctx, "update_contact", notFound(crm.EntityContact, contactID))
	}

	after := patch.Apply(before)
	if err := e.validate(after); err != nil {
		return e.reject(ctx, "update_contact", err)
	}

	m := e.begin("update_contact")
	e.state.PutContact(after)
	diffs := e.diff.CalculateEntityDiff(before, after)
	m.record(e.diff.Entries(crm.EntityContact, contactID, actor.Name, diffs)...)

	result, err := m.commit(ctx, upsert(after), "Contact saved: "+after.Name, SeveritySuccess)
	result.EntityID = contactID
	return result, err
}

// DeleteContact removes a contact of the company
func (e *Engine) DeleteContact(ctx context.Context, actor crm.Actor, companyID, contactID string) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	company, found := e.state.Company(companyID)
	if !actor.Role.CanDelete() {
		return e.reject(ctx, "delete_contact", permissionDenied(actor, "delete contacts"))
	}
	if err := authorizeCompany(actor, company, found, "delete contacts of company "+companyID); err != nil {
		return e.reject(ctx, "delete_contact", err)
	}
	contact, ok := e.state.Contact(contactID)
	if !found || !ok || contact.CompanyID != companyID {
		return e.reject(ctx, "delete_contact", notFound(crm.EntityContact, contactID))
	}

	m := e.begin("delete_contact")
	e.state.RemoveContact(contactID)
	m.record(narrative(crm.EntityContact, contactID, crm.LabelContactDeleted, contact.Name, "", actor.Name, datachangelog.ChangeDelete))

	result, err := m.commit(ctx, remove(crm.EntityContact, contactID), "Contact deleted: "+contact.Name, SeverityInfo)
	result.EntityID = contactID
	return result, err
}
