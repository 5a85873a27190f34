package orchestrator

import (
	"fmt"

	"github.com/jecitDev/jec-salesgrid/pkg/approval"
	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
	slicetools "github.com/jecitDev/jec-salesgrid/pkg/sliceTools"
)

// Companies returns the companies visible to actor that pass filter
func (e *Engine) Companies(actor crm.Actor, filter crm.FilterState) []crm.Company {
	if !actor.Role.Known() {
		return nil
	}
	contacts := e.state.Contacts()
	byCompany := make(map[string][]crm.Contact)
	for _, contact := range contacts {
		byCompany[contact.CompanyID] = append(byCompany[contact.CompanyID], contact)
	}

	return slicetools.Filter(e.state.Companies(), func(c crm.Company) bool {
		return actor.OwnsCompany(c) && filter.MatchCompany(c, byCompany[c.ID])
	})
}

// scope decides whether change log entries are visible to an actor. Restricted
// actors only see entries resolving to a company they own.
type scope struct {
	all      bool
	company  map[string]bool
	contacts map[string]string
	deals    map[string]string
}

func (e *Engine) scopeOf(actor crm.Actor) scope {
	if !actor.Role.Restricted() {
		return scope{all: actor.Role.Known()}
	}
	s := scope{
		company:  make(map[string]bool),
		contacts: make(map[string]string),
		deals:    make(map[string]string),
	}
	for _, c := range e.state.Companies() {
		if actor.OwnsCompany(c) {
			s.company[c.ID] = true
		}
	}
	for _, c := range e.state.Contacts() {
		s.contacts[c.ID] = c.CompanyID
	}
	for _, d := range e.state.Deals() {
		s.deals[d.ID] = d.CompanyID
	}
	return s
}

func (s scope) visible(entityType crm.EntityType, entityID string) bool {
	if s.all {
		return true
	}
	switch entityType {
	case crm.EntityCompany:
		return s.company[entityID]
	case crm.EntityContact:
		companyID, ok := s.contacts[entityID]
		return ok && s.company[companyID]
	case crm.EntityDeal:
		companyID, ok := s.deals[entityID]
		return ok && s.company[companyID]
	}
	return false
}

func (s scope) entries(entries []datachangelog.ChangeLogEntry) []datachangelog.ChangeLogEntry {
	return slicetools.Filter(entries, func(entry datachangelog.ChangeLogEntry) bool {
		return s.visible(entry.EntityType, entry.EntityID)
	})
}

// ChangeLogs queries the change log within the actor's scope. Sensitive values
// are masked for actors who may not view them.
func (e *Engine) ChangeLogs(actor crm.Actor, q datachangelog.ChangeLogQuery) *datachangelog.ChangeLogQueryResult {
	matched := e.scopeOf(actor).entries(datachangelog.Filter(e.logs.Entries(), q))
	result := datachangelog.Paginate(matched, q)
	result.Records = e.sanitizer.MaskEntries(result.Records, actor.Role.CanViewSensitive())
	return result
}

// EntityHistory returns the masked change history of one entity
func (e *Engine) EntityHistory(actor crm.Actor, entityType crm.EntityType, entityID string) (*datachangelog.EntityChangeHistory, error) {
	if !e.scopeOf(actor).visible(entityType, entityID) {
		return nil, fmt.Errorf("%w: history of %s %s", ErrPermissionDenied, entityType, entityID)
	}
	history := e.logs.History(entityType, entityID)
	history.Changes = e.sanitizer.MaskEntries(history.Changes, actor.Role.CanViewSensitive())
	return history, nil
}

// Approvals lists approval requests with the given status, or all of them for
// an empty status. Restricted actors only see their own requests.
func (e *Engine) Approvals(actor crm.Actor, status approval.Status) []approval.Request {
	if !actor.Role.Known() {
		return nil
	}
	requests := e.approvals.List(status)
	if actor.Role.Restricted() {
		requests = slicetools.Filter(requests, func(req approval.Request) bool { return req.RequestedBy == actor.Name })
	}
	return e.sanitizer.MaskApprovals(requests, actor.Role.CanViewSensitive())
}

// EntityFields returns the display projection of an entity with sensitive
// values masked
func (e *Engine) EntityFields(actor crm.Actor, entityType crm.EntityType, id string) (map[string]string, error) {
	var (
		entity crm.Entity
		found  bool
	)
	switch entityType {
	case crm.EntityCompany:
		entity, found = e.state.Company(id)
	case crm.EntityContact:
		entity, found = e.state.Contact(id)
	case crm.EntityDeal:
		entity, found = e.state.Deal(id)
	case crm.EntityActivity:
		entity, found = e.state.Activity(id)
	}
	if !found {
		return nil, notFound(entityType, id)
	}
	if !e.scopeOf(actor).visible(scopeType(entity), scopeID(entity)) {
		return nil, fmt.Errorf("%w: %s %s", ErrPermissionDenied, entityType, id)
	}
	return e.sanitizer.MaskFields(entity.Fields(), actor.Role.CanViewSensitive()), nil
}

// activities are scoped through their company
func scopeType(entity crm.Entity) crm.EntityType {
	if entity.EntityType() == crm.EntityActivity {
		return crm.EntityCompany
	}
	return entity.EntityType()
}

func scopeID(entity crm.Entity) string {
	if entity.EntityType() == crm.EntityActivity {
		return entity.ScopeCompanyID()
	}
	return entity.EntityID()
}
