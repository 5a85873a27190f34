package orchestrator

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
	formattools "github.com/jecitDev/jec-salesgrid/pkg/formatTools"
	"github.com/jecitDev/jec-salesgrid/pkg/remotestore"
)

const defaultContactRole = "Champion"

// CompanyImport is one parsed spreadsheet row. A row with TargetID merges
// into that company; a row without one creates a new company.
type CompanyImport struct {
	TargetID string           `json:"targetId,omitempty"`
	Data     crm.CompanyPatch `json:"data"`
}

// ContactImport is one parsed contact row, matched to its company by name
type ContactImport struct {
	TargetID    string           `json:"targetId,omitempty"`
	CompanyName string           `json:"companyName"`
	Data        crm.ContactPatch `json:"data"`
}

// ImportSkip reports a row that was not imported
type ImportSkip struct {
	Row    int    `json:"row"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ImportSummary is the outcome of an import
type ImportSummary struct {
	Result
	Created int          `json:"created"`
	Merged  int          `json:"merged"`
	Skipped []ImportSkip `json:"skipped,omitempty"`
}

// ImportCompanies creates or merges companies in one compensated batch
func (e *Engine) ImportCompanies(ctx context.Context, actor crm.Actor, items []CompanyImport) (ImportSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !actor.Role.CanManage() {
		_, err := e.reject(ctx, "import_companies", permissionDenied(actor, "import companies"))
		return ImportSummary{}, err
	}

	var (
		summary ImportSummary
		changed []crm.Entity
	)
	m := e.begin("import_companies")
	for row, item := range items {
		name := deref(item.Data.Name)
		if item.Data.BusinessNumber != nil {
			formatted := formattools.FormatBusinessNo(*item.Data.BusinessNumber)
			item.Data.BusinessNumber = &formatted
		}

		if item.TargetID != "" {
			before, ok := e.state.Company(item.TargetID)
			if !ok {
				summary.Skipped = append(summary.Skipped, ImportSkip{Row: row, Name: name, Reason: notFound(crm.EntityCompany, item.TargetID).Error()})
				continue
			}
			after := item.Data.Apply(before)
			if item.Data.Status != nil {
				after.Status = crm.NormalizeStatus(string(*item.Data.Status))
			}
			if err := e.validate(after); err != nil {
				summary.Skipped = append(summary.Skipped, ImportSkip{Row: row, Name: name, Reason: err.Error()})
				continue
			}
			e.state.PutCompany(after)
			m.record(e.uploadEntries(crm.EntityCompany, after.ID, actor.Name, before.Fields(), after.Fields())...)
			changed = append(changed, after)
			summary.Merged++
			continue
		}

		company := item.Data.Apply(crm.Company{})
		company.ID = uuid.New().String()
		company.Status = crm.NormalizeStatus(string(company.Status))
		company.CreatedAt = e.today()
		if company.Owner == "" {
			company.Owner = actor.Name
		}
		if company.LastContact == "" {
			company.LastContact = e.today()
		}
		if err := e.validate(company); err != nil {
			summary.Skipped = append(summary.Skipped, ImportSkip{Row: row, Name: name, Reason: err.Error()})
			continue
		}
		e.state.PutCompany(company)
		m.record(e.uploadCreated(crm.EntityCompany, company.ID, company.Name, actor.Name))
		changed = append(changed, company)
		summary.Created++
	}

	return e.commitImport(ctx, m, "import_companies", summary, changed)
}

// ImportContacts creates or merges contacts. Rows whose company name matches
// no company are reported and skipped.
func (e *Engine) ImportContacts(ctx context.Context, actor crm.Actor, items []ContactImport) (ImportSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !actor.Role.CanManage() {
		_, err := e.reject(ctx, "import_contacts", permissionDenied(actor, "import contacts"))
		return ImportSummary{}, err
	}

	companies := make(map[string]crm.Company)
	for _, c := range e.state.Companies() {
		if _, dup := companies[c.Name]; !dup {
			companies[c.Name] = c
		}
	}

	var (
		summary ImportSummary
		changed []crm.Entity
	)
	m := e.begin("import_contacts")
	for row, item := range items {
		name := deref(item.Data.Name)
		company, ok := companies[item.CompanyName]
		if !ok {
			summary.Skipped = append(summary.Skipped, ImportSkip{Row: row, Name: name, Reason: "company not matched: " + item.CompanyName})
			e.notify(ctx, fmt.Sprintf("Company not matched for contact %s", name), SeverityError)
			continue
		}

		// unset columns fall back to the defaults of a new contact
		base := item.Data.Apply(crm.Contact{Role: defaultContactRole, LastInteraction: e.today()})
		base.CompanyID = company.ID

		if item.TargetID != "" {
			before, ok := e.state.Contact(item.TargetID)
			if !ok {
				summary.Skipped = append(summary.Skipped, ImportSkip{Row: row, Name: name, Reason: notFound(crm.EntityContact, item.TargetID).Error()})
				continue
			}
			after := base
			after.ID = before.ID
			if err := e.validate(after); err != nil {
				summary.Skipped = append(summary.Skipped, ImportSkip{Row: row, Name: name, Reason: err.Error()})
				continue
			}
			e.state.PutContact(after)
			m.record(e.uploadEntries(crm.EntityContact, after.ID, actor.Name, before.Fields(), after.Fields())...)
			changed = append(changed, after)
			summary.Merged++
			continue
		}

		contact := base
		contact.ID = uuid.New().String()
		if err := e.validate(contact); err != nil {
			summary.Skipped = append(summary.Skipped, ImportSkip{Row: row, Name: name, Reason: err.Error()})
			continue
		}
		e.state.PutContact(contact)
		m.record(e.uploadCreated(crm.EntityContact, contact.ID, contact.Name, actor.Name))
		changed = append(changed, contact)
		summary.Created++
	}

	return e.commitImport(ctx, m, "import_contacts", summary, changed)
}

func (e *Engine) commitImport(ctx context.Context, m *mutation, operation string, summary ImportSummary, changed []crm.Entity) (ImportSummary, error) {
	push := func(ctx context.Context, remote remotestore.Store) error {
		for _, entity := range changed {
			if err := remote.Upsert(ctx, entity); err != nil {
				return fmt.Errorf("failed to upsert %s %s: %w", entity.EntityType(), entity.EntityID(), err)
			}
		}
		return nil
	}

	result, err := m.commit(ctx, push, fmt.Sprintf("%d created, %d merged", summary.Created, summary.Merged), SeveritySuccess)
	if err != nil {
		return ImportSummary{Result: result, Skipped: summary.Skipped}, err
	}
	summary.Result = result
	e.log.Info("import applied",
		zap.String("operation", operation),
		zap.Int("created", summary.Created),
		zap.Int("merged", summary.Merged),
		zap.Int("skipped", len(summary.Skipped)))
	return summary, nil
}

// uploadEntries logs every changed field of a merged row, in key order
func (e *Engine) uploadEntries(entityType crm.EntityType, id, changedBy string, before, after map[string]string) []datachangelog.ChangeLogEntry {
	keys := make([]string, 0, len(after))
	for key := range after {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var entries []datachangelog.ChangeLogEntry
	for _, diff := range datachangelog.ChangedFields(before, after, keys...) {
		entries = append(entries, datachangelog.ChangeLogEntry{
			EntityType: entityType,
			EntityID:   id,
			FieldName:  crm.LabelUploadPrefix + diff.FieldName,
			OldValue:   diff.OldValue,
			NewValue:   diff.NewValue,
			ChangedBy:  changedBy,
			ChangeType: datachangelog.ChangeUpdate,
			Reason:     datachangelog.ReasonUploadMerge,
			Tracked:    e.logs.Policies().IsTracked(entityType, diff.FieldName),
		})
	}
	return entries
}

func (e *Engine) uploadCreated(entityType crm.EntityType, id, name, changedBy string) datachangelog.ChangeLogEntry {
	entry := narrative(entityType, id, crm.LabelBulkUpload, "", name, changedBy, datachangelog.ChangeCreate)
	entry.Reason = datachangelog.ReasonUploadCreate
	return entry
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
