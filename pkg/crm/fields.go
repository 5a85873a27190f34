package crm

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Logical field keys. Change log entries produced by field diffs use these as fieldName.
const (
	FieldName              = "name"
	FieldBusinessNumber    = "businessNumber"
	FieldStatus            = "status"
	FieldEnergyGrade       = "energyGrade"
	FieldOwner             = "owner"
	FieldRepName           = "repName"
	FieldRepPosition       = "repPosition"
	FieldRepPhone          = "repPhone"
	FieldEmail             = "email"
	FieldNotes             = "notes"
	FieldLastContact       = "lastContact"
	FieldIndustry          = "industry"
	FieldCompanyType       = "companyType"
	FieldCity              = "city"
	FieldCountry           = "country"
	FieldLeadSource        = "leadSource"
	FieldTags              = "tags"
	FieldTitle             = "title"
	FieldDepartment        = "department"
	FieldPhone             = "phone"
	FieldRole              = "role"
	FieldLastInteraction   = "lastInteraction"
	FieldStage             = "stage"
	FieldAmount            = "amount"
	FieldExpectedCloseDate = "expectedCloseDate"
	FieldContactID         = "contactId"
	FieldSummary           = "summary"
	FieldType              = "type"
	FieldActor             = "actor"
	FieldNextStep          = "nextStep"
)

// FormatAmount renders an amount in its canonical string form
func FormatAmount(amount int64) string {
	return strconv.FormatInt(amount, 10)
}

// ParseAmount coerces a stored string back into an amount. Values that are not
// numbers coerce to zero; fractional values are truncated.
func ParseAmount(s string) int64 {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

func (c Company) Fields() map[string]string {
	return map[string]string{
		FieldName:           c.Name,
		FieldBusinessNumber: c.BusinessNumber,
		FieldStatus:         string(c.Status),
		FieldEnergyGrade:    c.EnergyGrade,
		FieldOwner:          c.Owner,
		FieldRepName:        c.RepName,
		FieldRepPosition:    c.RepPosition,
		FieldRepPhone:       c.RepPhone,
		FieldEmail:          c.Email,
		FieldNotes:          c.Notes,
		FieldLastContact:    c.LastContact,
		FieldIndustry:       c.Industry,
		FieldCompanyType:    c.CompanyType,
		FieldCity:           c.City,
		FieldCountry:        c.Country,
		FieldLeadSource:     c.LeadSource,
		FieldTags:           strings.Join(c.Tags, ","),
	}
}

// SetField assigns a stringified value to the field named by key
func (c *Company) SetField(key, value string) error {
	switch key {
	case FieldName:
		c.Name = value
	case FieldBusinessNumber:
		c.BusinessNumber = value
	case FieldStatus:
		c.Status = CompanyStatus(value)
	case FieldEnergyGrade:
		c.EnergyGrade = value
	case FieldOwner:
		c.Owner = value
	case FieldRepName:
		c.RepName = value
	case FieldRepPosition:
		c.RepPosition = value
	case FieldRepPhone:
		c.RepPhone = value
	case FieldEmail:
		c.Email = value
	case FieldNotes:
		c.Notes = value
	case FieldLastContact:
		c.LastContact = value
	default:
		return fmt.Errorf("company has no settable field %q", key)
	}
	return nil
}

func (c Contact) Fields() map[string]string {
	return map[string]string{
		FieldName:            c.Name,
		FieldTitle:           c.Title,
		FieldDepartment:      c.Department,
		FieldEmail:           c.Email,
		FieldPhone:           c.Phone,
		FieldRole:            c.Role,
		FieldLastInteraction: c.LastInteraction,
		FieldType:            c.Type,
	}
}

// SetField assigns a stringified value to the field named by key
func (c *Contact) SetField(key, value string) error {
	switch key {
	case FieldName:
		c.Name = value
	case FieldTitle:
		c.Title = value
	case FieldDepartment:
		c.Department = value
	case FieldEmail:
		c.Email = value
	case FieldPhone:
		c.Phone = value
	case FieldRole:
		c.Role = value
	case FieldLastInteraction:
		c.LastInteraction = value
	default:
		return fmt.Errorf("contact has no settable field %q", key)
	}
	return nil
}

func (d Deal) Fields() map[string]string {
	return map[string]string{
		FieldName:              d.Name,
		FieldStage:             string(d.Stage),
		FieldAmount:            FormatAmount(d.Amount),
		FieldStatus:            string(d.Status),
		FieldExpectedCloseDate: d.ExpectedCloseDate,
		FieldOwner:             d.Owner,
		FieldContactID:         d.ContactID,
	}
}

// SetField assigns a stringified value to the field named by key.
// Amount goes through ParseAmount.
func (d *Deal) SetField(key, value string) error {
	switch key {
	case FieldName:
		d.Name = value
	case FieldStage:
		d.Stage = DealStage(value)
	case FieldAmount:
		d.Amount = ParseAmount(value)
	case FieldStatus:
		d.Status = DealStatus(value)
	case FieldExpectedCloseDate:
		d.ExpectedCloseDate = value
	case FieldOwner:
		d.Owner = value
	default:
		return fmt.Errorf("deal has no settable field %q", key)
	}
	return nil
}

func (a Activity) Fields() map[string]string {
	return map[string]string{
		FieldType:     string(a.Type),
		FieldSummary:  a.Summary,
		FieldActor:    a.Actor,
		FieldNextStep: a.NextStep,
	}
}

// CompanyPatch carries a partial company update; nil fields are left untouched
type CompanyPatch struct {
	Name           *string        `json:"name,omitempty"`
	BusinessNumber *string        `json:"businessNumber,omitempty"`
	Industry       *string        `json:"industry,omitempty"`
	CompanyType    *string        `json:"companyType,omitempty"`
	EnergyGrade    *string        `json:"energyGrade,omitempty"`
	City           *string        `json:"city,omitempty"`
	Country        *string        `json:"country,omitempty"`
	Owner          *string        `json:"owner,omitempty"`
	LeadSource     *string        `json:"leadSource,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	RepName        *string        `json:"repName,omitempty"`
	RepPosition    *string        `json:"repPosition,omitempty"`
	RepPhone       *string        `json:"repPhone,omitempty"`
	Email          *string        `json:"email,omitempty"`
	Status         *CompanyStatus `json:"status,omitempty"`
	LastContact    *string        `json:"lastContact,omitempty"`
	Notes          *string        `json:"notes,omitempty"`
}

// Apply returns a copy of c with the patch applied
func (p CompanyPatch) Apply(c Company) Company {
	setString(&c.Name, p.Name)
	setString(&c.BusinessNumber, p.BusinessNumber)
	setString(&c.Industry, p.Industry)
	setString(&c.CompanyType, p.CompanyType)
	setString(&c.EnergyGrade, p.EnergyGrade)
	setString(&c.City, p.City)
	setString(&c.Country, p.Country)
	setString(&c.Owner, p.Owner)
	setString(&c.LeadSource, p.LeadSource)
	setString(&c.RepName, p.RepName)
	setString(&c.RepPosition, p.RepPosition)
	setString(&c.RepPhone, p.RepPhone)
	setString(&c.Email, p.Email)
	setString(&c.LastContact, p.LastContact)
	setString(&c.Notes, p.Notes)
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.Tags != nil {
		c.Tags = append([]string(nil), p.Tags...)
	}
	return c
}

// ContactPatch carries a partial contact update
type ContactPatch struct {
	Name            *string `json:"name,omitempty"`
	Title           *string `json:"title,omitempty"`
	Department      *string `json:"department,omitempty"`
	Email           *string `json:"email,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	Role            *string `json:"role,omitempty"`
	LastInteraction *string `json:"lastInteraction,omitempty"`
	Type            *string `json:"type,omitempty"`
}

func (p ContactPatch) Apply(c Contact) Contact {
	setString(&c.Name, p.Name)
	setString(&c.Title, p.Title)
	setString(&c.Department, p.Department)
	setString(&c.Email, p.Email)
	setString(&c.Phone, p.Phone)
	setString(&c.Role, p.Role)
	setString(&c.LastInteraction, p.LastInteraction)
	setString(&c.Type, p.Type)
	return c
}

// DealPatch carries a partial deal update. Stage and Amount are gated for restricted roles.
type DealPatch struct {
	ContactID         *string     `json:"contactId,omitempty"`
	Name              *string     `json:"name,omitempty"`
	Stage             *DealStage  `json:"stage,omitempty"`
	Amount            *int64      `json:"amount,omitempty"`
	ExpectedCloseDate *string     `json:"expectedCloseDate,omitempty"`
	Status            *DealStatus `json:"status,omitempty"`
	Owner             *string     `json:"owner,omitempty"`
}

func (p DealPatch) Apply(d Deal) Deal {
	setString(&d.ContactID, p.ContactID)
	setString(&d.Name, p.Name)
	setString(&d.ExpectedCloseDate, p.ExpectedCloseDate)
	setString(&d.Owner, p.Owner)
	if p.Stage != nil {
		d.Stage = *p.Stage
	}
	if p.Amount != nil {
		d.Amount = *p.Amount
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	return d
}

// ActivityPatch carries a partial activity update
type ActivityPatch struct {
	ContactID  *string       `json:"contactId,omitempty"`
	DealID     *string       `json:"dealId,omitempty"`
	Type       *ActivityType `json:"type,omitempty"`
	Summary    *string       `json:"summary,omitempty"`
	Actor      *string       `json:"actor,omitempty"`
	OccurredAt *time.Time    `json:"occurredAt,omitempty"`
	NextStep   *string       `json:"nextStep,omitempty"`
}

func (p ActivityPatch) Apply(a Activity) Activity {
	setString(&a.ContactID, p.ContactID)
	setString(&a.DealID, p.DealID)
	setString(&a.Summary, p.Summary)
	setString(&a.Actor, p.Actor)
	setString(&a.NextStep, p.NextStep)
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.OccurredAt != nil {
		a.OccurredAt = *p.OccurredAt
	}
	return a
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
