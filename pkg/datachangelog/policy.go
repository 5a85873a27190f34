package datachangelog

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	stringtools "github.com/jecitDev/jec-salesgrid/pkg/stringTools"
)

const (
	DefaultRetentionDays = 365
	DefaultMaxLength     = 255
)

// FieldTrackingPolicy decides whether changes to a field are tracked and how
// their values are stored
type FieldTrackingPolicy struct {
	ID              string         `json:"id" yaml:"id"`
	EntityType      crm.EntityType `json:"entityType" yaml:"entity_type"`
	FieldName       string         `json:"fieldName" yaml:"field_name"`
	IsTracked       bool           `json:"isTracked" yaml:"is_tracked"`
	RetentionDays   int            `json:"retentionDays" yaml:"retention_days"`
	MaxLength       int            `json:"maxLength" yaml:"max_length"`
	ExcludeLongText bool           `json:"excludeLongText,omitempty" yaml:"exclude_long_text"`
}

var trackedFields = map[crm.EntityType][]string{
	crm.EntityCompany: {
		crm.FieldName, crm.FieldBusinessNumber, crm.FieldStatus, crm.FieldEnergyGrade,
		crm.FieldOwner, crm.FieldRepPhone, crm.FieldEmail, crm.FieldNotes, crm.FieldLastContact,
	},
	crm.EntityContact: {
		crm.FieldName, crm.FieldTitle, crm.FieldDepartment, crm.FieldEmail,
		crm.FieldPhone, crm.FieldRole, crm.FieldLastInteraction,
	},
	crm.EntityDeal: {
		crm.FieldName, crm.FieldStage, crm.FieldAmount, crm.FieldStatus,
		crm.FieldExpectedCloseDate, crm.FieldOwner,
	},
	crm.EntityActivity: {},
}

// PolicySet is the static tracking policy for every entity type
type PolicySet struct {
	retentionDays   int
	maxLength       int
	excludeLongText bool
	policies        map[string]FieldTrackingPolicy
}

// NewPolicySet builds the default policies. Non-positive arguments fall back to defaults.
func NewPolicySet(retentionDays, maxLength int, excludeLongText bool) *PolicySet {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	ps := &PolicySet{
		retentionDays:   retentionDays,
		maxLength:       maxLength,
		excludeLongText: excludeLongText,
		policies:        make(map[string]FieldTrackingPolicy),
	}
	for entityType, fields := range trackedFields {
		for _, field := range fields {
			p := FieldTrackingPolicy{
				ID:              policyID(entityType, field),
				EntityType:      entityType,
				FieldName:       field,
				IsTracked:       true,
				RetentionDays:   retentionDays,
				MaxLength:       maxLength,
				ExcludeLongText: excludeLongText,
			}
			ps.policies[p.ID] = p
		}
	}
	return ps
}

// DefaultPolicySet returns policies with the 365 day / 255 rune defaults
func DefaultPolicySet() *PolicySet {
	return NewPolicySet(DefaultRetentionDays, DefaultMaxLength, false)
}

func policyID(entityType crm.EntityType, field string) string {
	return fmt.Sprintf("%s.%s", entityType, field)
}

// TrackedFields returns the tracked field keys of entityType in diff order
func (ps *PolicySet) TrackedFields(entityType crm.EntityType) []string {
	return append([]string(nil), trackedFields[entityType]...)
}

// IsTracked reports whether field changes of entityType produce tracked entries
func (ps *PolicySet) IsTracked(entityType crm.EntityType, field string) bool {
	p, ok := ps.policies[policyID(entityType, field)]
	return ok && p.IsTracked
}

// Lookup returns the policy for a field, if any
func (ps *PolicySet) Lookup(entityType crm.EntityType, field string) (FieldTrackingPolicy, bool) {
	p, ok := ps.policies[policyID(entityType, field)]
	return p, ok
}

// RetentionDays is the change log retention window
func (ps *PolicySet) RetentionDays() int { return ps.retentionDays }

// Apply stamps length, truncation and retention metadata on entry.
// Field-specific policies win over the defaults.
func (ps *PolicySet) Apply(entry *ChangeLogEntry) {
	maxLength := ps.maxLength
	retention := ps.retentionDays
	exclude := ps.excludeLongText
	if p, ok := ps.Lookup(entry.EntityType, entry.FieldName); ok {
		maxLength = p.MaxLength
		retention = p.RetentionDays
		exclude = p.ExcludeLongText
		entry.PolicyID = p.ID
	}

	entry.OldValueLength = utf8.RuneCountInString(entry.OldValue)
	entry.NewValueLength = utf8.RuneCountInString(entry.NewValue)
	entry.OldValue, entry.OldValueTruncated = limit(entry.OldValue, maxLength, exclude)
	entry.NewValue, entry.NewValueTruncated = limit(entry.NewValue, maxLength, exclude)

	if entry.RetentionUntil == nil && !entry.ChangedAt.IsZero() {
		until := entry.ChangedAt.AddDate(0, 0, retention)
		entry.RetentionUntil = &until
	}
}

func limit(value string, maxLength int, exclude bool) (string, bool) {
	if utf8.RuneCountInString(value) <= maxLength {
		return value, false
	}
	if exclude {
		return "", true
	}
	return stringtools.LeftValue(value, maxLength), true
}

// RetentionCutoff returns the oldest changedAt kept by a sweep at now
func RetentionCutoff(now time.Time, retentionDays int) time.Time {
	return now.AddDate(0, 0, -retentionDays)
}
