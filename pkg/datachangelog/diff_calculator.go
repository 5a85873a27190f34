package datachangelog

import (
	"strings"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
)

// DiffCalculator computes tracked field differences between two versions of an entity
type DiffCalculator struct {
	policies *PolicySet
}

// NewDiffCalculator creates a new DiffCalculator instance
func NewDiffCalculator(policies *PolicySet) *DiffCalculator {
	if policies == nil {
		policies = DefaultPolicySet()
	}
	return &DiffCalculator{policies: policies}
}

// CalculateDiff compares the stringified values of every tracked field of the
// entity type, in policy order. Untracked fields are ignored.
func (dc *DiffCalculator) CalculateDiff(entityType crm.EntityType, before, after map[string]string) []FieldDiff {
	var diffs []FieldDiff
	for _, field := range dc.policies.TrackedFields(entityType) {
		oldValue := before[field]
		newValue := after[field]
		if oldValue == newValue {
			continue
		}
		diffs = append(diffs, FieldDiff{
			FieldName: field,
			OldValue:  oldValue,
			NewValue:  newValue,
		})
	}
	return diffs
}

// CalculateEntityDiff is CalculateDiff over two entities of the same type
func (dc *DiffCalculator) CalculateEntityDiff(before, after crm.Entity) []FieldDiff {
	return dc.CalculateDiff(after.EntityType(), before.Fields(), after.Fields())
}

// ChangedFields diffs every key present in either map, tracked or not.
// Gated-field routing uses this so that untracked gated fields still route.
func ChangedFields(before, after map[string]string, keys ...string) []FieldDiff {
	var diffs []FieldDiff
	for _, key := range keys {
		if before[key] != after[key] {
			diffs = append(diffs, FieldDiff{FieldName: key, OldValue: before[key], NewValue: after[key]})
		}
	}
	return diffs
}

// FilterDiffs keeps only diffs whose field name is in fieldNames (case-insensitive)
func FilterDiffs(diffs []FieldDiff, fieldNames []string) []FieldDiff {
	if len(fieldNames) == 0 {
		return diffs
	}

	fieldMap := make(map[string]bool)
	for _, field := range fieldNames {
		fieldMap[strings.ToLower(field)] = true
	}

	var filtered []FieldDiff
	for _, diff := range diffs {
		if fieldMap[strings.ToLower(diff.FieldName)] {
			filtered = append(filtered, diff)
		}
	}
	return filtered
}

// Entries converts diffs into UPDATE entries attributed to changedBy
func (dc *DiffCalculator) Entries(entityType crm.EntityType, entityID, changedBy string, diffs []FieldDiff) []ChangeLogEntry {
	entries := make([]ChangeLogEntry, 0, len(diffs))
	for _, diff := range diffs {
		entries = append(entries, ChangeLogEntry{
			EntityType: entityType,
			EntityID:   entityID,
			FieldName:  diff.FieldName,
			OldValue:   diff.OldValue,
			NewValue:   diff.NewValue,
			ChangedBy:  changedBy,
			ChangeType: ChangeUpdate,
			Tracked:    dc.policies.IsTracked(entityType, diff.FieldName),
		})
	}
	return entries
}
