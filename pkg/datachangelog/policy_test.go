package datachangelog

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
)

func TestTrackedFields(t *testing.T) {
	ps := DefaultPolicySet()

	assert.Equal(t, []string{
		crm.FieldName, crm.FieldStage, crm.FieldAmount, crm.FieldStatus,
		crm.FieldExpectedCloseDate, crm.FieldOwner,
	}, ps.TrackedFields(crm.EntityDeal))
	assert.Empty(t, ps.TrackedFields(crm.EntityActivity))

	assert.True(t, ps.IsTracked(crm.EntityCompany, crm.FieldRepPhone))
	assert.False(t, ps.IsTracked(crm.EntityCompany, crm.FieldCity))
	assert.False(t, ps.IsTracked(crm.EntityCompany, crm.LabelCompanyCreated))
}

func TestPolicyApply(t *testing.T) {
	changedAt := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	t.Run("stamps retention and policy id", func(t *testing.T) {
		ps := DefaultPolicySet()
		entry := ChangeLogEntry{EntityType: crm.EntityCompany, FieldName: crm.FieldStatus, OldValue: "리드", NewValue: "평가", ChangedAt: changedAt}
		ps.Apply(&entry)

		require.NotNil(t, entry.RetentionUntil)
		assert.Equal(t, changedAt.AddDate(0, 0, 365), *entry.RetentionUntil)
		assert.Equal(t, "Company.status", entry.PolicyID)
		assert.Equal(t, 2, entry.OldValueLength)
		assert.False(t, entry.NewValueTruncated)
	})

	t.Run("truncates by rune", func(t *testing.T) {
		ps := NewPolicySet(0, 3, false)
		entry := ChangeLogEntry{EntityType: crm.EntityCompany, FieldName: crm.FieldNotes, NewValue: "가나다라마", ChangedAt: changedAt}
		ps.Apply(&entry)

		assert.Equal(t, "가나다", entry.NewValue)
		assert.True(t, entry.NewValueTruncated)
		assert.Equal(t, 5, entry.NewValueLength)
	})

	t.Run("excludes long text", func(t *testing.T) {
		ps := NewPolicySet(30, 255, true)
		entry := ChangeLogEntry{EntityType: crm.EntityCompany, FieldName: crm.FieldNotes, NewValue: strings.Repeat("x", 300), ChangedAt: changedAt}
		ps.Apply(&entry)

		assert.Equal(t, "", entry.NewValue)
		assert.True(t, entry.NewValueTruncated)
		assert.Equal(t, changedAt.AddDate(0, 0, 30), *entry.RetentionUntil)
	})

	t.Run("narrative entries use defaults", func(t *testing.T) {
		ps := DefaultPolicySet()
		entry := ChangeLogEntry{EntityType: crm.EntityCompany, FieldName: crm.LabelActivityCreated, ChangedAt: changedAt}
		ps.Apply(&entry)

		assert.Empty(t, entry.PolicyID)
		require.NotNil(t, entry.RetentionUntil)
	})
}
