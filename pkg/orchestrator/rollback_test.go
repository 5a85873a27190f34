package orchestrator

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
	"github.com/jecitDev/jec-salesgrid/pkg/remotestore"
)

func TestRollbackCompanyStatus(t *testing.T) {
	h := newHarness(t, false)
	original := datachangelog.ChangeLogEntry{
		ID: "log-x", EntityType: crm.EntityCompany, EntityID: "c-hanil", FieldName: "상태",
		OldValue: string(crm.StageLead), NewValue: string(crm.StageEvaluation),
		ChangeType: datachangelog.ChangeUpdate, Tracked: true,
	}

	result, err := h.engine.Rollback(h.ctx, manager, original)
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, result.Status)
	assert.Equal(t, crm.StageLead, h.company(t, "c-hanil").Status)

	require.Len(t, result.LogIDs, 1)
	entry, _ := h.engine.ChangeLog().Get(result.LogIDs[0])
	assert.Equal(t, "상태 롤백", entry.FieldName)
	assert.Equal(t, string(crm.StageEvaluation), entry.OldValue)
	assert.Equal(t, string(crm.StageLead), entry.NewValue)
	assert.Equal(t, datachangelog.ReasonRollback, entry.Reason)
	assert.Equal(t, datachangelog.ChangeUpdate, entry.ChangeType)
	assert.True(t, entry.Tracked)
	assert.Equal(t, DemoManager, entry.ChangedBy)
}

func TestRollbackDealAmountCoercesAndStamps(t *testing.T) {
	h := newHarness(t, false)
	h.clock.Advance(2 * time.Hour)

	_, err := h.engine.Rollback(h.ctx, admin, datachangelog.ChangeLogEntry{
		EntityType: crm.EntityDeal, EntityID: "d-hanil-roof", FieldName: "금액",
		OldValue: "450000000.9", NewValue: "480000000",
	})
	require.NoError(t, err)

	deal := h.deal(t, "d-hanil-roof")
	assert.Equal(t, int64(450000000), deal.Amount)
	assert.Equal(t, testNow.Add(2*time.Hour), deal.LastUpdated)

	_, err = h.engine.Rollback(h.ctx, admin, datachangelog.ChangeLogEntry{
		EntityType: crm.EntityDeal, EntityID: "d-hanil-roof", FieldName: "amount", OldValue: "n/a",
	})
	require.NoError(t, err)
	assert.Zero(t, h.deal(t, "d-hanil-roof").Amount)
}

func TestRollbackContactEmail(t *testing.T) {
	h := newHarness(t, false)

	_, err := h.engine.Rollback(h.ctx, manager, datachangelog.ChangeLogEntry{
		EntityType: crm.EntityContact, EntityID: "p-seo", FieldName: "이메일",
		OldValue: "seo@hanil-steel.co.kr", NewValue: "jiwoo.seo@hanil-steel.co.kr",
	})
	require.NoError(t, err)
	contact, _ := h.engine.State().Contact("p-seo")
	assert.Equal(t, "seo@hanil-steel.co.kr", contact.Email)
}

func TestRollbackErrors(t *testing.T) {
	h := newHarness(t, false)
	status := datachangelog.ChangeLogEntry{EntityType: crm.EntityCompany, EntityID: "c-hanil", FieldName: crm.FieldStatus, OldValue: "리드"}

	tests := []struct {
		name  string
		actor crm.Actor
		entry datachangelog.ChangeLogEntry
		want  error
	}{
		{"rep may not roll back", rep, status, ErrUnauthorized},
		{"unknown role", nobody, status, ErrUnauthorized},
		{"narrative entry", manager, datachangelog.ChangeLogEntry{EntityType: crm.EntityCompany, EntityID: "c-hanil", FieldName: crm.LabelCompanyCreated}, ErrUnsupportedField},
		{"activity entry", manager, datachangelog.ChangeLogEntry{EntityType: crm.EntityActivity, EntityID: "a-1", FieldName: "summary"}, ErrUnsupportedField},
		{"missing entity", manager, datachangelog.ChangeLogEntry{EntityType: crm.EntityCompany, EntityID: "gone", FieldName: "메모"}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := h.engine.ChangeLog().Len()
			_, err := h.engine.Rollback(h.ctx, tt.actor, tt.entry)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, h.engine.ChangeLog().Len())
		})
	}
	assert.Equal(t, crm.StageProposal, h.company(t, "c-hanil").Status)
}

func TestRollbackCompensatesOnRemoteFailure(t *testing.T) {
	h := newHarness(t, true)
	h.remote.FailNext(remotestore.OpUpsert, nil)
	logCount := h.engine.ChangeLog().Len()

	result, err := h.engine.Rollback(h.ctx, manager, datachangelog.ChangeLogEntry{
		EntityType: crm.EntityCompany, EntityID: "c-hanil", FieldName: "메모", OldValue: "", NewValue: "x",
	})
	assert.ErrorIs(t, err, ErrRemotePersistenceFailed)
	assert.Equal(t, StatusCompensatedFailure, result.Status)
	assert.Equal(t, "옥상 태양광 2단계 검토 중", h.company(t, "c-hanil").Notes)
	assert.Equal(t, logCount, h.engine.ChangeLog().Len())
}

func TestRollbackRefusesTruncatedOldValue(t *testing.T) {
	h := newHarness(t, false)
	long := strings.Repeat("가", 300)

	_, err := h.engine.UpdateCompany(h.ctx, manager, "c-hanil", crm.CompanyPatch{Notes: ptr(long)})
	require.NoError(t, err)
	result, err := h.engine.UpdateCompany(h.ctx, manager, "c-hanil", crm.CompanyPatch{Notes: ptr("short")})
	require.NoError(t, err)
	require.Len(t, result.LogIDs, 1)

	entry, ok := h.engine.ChangeLog().Get(result.LogIDs[0])
	require.True(t, ok)
	require.True(t, entry.OldValueTruncated)
	assert.Equal(t, 300, entry.OldValueLength)

	before := h.engine.ChangeLog().Len()
	_, err = h.engine.Rollback(h.ctx, manager, entry)
	assert.ErrorIs(t, err, ErrUnsupportedField)
	assert.Equal(t, "short", h.company(t, "c-hanil").Notes)
	assert.Equal(t, before, h.engine.ChangeLog().Len())
}
