package orchestrator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
	"github.com/jecitDev/jec-salesgrid/pkg/remotestore"
)

func TestUpdateCompanyLogsEachChangedTrackedField(t *testing.T) {
	h := newHarness(t, false)
	status := crm.StageNegotiation

	result, err := h.engine.UpdateCompany(h.ctx, rep, "c-hanil", crm.CompanyPatch{
		Status:   &status,
		Notes:    ptr("계약 조건 협의"),
		Industry: ptr("금속"), // untracked
	})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, result.Status)
	require.Len(t, result.LogIDs, 2)

	first, _ := h.engine.ChangeLog().Get(result.LogIDs[0])
	second, _ := h.engine.ChangeLog().Get(result.LogIDs[1])
	assert.Equal(t, crm.FieldStatus, first.FieldName)
	assert.Equal(t, string(crm.StageProposal), first.OldValue)
	assert.Equal(t, string(crm.StageNegotiation), first.NewValue)
	assert.Equal(t, datachangelog.ChangeUpdate, first.ChangeType)
	assert.True(t, first.Tracked)
	assert.Equal(t, DemoRep, first.ChangedBy)
	assert.Equal(t, crm.FieldNotes, second.FieldName)
	assert.Equal(t, "계약 조건 협의", second.NewValue)

	company := h.company(t, "c-hanil")
	assert.Equal(t, crm.StageNegotiation, company.Status)
	assert.Equal(t, "금속", company.Industry)
	assert.Equal(t, SeveritySuccess, h.notes.last().Severity)
}

func TestUpdateCompanyWithoutChangesLogsNothing(t *testing.T) {
	h := newHarness(t, false)
	before := h.engine.ChangeLog().Len()

	result, err := h.engine.UpdateCompany(h.ctx, manager, "c-hanil", crm.CompanyPatch{Name: ptr("한일철강")})
	require.NoError(t, err)
	assert.Empty(t, result.LogIDs)
	assert.Equal(t, before, h.engine.ChangeLog().Len())
}

func TestCreateCompany(t *testing.T) {
	h := newHarness(t, false)

	result, err := h.engine.CreateCompany(h.ctx, rep, crm.Company{Name: "동해에너지"})
	require.NoError(t, err)
	require.NotEmpty(t, result.EntityID)
	require.Len(t, result.LogIDs, 1)

	company := h.company(t, result.EntityID)
	assert.Equal(t, DemoRep, company.Owner)
	assert.Equal(t, crm.StageLead, company.Status)
	assert.Equal(t, "2025-03-10", company.LastContact)
	assert.Equal(t, "동해에너지", h.engine.State().Companies()[0].Name)

	entry, _ := h.engine.ChangeLog().Get(result.LogIDs[0])
	assert.Equal(t, crm.LabelCompanyCreated, entry.FieldName)
	assert.Equal(t, "동해에너지", entry.NewValue)
	assert.Equal(t, datachangelog.ChangeCreate, entry.ChangeType)
	assert.False(t, entry.Tracked)
}

func TestCreateCompanyCompensatesOnRemoteFailure(t *testing.T) {
	h := newHarness(t, true)
	h.remote.Fail(remotestore.OpUpsert, nil)
	companies := h.engine.State().Companies()
	logCount := h.engine.ChangeLog().Len()

	result, err := h.engine.CreateCompany(h.ctx, manager, crm.Company{Name: "동해에너지"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRemotePersistenceFailed))
	assert.True(t, errors.Is(err, remotestore.ErrInjected))
	assert.Equal(t, StatusCompensatedFailure, result.Status)

	assert.Equal(t, companies, h.engine.State().Companies())
	assert.Equal(t, logCount, h.engine.ChangeLog().Len())
	assert.Equal(t, SeverityError, h.notes.last().Severity)
	assert.Zero(t, h.remote.Calls(remotestore.OpRecordChange))
}

func TestRemoteSuccessForwardsEntries(t *testing.T) {
	h := newHarness(t, true)

	result, err := h.engine.UpdateCompany(h.ctx, manager, "c-daesung", crm.CompanyPatch{
		Notes: ptr("ESS 견적 요청"),
		Email: ptr("ops@daesung-logis.kr"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, h.remote.Calls(remotestore.OpUpsert))
	assert.Equal(t, len(result.LogIDs), h.remote.Calls(remotestore.OpRecordChange))

	snapshot, err := h.remote.FetchSnapshot(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, "ESS 견적 요청", snapshot.Companies[1].Notes)
}

func TestRecordChangeFailureIsNotCompensated(t *testing.T) {
	h := newHarness(t, true)
	h.remote.Fail(remotestore.OpRecordChange, nil)

	result, err := h.engine.UpdateCompany(h.ctx, manager, "c-daesung", crm.CompanyPatch{Notes: ptr("x")})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, result.Status)
	assert.Equal(t, "x", h.company(t, "c-daesung").Notes)
	_, ok := h.engine.ChangeLog().Get(result.LogIDs[0])
	assert.True(t, ok)
}

func TestCompanyAuthorization(t *testing.T) {
	h := newHarness(t, false)

	tests := []struct {
		name  string
		actor crm.Actor
		id    string
	}{
		{"rep on a company owned by someone else", rep, "c-daesung"},
		{"unknown role", nobody, "c-hanil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := h.company(t, tt.id)
			_, err := h.engine.UpdateCompany(h.ctx, tt.actor, tt.id, crm.CompanyPatch{Notes: ptr("nope")})
			assert.ErrorIs(t, err, ErrPermissionDenied)
			assert.Equal(t, before, h.company(t, tt.id))
			assert.Equal(t, SeverityError, h.notes.last().Severity)
		})
	}

	_, err := h.engine.CreateCompany(h.ctx, rep, crm.Company{Name: "남의 회사", Owner: DemoManager})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = h.engine.DeleteCompany(h.ctx, nobody, "c-hanil")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestUpdateCompanyValidation(t *testing.T) {
	h := newHarness(t, false)

	_, err := h.engine.UpdateCompany(h.ctx, manager, "c-hanil", crm.CompanyPatch{Email: ptr("not-an-email"), Name: ptr("")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"name is required", "email is not valid email"}, verr.Messages)
	assert.Equal(t, "yujin.choi@hanil-steel.co.kr", h.company(t, "c-hanil").Email)
}

func TestUpdateCompanyNotFound(t *testing.T) {
	h := newHarness(t, false)

	_, err := h.engine.UpdateCompany(h.ctx, manager, "missing", crm.CompanyPatch{Notes: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = h.engine.DeleteCompany(h.ctx, manager, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCompanyDoesNotCascade(t *testing.T) {
	h := newHarness(t, false)
	contacts := h.engine.State().Contacts()
	deals := h.engine.State().Deals()
	activities := h.engine.State().Activities()

	result, err := h.engine.DeleteCompany(h.ctx, manager, "c-hanil")
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, result.Status)

	_, ok := h.engine.State().Company("c-hanil")
	assert.False(t, ok)
	assert.Equal(t, contacts, h.engine.State().Contacts())
	assert.Equal(t, deals, h.engine.State().Deals())
	assert.Equal(t, activities, h.engine.State().Activities())

	entry, _ := h.engine.ChangeLog().Get(result.LogIDs[0])
	assert.Equal(t, crm.LabelCompanyDeleted, entry.FieldName)
	assert.Equal(t, "한일철강", entry.OldValue)
	assert.Equal(t, datachangelog.ChangeDelete, entry.ChangeType)
	assert.Equal(t, SeverityInfo, h.notes.last().Severity)
}

func TestDeleteCompanyCompensatesOnRemoteFailure(t *testing.T) {
	h := newHarness(t, true)
	h.remote.FailNext(remotestore.OpDelete, nil)
	companies := h.engine.State().Companies()

	result, err := h.engine.DeleteCompany(h.ctx, admin, "c-greenfood")
	assert.ErrorIs(t, err, ErrRemotePersistenceFailed)
	assert.Equal(t, StatusCompensatedFailure, result.Status)
	assert.Equal(t, companies, h.engine.State().Companies())
}
