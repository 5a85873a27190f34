package remotestore

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jecitDev/jec-salesgrid/pkg/approval"
	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
)

const apiBase = "http://crm.test"

func TestHTTPStoreUpsert(t *testing.T) {
	defer gock.Off()

	gock.New(apiBase).
		Post("/crm/companies").
		MatchHeader(IdempotencyHeader, ".+").
		MatchType("json").
		BodyString(`"name":"Alpha"`).
		Reply(200).
		JSON(map[string]string{"id": "c-1"})

	store := NewHTTPStore(apiBase + "/")
	err := store.Upsert(context.Background(), crm.Company{ID: "c-1", Name: "Alpha"})
	require.NoError(t, err)
	assert.True(t, gock.IsDone())
}

func TestHTTPStoreDeleteAndResolve(t *testing.T) {
	defer gock.Off()

	gock.New(apiBase).Delete("/crm/deals/d-1").Reply(204)
	gock.New(apiBase).
		Post("/crm/approvals/a-1/resolve").
		JSON(map[string]string{"status": "APPROVED", "approvedBy": "Lee", "notes": "ok"}).
		Reply(200)

	store := NewHTTPStore(apiBase)
	ctx := context.Background()
	require.NoError(t, store.Delete(ctx, crm.EntityDeal, "d-1"))
	require.NoError(t, store.ResolveApproval(ctx, "a-1", approval.StatusApproved, "Lee", "ok"))
	assert.True(t, gock.IsDone())
}

func TestHTTPStoreRecordChangeAndApproval(t *testing.T) {
	defer gock.Off()

	gock.New(apiBase).Post("/crm/change-logs").Reply(201)
	gock.New(apiBase).Post("/crm/approvals").Reply(201)

	store := NewHTTPStore(apiBase)
	ctx := context.Background()
	require.NoError(t, store.RecordChange(ctx, datachangelog.ChangeLogEntry{ID: "l-1"}))
	require.NoError(t, store.UpsertApproval(ctx, approval.Request{ID: "a-1"}))
	assert.True(t, gock.IsDone())
}

func TestHTTPStoreRetriesThenSucceeds(t *testing.T) {
	defer gock.Off()

	gock.New(apiBase).Post("/crm/contacts").Reply(503).BodyString("busy")
	gock.New(apiBase).Post("/crm/contacts").Reply(200)

	store := NewHTTPStore(apiBase, WithRetryCount(1))
	require.NoError(t, store.Upsert(context.Background(), crm.Contact{ID: "p-1"}))
	assert.True(t, gock.IsDone())
}

func TestHTTPStoreReportsAPIError(t *testing.T) {
	defer gock.Off()

	gock.New(apiBase).Post("/crm/activities").Times(2).Reply(500).BodyString("boom")

	store := NewHTTPStore(apiBase, WithRetryCount(1), WithTimeout(time.Second))
	err := store.Upsert(context.Background(), crm.Activity{ID: "act-1"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "API 500: boom", err.Error())
	assert.True(t, gock.IsDone())
}

func TestHTTPStoreFetchSnapshot(t *testing.T) {
	defer gock.Off()

	gock.New(apiBase).
		Get("/crm/snapshot").
		Reply(200).
		JSON(map[string]interface{}{
			"companies":  []map[string]interface{}{{"id": "c-1", "name": "Alpha", "status": "리드"}},
			"deals":      []map[string]interface{}{{"id": "d-1", "companyId": "c-1", "amount": 5000000}},
			"changeLogs": []map[string]interface{}{{"id": "l-1", "entityType": "Company", "changeType": "CREATE"}},
		})

	snapshot, err := NewHTTPStore(apiBase).FetchSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot.Companies, 1)
	assert.Equal(t, crm.StageLead, snapshot.Companies[0].Status)
	assert.Equal(t, int64(5000000), snapshot.Deals[0].Amount)
	assert.Equal(t, datachangelog.ChangeCreate, snapshot.ChangeLogs[0].ChangeType)
	assert.Empty(t, snapshot.Contacts)
}

func TestHTTPStoreRejectsUnknownEntity(t *testing.T) {
	_, err := Collection("Invoice")
	assert.Error(t, err)
}
