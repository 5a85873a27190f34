package datachangelog

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
)

type fakeCluster struct {
	mu       sync.Mutex
	requests []recordedRequest
	search   string
}

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

func (f *fakeCluster) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	search := f.search
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/":
		io.WriteString(w, `{"version":{"number":"7.17.10","build_flavor":"default"},"tagline":"You Know, for Search"}`)
	case r.URL.Path == "/_bulk":
		io.WriteString(w, `{"took":1,"errors":false,"items":[]}`)
	case strings.HasSuffix(r.URL.Path, "/_search"):
		io.WriteString(w, search)
	case strings.HasSuffix(r.URL.Path, "/_delete_by_query"):
		io.WriteString(w, `{"deleted":1}`)
	default:
		io.WriteString(w, `{"result":"created"}`)
	}
}

func (f *fakeCluster) find(pathSuffix string) (recordedRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.requests {
		if strings.HasSuffix(req.Path, pathSuffix) {
			return req, true
		}
	}
	return recordedRequest{}, false
}

func newFakeRepository(t *testing.T, cfg ElasticsearchConfig) (*ElasticsearchRepository, *fakeCluster) {
	t.Helper()
	cluster := &fakeCluster{}
	server := httptest.NewServer(http.HandlerFunc(cluster.handler))
	t.Cleanup(server.Close)

	cfg.Addresses = []string{server.URL}
	repo, err := NewElasticsearchRepository(&cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo, cluster
}

func TestElasticsearchSaveUsesMonthlyIndex(t *testing.T) {
	repo, cluster := newFakeRepository(t, ElasticsearchConfig{IndexPrefix: "salesgrid-changelog"})

	entry := &ChangeLogEntry{
		ID:         "e1",
		EntityType: crm.EntityDeal,
		EntityID:   "d1",
		FieldName:  crm.FieldStage,
		ChangedAt:  time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Save(context.Background(), entry))

	req, ok := cluster.find("/salesgrid-changelog-deal-2025.03/_doc/e1")
	require.True(t, ok)
	assert.Equal(t, http.MethodPut, req.Method)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(req.Body), &doc))
	assert.Equal(t, "d1", doc["entityId"])
}

func TestElasticsearchSaveBatchWithoutWriter(t *testing.T) {
	repo, cluster := newFakeRepository(t, ElasticsearchConfig{})

	err := repo.SaveBatch(context.Background(), []ChangeLogEntry{
		{EntityType: crm.EntityCompany, EntityID: "c1", ChangedAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
		{EntityType: crm.EntityContact, EntityID: "p1", ChangedAt: time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)

	req, ok := cluster.find("/_bulk")
	require.True(t, ok)

	scanner := bufio.NewScanner(strings.NewReader(req.Body))
	lines := 0
	for scanner.Scan() {
		lines++
	}
	assert.Equal(t, 4, lines)
	assert.Contains(t, req.Body, `"_index":"salesgrid-changelog-company-2025.01"`)
	assert.Contains(t, req.Body, `"_index":"salesgrid-changelog-contact-2025.02"`)
}

func TestElasticsearchBulkWriterFlushesOnClose(t *testing.T) {
	repo, cluster := newFakeRepository(t, ElasticsearchConfig{NumWorkers: 1, BulkSize: 10, FlushInterval: time.Hour})
	require.NotNil(t, repo.BulkWriter())

	require.NoError(t, repo.SaveBatch(context.Background(), []ChangeLogEntry{{EntityType: crm.EntityDeal, EntityID: "d1"}}))
	require.NoError(t, repo.Close())

	_, ok := cluster.find("/_bulk")
	assert.True(t, ok)
	assert.Equal(t, int64(1), repo.BulkWriter().Status().ProcessedCount)
	assert.Error(t, repo.BulkWriter().Write(&ChangeLogEntry{}))
}

func TestElasticsearchQuery(t *testing.T) {
	repo, cluster := newFakeRepository(t, ElasticsearchConfig{})
	cluster.search = `{"hits":{"total":{"value":2},"hits":[
		{"_source":{"id":"2","entityType":"Deal","entityId":"d1","changeType":"UPDATE","changedBy":"Park","changedAt":"2025-03-02T00:00:00Z"}},
		{"_source":{"id":"1","entityType":"Deal","entityId":"d1","changeType":"APPROVAL","changedBy":"Lee","changedAt":"2025-03-01T00:00:00Z"}}
	]}}`

	result, err := repo.Query(context.Background(), &ChangeLogQuery{EntityType: crm.EntityDeal, EntityID: "d1", Tracked: TrackTracked})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Total)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "2", result.Records[0].ID)

	req, ok := cluster.find("/salesgrid-changelog-deal-*/_search")
	require.True(t, ok)
	assert.Contains(t, req.Body, `"entityId.keyword":"d1"`)
	assert.Contains(t, req.Body, `"tracked":true`)

	history, err := repo.GetEntityHistory(context.Background(), crm.EntityDeal, "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Park", "Lee"}, history.ChangedByList)
}

func TestElasticsearchDeleteOlderThan(t *testing.T) {
	repo, cluster := newFakeRepository(t, ElasticsearchConfig{})

	require.NoError(t, repo.DeleteOlderThan(context.Background(), "", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	req, ok := cluster.find("/salesgrid-changelog-*/_delete_by_query")
	require.True(t, ok)
	assert.Contains(t, req.Body, `"changedAt"`)
	assert.NoError(t, repo.Health(context.Background()))
}

func TestBuildQueryMatchAll(t *testing.T) {
	q := buildQuery(&ChangeLogQuery{}).build()
	_, ok := q["match_all"]
	assert.True(t, ok)
}

func TestElasticsearchRepositoryToleratesForbiddenInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"type":"security_exception"},"status":403}`))
	}))
	defer server.Close()

	repo, err := NewElasticsearchRepository(&ElasticsearchConfig{Addresses: []string{server.URL}}, zap.NewNop())
	require.NoError(t, err)
	defer repo.Close()

	assert.Error(t, repo.Health(context.Background()))
}

func TestElasticsearchRepositoryRejectsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewElasticsearchRepository(&ElasticsearchConfig{Addresses: []string{server.URL}}, zap.NewNop())
	assert.Error(t, err)
}
