package datachangelog

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
)

// ElasticsearchRepository archives change log entries in monthly Elasticsearch indices
type ElasticsearchRepository struct {
	client     *elasticsearch.Client
	config     *ElasticsearchConfig
	bulkWriter *BulkIndexWriter
	log        *zap.Logger
}

// BulkIndexWriter handles asynchronous bulk indexing of change log entries
type BulkIndexWriter struct {
	repo          *ElasticsearchRepository
	queue         chan *ChangeLogEntry
	batchSize     int
	flushInterval time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
	mutex         sync.Mutex
	status        BatchWriterStatus
}

// NewElasticsearchRepository connects to Elasticsearch and starts the bulk writer
// when workers and bulk size are configured.
//
// Example:
//
//	repo, err := NewElasticsearchRepository(&ElasticsearchConfig{
//		Addresses:   []string{"https://localhost:9200"},
//		Username:    "elastic",
//		Password:    "password",
//		IndexPrefix: "salesgrid-changelog",
//	}, logger)
//	if err != nil {
//		return err
//	}
//	defer repo.Close()
func NewElasticsearchRepository(config *ElasticsearchConfig, log *zap.Logger) (*ElasticsearchRepository, error) {
	if config == nil {
		return nil, fmt.Errorf("elasticsearch config cannot be nil")
	}
	if len(config.Addresses) == 0 {
		return nil, fmt.Errorf("elasticsearch addresses must be specified")
	}
	if log == nil {
		log = zap.NewNop()
	}
	config.setDefaults()

	escfg := elasticsearch.Config{
		Addresses:  config.Addresses,
		Username:   config.Username,
		Password:   config.Password,
		APIKey:     config.APIKey,
		MaxRetries: config.MaxRetries,
	}
	if config.InsecureSkipVerify {
		escfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client, err := elasticsearch.NewClient(escfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to elasticsearch: %w", err)
	}
	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		// index privileges can work without cluster monitor
		res.Body.Close()
		log.Warn("elasticsearch info not authorized, continuing with index operations",
			zap.Int("status_code", res.StatusCode))
	} else if err := checkResponse(res); err != nil {
		return nil, err
	}

	repo := &ElasticsearchRepository{
		client: client,
		config: config,
		log:    log,
	}

	if config.NumWorkers > 0 && config.BulkSize > 0 {
		repo.bulkWriter = NewBulkIndexWriter(repo, config.BulkSize, config.FlushInterval)
		repo.bulkWriter.Start(config.NumWorkers)
	}

	return repo, nil
}

// BulkWriter returns the async writer, or nil when bulk writes are disabled
func (r *ElasticsearchRepository) BulkWriter() *BulkIndexWriter {
	return r.bulkWriter
}

// Save synchronously indexes a single change log entry
func (r *ElasticsearchRepository) Save(ctx context.Context, entry *ChangeLogEntry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	doc, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry to JSON: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      r.IndexName(entry.EntityType, entry.ChangedAt),
		DocumentID: entry.ID,
		Body:       bytes.NewReader(doc),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	return checkResponse(res)
}

// SaveBatch queues entries on the bulk writer when it is running, otherwise
// writes them with a single bulk request
func (r *ElasticsearchRepository) SaveBatch(ctx context.Context, entries []ChangeLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	if r.bulkWriter != nil && r.bulkWriter.IsRunning() {
		for i := range entries {
			entry := entries[i]
			if err := r.bulkWriter.Write(&entry); err != nil {
				return err
			}
		}
		return nil
	}

	return r.saveBatchDirect(ctx, entries)
}

func (r *ElasticsearchRepository) saveBatchDirect(ctx context.Context, entries []ChangeLogEntry) error {
	var buf bytes.Buffer

	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.New().String()
		}

		meta := map[string]interface{}{
			"index": map[string]interface{}{
				"_index": r.IndexName(entries[i].EntityType, entries[i].ChangedAt),
				"_id":    entries[i].ID,
			},
		}
		metaBytes, _ := json.Marshal(meta)
		buf.Write(metaBytes)
		buf.WriteString("\n")

		docBytes, err := json.Marshal(entries[i])
		if err != nil {
			return fmt.Errorf("failed to marshal entry to JSON: %w", err)
		}
		buf.Write(docBytes)
		buf.WriteString("\n")
	}

	req := esapi.BulkRequest{Body: &buf}
	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("failed to execute bulk request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("elasticsearch bulk request returned error: %s", string(body))
	}

	var bulkRes struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkRes); err != nil {
		return fmt.Errorf("failed to parse bulk response: %w", err)
	}
	if bulkRes.Errors {
		return fmt.Errorf("bulk request had errors, check Elasticsearch logs for details")
	}
	return nil
}

// Query retrieves entries most-recent-first
func (r *ElasticsearchRepository) Query(ctx context.Context, query *ChangeLogQuery) (*ChangeLogQueryResult, error) {
	if query == nil {
		query = &ChangeLogQuery{}
	}

	body := map[string]interface{}{
		"query": buildQuery(query).build(),
		"sort": []map[string]interface{}{
			{"changedAt": map[string]interface{}{"order": "desc"}},
		},
	}
	searchBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 10000
	}
	req := esapi.SearchRequest{
		Index: []string{r.searchPattern(query.EntityType)},
		Body:  bytes.NewReader(searchBody),
		Size:  &limit,
		From:  &query.Offset,
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		b, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch returned error: %s", string(b))
	}

	var esRes searchResponse
	if err := json.NewDecoder(res.Body).Decode(&esRes); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	result := &ChangeLogQueryResult{
		Total:   esRes.Hits.Total.Value,
		Limit:   query.Limit,
		Offset:  query.Offset,
		Records: make([]ChangeLogEntry, 0, len(esRes.Hits.Hits)),
	}
	for _, hit := range esRes.Hits.Hits {
		result.Records = append(result.Records, hit.Source)
	}
	return result, nil
}

// GetEntityHistory retrieves the complete change history for an entity
func (r *ElasticsearchRepository) GetEntityHistory(ctx context.Context, entityType crm.EntityType, entityID string) (*EntityChangeHistory, error) {
	result, err := r.Query(ctx, &ChangeLogQuery{
		EntityType: entityType,
		EntityID:   entityID,
	})
	if err != nil {
		return nil, err
	}
	return BuildHistory(entityType, entityID, result.Records), nil
}

// DeleteOlderThan deletes entries changed before date
func (r *ElasticsearchRepository) DeleteOlderThan(ctx context.Context, entityType crm.EntityType, date time.Time) error {
	q := boolQuery{}
	q.must(map[string]interface{}{
		"range": map[string]interface{}{
			"changedAt": map[string]interface{}{"lt": date.UTC()},
		},
	})
	if entityType != "" {
		q.term("entityType.keyword", string(entityType))
	}

	queryBytes, _ := json.Marshal(map[string]interface{}{"query": q.build()})
	req := esapi.DeleteByQueryRequest{
		Index: []string{r.searchPattern(entityType)},
		Body:  bytes.NewReader(queryBytes),
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("failed to execute delete by query: %w", err)
	}
	return checkResponse(res)
}

// GetStats returns rollups over entries changed between startDate and endDate
func (r *ElasticsearchRepository) GetStats(ctx context.Context, entityType crm.EntityType, startDate, endDate time.Time) (*AuditStats, error) {
	result, err := r.Query(ctx, &ChangeLogQuery{
		EntityType: entityType,
		StartDate:  startDate,
		EndDate:    endDate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute stats query: %w", err)
	}
	stats := BuildStats(result.Records)
	stats.TotalRecords = result.Total
	return stats, nil
}

// Close stops the bulk writer, flushing queued entries
func (r *ElasticsearchRepository) Close() error {
	if r.bulkWriter != nil {
		return r.bulkWriter.Close()
	}
	return nil
}

// Health checks if Elasticsearch is reachable
func (r *ElasticsearchRepository) Health(ctx context.Context) error {
	res, err := r.client.Info(r.client.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch health check failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch health check error, status code: %d", res.StatusCode)
	}
	return nil
}

// IndexName returns the monthly index for an entity type: {prefix}-{entitytype}-{yyyy.MM}
func (r *ElasticsearchRepository) IndexName(entityType crm.EntityType, timestamp time.Time) string {
	return fmt.Sprintf("%s-%s-%04d.%02d", r.config.IndexPrefix, strings.ToLower(string(entityType)), timestamp.Year(), timestamp.Month())
}

func (r *ElasticsearchRepository) searchPattern(entityType crm.EntityType) string {
	if entityType == "" {
		return fmt.Sprintf("%s-*", r.config.IndexPrefix)
	}
	return fmt.Sprintf("%s-%s-*", r.config.IndexPrefix, strings.ToLower(string(entityType)))
}

func checkResponse(res *esapi.Response) error {
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("elasticsearch returned error: %s", string(body))
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source ChangeLogEntry `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type boolQuery struct {
	clauses []map[string]interface{}
}

func (q *boolQuery) must(clause map[string]interface{}) {
	q.clauses = append(q.clauses, clause)
}

func (q *boolQuery) term(field string, value interface{}) {
	q.must(map[string]interface{}{
		"term": map[string]interface{}{field: value},
	})
}

func (q *boolQuery) build() map[string]interface{} {
	if len(q.clauses) == 0 {
		return map[string]interface{}{"match_all": map[string]interface{}{}}
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{"must": q.clauses},
	}
}

// buildQuery translates ChangeLogQuery filters into a bool query
func buildQuery(q *ChangeLogQuery) *boolQuery {
	bq := &boolQuery{}

	if q.EntityType != "" {
		bq.term("entityType.keyword", string(q.EntityType))
	}
	if q.EntityID != "" {
		bq.term("entityId.keyword", q.EntityID)
	}
	if q.ChangeType != "" {
		bq.term("changeType.keyword", string(q.ChangeType))
	}
	if q.ChangedBy != "" {
		bq.term("changedBy.keyword", q.ChangedBy)
	}
	switch q.Tracked {
	case TrackTracked:
		bq.term("tracked", true)
	case TrackUntracked:
		bq.term("tracked", false)
	}

	if !q.StartDate.IsZero() || !q.EndDate.IsZero() {
		rangeQuery := map[string]interface{}{}
		if !q.StartDate.IsZero() {
			rangeQuery["gte"] = q.StartDate.UTC()
		}
		if !q.EndDate.IsZero() {
			rangeQuery["lte"] = q.EndDate.UTC()
		}
		bq.must(map[string]interface{}{
			"range": map[string]interface{}{"changedAt": rangeQuery},
		})
	}

	return bq
}

// NewBulkIndexWriter creates a new bulk index writer
func NewBulkIndexWriter(repo *ElasticsearchRepository, batchSize int, flushInterval time.Duration) *BulkIndexWriter {
	if flushInterval <= 0 {
		flushInterval = 2 * time.Second
	}
	return &BulkIndexWriter{
		repo:          repo,
		queue:         make(chan *ChangeLogEntry, batchSize*2),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		stopChan:      make(chan struct{}),
	}
}

// Start starts the bulk writer workers
func (b *BulkIndexWriter) Start(numWorkers int) {
	b.mutex.Lock()
	b.status.IsRunning = true
	b.mutex.Unlock()

	for i := 0; i < numWorkers; i++ {
		b.wg.Add(1)
		go b.worker()
	}
}

// worker drains the queue, writing a batch when it is full or on every tick
func (b *BulkIndexWriter) worker() {
	defer b.wg.Done()

	batch := make([]ChangeLogEntry, 0, b.batchSize)
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), b.repo.config.RequestTimeout)
		err := b.repo.saveBatchDirect(ctx, batch)
		cancel()

		n := int64(len(batch))
		b.updateStatus(func() {
			if err != nil {
				b.status.FailedCount += n
			} else {
				b.status.ProcessedCount += n
			}
			b.status.LastFlushTime = time.Now()
			b.status.QueueSize = len(b.queue)
		})
		if err != nil {
			b.repo.log.Error("bulk index failed", zap.Int("entries", len(batch)), zap.Error(err))
		}
		batch = make([]ChangeLogEntry, 0, b.batchSize)
	}

	for {
		select {
		case <-b.stopChan:
			for {
				select {
				case entry := <-b.queue:
					batch = append(batch, *entry)
				default:
					flush()
					return
				}
			}

		case entry := <-b.queue:
			batch = append(batch, *entry)
			if len(batch) >= b.batchSize {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}

// Write queues an entry for batch writing
func (b *BulkIndexWriter) Write(entry *ChangeLogEntry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	select {
	case <-b.stopChan:
		return fmt.Errorf("bulk writer is stopped")
	default:
	}

	select {
	case b.queue <- entry:
		return nil
	default:
		return fmt.Errorf("bulk writer queue is full")
	}
}

// Close stops the workers after flushing queued entries
func (b *BulkIndexWriter) Close() error {
	b.mutex.Lock()
	b.status.IsRunning = false
	b.mutex.Unlock()

	b.stopOnce.Do(func() { close(b.stopChan) })
	b.wg.Wait()
	return nil
}

// Status returns the current status of the writer
func (b *BulkIndexWriter) Status() BatchWriterStatus {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.status
}

// IsRunning returns whether the bulk writer is running
func (b *BulkIndexWriter) IsRunning() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.status.IsRunning
}

func (b *BulkIndexWriter) updateStatus(fn func()) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	fn()
}
