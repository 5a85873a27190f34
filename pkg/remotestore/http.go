package remotestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jecitDev/jec-salesgrid/pkg/approval"
	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
	generatorKey "github.com/jecitDev/jec-salesgrid/pkg/generatorKey"
	"github.com/jecitDev/jec-salesgrid/pkg/logger"
)

// IdempotencyHeader carries the key shared by every attempt of one write
const IdempotencyHeader = "Idempotency-Key"

// APIError is a non-2xx response of the remote API
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API %d: %s", e.StatusCode, e.Body)
}

// HTTPStore talks to the CRM REST API
type HTTPStore struct {
	baseURL    string
	client     *http.Client
	retryCount int
	log        *zap.Logger
}

// HTTPOption configures an HTTPStore
type HTTPOption func(*HTTPStore)

// WithHTTPClient replaces the http client
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPStore) { s.client = client }
}

// WithRetryCount sets how many times a failed request is replayed
func WithRetryCount(n int) HTTPOption {
	return func(s *HTTPStore) { s.retryCount = n }
}

// WithTimeout sets the per-attempt timeout of the default client
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(s *HTTPStore) { s.client.Timeout = timeout }
}

// WithHTTPLogger sets the logger retries are reported to
func WithHTTPLogger(log *zap.Logger) HTTPOption {
	return func(s *HTTPStore) { s.log = logger.OrNop(log) }
}

// NewHTTPStore creates a store for the API rooted at baseURL
func NewHTTPStore(baseURL string, opts ...HTTPOption) *HTTPStore {
	s := &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HTTPStore) Upsert(ctx context.Context, entity crm.Entity) error {
	collection, err := Collection(entity.EntityType())
	if err != nil {
		return err
	}
	return s.do(ctx, http.MethodPost, "/crm/"+collection, entity, nil)
}

func (s *HTTPStore) Delete(ctx context.Context, entityType crm.EntityType, id string) error {
	collection, err := Collection(entityType)
	if err != nil {
		return err
	}
	return s.do(ctx, http.MethodDelete, "/crm/"+collection+"/"+url.PathEscape(id), nil, nil)
}

func (s *HTTPStore) RecordChange(ctx context.Context, entry datachangelog.ChangeLogEntry) error {
	return s.do(ctx, http.MethodPost, "/crm/change-logs", entry, nil)
}

func (s *HTTPStore) UpsertApproval(ctx context.Context, req approval.Request) error {
	return s.do(ctx, http.MethodPost, "/crm/approvals", req, nil)
}

type resolveBody struct {
	Status     approval.Status `json:"status"`
	ApprovedBy string          `json:"approvedBy,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

func (s *HTTPStore) ResolveApproval(ctx context.Context, id string, status approval.Status, resolver, notes string) error {
	body := resolveBody{Status: status, ApprovedBy: resolver, Notes: notes}
	return s.do(ctx, http.MethodPost, "/crm/approvals/"+url.PathEscape(id)+"/resolve", body, nil)
}

func (s *HTTPStore) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	var snapshot Snapshot
	if err := s.do(ctx, http.MethodGet, "/crm/snapshot", nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// do sends one logical request, replaying it up to retryCount extra times
func (s *HTTPStore) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	key := ""
	if method != http.MethodGet {
		var err error
		if key, err = generatorKey.NewIdempotencyKey(); err != nil {
			return err
		}
	}

	var lastErr error
	for attempt := 0; attempt <= s.retryCount; attempt++ {
		lastErr = s.send(ctx, method, path, payload, key, out)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
		s.log.Warn("remote request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
	}
	return lastErr
}

func (s *HTTPStore) send(ctx context.Context, method, path string, payload []byte, key string, out interface{}) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		text, _ := io.ReadAll(res.Body)
		return &APIError{StatusCode: res.StatusCode, Body: string(text)}
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
