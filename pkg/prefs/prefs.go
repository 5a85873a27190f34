package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
)

// DefaultKey is the key the preference blob is stored under
const DefaultKey = "salesgrid-ui"

// SavedView is a named company filter the user can switch back to
type SavedView struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Filters crm.FilterState `json:"filters"`
}

// Preferences is the per-browser UI state
type Preferences struct {
	Filters            crm.FilterState `json:"filters"`
	SavedViews         []SavedView     `json:"savedViews"`
	SelectedCompanyIDs []string        `json:"selectedCompanyIds"`
}

// Store loads and saves the preference blob. A missing blob loads as the zero value.
type Store interface {
	Load(ctx context.Context) (Preferences, error)
	Save(ctx context.Context, p Preferences) error
}

// RedisClient is the subset of *redis.Client used by RedisStore
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStore keeps the blob as JSON under a single key
type RedisStore struct {
	client RedisClient
	key    string
}

func NewRedisStore(client RedisClient, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (Preferences, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Preferences{}, nil
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("failed to load preferences %s: %w", s.key, err)
	}

	var p Preferences
	if err := json.Unmarshal(raw, &p); err != nil {
		return Preferences{}, fmt.Errorf("failed to decode preferences %s: %w", s.key, err)
	}
	return p, nil
}

func (s *RedisStore) Save(ctx context.Context, p Preferences) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save preferences %s: %w", s.key, err)
	}
	return nil
}

// MemoryStore holds the blob in process
type MemoryStore struct {
	mu    sync.Mutex
	prefs Preferences
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.prefs), nil
}

func (s *MemoryStore) Save(ctx context.Context, p Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = clone(p)
	return nil
}

func clone(p Preferences) Preferences {
	p.SavedViews = append([]SavedView(nil), p.SavedViews...)
	p.SelectedCompanyIDs = append([]string(nil), p.SelectedCompanyIDs...)
	return p
}
