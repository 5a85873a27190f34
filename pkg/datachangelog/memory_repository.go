package datachangelog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
)

// MemoryRepository is an in-memory Repository for tests and for running
// without an Elasticsearch cluster
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]ChangeLogEntry
	closed  bool
}

// NewMemoryRepository creates an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: make(map[string]ChangeLogEntry)}
}

// Save stores a single entry, assigning an id when missing
func (m *MemoryRepository) Save(ctx context.Context, entry *ChangeLogEntry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("repository is closed")
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	m.entries[entry.ID] = *entry
	return nil
}

// SaveBatch stores multiple entries in a single operation
func (m *MemoryRepository) SaveBatch(ctx context.Context, entries []ChangeLogEntry) error {
	for i := range entries {
		if err := m.Save(ctx, &entries[i]); err != nil {
			return err
		}
	}
	return nil
}

// Query returns matching entries most-recent-first
func (m *MemoryRepository) Query(ctx context.Context, query *ChangeLogQuery) (*ChangeLogQueryResult, error) {
	if query == nil {
		query = &ChangeLogQuery{}
	}
	return Paginate(Filter(m.sorted(), *query), *query), nil
}

// GetEntityHistory retrieves the complete change history for an entity
func (m *MemoryRepository) GetEntityHistory(ctx context.Context, entityType crm.EntityType, entityID string) (*EntityChangeHistory, error) {
	return BuildHistory(entityType, entityID, m.sorted()), nil
}

// DeleteOlderThan deletes entries changed before date
func (m *MemoryRepository) DeleteOlderThan(ctx context.Context, entityType crm.EntityType, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, entry := range m.entries {
		if entityType != "" && entry.EntityType != entityType {
			continue
		}
		if entry.ChangedAt.Before(date) {
			delete(m.entries, id)
		}
	}
	return nil
}

// GetStats returns rollups over entries changed between startDate and endDate
func (m *MemoryRepository) GetStats(ctx context.Context, entityType crm.EntityType, startDate, endDate time.Time) (*AuditStats, error) {
	q := ChangeLogQuery{EntityType: entityType, StartDate: startDate, EndDate: endDate}
	return BuildStats(Filter(m.sorted(), q)), nil
}

// Close marks the repository closed; later saves fail
func (m *MemoryRepository) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Health always succeeds for an open repository
func (m *MemoryRepository) Health(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return fmt.Errorf("repository is closed")
	}
	return nil
}

// Count returns the number of stored entries
func (m *MemoryRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryRepository) sorted() []ChangeLogEntry {
	m.mu.RLock()
	out := make([]ChangeLogEntry, 0, len(m.entries))
	for _, entry := range m.entries {
		out = append(out, entry)
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ChangedAt.Equal(out[j].ChangedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].ChangedAt.After(out[j].ChangedAt)
	})
	return out
}
