package datachangelog

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	slicetools "github.com/jecitDev/jec-salesgrid/pkg/sliceTools"
)

// Store is the in-process change log. Entries are kept in insertion order and
// read back most-recent-first.
type Store struct {
	mu       sync.RWMutex
	entries  []ChangeLogEntry
	policies *PolicySet
	now      func() time.Time
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithClock overrides the clock used to stamp changedAt
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty change log governed by policies
func NewStore(policies *PolicySet, opts ...StoreOption) *Store {
	if policies == nil {
		policies = DefaultPolicySet()
	}
	s := &Store{policies: policies, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policies returns the tracking policy set of the store
func (s *Store) Policies() *PolicySet { return s.policies }

// Append stores entries, assigning ids and timestamps where missing, and
// returns the stored versions in the order given
func (s *Store) Append(entries ...ChangeLogEntry) []ChangeLogEntry {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]ChangeLogEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.ID == "" {
			entry.ID = uuid.New().String()
		}
		if entry.ChangedAt.IsZero() {
			entry.ChangedAt = s.now()
		}
		s.policies.Apply(&entry)
		s.entries = append(s.entries, entry)
		stored = append(stored, entry)
	}
	return stored
}

// Revert removes the entries with the given ids. Unknown ids are ignored.
func (s *Store) Revert(ids ...string) int {
	if len(ids) == 0 {
		return 0
	}
	drop := slicetools.Set(ids)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := slicetools.Filter(s.entries, func(entry ChangeLogEntry) bool { return !drop[entry.ID] })
	removed := len(s.entries) - len(kept)
	s.entries = kept
	return removed
}

// Prune drops entries older than retentionDays before now. An entry exactly at
// the cutoff is kept.
func (s *Store) Prune(retentionDays int, now time.Time) int {
	cutoff := RetentionCutoff(now, retentionDays)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := slicetools.Filter(s.entries, func(entry ChangeLogEntry) bool { return !entry.ChangedAt.Before(cutoff) })
	removed := len(s.entries) - len(kept)
	s.entries = kept
	return removed
}

// Load replaces the log with entries given most-recent-first, as returned by a snapshot
func (s *Store) Load(entries []ChangeLogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = slicetools.Reverse(entries)
}

// Len returns the number of stored entries
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Entries returns a copy of every entry, most-recent-first
func (s *Store) Entries() []ChangeLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newestFirst()
}

func (s *Store) newestFirst() []ChangeLogEntry {
	return slicetools.Reverse(s.entries)
}

// Get returns the entry with id
func (s *Store) Get(id string) (ChangeLogEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return ChangeLogEntry{}, false
}

// Query filters entries most-recent-first and applies limit/offset. A zero
// limit returns every match after offset.
func (s *Store) Query(q ChangeLogQuery) *ChangeLogQueryResult {
	s.mu.RLock()
	all := s.newestFirst()
	s.mu.RUnlock()

	return Paginate(Filter(all, q), q)
}

// Filter keeps the entries matching q, preserving order
func Filter(entries []ChangeLogEntry, q ChangeLogQuery) []ChangeLogEntry {
	return slicetools.Filter(entries, q.Matches)
}

// Paginate slices matched according to the limit and offset of q
func Paginate(matched []ChangeLogEntry, q ChangeLogQuery) *ChangeLogQueryResult {
	result := &ChangeLogQueryResult{
		Total:   int64(len(matched)),
		Limit:   q.Limit,
		Offset:  q.Offset,
		Records: []ChangeLogEntry{},
	}
	if q.Offset >= len(matched) {
		return result
	}
	end := len(matched)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	result.Records = append(result.Records, matched[q.Offset:end]...)
	return result
}

// History returns the full change history of one entity
func (s *Store) History(entityType crm.EntityType, entityID string) *EntityChangeHistory {
	return BuildHistory(entityType, entityID, s.Entries())
}

// Stats computes the dashboard rollups over every stored entry
func (s *Store) Stats() *AuditStats {
	return BuildStats(s.Entries())
}
