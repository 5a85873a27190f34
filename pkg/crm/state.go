package crm

import (
	"sync"
	"time"
)

// State is the in-memory application state the orchestrator mutates.
// Collections are copy-on-write: every mutation swaps in a new slice, so a
// Checkpoint keeps the exact collections that were current when it was taken.
type State struct {
	mu         sync.RWMutex
	companies  []Company
	contacts   []Contact
	deals      []Deal
	activities []Activity
}

// Checkpoint is an opaque snapshot of all entity collections
type Checkpoint struct {
	companies  []Company
	contacts   []Contact
	deals      []Deal
	activities []Activity
}

// NewState creates an empty state container
func NewState() *State {
	return &State{}
}

// Load replaces every collection
func (s *State) Load(companies []Company, contacts []Contact, deals []Deal, activities []Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies = clone(companies)
	s.contacts = clone(contacts)
	s.deals = clone(deals)
	s.activities = clone(activities)
}

// Checkpoint captures the current collections
func (s *State) Checkpoint() Checkpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Checkpoint{
		companies:  s.companies,
		contacts:   s.contacts,
		deals:      s.deals,
		activities: s.activities,
	}
}

// Restore puts back the collections captured by cp
func (s *State) Restore(cp Checkpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies = cp.companies
	s.contacts = cp.contacts
	s.deals = cp.deals
	s.activities = cp.activities
}

func (s *State) Companies() []Company {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.companies)
}

func (s *State) Contacts() []Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.contacts)
}

func (s *State) Deals() []Deal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.deals)
}

func (s *State) Activities() []Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.activities)
}

func (s *State) Company(id string) (Company, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.companies, id)
}

func (s *State) Contact(id string) (Contact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.contacts, id)
}

func (s *State) Deal(id string) (Deal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.deals, id)
}

func (s *State) Activity(id string) (Activity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.activities, id)
}

// PutCompany inserts c at the head, or replaces the company with the same id in place
func (s *State) PutCompany(c Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies = put(s.companies, c)
}

func (s *State) PutContact(c Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = put(s.contacts, c)
}

func (s *State) PutDeal(d Deal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deals = put(s.deals, d)
}

func (s *State) PutActivity(a Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities = put(s.activities, a)
}

// RemoveCompany deletes the company only. Contacts, deals and activities that
// reference it are left in place.
func (s *State) RemoveCompany(id string) (Company, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed Company
	var ok bool
	s.companies, removed, ok = remove(s.companies, id)
	return removed, ok
}

func (s *State) RemoveContact(id string) (Contact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed Contact
	var ok bool
	s.contacts, removed, ok = remove(s.contacts, id)
	return removed, ok
}

func (s *State) RemoveDeal(id string) (Deal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed Deal
	var ok bool
	s.deals, removed, ok = remove(s.deals, id)
	return removed, ok
}

func (s *State) RemoveActivity(id string) (Activity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed Activity
	var ok bool
	s.activities, removed, ok = remove(s.activities, id)
	return removed, ok
}

// PruneActivities drops activities that occurred before cutoff and returns how many were removed
func (s *State) PruneActivities(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]Activity, 0, len(s.activities))
	for _, a := range s.activities {
		if !a.OccurredAt.Before(cutoff) {
			kept = append(kept, a)
		}
	}
	removed := len(s.activities) - len(kept)
	if removed > 0 {
		s.activities = kept
	}
	return removed
}

type identified interface {
	EntityID() string
}

func clone[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func find[T identified](list []T, id string) (T, bool) {
	for _, item := range list {
		if item.EntityID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func put[T identified](list []T, item T) []T {
	for i := range list {
		if list[i].EntityID() == item.EntityID() {
			next := clone(list)
			next[i] = item
			return next
		}
	}
	next := make([]T, 0, len(list)+1)
	next = append(next, item)
	return append(next, list...)
}

func remove[T identified](list []T, id string) ([]T, T, bool) {
	for i := range list {
		if list[i].EntityID() == id {
			removed := list[i]
			next := make([]T, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			return next, removed, true
		}
	}
	var zero T
	return list, zero, false
}
