package approval

import (
	"sync"
	"time"

	"github.com/google/uuid"

	slicetools "github.com/jecitDev/jec-salesgrid/pkg/sliceTools"
)

// Workflow keeps approval requests most-recent-first
type Workflow struct {
	mu       sync.RWMutex
	requests []Request
	now      func() time.Time
}

// NewWorkflow creates an empty workflow. A nil clock uses time.Now.
func NewWorkflow(now func() time.Time) *Workflow {
	if now == nil {
		now = time.Now
	}
	return &Workflow{now: now}
}

// Create stores a new PENDING request, assigning id and requestedAt when missing
func (w *Workflow) Create(req Request) Request {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = w.now()
	}
	req.Status = StatusPending
	req.ApprovedBy = ""
	req.ResolvedAt = nil

	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests = append([]Request{req}, w.requests...)
	return req
}

// Get returns the request with id
func (w *Workflow) Get(id string) (Request, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	i := w.indexOf(id)
	if i < 0 {
		return Request{}, false
	}
	return w.requests[i], true
}

// List returns requests most-recent-first. An empty status returns all of them.
func (w *Workflow) List(status Status) []Request {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return slicetools.Filter(w.requests, func(req Request) bool {
		return status == "" || req.Status == status
	})
}

// Resolve decides a PENDING request. It returns the request as it was before
// the decision, for compensation, and the resolved request.
func (w *Workflow) Resolve(id string, approve bool, resolver, notes string) (before, after Request, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := w.indexOf(id)
	if i < 0 {
		return Request{}, Request{}, ErrNotFound
	}

	before = w.requests[i]
	after = before

	to := StatusRejected
	if approve {
		to = StatusApproved
	}
	if err := after.Transition(to); err != nil {
		return Request{}, Request{}, err
	}

	resolvedAt := w.now()
	after.ApprovedBy = resolver
	after.ResolvedAt = &resolvedAt
	after.Notes = notes
	w.requests[i] = after
	return before, after, nil
}

// Restore puts a previously returned request back in place, undoing a resolution
func (w *Workflow) Restore(req Request) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i := w.indexOf(req.ID); i >= 0 {
		w.requests[i] = req
	}
}

// Remove deletes requests by id. It is used only to compensate a failed remote create.
func (w *Workflow) Remove(ids ...string) int {
	if len(ids) == 0 {
		return 0
	}
	drop := slicetools.Set(ids)

	w.mu.Lock()
	defer w.mu.Unlock()

	kept := slicetools.Filter(w.requests, func(req Request) bool { return !drop[req.ID] })
	removed := len(w.requests) - len(kept)
	w.requests = kept
	return removed
}

// Load replaces every request, keeping the given order
func (w *Workflow) Load(requests []Request) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests = append([]Request(nil), requests...)
}

func (w *Workflow) indexOf(id string) int {
	for i, req := range w.requests {
		if req.ID == id {
			return i
		}
	}
	return -1
}
