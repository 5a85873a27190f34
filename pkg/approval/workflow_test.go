package approval

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		{"pending to approved", StatusPending, StatusApproved, false},
		{"pending to rejected", StatusPending, StatusRejected, false},
		{"pending to pending", StatusPending, StatusPending, true},
		{"approved is terminal", StatusApproved, StatusRejected, true},
		{"rejected is terminal", StatusRejected, StatusApproved, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{Status: tt.from}
			err := req.Transition(tt.to)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidTransition))
				assert.Equal(t, tt.from, req.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, req.Status)
		})
	}
}

func TestWorkflowCreateAndList(t *testing.T) {
	w := NewWorkflow(fixedClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)))

	first := w.Create(Request{EntityType: crm.EntityDeal, EntityID: "d1", FieldName: crm.FieldStage, NewValue: "협상"})
	second := w.Create(Request{EntityType: crm.EntityDeal, EntityID: "d1", FieldName: crm.FieldAmount, NewValue: "900"})

	assert.NotEmpty(t, first.ID)
	assert.Equal(t, StatusPending, first.Status)

	all := w.List("")
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Len(t, w.List(StatusApproved), 0)
}

func TestWorkflowResolve(t *testing.T) {
	requested := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	now := requested
	w := NewWorkflow(func() time.Time { return now })
	req := w.Create(Request{EntityType: crm.EntityDeal, EntityID: "d1", FieldName: crm.FieldStage})

	now = requested.Add(95 * time.Minute)
	before, after, err := w.Resolve(req.ID, true, "Park", "ok")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, before.Status)
	assert.Equal(t, StatusApproved, after.Status)
	assert.Equal(t, "Park", after.ApprovedBy)
	latency, ok := after.LatencyMinutes()
	assert.True(t, ok)
	assert.Equal(t, 95, latency)

	_, _, err = w.Resolve(req.ID, false, "Park", "")
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	_, _, err = w.Resolve("missing", true, "Park", "")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestWorkflowRestoreUndoesResolution(t *testing.T) {
	w := NewWorkflow(nil)
	req := w.Create(Request{EntityType: crm.EntityDeal, EntityID: "d1"})

	before, _, err := w.Resolve(req.ID, false, "Park", "")
	require.NoError(t, err)

	w.Restore(before)
	got, ok := w.Get(req.ID)
	require.True(t, ok)
	assert.Equal(t, StatusPending, got.Status)
	assert.Nil(t, got.ResolvedAt)
}

func TestWorkflowRemove(t *testing.T) {
	w := NewWorkflow(nil)
	a := w.Create(Request{EntityID: "d1"})
	w.Create(Request{EntityID: "d2"})

	assert.Equal(t, 1, w.Remove(a.ID, "unknown"))
	_, ok := w.Get(a.ID)
	assert.False(t, ok)
	assert.Len(t, w.List(""), 1)
}
