package crm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedState() *State {
	s := NewState()
	s.Load(
		[]Company{{ID: "c1", Name: "Alpha"}, {ID: "c2", Name: "Beta"}},
		[]Contact{{ID: "ct1", CompanyID: "c1", Name: "Kim"}},
		[]Deal{{ID: "d1", CompanyID: "c1", Name: "Solar", Amount: 100}},
		[]Activity{{ID: "a1", CompanyID: "c1", Summary: "call"}},
	)
	return s
}

func TestStatePutInsertsAtHeadAndReplacesInPlace(t *testing.T) {
	s := seedState()

	s.PutCompany(Company{ID: "c3", Name: "Gamma"})
	companies := s.Companies()
	require.Len(t, companies, 3)
	assert.Equal(t, "c3", companies[0].ID)

	s.PutCompany(Company{ID: "c2", Name: "Beta 2"})
	companies = s.Companies()
	require.Len(t, companies, 3)
	assert.Equal(t, "Beta 2", companies[2].Name)
}

func TestStateRestoreReturnsExactCollections(t *testing.T) {
	s := seedState()
	before := s.Companies()
	cp := s.Checkpoint()

	s.PutCompany(Company{ID: "c9", Name: "New"})
	_, ok := s.RemoveCompany("c1")
	require.True(t, ok)
	assert.NotEqual(t, before, s.Companies())

	s.Restore(cp)
	assert.Equal(t, before, s.Companies())
}

func TestStateCheckpointIsNotAffectedByReturnedCopies(t *testing.T) {
	s := seedState()
	cp := s.Checkpoint()

	list := s.Companies()
	list[0].Name = "mutated"

	s.Restore(cp)
	c, ok := s.Company("c1")
	require.True(t, ok)
	assert.Equal(t, "Alpha", c.Name)
}

func TestRemoveCompanyLeavesChildren(t *testing.T) {
	s := seedState()

	_, ok := s.RemoveCompany("c1")
	require.True(t, ok)

	assert.Len(t, s.Contacts(), 1)
	assert.Len(t, s.Deals(), 1)
	assert.Len(t, s.Activities(), 1)
	_, found := s.Company("c1")
	assert.False(t, found)
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	s := seedState()
	_, ok := s.RemoveDeal("missing")
	assert.False(t, ok)
	assert.Len(t, s.Deals(), 1)
}

func TestPruneActivities(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cutoff := now.AddDate(0, 0, -365)
	s := NewState()
	s.Load(nil, nil, nil, []Activity{
		{ID: "old", OccurredAt: cutoff.Add(-time.Second)},
		{ID: "edge", OccurredAt: cutoff},
		{ID: "new", OccurredAt: now},
	})

	removed := s.PruneActivities(cutoff)

	assert.Equal(t, 1, removed)
	ids := []string{}
	for _, a := range s.Activities() {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"edge", "new"}, ids)
}
