package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
)

func TestPruneRetentionKeepsTheBoundary(t *testing.T) {
	e := New(Options{Clock: func() time.Time { return testNow }})
	cutoff := testNow.AddDate(0, 0, -365)

	e.ChangeLog().Append(
		datachangelog.ChangeLogEntry{ID: "old", EntityType: crm.EntityCompany, EntityID: "c", ChangedAt: cutoff.Add(-time.Second)},
		datachangelog.ChangeLogEntry{ID: "edge", EntityType: crm.EntityCompany, EntityID: "c", ChangedAt: cutoff},
		datachangelog.ChangeLogEntry{ID: "new", EntityType: crm.EntityCompany, EntityID: "c", ChangedAt: testNow},
	)
	e.State().Load(nil, nil, nil, []crm.Activity{
		{ID: "a-old", CompanyID: "c", Summary: "old", OccurredAt: cutoff.Add(-time.Minute)},
		{ID: "a-edge", CompanyID: "c", Summary: "edge", OccurredAt: cutoff},
	})

	report := e.PruneRetention(testNow)
	assert.Equal(t, RetentionReport{ChangeLogsRemoved: 1, ActivitiesRemoved: 1}, report)

	_, ok := e.ChangeLog().Get("old")
	assert.False(t, ok)
	_, ok = e.ChangeLog().Get("edge")
	assert.True(t, ok)
	_, ok = e.State().Activity("a-edge")
	assert.True(t, ok)

	assert.Equal(t, RetentionReport{}, e.PruneRetention(testNow))
}

func TestPruneRetentionUsesSeparateActivityWindow(t *testing.T) {
	e := New(Options{ActivityRetentionDays: 30})
	e.State().Load(nil, nil, nil, []crm.Activity{
		{ID: "a-1", Summary: "x", OccurredAt: testNow.AddDate(0, 0, -31)},
	})
	e.ChangeLog().Append(datachangelog.ChangeLogEntry{ChangedAt: testNow.AddDate(0, 0, -31)})

	report := e.PruneRetention(testNow)
	assert.Equal(t, 1, report.ActivitiesRemoved)
	assert.Zero(t, report.ChangeLogsRemoved)
}
