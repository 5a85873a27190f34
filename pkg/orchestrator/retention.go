package orchestrator

import (
	"time"

	"go.uber.org/zap"

	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
)

// RetentionReport counts what one retention sweep removed
type RetentionReport struct {
	ChangeLogsRemoved int `json:"changeLogsRemoved"`
	ActivitiesRemoved int `json:"activitiesRemoved"`
}

// PruneRetention drops change log entries and activities older than their
// retention windows. Entries exactly at the cutoff are kept.
func (e *Engine) PruneRetention(now time.Time) RetentionReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pruneRetention(now)
}

func (e *Engine) pruneRetention(now time.Time) RetentionReport {
	report := RetentionReport{
		ChangeLogsRemoved: e.logs.Prune(e.logs.Policies().RetentionDays(), now),
		ActivitiesRemoved: e.state.PruneActivities(datachangelog.RetentionCutoff(now, e.activityRetentionDays)),
	}
	if report.ChangeLogsRemoved > 0 || report.ActivitiesRemoved > 0 {
		e.log.Info("retention sweep",
			zap.Int("change_logs_removed", report.ChangeLogsRemoved),
			zap.Int("activities_removed", report.ActivitiesRemoved))
	}
	return report
}
