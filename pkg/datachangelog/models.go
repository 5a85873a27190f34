package datachangelog

import (
	"time"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
)

// ChangeType classifies a change log entry
type ChangeType string

const (
	ChangeCreate   ChangeType = "CREATE"
	ChangeUpdate   ChangeType = "UPDATE"
	ChangeDelete   ChangeType = "DELETE"
	ChangeApproval ChangeType = "APPROVAL"
)

// Reasons attached to generated entries
const (
	ReasonRollback        = "롤백"
	ReasonApprovalRequest = "승인 요청"
	ReasonApproved        = "승인"
	ReasonRejected        = "반려"
	ReasonUploadMerge     = "일괄 업로드 병합"
	ReasonUploadCreate    = "일괄 업로드 생성"
)

// ChangeLogEntry represents a single immutable field change event
type ChangeLogEntry struct {
	ID                string         `json:"id" db:"id"`
	EntityType        crm.EntityType `json:"entityType" db:"entity_type"`
	EntityID          string         `json:"entityId" db:"entity_id"`
	FieldName         string         `json:"fieldName" db:"field_name"`
	OldValue          string         `json:"oldValue" db:"old_value"`
	NewValue          string         `json:"newValue" db:"new_value"`
	OldValueLength    int            `json:"oldValueLength,omitempty" db:"old_value_length"`
	NewValueLength    int            `json:"newValueLength,omitempty" db:"new_value_length"`
	OldValueTruncated bool           `json:"oldValueTruncated,omitempty" db:"old_value_truncated"`
	NewValueTruncated bool           `json:"newValueTruncated,omitempty" db:"new_value_truncated"`
	ChangedBy         string         `json:"changedBy" db:"changed_by"`
	ChangedAt         time.Time      `json:"changedAt" db:"changed_at"`
	ChangeType        ChangeType     `json:"changeType" db:"change_type"`
	Reason            string         `json:"reason,omitempty" db:"reason"`
	Tracked           bool           `json:"tracked" db:"tracked"`
	LatencyMinutes    *int           `json:"latencyMinutes,omitempty" db:"latency_minutes"`
	RetentionUntil    *time.Time     `json:"retentionUntil,omitempty" db:"retention_until"`
	PolicyID          string         `json:"policyId,omitempty" db:"policy_id"`
}

// FieldDiff represents a change in a single field
type FieldDiff struct {
	FieldName string `json:"field_name"`
	OldValue  string `json:"old_value"`
	NewValue  string `json:"new_value"`
}

// TrackFilter selects entries by their tracked flag
type TrackFilter string

const (
	TrackAll       TrackFilter = ""
	TrackTracked   TrackFilter = "TRACKED"
	TrackUntracked TrackFilter = "UNTRACKED"
)

// ChangeLogQuery represents query parameters for retrieving change log entries
type ChangeLogQuery struct {
	EntityType crm.EntityType
	EntityID   string
	ChangeType ChangeType
	Tracked    TrackFilter
	ChangedBy  string
	StartDate  time.Time
	EndDate    time.Time
	Limit      int
	Offset     int
}

// Matches reports whether entry satisfies every filter set on q
func (q ChangeLogQuery) Matches(entry ChangeLogEntry) bool {
	if q.EntityType != "" && entry.EntityType != q.EntityType {
		return false
	}
	if q.EntityID != "" && entry.EntityID != q.EntityID {
		return false
	}
	if q.ChangeType != "" && entry.ChangeType != q.ChangeType {
		return false
	}
	switch q.Tracked {
	case TrackTracked:
		if !entry.Tracked {
			return false
		}
	case TrackUntracked:
		if entry.Tracked {
			return false
		}
	}
	if q.ChangedBy != "" && entry.ChangedBy != q.ChangedBy {
		return false
	}
	if !q.StartDate.IsZero() && entry.ChangedAt.Before(q.StartDate) {
		return false
	}
	if !q.EndDate.IsZero() && entry.ChangedAt.After(q.EndDate) {
		return false
	}
	return true
}

// ChangeLogQueryResult wraps query results with metadata
type ChangeLogQueryResult struct {
	Total   int64            `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
	Records []ChangeLogEntry `json:"records"`
}

// EntityChangeHistory represents the full history of an entity
type EntityChangeHistory struct {
	EntityType    crm.EntityType       `json:"entityType"`
	EntityID      string               `json:"entityId"`
	ChangeCount   int64                `json:"changeCount"`
	FirstChange   time.Time            `json:"firstChange"`
	LastChange    time.Time            `json:"lastChange"`
	ChangedByList []string             `json:"changedByList"`
	ChangeTypes   map[ChangeType]int64 `json:"changeTypes"`
	Changes       []ChangeLogEntry     `json:"changes"`
}

// AuditStats represents rollups over a set of change log entries
type AuditStats struct {
	TotalRecords      int64                `json:"totalRecords"`
	ChangeTypeCounts  map[ChangeType]int64 `json:"changeTypeCounts"`
	UniqueUsers       int64                `json:"uniqueUsers"`
	UniqueEntities    int64                `json:"uniqueEntities"`
	CoveragePercent   int                  `json:"coveragePercent"`
	AverageLatencyMin int                  `json:"averageLatencyMinutes"`
}

// BuildHistory folds entries into an EntityChangeHistory. Entries are expected
// most-recent-first and are kept in that order.
func BuildHistory(entityType crm.EntityType, entityID string, entries []ChangeLogEntry) *EntityChangeHistory {
	history := &EntityChangeHistory{
		EntityType:    entityType,
		EntityID:      entityID,
		ChangedByList: []string{},
		ChangeTypes:   make(map[ChangeType]int64),
		Changes:       []ChangeLogEntry{},
	}

	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.EntityType != entityType || entry.EntityID != entityID {
			continue
		}
		history.Changes = append(history.Changes, entry)
		history.ChangeCount++
		history.ChangeTypes[entry.ChangeType]++

		if entry.ChangedBy != "" && !seen[entry.ChangedBy] {
			seen[entry.ChangedBy] = true
			history.ChangedByList = append(history.ChangedByList, entry.ChangedBy)
		}
		if history.FirstChange.IsZero() || entry.ChangedAt.Before(history.FirstChange) {
			history.FirstChange = entry.ChangedAt
		}
		if entry.ChangedAt.After(history.LastChange) {
			history.LastChange = entry.ChangedAt
		}
	}
	return history
}

// BuildStats computes dashboard rollups for entries
func BuildStats(entries []ChangeLogEntry) *AuditStats {
	stats := &AuditStats{ChangeTypeCounts: make(map[ChangeType]int64)}
	users := make(map[string]bool)
	entities := make(map[string]bool)
	var tracked, latencyCount, latencySum int

	for _, entry := range entries {
		stats.TotalRecords++
		stats.ChangeTypeCounts[entry.ChangeType]++
		if entry.ChangedBy != "" {
			users[entry.ChangedBy] = true
		}
		entities[string(entry.EntityType)+":"+entry.EntityID] = true
		if entry.Tracked {
			tracked++
		}
		if entry.LatencyMinutes != nil {
			latencyCount++
			latencySum += *entry.LatencyMinutes
		}
	}

	stats.UniqueUsers = int64(len(users))
	stats.UniqueEntities = int64(len(entities))
	if stats.TotalRecords > 0 {
		stats.CoveragePercent = roundDiv(tracked*100, int(stats.TotalRecords))
	}
	if latencyCount > 0 {
		stats.AverageLatencyMin = roundDiv(latencySum, latencyCount)
	}
	return stats
}

func roundDiv(a, b int) int {
	return (2*a + b) / (2 * b)
}
