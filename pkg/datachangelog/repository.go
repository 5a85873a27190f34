package datachangelog

import (
	"context"
	"time"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
)

// Repository defines the interface for archiving and retrieving change log entries
type Repository interface {
	// Save persists a single change log entry
	Save(ctx context.Context, entry *ChangeLogEntry) error

	// SaveBatch persists multiple change log entries in a single operation
	SaveBatch(ctx context.Context, entries []ChangeLogEntry) error

	// Query retrieves entries based on query parameters, most-recent-first
	Query(ctx context.Context, query *ChangeLogQuery) (*ChangeLogQueryResult, error)

	// GetEntityHistory retrieves the complete change history for an entity
	GetEntityHistory(ctx context.Context, entityType crm.EntityType, entityID string) (*EntityChangeHistory, error)

	// DeleteOlderThan deletes entries changed before date. An empty entityType matches all.
	DeleteOlderThan(ctx context.Context, entityType crm.EntityType, date time.Time) error

	// GetStats returns rollups over entries changed between startDate and endDate
	GetStats(ctx context.Context, entityType crm.EntityType, startDate, endDate time.Time) (*AuditStats, error)

	// Close releases the repository resources, flushing pending writes
	Close() error

	// Health checks if the repository is healthy and accessible
	Health(ctx context.Context) error
}

// BatchWriter handles asynchronous batch writing of change log entries
type BatchWriter interface {
	// Write queues an entry for batch writing
	Write(entry *ChangeLogEntry) error

	// Close gracefully closes the writer, flushing any pending writes
	Close() error

	// Status returns the current status of the writer
	Status() BatchWriterStatus
}

// BatchWriterStatus represents the current status of a batch writer
type BatchWriterStatus struct {
	IsRunning      bool
	QueueSize      int
	ProcessedCount int64
	FailedCount    int64
	LastFlushTime  time.Time
}
