package remotestore

import (
	"context"

	"go.uber.org/zap"

	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
	"github.com/jecitDev/jec-salesgrid/pkg/logger"
)

// ArchivingStore decorates a Store, copying every recorded change to a change
// log archive. Archive failures are logged and never returned.
type ArchivingStore struct {
	Store
	repo   datachangelog.Repository
	writer datachangelog.BatchWriter
	log    *zap.Logger
}

// NewArchivingStore wraps next. When writer is non-nil, entries are queued on
// it instead of being saved synchronously to repo. next may be nil, in which
// case only archiving happens and the remaining operations are no-ops.
func NewArchivingStore(next Store, repo datachangelog.Repository, writer datachangelog.BatchWriter, log *zap.Logger) *ArchivingStore {
	if next == nil {
		next = nopStore{}
	}
	return &ArchivingStore{Store: next, repo: repo, writer: writer, log: logger.OrNop(log)}
}

func (a *ArchivingStore) RecordChange(ctx context.Context, entry datachangelog.ChangeLogEntry) error {
	if err := a.Store.RecordChange(ctx, entry); err != nil {
		return err
	}
	a.archive(ctx, entry)
	return nil
}

func (a *ArchivingStore) archive(ctx context.Context, entry datachangelog.ChangeLogEntry) {
	var err error
	switch {
	case a.writer != nil:
		err = a.writer.Write(&entry)
	case a.repo != nil:
		err = a.repo.Save(ctx, &entry)
	default:
		return
	}
	if err != nil {
		a.log.Error("failed to archive change log entry",
			zap.String("id", entry.ID),
			zap.String("entity_type", string(entry.EntityType)),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err))
	}
}

// Close flushes the batch writer and closes the archive repository
func (a *ArchivingStore) Close() error {
	if a.writer != nil {
		if err := a.writer.Close(); err != nil {
			return err
		}
	}
	if a.repo != nil {
		return a.repo.Close()
	}
	return nil
}
