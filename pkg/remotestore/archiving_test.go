package remotestore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
)

type recordingWriter struct {
	entries []datachangelog.ChangeLogEntry
	err     error
	closed  bool
}

func (w *recordingWriter) Write(entry *datachangelog.ChangeLogEntry) error {
	if w.err != nil {
		return w.err
	}
	w.entries = append(w.entries, *entry)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func (w *recordingWriter) Status() datachangelog.BatchWriterStatus {
	return datachangelog.BatchWriterStatus{ProcessedCount: int64(len(w.entries))}
}

func TestArchivingStoreSavesToRepository(t *testing.T) {
	ctx := context.Background()
	next := NewMemoryStore()
	repo := datachangelog.NewMemoryRepository()
	store := NewArchivingStore(next, repo, nil, zap.NewNop())

	entry := datachangelog.ChangeLogEntry{ID: "l-1", EntityType: crm.EntityCompany, EntityID: "c-1"}
	require.NoError(t, store.RecordChange(ctx, entry))

	assert.Equal(t, 1, repo.Count())
	assert.Equal(t, 1, next.Calls(OpRecordChange))

	require.NoError(t, store.Upsert(ctx, crm.Company{ID: "c-1"}))
	assert.Equal(t, 1, next.Calls(OpUpsert))
}

func TestArchivingStorePrefersBatchWriter(t *testing.T) {
	repo := datachangelog.NewMemoryRepository()
	writer := &recordingWriter{}
	store := NewArchivingStore(nil, repo, writer, nil)

	require.NoError(t, store.RecordChange(context.Background(), datachangelog.ChangeLogEntry{ID: "l-1"}))
	assert.Len(t, writer.entries, 1)
	assert.Equal(t, 0, repo.Count())

	require.NoError(t, store.Close())
	assert.True(t, writer.closed)
}

func TestArchivingStoreSwallowsArchiveErrors(t *testing.T) {
	writer := &recordingWriter{err: errors.New("queue full")}
	store := NewArchivingStore(NewMemoryStore(), nil, writer, nil)

	assert.NoError(t, store.RecordChange(context.Background(), datachangelog.ChangeLogEntry{ID: "l-1"}))
}

func TestArchivingStoreSkipsArchiveWhenRemoteFails(t *testing.T) {
	next := NewMemoryStore()
	next.Fail(OpRecordChange, nil)
	writer := &recordingWriter{}
	store := NewArchivingStore(next, nil, writer, nil)

	assert.ErrorIs(t, store.RecordChange(context.Background(), datachangelog.ChangeLogEntry{ID: "l-1"}), ErrInjected)
	assert.Empty(t, writer.entries)
}
