package orchestrator

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jecitDev/jec-salesgrid/pkg/remotestore"
)

// Bootstrap loads the local state from the remote snapshot, then runs the
// retention sweep. Without a remote store or snapshot source, or when the snapshot cannot be
// fetched, the demo fixtures are loaded instead.
func (e *Engine) Bootstrap(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var snapshot *remotestore.Snapshot
	if e.remote != nil {
		var err error
		snapshot, err = e.remote.FetchSnapshot(ctx)
		if errors.Is(err, remotestore.ErrNoSnapshot) {
			snapshot, err = nil, nil
		}
		if err != nil {
			e.log.Warn("failed to fetch remote snapshot, using demo data", zap.Error(err))
			e.notify(ctx, "Could not load server data, showing demo data", SeverityInfo)
			snapshot = nil
		}
	}
	if snapshot == nil {
		snapshot = Fixtures(e.now())
	}

	e.load(snapshot)
	e.pruneRetention(e.now())
	e.log.Info("state loaded",
		zap.Int("companies", len(snapshot.Companies)),
		zap.Int("contacts", len(snapshot.Contacts)),
		zap.Int("deals", len(snapshot.Deals)),
		zap.Int("activities", len(snapshot.Activities)),
		zap.Int("change_logs", len(snapshot.ChangeLogs)),
		zap.Int("approvals", len(snapshot.Approvals)))
	return nil
}

func (e *Engine) load(snapshot *remotestore.Snapshot) {
	e.state.Load(snapshot.Companies, snapshot.Contacts, snapshot.Deals, snapshot.Activities)
	e.logs.Load(snapshot.ChangeLogs)
	e.approvals.Load(snapshot.Approvals)
}
