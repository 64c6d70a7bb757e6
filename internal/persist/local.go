// Package persist writes every committed state to the local snapshot store
// and restores it on startup.
package persist

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/venue-planner/internal/entity"
	"github.com/joseph-ayodele/venue-planner/internal/repository"
	"github.com/joseph-ayodele/venue-planner/internal/snapshot"
	"github.com/joseph-ayodele/venue-planner/internal/state"
)

type Local struct {
	repo   repository.SnapshotRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewLocal(repo repository.SnapshotRepository, logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{repo: repo, logger: logger, now: time.Now}
}

// Load restores the last snapshot. A missing, unreadable or corrupt snapshot
// yields an empty state; the failure is logged and never returned.
func (l *Local) Load(ctx context.Context) entity.ApplicationState {
	rec, ok, err := l.repo.Load(ctx)
	if err != nil {
		l.logger.Error("persist.load.failed", "error", err)
		return entity.ApplicationState{Venues: []entity.Venue{}, Vendors: []entity.Vendor{}}
	}
	if !ok {
		l.logger.Info("persist.load.empty")
		return entity.ApplicationState{Venues: []entity.Venue{}, Vendors: []entity.Vendor{}}
	}
	st, from, err := snapshot.Decode(rec.Payload)
	if err != nil {
		l.logger.Error("persist.load.corrupt", "error", err, "bytes", len(rec.Payload))
		st, _ = snapshot.DecodeOrEmpty(nil)
		return st
	}
	if from != snapshot.CurrentVersion {
		l.logger.Info("persist.load.upgraded", "from", from, "to", snapshot.CurrentVersion)
	}
	l.logger.Info("persist.load.ok", "venues", len(st.Venues), "vendors", len(st.Vendors), "saved_at", rec.SavedAt)
	return st
}

// Save writes st. Errors are logged; the in-memory state stays authoritative.
func (l *Local) Save(ctx context.Context, st entity.ApplicationState) error {
	now := l.now()
	payload, err := snapshot.Encode(st, now)
	if err != nil {
		l.logger.Error("persist.save.encode_failed", "error", err)
		return err
	}
	if err := l.repo.Save(ctx, repository.SnapshotRecord{
		SchemaVersion: snapshot.CurrentVersion,
		Payload:       payload,
		SavedAt:       now,
	}); err != nil {
		l.logger.Error("persist.save.failed", "error", err)
		return err
	}
	return nil
}

// Subscriber persists every commit, whatever its origin.
func (l *Local) Subscriber() state.Subscriber {
	return func(ctx context.Context, c state.Change) {
		_ = l.Save(ctx, c.State)
	}
}
