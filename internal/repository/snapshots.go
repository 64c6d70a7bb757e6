package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const (
	snapshotsTable = "snapshots"
	// LocalSnapshotID is the only row the local store writes.
	LocalSnapshotID = "current"
)

// SnapshotRecord is one stored snapshot row.
type SnapshotRecord struct {
	SchemaVersion int
	Payload       []byte
	SavedAt       time.Time
}

// SnapshotRepository is the local write-through store for the application state.
type SnapshotRepository interface {
	// Load returns the stored snapshot. ok is false when nothing was ever saved.
	Load(ctx context.Context) (rec SnapshotRecord, ok bool, err error)
	Save(ctx context.Context, rec SnapshotRecord) error
}

type snapshotRepo struct {
	drv    *entsql.Driver
	logger *slog.Logger
}

// NewSnapshotRepository creates the table if missing.
func NewSnapshotRepository(ctx context.Context, drv *entsql.Driver, logger *slog.Logger) (SnapshotRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ddl := `CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		schema_version INTEGER NOT NULL,
		payload BLOB NOT NULL,
		saved_at INTEGER NOT NULL
	)`
	if err := drv.Exec(ctx, ddl, []any{}, nil); err != nil {
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &snapshotRepo{drv: drv, logger: logger}, nil
}

func (r *snapshotRepo) Load(ctx context.Context) (SnapshotRecord, bool, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select("schema_version", "payload", "saved_at").
		From(entsql.Table(snapshotsTable)).
		Where(entsql.EQ("id", LocalSnapshotID)).
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		r.logger.Error("snapshot.load.failed", "error", err)
		return SnapshotRecord{}, false, fmt.Errorf("select snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return SnapshotRecord{}, false, rows.Err()
	}
	var (
		rec     SnapshotRecord
		savedAt int64
	)
	if err := rows.Scan(&rec.SchemaVersion, &rec.Payload, &savedAt); err != nil {
		return SnapshotRecord{}, false, fmt.Errorf("scan snapshot: %w", err)
	}
	rec.SavedAt = time.UnixMilli(savedAt).UTC()
	return rec, true, nil
}

func (r *snapshotRepo) Save(ctx context.Context, rec SnapshotRecord) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(snapshotsTable).
		Columns("id", "schema_version", "payload", "saved_at").
		Values(LocalSnapshotID, rec.SchemaVersion, rec.Payload, rec.SavedAt.UnixMilli()).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		r.logger.Error("snapshot.save.failed", "bytes", len(rec.Payload), "error", err)
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	r.logger.Debug("snapshot.saved", "bytes", len(rec.Payload), "schema_version", rec.SchemaVersion)
	return nil
}
