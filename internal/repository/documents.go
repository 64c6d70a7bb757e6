package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/venue-planner/internal/common"
)

const documentsTable = "planner_documents"

// DocumentRepository stores the shared state as one JSON document per id in
// Postgres. It is the Postgres backend for remote sync.
type DocumentRepository struct {
	drv    *entsql.Driver
	id     string
	logger *slog.Logger
}

func NewDocumentRepository(drv *entsql.Driver, documentID string, logger *slog.Logger) *DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentRepository{drv: drv, id: documentID, logger: logger}
}

// Migrate creates the documents table.
func (r *DocumentRepository) Migrate(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS planner_documents (
		id TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if err := r.drv.Exec(ctx, ddl, []any{}, nil); err != nil {
		return fmt.Errorf("create %s: %w", documentsTable, err)
	}
	return nil
}

func (r *DocumentRepository) Name() string { return "postgres" }

// Get returns the stored payload, or an error wrapping common.ErrNotFound.
func (r *DocumentRepository) Get(ctx context.Context) ([]byte, error) {
	query, args := entsql.Dialect(dialect.Postgres).
		Select("payload").
		From(entsql.Table(documentsTable)).
		Where(entsql.EQ("id", r.id)).
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("select document %s: %w", r.id, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("document %s: %w", r.id, common.ErrNotFound)
	}
	var payload []byte
	if err := rows.Scan(&payload); err != nil {
		return nil, fmt.Errorf("scan document %s: %w", r.id, err)
	}
	return payload, nil
}

// Put upserts the payload. Last write wins.
func (r *DocumentRepository) Put(ctx context.Context, payload []byte) error {
	query, args := entsql.Dialect(dialect.Postgres).
		Insert(documentsTable).
		Columns("id", "payload", "updated_at").
		Values(r.id, string(payload), time.Now().UTC()).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		r.logger.Debug("document.put.failed", "id", r.id, "error", err)
		return fmt.Errorf("upsert document %s: %w", r.id, err)
	}
	return nil
}

// Ping checks that the table is reachable.
func (r *DocumentRepository) Ping(ctx context.Context) error {
	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, "SELECT 1 FROM "+documentsTable+" LIMIT 1", []any{}, rows); err != nil {
		return fmt.Errorf("ping %s: %w", documentsTable, err)
	}
	return rows.Close()
}
