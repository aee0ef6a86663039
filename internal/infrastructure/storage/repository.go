// Package storage keeps the audit trail of finished reviews in SQLite or
// Postgres.
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"ComplianceReview/internal/config"
	"ComplianceReview/internal/domain"
	"ComplianceReview/internal/errors"
	"ComplianceReview/internal/ports"
)

//go:embed schema.sql
var schema string

const table = "review_audits"

// Repository persists workflow results keyed by the content digest of the
// submitted document. A Repository without a database accepts every write and
// reports nothing as processed.
type Repository struct {
	db    *sql.DB
	sb    sq.StatementBuilderType
	clock func() time.Time
}

var _ ports.AuditRepository = (*Repository)(nil)

// Open connects to the configured database and applies the schema. An empty
// DSN yields a Repository that stores nothing.
func Open(ctx context.Context, cfg config.StorageConfig) (*Repository, error) {
	if cfg.DSN == "" {
		return NewRepository(nil, cfg.Driver), nil
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", cfg.Driver)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "ping %s", cfg.Driver)
	}

	r := NewRepository(db, cfg.Driver)
	if err := r.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// NewRepository wires a sql.DB implementation. driver selects the placeholder
// style.
func NewRepository(db *sql.DB, driver string) *Repository {
	sb := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if driver == "postgres" {
		sb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return &Repository{db: db, sb: sb, clock: time.Now}
}

// Migrate creates the audit table when missing.
func (r *Repository) Migrate(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	return nil
}

// Close releases the connection pool.
func (r *Repository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// AlreadyProcessed returns a map with digests that already exist in storage.
func (r *Repository) AlreadyProcessed(ctx context.Context, digests []string) (map[string]bool, error) {
	if r.db == nil || len(digests) == 0 {
		return map[string]bool{}, nil
	}

	rows, err := r.sb.Select("digest").
		From(table).
		Where(sq.Eq{"digest": digests}).
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "query processed")
	}

	result := make(map[string]bool)
	for rows.Next() {
		var digest string
		if err := rows.Scan(&digest); err != nil {
			_ = rows.Close()
			return nil, errors.Wrap(err, "scan digest")
		}
		result[digest] = true
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, errors.Wrap(rowsErr, "rows iteration")
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, errors.Wrap(closeErr, "close rows")
	}

	return result, nil
}

// Save upserts the workflow snapshot for digest.
func (r *Repository) Save(ctx context.Context, digest string, result domain.WorkflowResult) error {
	if r.db == nil {
		return nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "marshal result")
	}

	var (
		score sql.NullFloat64
		level string
	)
	if result.Risk != nil {
		score = sql.NullFloat64{Float64: result.Risk.OverallScore, Valid: true}
		level = string(result.Risk.Level)
	}
	now := r.clock().UTC()
	processed := now
	if result.CompletedAt != nil {
		processed = result.CompletedAt.UTC()
	}

	_, err = r.sb.Insert(table).
		Columns("digest", "submission_id", "source_path", "state", "overall_status", "failed_stage",
			"risk_score", "risk_level", "notified", "result", "processed_at", "updated_at").
		Values(digest, result.SubmissionID, result.SourcePath, string(result.State), string(result.OverallStatus),
			string(result.FailedStage), score, level, result.NotificationSent, string(payload), processed, now).
		Suffix(`ON CONFLICT (digest) DO UPDATE
              SET submission_id = EXCLUDED.submission_id,
                  source_path = EXCLUDED.source_path,
                  state = EXCLUDED.state,
                  overall_status = EXCLUDED.overall_status,
                  failed_stage = EXCLUDED.failed_stage,
                  risk_score = EXCLUDED.risk_score,
                  risk_level = EXCLUDED.risk_level,
                  notified = EXCLUDED.notified,
                  result = EXCLUDED.result,
                  processed_at = EXCLUDED.processed_at,
                  updated_at = EXCLUDED.updated_at`).
		RunWith(r.db).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrap(err, "upsert audit")
	}

	return nil
}

// Load returns the stored result for digest.
func (r *Repository) Load(ctx context.Context, digest string) (domain.WorkflowResult, error) {
	var res domain.WorkflowResult
	if r.db == nil {
		return res, errors.Mark(errors.Newf("audit %s: storage disabled", digest), errors.ErrNotFound)
	}

	var payload string
	err := r.sb.Select("result").
		From(table).
		Where(sq.Eq{"digest": digest}).
		RunWith(r.db).
		QueryRowContext(ctx).
		Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return res, errors.Mark(errors.Newf("audit %s", digest), errors.ErrNotFound)
	}
	if err != nil {
		return res, errors.Wrap(err, "query audit")
	}
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return res, errors.Wrap(err, "decode audit")
	}
	return res, nil
}
