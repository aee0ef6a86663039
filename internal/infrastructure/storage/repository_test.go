package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ComplianceReview/internal/config"
	"ComplianceReview/internal/domain"
	"ComplianceReview/internal/errors"
)

func setupSQLite(t *testing.T) *Repository {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Every pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	r := NewRepository(db, "sqlite3")
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

func result(state domain.State, score float64) domain.WorkflowResult {
	done := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return domain.WorkflowResult{
		SubmissionID:  "sub-1",
		SourcePath:    "inbox/proposal.pdf",
		State:         state,
		OverallStatus: domain.RequiresReview,
		Risk:          &domain.RiskAssessment{OverallScore: score, Level: domain.RiskMedium},
		StartedAt:     done.Add(-time.Minute),
		CompletedAt:   &done,
	}
}

func TestRepositorySQLiteRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := setupSQLite(t)

	require.NoError(t, r.Save(ctx, "abc", result(domain.StateCompleted, 70)))
	require.NoError(t, r.Save(ctx, "abc", result(domain.StateCompleted, 82.5)))

	got, err := r.AlreadyProcessed(ctx, []string{"abc", "def"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"abc": true}, got)

	loaded, err := r.Load(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, loaded.Risk)
	assert.InDelta(t, 82.5, loaded.Risk.OverallScore, 1e-9)
	assert.Equal(t, "inbox/proposal.pdf", loaded.SourcePath)

	var rows int
	require.NoError(t, r.db.QueryRow("SELECT COUNT(*) FROM review_audits").Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestRepositoryLoadMissing(t *testing.T) {
	t.Parallel()

	_, err := setupSQLite(t).Load(context.Background(), "nope")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRepositoryMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	r := setupSQLite(t)
	assert.NoError(t, r.Migrate(context.Background()))
}

func TestRepositoryDisabled(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	r, err := Open(ctx, config.StorageConfig{Driver: "sqlite3"})
	require.NoError(t, err)
	assert.NoError(t, r.Save(ctx, "abc", result(domain.StateFailed, 0)))
	got, err := r.AlreadyProcessed(ctx, []string{"abc"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, r.Close())
}

func TestRepositoryPostgresPlaceholders(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := NewRepository(db, "postgres")

	mock.ExpectQuery(`SELECT digest FROM review_audits WHERE digest IN \(\$1,\$2\)`).
		WithArgs("a", "b").
		WillReturnRows(sqlmock.NewRows([]string{"digest"}).AddRow("b"))

	got, err := r.AlreadyProcessed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"b": true}, got)

	mock.ExpectExec(`INSERT INTO review_audits .* VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7,\$8,\$9,\$10,\$11,\$12\) ON CONFLICT \(digest\) DO UPDATE`).
		WithArgs("a", "sub-1", "inbox/proposal.pdf", "failed", "requires_review", "",
			float64(10), "medium", false,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, r.Save(context.Background(), "a", result(domain.StateFailed, 10)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositorySaveError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO review_audits`).WillReturnError(sql.ErrConnDone)

	err = NewRepository(db, "sqlite3").Save(context.Background(), "a", result(domain.StateCompleted, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert audit")
}
