package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/splunk-upgrade-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var runColumns = []string{"id", "platform", "stage", "status", "summary", "error", "created_at", "updated_at"}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS runs`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "indexer", "enrich", "running", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), "indexer", model.StageEnrich)
	require.NoError(t, err)
	assert.Len(t, run.ID, 36)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateRun_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "indexer", "enrich", "running", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	_, err := s.CreateRun(context.Background(), "indexer", model.StageEnrich)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: insert run")
	assert.Contains(t, err.Error(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET summary = \$1, status = \$2`).
		WithArgs(pgxmock.AnyArg(), "complete", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.CompleteRun(context.Background(), "run-1", &model.RunSummary{Total: 2}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET summary`).
		WithArgs(pgxmock.AnyArg(), "complete", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.CompleteRun(context.Background(), "missing", &model.RunSummary{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: complete run missing: run not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FailRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET error`).
		WithArgs("boom", "failed", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.FailRun(context.Background(), "missing", "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: fail run missing: run not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FailRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET error = \$1, status = \$2`).
		WithArgs("boom", "failed", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.FailRun(context.Background(), "run-1", "boom"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, platform, stage, status, summary, error, created_at, updated_at FROM runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows(runColumns).
			AddRow("run-1", "indexer", "plan", "complete", []byte(`{"total":4,"duration_ms":12}`), "", now, now))

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "indexer", run.Platform)
	assert.Equal(t, model.StagePlan, run.Stage)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Summary)
	assert.Equal(t, 4, run.Summary.Total)
	assert.Equal(t, int64(12), run.Summary.Duration)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_Filters(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM runs WHERE true AND platform = \$1 AND stage = \$2 AND status = \$3 ORDER BY created_at DESC LIMIT \$4 OFFSET \$5`).
		WithArgs("indexer", "plan", "complete", 5, 10).
		WillReturnRows(pgxmock.NewRows(runColumns).
			AddRow("run-1", "indexer", "plan", "complete", []byte(`{"total":1,"duration_ms":0}`), "", now, now).
			AddRow("run-2", "indexer", "plan", "complete", []byte(`{"total":2,"duration_ms":0}`), "", now, now))

	runs, err := s.ListRuns(context.Background(), RunFilter{
		Platform: "indexer",
		Stage:    model.StagePlan,
		Status:   model.RunStatusComplete,
		Limit:    5,
		Offset:   10,
	})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[1].ID)
	assert.Equal(t, 2, runs[1].Summary.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM runs WHERE true ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(DefaultListLimit).
		WillReturnRows(pgxmock.NewRows(runColumns))

	runs, err := s.ListRuns(context.Background(), RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveClassifications(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM classifications WHERE run_id = \$1`).
		WithArgs("run-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"classifications"}, classificationColumns).
		WillReturnResult(3)
	mock.ExpectCommit()

	require.NoError(t, s.SaveClassifications(context.Background(), "run-1", sampleResults()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveClassifications_CopyError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM classifications`).
		WithArgs("run-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"classifications"}, classificationColumns).
		WillReturnError(errors.New("copy failed"))
	mock.ExpectRollback()

	err := s.SaveClassifications(context.Background(), "run-1", sampleResults())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: save classifications for run run-1")
	assert.Contains(t, err.Error(), "copy failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListClassifications(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	upgrade := "6.4.0"
	mock.ExpectQuery(`FROM classifications WHERE run_id = \$1 ORDER BY position`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"uid", "app_id", "app_name", "current_version", "current_compat", "status", "upgrade_version",
			"comment", "download_link", "latest_compat", "needs_review",
		}).AddRow("1876", "Splunk_TA_aws", "AWS", "5.0.3", "8.1", "update_prior_to_upgrade", &upgrade,
			"Release 6.4.0 supports Splunk 8 and 9", "https://x", "9.0", false))

	got, err := s.ListClassifications(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.StatusUpdatePriorToUpgrade, got[0].UpgradeStatus)
	require.NotNil(t, got[0].UpgradeVersion)
	assert.Equal(t, "6.4.0", *got[0].UpgradeVersion)
	assert.NoError(t, mock.ExpectationsWereMet())
}
