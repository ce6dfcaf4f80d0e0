package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/splunk-upgrade-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Per-connection pragmas only hold with a single connection.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	platform   TEXT NOT NULL,
	stage      TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	summary    TEXT,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS classifications (
	run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position        INTEGER NOT NULL,
	uid             TEXT NOT NULL,
	app_id          TEXT NOT NULL,
	app_name        TEXT NOT NULL,
	current_version TEXT NOT NULL,
	current_compat  TEXT NOT NULL,
	status          TEXT NOT NULL,
	upgrade_version TEXT,
	comment         TEXT NOT NULL,
	download_link   TEXT NOT NULL,
	latest_compat   TEXT NOT NULL,
	needs_review    INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_platform ON runs(platform);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_classifications_status ON classifications(run_id, status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, platform string, stage model.Stage) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, platform, stage, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, platform, string(stage), string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Platform:  platform,
		Stage:     stage,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET summary = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(summaryJSON), string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET error = ?, status = ?, updated_at = ? WHERE id = ?`,
		errMsg, string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, platform, stage, status, summary, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, platform, stage, status, summary, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Platform != "" {
		query += ` AND platform = ?`
		args = append(args, filter.Platform)
	}
	if filter.Stage != "" {
		query += ` AND stage = ?`
		args = append(args, string(filter.Stage))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SaveClassifications(ctx context.Context, runID string, results []model.ClassificationResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM classifications WHERE run_id = ?`, runID); err != nil {
		return eris.Wrapf(err, "sqlite: clear classifications for run %s", runID)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(classificationColumns)), ", ")
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO classifications (`+strings.Join(classificationColumns, ", ")+`) VALUES (`+placeholders+`)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare classification insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i, r := range results {
		if _, err := stmt.ExecContext(ctx, classificationRow(runID, i, r)...); err != nil {
			return eris.Wrapf(err, "sqlite: insert classification %d for run %s", i, runID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit classifications")
}

func (s *SQLiteStore) ListClassifications(ctx context.Context, runID string) ([]model.ClassificationResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT uid, app_id, app_name, current_version, current_compat, status, upgrade_version,
		        comment, download_link, latest_compat, needs_review
		 FROM classifications WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list classifications for run %s", runID)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.ClassificationResult
	for rows.Next() {
		var r model.ClassificationResult
		var status string
		var upgradeVersion sql.NullString
		if err := rows.Scan(&r.UID, &r.AppID, &r.AppName, &r.CurrentVersion, &r.CurrentVersionCompatibility,
			&status, &upgradeVersion, &r.Comment, &r.DownloadLink, &r.LatestVersionCompatibility, &r.NeedsReview); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan classification")
		}
		r.UpgradeStatus = model.ParseStatusKey(status)
		if upgradeVersion.Valid {
			v := upgradeVersion.String
			r.UpgradeVersion = &v
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list classifications iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var stage, status string
	var summaryJSON sql.NullString

	err := row.Scan(&r.ID, &r.Platform, &stage, &status, &summaryJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	r.Stage = model.Stage(stage)
	r.Status = model.RunStatus(status)

	if summaryJSON.Valid {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal([]byte(summaryJSON.String), r.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
	}
	return &r, nil
}
