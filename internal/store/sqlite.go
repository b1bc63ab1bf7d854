package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/billscan/internal/model"
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
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id                 TEXT PRIMARY KEY,
	keywords           TEXT NOT NULL,
	status             TEXT NOT NULL DEFAULT 'running',
	bills_found        INTEGER NOT NULL DEFAULT 0,
	duplicates_removed INTEGER NOT NULL DEFAULT 0,
	api_requests       INTEGER NOT NULL DEFAULT 0,
	failed_requests    INTEGER NOT NULL DEFAULT 0,
	output_path        TEXT,
	started_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at        DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, keywords []string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	kw, err := json.Marshal(keywords)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal keywords")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, keywords, status, started_at) VALUES (?, ?, ?, ?)`,
		id, string(kw), string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Keywords:  keywords,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, result RunResult) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs
		 SET status = ?, bills_found = ?, duplicates_removed = ?, api_requests = ?,
		     failed_requests = ?, output_path = ?, finished_at = ?
		 WHERE id = ?`,
		string(status), result.BillsFound, result.DuplicatesRemoved, result.APIRequests,
		result.FailedRequests, result.OutputPath, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: run %s not found", runID)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, keywords, status, bills_found, duplicates_removed, api_requests,
		        failed_requests, output_path, started_at, finished_at
		 FROM runs WHERE id = ?`, runID,
	)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, keywords, status, bills_found, duplicates_removed, api_requests,
		        failed_requests, output_path, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var out []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		out = append(out, *run)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (*model.Run, error) {
	var (
		run        model.Run
		kw         string
		status     string
		outputPath sql.NullString
		finishedAt sql.NullTime
	)

	err := r.Scan(&run.ID, &kw, &status, &run.BillsFound, &run.DuplicatesRemoved,
		&run.APIRequests, &run.FailedRequests, &outputPath, &run.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(kw), &run.Keywords); err != nil {
		return nil, eris.Wrap(err, "unmarshal keywords")
	}
	run.Status = model.RunStatus(status)
	if outputPath.Valid {
		run.OutputPath = outputPath.String
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
