// Package store persists run history to SQLite so successive analysis
// runs stay comparable. The pipeline only writes here at the end of a
// run; nothing is read back mid-run.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/citydatalab/airhealth/internal/model"
)

// SQLiteStore implements run-history persistence using modernc.org/sqlite.
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
	id          TEXT PRIMARY KEY,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	config      TEXT NOT NULL,
	result      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_metrics (
	run_id          TEXT NOT NULL REFERENCES runs(id),
	geo             TEXT NOT NULL,
	level           TEXT NOT NULL,
	year            INTEGER NOT NULL,
	no2             REAL,
	o3              REAL,
	discharge_count REAL,
	population      REAL,
	rate_per_10k    REAL,
	matched         INTEGER NOT NULL,
	PRIMARY KEY (run_id, geo, level, year)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_run_metrics_run_id ON run_metrics(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Run is one persisted pipeline run.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Config     string // YAML snapshot of the run configuration
	Result     string // JSON result summary
}

// SaveRun records a completed run with its config snapshot and result
// summary, returning the generated run id.
func (s *SQLiteStore) SaveRun(ctx context.Context, started, finished time.Time, cfg any, result any) (string, error) {
	id := uuid.New().String()

	cfgYAML, err := yaml.Marshal(cfg)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal config snapshot")
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal run result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, config, result) VALUES (?, ?, ?, ?, ?)`,
		id, started.UTC(), finished.UTC(), string(cfgYAML), string(resultJSON),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert run")
	}
	return id, nil
}

// SaveMetrics persists the final joined dataset for a run.
func (s *SQLiteStore) SaveMetrics(ctx context.Context, runID string, metrics []model.AggregatedMetric) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin metrics tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_metrics (run_id, geo, level, year, no2, o3, discharge_count, population, rate_per_10k, matched)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare metrics insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, m := range metrics {
		if _, err := stmt.ExecContext(ctx,
			runID, m.Geo, string(m.Level), m.Year,
			nullableFloat(m.NO2), nullableFloat(m.O3),
			nullableFloat(m.DischargeCount), nullableFloat(m.Population),
			nullableFloat(m.RatePer10K), m.Matched,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert metric %s/%d", m.Geo, m.Year)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit metrics")
}

// ListRuns returns stored runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, config, result FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Config, &r.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// nullableFloat stores NaN as SQL NULL; NaN has no SQLite representation.
func nullableFloat(v float64) any {
	if v != v {
		return nil
	}
	return v
}
