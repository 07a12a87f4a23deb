package telemetry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/LachlanMac/tacgrid/internal/tactics"
)

// Recorder persists headless simulation runs to a sqlite database so batches
// can be compared across balance changes.
type Recorder struct {
	db *sql.DB
}

// RunResult is the aggregate outcome of one headless run.
type RunResult struct {
	Scenario  string
	Seed      int64
	Ticks     int
	RedAlive  int
	BlueAlive int
	RedDead   int
	BlueDead  int
}

// Open creates (or appends to) a run database at path.
func Open(path string) (*Recorder, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Recorder{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scenario TEXT NOT NULL,
			seed INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			red_alive INTEGER NOT NULL,
			blue_alive INTEGER NOT NULL,
			red_dead INTEGER NOT NULL,
			blue_dead INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_scenario ON runs(scenario, seed);`,
		`CREATE TABLE IF NOT EXISTS events (
			run_id INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			agent TEXT NOT NULL,
			team TEXT NOT NULL,
			category TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT,
			num_val REAL NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_run_category ON events(run_id, category, key);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun stores one run plus its event log and returns the run id.
func (r *Recorder) RecordRun(res RunResult, events []tactics.SimLogEntry) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	out, err := tx.Exec(
		`INSERT INTO runs (scenario, seed, ticks, red_alive, blue_alive, red_dead, blue_dead, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.Scenario, res.Seed, res.Ticks,
		res.RedAlive, res.BlueAlive, res.RedDead, res.BlueDead,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	runID, err := out.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO events (run_id, tick, agent, team, category, key, value, num_val)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for _, e := range events {
		if _, err := stmt.Exec(runID, e.Tick, e.Agent, e.Team, e.Category, e.Key, e.Value, e.NumVal); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// ScenarioSummary is the aggregate over all recorded runs of one scenario.
type ScenarioSummary struct {
	Runs         int
	AvgRedAlive  float64
	AvgBlueAlive float64
}

// Summarize aggregates the recorded runs of a scenario.
func (r *Recorder) Summarize(scenario string) (ScenarioSummary, error) {
	var s ScenarioSummary
	row := r.db.QueryRow(
		`SELECT COUNT(*), COALESCE(AVG(red_alive), 0), COALESCE(AVG(blue_alive), 0)
		 FROM runs WHERE scenario = ?`, scenario)
	if err := row.Scan(&s.Runs, &s.AvgRedAlive, &s.AvgBlueAlive); err != nil {
		return s, err
	}
	return s, nil
}

// EventCount returns how many events of one category/key a run produced.
func (r *Recorder) EventCount(runID int64, category, key string) (int, error) {
	var n int
	row := r.db.QueryRow(
		`SELECT COUNT(*) FROM events WHERE run_id = ? AND category = ? AND key = ?`,
		runID, category, key)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Close flushes and closes the database.
func (r *Recorder) Close() error {
	return r.db.Close()
}
