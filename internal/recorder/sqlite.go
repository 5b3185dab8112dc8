package recorder

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while a run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS report_runs (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id          TEXT NOT NULL UNIQUE,
			started_at      INTEGER NOT NULL,
			duration_ms     INTEGER,
			total           INTEGER,
			fetched         INTEGER,
			failed          INTEGER,
			failed_ids      TEXT,
			outputs         TEXT,
			renderer_errors TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON report_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS series_snapshots (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id           TEXT NOT NULL,
			section          TEXT,
			series_id        TEXT NOT NULL,
			name             TEXT,
			last_date        TEXT,
			current          REAL,
			median           REAL,
			discount_premium REAL,
			sigma            REAL,
			returns          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_series ON series_snapshots(series_id, run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}

	// columns added after the first release
	for _, col := range []string{"discount_premium", "sigma"} {
		if err := r.addColumn("series_snapshots", col, "REAL"); err != nil {
			return err
		}
	}
	return nil
}

// addColumn adds a column unless the table already has it.
func (r *SQLiteRecorder) addColumn(table, column, typ string) error {
	rows, err := r.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, ctype      string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return fmt.Errorf("scan table info %s: %w", table, err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	if _, err := r.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, typ)); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(rec *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	failedIDs, err := marshalList(rec.FailedIDs)
	if err != nil {
		return err
	}
	outputs, err := marshalList(rec.Outputs)
	if err != nil {
		return err
	}
	rendererErrs, err := marshalList(rec.RendererErrors)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`INSERT INTO report_runs
		(run_id, started_at, duration_ms, total, fetched, failed, failed_ids, outputs, renderer_errors)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		rec.RunID, rec.StartedAt.Unix(), rec.Duration.Milliseconds(),
		rec.Total, rec.Fetched, len(rec.FailedIDs),
		failedIDs, outputs, rendererErrs,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", rec.RunID, err)
	}
	return nil
}

func (r *SQLiteRecorder) RecordSnapshots(snaps []Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO series_snapshots
		(run_id, section, series_id, name, last_date, current, median, discount_premium, sigma, returns)
		VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, s := range snaps {
		returns, err := json.Marshal(s.Returns)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("marshal returns for %s: %w", s.SeriesID, err)
		}
		if _, err := stmt.Exec(
			s.RunID, s.Section, s.SeriesID, s.Name,
			s.LastDate.Format("2006-01-02"), s.Current, s.Median, s.DiscountPremium, s.Sigma, string(returns),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert snapshot %s: %w", s.SeriesID, err)
		}
	}
	return tx.Commit()
}

// LastRun returns the most recent run, or nil when none is recorded.
func (r *SQLiteRecorder) LastRun() (*RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		rec                          RunRecord
		startedAt, durationMs        int64
		failedIDs, outputs, rendErrs string
	)
	err := r.db.QueryRow(`SELECT run_id, started_at, duration_ms, total, fetched,
		failed_ids, outputs, renderer_errors
		FROM report_runs ORDER BY started_at DESC, id DESC LIMIT 1`).
		Scan(&rec.RunID, &startedAt, &durationMs, &rec.Total, &rec.Fetched,
			&failedIDs, &outputs, &rendErrs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}

	rec.StartedAt = time.Unix(startedAt, 0)
	rec.Duration = time.Duration(durationMs) * time.Millisecond
	if err := unmarshalList(failedIDs, &rec.FailedIDs); err != nil {
		return nil, err
	}
	if err := unmarshalList(outputs, &rec.Outputs); err != nil {
		return nil, err
	}
	if err := unmarshalList(rendErrs, &rec.RendererErrors); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

func marshalList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal list: %w", err)
	}
	return string(b), nil
}

func unmarshalList(s string, dst *[]string) error {
	if s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), dst); err != nil {
		return fmt.Errorf("unmarshal list: %w", err)
	}
	return nil
}
