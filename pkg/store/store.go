// Package store persists finished reports and a sqlite index of runs, so a
// re-run of the same week skips (paper, backend) pairs that already
// completed.
package store

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store owns the run index and the report files under dir.
type Store struct {
	db  *sql.DB
	dir string
}

// Open creates dir if needed and opens the run index inside it.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "paperweek.db"))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &Store{db: db, dir: dir}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		paper_id    TEXT NOT NULL,
		backend     TEXT NOT NULL,
		week        TEXT NOT NULL,
		status      TEXT NOT NULL,
		error       TEXT,
		report_path TEXT,
		finished_at INTEGER,
		PRIMARY KEY (paper_id, backend)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_week ON runs(week);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Completed reports whether a report for (paperID, backend) already exists.
func (s *Store) Completed(paperID, backend string) bool {
	var status string
	err := s.db.QueryRow(
		`SELECT status FROM runs WHERE paper_id = ? AND backend = ?`,
		paperID, backend,
	).Scan(&status)
	return err == nil && status == "completed"
}

// SaveReport writes the report file under the week folder and records the
// run as completed. Returns the report path.
func (s *Store) SaveReport(week, paperID, backend, report string) (string, error) {
	weekDir := filepath.Join(s.dir, week)
	if err := os.MkdirAll(weekDir, 0755); err != nil {
		return "", fmt.Errorf("create week dir: %w", err)
	}

	path := filepath.Join(weekDir, fmt.Sprintf("%s.%s.md", paperID, backend))
	if err := os.WriteFile(path, []byte(report), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	_, err := s.db.Exec(`
		INSERT INTO runs (paper_id, backend, week, status, error, report_path, finished_at)
		VALUES (?, ?, ?, 'completed', NULL, ?, ?)
		ON CONFLICT (paper_id, backend) DO UPDATE SET
			week = excluded.week,
			status = 'completed',
			error = NULL,
			report_path = excluded.report_path,
			finished_at = excluded.finished_at
	`, paperID, backend, week, path, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}

	log.Printf("[Store] saved report %s", path)
	return path, nil
}

// MarkFailed records a failed run with its cause. A later successful run
// overwrites it.
func (s *Store) MarkFailed(week, paperID, backend, cause string) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (paper_id, backend, week, status, error, report_path, finished_at)
		VALUES (?, ?, ?, 'failed', ?, NULL, ?)
		ON CONFLICT (paper_id, backend) DO UPDATE SET
			week = excluded.week,
			status = 'failed',
			error = excluded.error,
			finished_at = excluded.finished_at
	`, paperID, backend, week, cause, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return nil
}

// WeekReports returns the report paths recorded for a week, for the digest
// listing.
func (s *Store) WeekReports(week string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT report_path FROM runs WHERE week = ? AND status = 'completed' ORDER BY paper_id, backend`,
		week,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
