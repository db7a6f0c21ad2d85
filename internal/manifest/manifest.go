// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest persists per-URL download outcomes in a SQLite
// database, one row per URL per run, so repeated runs leave an audit
// trail of what was fetched, skipped, and failed.
package manifest

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/memo-combiner/internal/download"
)

// Store manages the download manifest database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the manifest database at path, creating the
// schema and the parent directory if they do not exist.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating manifest directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening manifest database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS downloads (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			url TEXT NOT NULL,
			status TEXT NOT NULL,
			local_path TEXT,
			bytes INTEGER,
			reason TEXT,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_downloads_url ON downloads(url)`,
		`CREATE INDEX IF NOT EXISTS idx_downloads_status ON downloads(status)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordBatch inserts one row per outcome. Successful outcomes record
// the byte size of the local file when it can be measured.
func (s *Store) RecordBatch(outcomes []download.Outcome) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO downloads (url, status, local_path, bytes, reason, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, o := range outcomes {
		var size int64
		if o.LocalPath != "" {
			if info, err := os.Stat(o.LocalPath); err == nil {
				size = info.Size()
			}
		}
		if _, err := stmt.Exec(o.URL, string(o.Status), o.LocalPath, size, o.Reason, now); err != nil {
			return fmt.Errorf("recording outcome for %s: %w", o.URL, err)
		}
	}
	return tx.Commit()
}

// Entry is one recorded download outcome.
type Entry struct {
	URL        string
	Status     download.Status
	LocalPath  string
	Bytes      int64
	Reason     string
	RecordedAt time.Time
}

// History returns the recorded outcomes for url, most recent first.
func (s *Store) History(url string) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT url, status, local_path, bytes, reason, recorded_at
		 FROM downloads WHERE url = ? ORDER BY rowid DESC`, url)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Failures returns the URLs whose most recent recorded outcome is a
// failure, in recording order.
func (s *Store) Failures() ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT url, status, local_path, bytes, reason, recorded_at
		 FROM downloads
		 WHERE rowid IN (SELECT MAX(rowid) FROM downloads GROUP BY url)
		   AND status = ?
		 ORDER BY rowid`, string(download.StatusFailed))
	if err != nil {
		return nil, fmt.Errorf("querying failures: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var status, recordedAt string
		if err := rows.Scan(&e.URL, &status, &e.LocalPath, &e.Bytes, &e.Reason, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		e.Status = download.Status(status)
		if t, err := time.Parse(time.RFC3339, recordedAt); err == nil {
			e.RecordedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
