// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history archives finished runs in a local SQLite database so past
// posts, their notes, and the feedback that shaped them can be listed,
// searched, and exported.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-writer/pkg/types"
)

const (
	dbFile            = "history.db"
	defaultMaxResults = 20
)

// ErrNotFound is returned when a run ID is not in the archive.
var ErrNotFound = errors.New("run not found")

// Store manages the history database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates dir/history.db and its schema.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("history directory is empty")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, dir: cfg.Dir, maxResults: maxResults}
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

// Dir returns the directory holding the database.
func (s *Store) Dir() string { return s.dir }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			topic TEXT NOT NULL,
			model TEXT,
			rounds INTEGER,
			approved INTEGER,
			guidelines TEXT,
			notes TEXT,
			outline TEXT,
			report TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS sections (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			content TEXT,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS feedback (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			text TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
		// Full-text index over topic and report; docid is the run ID.
		`CREATE VIRTUAL TABLE IF NOT EXISTS runs_fts USING fts4(topic, report)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record archives rec and returns its new ID. rec.ID is ignored.
func (s *Store) Record(ctx context.Context, rec types.RunRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (created_at, topic, model, rounds, approved, guidelines, notes, outline, report)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		createdAt.UTC().Format(time.RFC3339Nano), rec.Topic, rec.Model, rec.Rounds, rec.Approved,
		rec.Guidelines, rec.Notes, rec.Outline, rec.Report,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	for i, sec := range rec.Sections {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sections (run_id, position, title, content) VALUES (?, ?, ?, ?)`,
			id, i, sec.Title, sec.Content,
		); err != nil {
			return 0, fmt.Errorf("inserting section %q: %w", sec.Title, err)
		}
	}
	for i, fb := range rec.Feedback {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO feedback (run_id, position, text) VALUES (?, ?, ?)`, id, i, fb,
		); err != nil {
			return 0, fmt.Errorf("inserting feedback: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs_fts (docid, topic, report) VALUES (?, ?, ?)`, id, rec.Topic, rec.Report,
	); err != nil {
		return 0, fmt.Errorf("indexing run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// Delete removes a run with its sections, feedback, and index entry.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %d: %w", id, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs_fts WHERE docid = ?`, id); err != nil {
		return fmt.Errorf("removing run from index: %w", err)
	}
	return tx.Commit()
}
