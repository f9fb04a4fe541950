// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/research-writer/pkg/types"
)

// Summary is one row of a listing.
type Summary struct {
	ID        int64     `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Topic     string    `json:"topic" yaml:"topic"`
	Model     string    `json:"model" yaml:"model"`
	Rounds    int       `json:"rounds" yaml:"rounds"`
	Approved  bool      `json:"approved" yaml:"approved"`
}

const summaryColumns = `r.id, r.created_at, r.topic, r.model, r.rounds, r.approved`

// List returns the most recent runs first. A non-positive limit uses the
// store default.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+summaryColumns+` FROM runs r ORDER BY r.created_at DESC, r.id DESC LIMIT ?`,
		s.limit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return scanSummaries(rows)
}

// Search runs a full-text query over topics and reports, newest first.
// query uses SQLite MATCH syntax.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Summary, error) {
	if query == "" {
		return nil, errors.New("search query is empty")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+summaryColumns+`
		 FROM runs_fts JOIN runs r ON r.id = runs_fts.docid
		 WHERE runs_fts MATCH ?
		 ORDER BY r.created_at DESC, r.id DESC LIMIT ?`,
		query, s.limit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("searching runs: %w", err)
	}
	return scanSummaries(rows)
}

func (s *Store) limit(n int) int {
	if n <= 0 {
		return s.maxResults
	}
	return n
}

func scanSummaries(rows *sql.Rows) ([]Summary, error) {
	defer rows.Close()
	var out []Summary
	for rows.Next() {
		var (
			sum       Summary
			createdAt string
			model     sql.NullString
			rounds    sql.NullInt64
			approved  sql.NullBool
		)
		if err := rows.Scan(&sum.ID, &createdAt, &sum.Topic, &model, &rounds, &approved); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		sum.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		sum.Model = model.String
		sum.Rounds = int(rounds.Int64)
		sum.Approved = approved.Bool
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Get loads a full run record.
func (s *Store) Get(ctx context.Context, id int64) (*types.RunRecord, error) {
	var (
		rec       types.RunRecord
		createdAt string
		model     sql.NullString
		rounds    sql.NullInt64
		approved  sql.NullBool
		text      [4]sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, topic, model, rounds, approved, guidelines, notes, outline, report
		 FROM runs WHERE id = ?`, id,
	).Scan(&rec.ID, &createdAt, &rec.Topic, &model, &rounds, &approved,
		&text[0], &text[1], &text[2], &text[3])
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up run: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	rec.Model = model.String
	rec.Rounds = int(rounds.Int64)
	rec.Approved = approved.Bool
	rec.Guidelines, rec.Notes, rec.Outline, rec.Report = text[0].String, text[1].String, text[2].String, text[3].String

	if rec.Sections, err = s.sections(ctx, id); err != nil {
		return nil, err
	}
	if rec.Feedback, err = s.feedback(ctx, id); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) sections(ctx context.Context, id int64) ([]types.Section, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, content FROM sections WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("loading sections: %w", err)
	}
	defer rows.Close()

	var out []types.Section
	for rows.Next() {
		var sec types.Section
		var content sql.NullString
		if err := rows.Scan(&sec.Title, &content); err != nil {
			return nil, fmt.Errorf("scanning section: %w", err)
		}
		sec.Content = content.String
		out = append(out, sec)
	}
	return out, rows.Err()
}

func (s *Store) feedback(ctx context.Context, id int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT text FROM feedback WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("loading feedback: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var fb string
		if err := rows.Scan(&fb); err != nil {
			return nil, fmt.Errorf("scanning feedback: %w", err)
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}
