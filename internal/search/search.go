// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search runs web searches for the research loop and formats the
// results as plain text for the notes.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/research-writer/pkg/types"
)

const defaultMaxResults = 5

// ErrNoBackends is returned when a Searcher has nothing to query.
var ErrNoBackends = errors.New("no search backends configured")

// Result is a single web search hit.
type Result struct {
	Title   string `json:"title" yaml:"title"`
	Link    string `json:"link" yaml:"link"`
	Snippet string `json:"snippet" yaml:"snippet"`
}

// Backend queries one search provider. Brave and DuckDuckGo implement it.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, max int) ([]Result, error)
}

// Searcher tries its backends in order and returns the first answer.
type Searcher struct {
	Backends   []Backend
	MaxResults int

	// Out receives fallback warnings. Nil discards them.
	Out io.Writer
}

// New builds a Searcher from cfg. Brave is tried first when a key is
// configured; DuckDuckGo is always the last resort.
func New(cfg types.SearchConfig, client *http.Client, w io.Writer) *Searcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	var backends []Backend
	if cfg.BraveAPIKey != "" {
		backends = append(backends, &BraveBackend{Client: client, APIKey: cfg.BraveAPIKey, UserAgent: cfg.UserAgent})
	}
	backends = append(backends, &DuckDuckGoBackend{Client: client, UserAgent: cfg.UserAgent})

	return &Searcher{
		Backends:   backends,
		MaxResults: cfg.MaxResults,
		Out:        w,
	}
}

// Search returns results from the first backend that answers without error.
// When every backend fails the errors are joined.
func (s *Searcher) Search(ctx context.Context, query string) ([]Result, error) {
	if len(s.Backends) == 0 {
		return nil, ErrNoBackends
	}
	max := s.MaxResults
	if max <= 0 {
		max = defaultMaxResults
	}

	var errs []error
	for _, b := range s.Backends {
		results, err := b.Search(ctx, query, max)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			if s.Out != nil {
				fmt.Fprintf(s.Out, "warning: %s search failed: %v\n", b.Name(), err)
			}
			continue
		}
		if len(results) > max {
			results = results[:max]
		}
		return results, nil
	}
	return nil, errors.Join(errs...)
}

// Run performs the search and returns text suitable for the notes prompt.
// It never fails: errors and empty result sets become the returned text.
func (s *Searcher) Run(ctx context.Context, query string) string {
	results, err := s.Search(ctx, query)
	if err != nil {
		return fmt.Sprintf("Search error: %v", err)
	}
	if len(results) == 0 {
		return "No results found."
	}
	return Format(results)
}

// Format renders results as Title/Link/Snippet blocks separated by blank lines.
func Format(results []Result) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("Title: %s\nLink: %s\nSnippet: %s", r.Title, r.Link, r.Snippet)
	}
	return strings.Join(blocks, "\n\n")
}

// collapse trims s and folds internal whitespace runs to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
