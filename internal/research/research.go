// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research runs the orchestrator/search loop that builds the notes
// a post is written from.
//
// Each iteration is two steps. The orchestrator asks the model for the next
// search query or DONE. The search step runs the query and has the model
// fold the results into the notes. The loop stops on DONE or once
// MaxIterations searches have completed.
package research

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/research-writer/internal/httputil"
	"github.com/pdiddy/research-writer/internal/llm"
	"github.com/pdiddy/research-writer/pkg/types"
)

// Done is the orchestrator reply that ends the loop.
const Done = "DONE"

const (
	DefaultMaxIterations = 5
	DefaultDelay         = 15 * time.Second
)

// Searcher runs a web query and returns text for the notes. Failures are
// reported in the returned text rather than as errors.
type Searcher interface {
	Run(ctx context.Context, query string) string
}

// Researcher drives the loop. Zero MaxIterations means DefaultMaxIterations.
type Researcher struct {
	Model         llm.Model
	Search        Searcher
	MaxIterations int

	// Delay is slept before every orchestrator and search step.
	Delay time.Duration

	Out io.Writer
}

// New builds a Researcher from cfg.
func New(model llm.Model, search Searcher, cfg types.ResearchConfig, w io.Writer) *Researcher {
	return &Researcher{
		Model:         model,
		Search:        search,
		MaxIterations: cfg.MaxIterations,
		Delay:         cfg.Delay,
		Out:           w,
	}
}

// Run executes the loop starting from state and returns the final state.
// Model errors abort the loop; search failures do not.
func (r *Researcher) Run(ctx context.Context, state types.ResearchState) (types.ResearchState, error) {
	for {
		query, err := r.orchestrate(ctx, state)
		if err != nil {
			return state, err
		}
		state.Query = query
		if query == Done {
			return state, nil
		}

		if state, err = r.search(ctx, state); err != nil {
			return state, err
		}
	}
}

func (r *Researcher) maxIterations() int {
	if r.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return r.MaxIterations
}

// orchestrate decides the next query. Once the ceiling is reached it
// returns Done without consulting the model.
func (r *Researcher) orchestrate(ctx context.Context, state types.ResearchState) (string, error) {
	if err := httputil.Sleep(ctx, r.Delay); err != nil {
		return "", err
	}
	r.logf("--- Research Orchestrator (Iteration %d) ---\n", state.Iterations)

	if state.Iterations >= r.maxIterations() {
		return Done, nil
	}

	prompt, err := orchestratorPrompt(state.Guidelines, state.Notes)
	if err != nil {
		return "", fmt.Errorf("rendering orchestrator prompt: %w", err)
	}
	reply, err := r.Model.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("choosing next query: %w", err)
	}
	return NormalizeQuery(reply), nil
}

// search runs one query and folds the results into the notes.
func (r *Researcher) search(ctx context.Context, state types.ResearchState) (types.ResearchState, error) {
	if err := httputil.Sleep(ctx, r.Delay); err != nil {
		return state, err
	}
	r.logf("--- Performing Search: %s ---\n", state.Query)

	results := r.Search.Run(ctx, state.Query)

	prompt, err := synthesisPrompt(state.Notes, state.Query, results)
	if err != nil {
		return state, fmt.Errorf("rendering synthesis prompt: %w", err)
	}
	notes, err := r.Model.Complete(ctx, prompt)
	if err != nil {
		return state, fmt.Errorf("updating notes for %q: %w", state.Query, err)
	}

	state.Notes = notes
	state.RawNotes += fmt.Sprintf("\n\nQuery: %s\nResult: %s", state.Query, results)
	state.Iterations++
	return state, nil
}

// NormalizeQuery trims the orchestrator reply. Replies that are empty or
// spell DONE (any case, optionally quoted or followed by a period) become Done.
func NormalizeQuery(reply string) string {
	q := strings.TrimSpace(reply)
	q = strings.Trim(q, "\"'`")
	q = strings.TrimSpace(q)
	if q == "" || strings.EqualFold(strings.TrimSuffix(q, "."), Done) {
		return Done
	}
	return q
}

func (r *Researcher) logf(format string, args ...any) {
	if r.Out != nil {
		fmt.Fprintf(r.Out, format, args...)
	}
}
