// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package writer drafts the planned sections in parallel. Each section is one
// independent model call; finished sections are collected in arrival order
// and the compile step restores the planned order.
package writer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"text/template"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-writer/internal/httputil"
	"github.com/pdiddy/research-writer/internal/llm"
	"github.com/pdiddy/research-writer/pkg/types"
)

const systemPrompt = "You are a blog writer. Write a blog section based on the title and research notes."

var userTmpl = template.Must(template.New("section").Parse(
	`Title: {{.Title}}
Guidelines: {{.Guidelines}}
Notes: {{.Notes}}

Write the content for this section.`))

// Writer fans out one task per section.
type Writer struct {
	Model llm.Model

	// Delay is slept at the start of every task.
	Delay time.Duration

	// Concurrency bounds the tasks in flight. Zero runs all of them at once.
	Concurrency int

	Out io.Writer
}

// New builds a Writer from cfg.
func New(model llm.Model, cfg types.WriterConfig, w io.Writer) *Writer {
	return &Writer{Model: model, Delay: cfg.Delay, Concurrency: cfg.Concurrency, Out: w}
}

// WriteAll writes every title and returns the sections in the order they
// finished. The first failure cancels the remaining tasks and is returned.
func (w *Writer) WriteAll(ctx context.Context, titles []string, notes, guidelines string) ([]types.Section, error) {
	g, gctx := errgroup.WithContext(ctx)
	if w.Concurrency > 0 {
		g.SetLimit(w.Concurrency)
	}

	ch := make(chan types.Section, len(titles))
	for _, title := range titles {
		g.Go(func() error {
			s, err := w.Write(gctx, title, notes, guidelines)
			if err != nil {
				return err
			}
			ch <- s
			return nil
		})
	}
	err := g.Wait()
	close(ch)
	if err != nil {
		return nil, err
	}

	completed := make([]types.Section, 0, len(titles))
	for s := range ch {
		completed = append(completed, s)
	}
	return completed, nil
}

// Write drafts a single section.
func (w *Writer) Write(ctx context.Context, title, notes, guidelines string) (types.Section, error) {
	if err := httputil.Sleep(ctx, w.Delay); err != nil {
		return types.Section{}, err
	}
	if w.Out != nil {
		fmt.Fprintf(w.Out, "--- Writing Section: %s ---\n", title)
	}

	var buf bytes.Buffer
	err := userTmpl.Execute(&buf, map[string]string{
		"Title":      title,
		"Guidelines": guidelines,
		"Notes":      notes,
	})
	if err != nil {
		return types.Section{}, fmt.Errorf("rendering section prompt: %w", err)
	}

	content, err := w.Model.Complete(ctx, llm.Prompt{System: systemPrompt, User: buf.String()})
	if err != nil {
		return types.Section{}, fmt.Errorf("writing section %q: %w", title, err)
	}
	return types.Section{Title: title, Content: content}, nil
}
