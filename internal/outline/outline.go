// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outline turns research notes into a post outline and the ordered
// list of sections to write.
package outline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/research-writer/internal/llm"
	"github.com/pdiddy/research-writer/pkg/types"
)

// DefaultSections is used when the model's reply cannot be parsed.
var DefaultSections = []string{"Introduction", "Main Body", "Conclusion"}

// Result is the generated outline with its planned sections. Section
// contents are always empty.
type Result struct {
	Outline  string
	Sections []types.Section
}

// Generator asks the model for an outline.
type Generator struct {
	Model llm.Model
	Out   io.Writer
}

// Reply is the JSON shape requested from the model.
type Reply struct {
	Outline  string   `json:"outline"`
	Sections []string `json:"sections"`
}

// Generate makes a structured request first. If that fails or does not parse,
// it makes a plain request and tries to read JSON from the reply; failing
// that, the raw reply becomes the outline and DefaultSections are planned.
// Only an error from the plain request is returned.
func (g *Generator) Generate(ctx context.Context, topic, guidelines, notes string) (Result, error) {
	g.logf("--- Generating Outline ---\n")

	structured, err := buildPrompt(topic, guidelines, notes, true)
	if err != nil {
		return Result{}, fmt.Errorf("rendering outline prompt: %w", err)
	}
	p, err := g.complete(ctx, structured)
	if err == nil {
		return newResult(p.Outline, p.Sections), nil
	}
	g.logf("Structured output failed: %v. Using raw text.\n", err)

	plain := structured
	plain.JSON = false
	raw, err := g.Model.Complete(ctx, plain)
	if err != nil {
		return Result{}, fmt.Errorf("generating outline: %w", err)
	}
	if p, perr := Parse(raw); perr == nil {
		return newResult(p.Outline, p.Sections), nil
	}
	return newResult(raw, nil), nil
}

func (g *Generator) complete(ctx context.Context, prompt llm.Prompt) (Reply, error) {
	reply, err := g.Model.Complete(ctx, prompt)
	if err != nil {
		return Reply{}, err
	}
	return Parse(reply)
}

var errNoObject = errors.New("no JSON object in reply")

// Parse reads the outline payload from a model reply, tolerating Markdown
// code fences and text around the object.
func Parse(reply string) (Reply, error) {
	body := stripFences(reply)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end < start {
		return Reply{}, errNoObject
	}
	var p Reply
	if err := json.Unmarshal([]byte(body[start:end+1]), &p); err != nil {
		return Reply{}, fmt.Errorf("parsing outline JSON: %w", err)
	}
	return p, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}

// newResult plans one section per non-blank title. An empty list falls back
// to DefaultSections.
func newResult(outline string, titles []string) Result {
	var sections []types.Section
	for _, t := range titles {
		if t = strings.TrimSpace(t); t != "" {
			sections = append(sections, types.Section{Title: t})
		}
	}
	if len(sections) == 0 {
		for _, t := range DefaultSections {
			sections = append(sections, types.Section{Title: t})
		}
	}
	return Result{Outline: outline, Sections: sections}
}

func (g *Generator) logf(format string, args ...any) {
	if g.Out != nil {
		fmt.Fprintf(g.Out, format, args...)
	}
}
