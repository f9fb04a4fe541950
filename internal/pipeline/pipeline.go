// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the blog workflow end to end:
//
//	begin -> research -> outline -> write (fan-out) -> compile -> review
//
// A review that is not an approval sends the run back to begin, where the
// reviewer's feedback replaces the clarification. Notes carry across rounds;
// the research iteration count and written sections do not.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/pdiddy/research-writer/internal/approval"
	"github.com/pdiddy/research-writer/internal/draft"
	"github.com/pdiddy/research-writer/internal/llm"
	"github.com/pdiddy/research-writer/internal/outline"
	"github.com/pdiddy/research-writer/internal/research"
	"github.com/pdiddy/research-writer/internal/writer"
	"github.com/pdiddy/research-writer/pkg/types"
)

var (
	// ErrEmptyTopic is returned when Run is called without a topic.
	ErrEmptyTopic = errors.New("topic is empty")

	// ErrMaxRounds is returned with the last run state when the reviewer
	// has not approved within MaxRounds rounds.
	ErrMaxRounds = errors.New("no approval within the round limit")
)

// Researcher runs the research loop.
type Researcher interface {
	Run(ctx context.Context, state types.ResearchState) (types.ResearchState, error)
}

// Outliner plans the sections.
type Outliner interface {
	Generate(ctx context.Context, topic, guidelines, notes string) (outline.Result, error)
}

// SectionWriter writes every planned section.
type SectionWriter interface {
	WriteAll(ctx context.Context, titles []string, notes, guidelines string) ([]types.Section, error)
}

// Pipeline wires the steps together. Model drafts the guidelines; the other
// steps hold their own model.
type Pipeline struct {
	Model    llm.Model
	Research Researcher
	Outline  Outliner
	Writer   SectionWriter
	Reviewer approval.Reviewer

	// MaxRounds caps review rounds. Zero means no cap.
	MaxRounds int

	Out io.Writer
}

// New assembles a Pipeline whose steps share model.
func New(model llm.Model, search research.Searcher, reviewer approval.Reviewer, cfg types.PipelineConfig, w io.Writer) *Pipeline {
	return &Pipeline{
		Model:     model,
		Research:  research.New(model, search, cfg.Research, w),
		Outline:   &outline.Generator{Model: model, Out: w},
		Writer:    writer.New(model, cfg.Writer, w),
		Reviewer:  reviewer,
		MaxRounds: cfg.MaxRounds,
		Out:       w,
	}
}

const guidelinesSystem = "You are a helpful assistant assisting with blog post planning."

var guidelinesTmpl = template.Must(template.New("guidelines").Parse(
	`Topic: {{.Topic}}
Clarification: {{.Clarification}}

Please generate concise research guidelines for a blog post on this topic.`))

// Run drives rounds until the reviewer approves. The returned state is the
// last round's, also on error.
func (p *Pipeline) Run(ctx context.Context, topic string) (*types.RunState, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	run := &types.RunState{Topic: topic}
	for {
		run.Round++
		if err := p.round(ctx, run); err != nil {
			return run, err
		}

		decision, err := p.Reviewer.Review(ctx, run.Report)
		if err != nil {
			return run, fmt.Errorf("reviewing report: %w", err)
		}
		if decision.Approved {
			run.Approval = types.ApprovalApprove
			return run, nil
		}

		run.Approval = types.ApprovalRetry
		run.Feedback = decision.Feedback
		run.FeedbackHistory = append(run.FeedbackHistory, decision.Feedback)

		if p.MaxRounds > 0 && run.Round >= p.MaxRounds {
			return run, fmt.Errorf("%w: %d of %d rounds used", ErrMaxRounds, run.Round, p.MaxRounds)
		}
	}
}

// round runs every step up to and including compile.
func (p *Pipeline) round(ctx context.Context, run *types.RunState) error {
	if err := p.begin(ctx, run); err != nil {
		return err
	}

	rs, err := p.Research.Run(ctx, run.Research())
	if err != nil {
		return fmt.Errorf("researching: %w", err)
	}
	run.MergeResearch(rs)

	res, err := p.Outline.Generate(ctx, run.Topic, run.Guidelines, run.Notes)
	if err != nil {
		return fmt.Errorf("outlining: %w", err)
	}
	run.Outline = res.Outline
	run.Sections = res.Sections

	written, err := p.Writer.WriteAll(ctx, types.Titles(run.Sections), run.Notes, run.Guidelines)
	if err != nil {
		return fmt.Errorf("writing sections: %w", err)
	}
	run.AppendCompleted(written...)

	p.logf("--- Compiling Sections ---\n")
	run.Report = draft.Compile(run.Topic, run.Sections, run.Completed)
	return nil
}

// begin settles the clarification and drafts the research guidelines.
// Reviewer feedback from the previous round stands in for the clarification.
func (p *Pipeline) begin(ctx context.Context, run *types.RunState) error {
	p.logf("--- Generating Guidelines (Round %d) ---\n", run.Round)
	p.logf("Topic: %s\n", run.Topic)

	run.Completed = nil
	run.Approval = types.ApprovalPending

	if run.Feedback != "" {
		p.logf("\n[Using reviewer feedback for refinement]: %s\n", run.Feedback)
		run.Clarification = run.Feedback
	} else {
		c, err := p.Reviewer.Clarify(ctx, run.Topic)
		if err != nil {
			return fmt.Errorf("reading clarification: %w", err)
		}
		run.Clarification = c
	}

	var buf bytes.Buffer
	err := guidelinesTmpl.Execute(&buf, map[string]string{
		"Topic":         run.Topic,
		"Clarification": run.Clarification,
	})
	if err != nil {
		return fmt.Errorf("rendering guidelines prompt: %w", err)
	}
	guidelines, err := p.Model.Complete(ctx, llm.Prompt{System: guidelinesSystem, User: buf.String()})
	if err != nil {
		return fmt.Errorf("generating guidelines: %w", err)
	}
	run.Guidelines = guidelines
	return nil
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.Out != nil {
		fmt.Fprintf(p.Out, format, args...)
	}
}
