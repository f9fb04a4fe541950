// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package approval is the human gate of the pipeline: it collects the
// clarification that seeds each round and decides whether a compiled report
// is accepted or sent back with feedback.
package approval

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pdiddy/research-writer/pkg/types"
)

// ErrNoInput is returned when the input stream ends before a line is read.
var ErrNoInput = errors.New("no input: stream closed")

// Reviewer supplies clarifications and verdicts.
type Reviewer interface {
	// Clarify asks for the focus of the post before guidelines are drafted.
	Clarify(ctx context.Context, topic string) (string, error)

	// Review shows the compiled report and returns the verdict.
	Review(ctx context.Context, report string) (types.Decision, error)
}

var approveWords = map[string]bool{"approve": true, "yes": true, "y": true, "ok": true}

// ParseDecision interprets a reviewer's reply. The approval words are
// matched case-insensitively after trimming; any other reply, including an
// empty one, is a retry whose feedback is the trimmed reply.
func ParseDecision(input string) types.Decision {
	reply := strings.TrimSpace(input)
	if approveWords[strings.ToLower(reply)] {
		return types.Decision{Approved: true}
	}
	return types.Decision{Feedback: reply}
}

var (
	ruleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

const ruleWidth = 40

// Terminal prompts a person on a line-oriented stream.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal reads replies from in and writes prompts to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// Ask prints question and returns the trimmed reply line.
func (t *Terminal) Ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(t.out, question)
	line, err := t.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", fmt.Errorf("reading reply: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Clarify asks for the post's focus.
func (t *Terminal) Clarify(ctx context.Context, topic string) (string, error) {
	return t.Ask(ctx, fmt.Sprintf("Please provide any specific clarification or focus for the blog post on '%s': ", topic))
}

// Review prints the report between rules and reads the verdict.
func (t *Terminal) Review(ctx context.Context, report string) (types.Decision, error) {
	rule := ruleStyle.Render(strings.Repeat("=", ruleWidth))

	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, titleStyle.Render("--- Human Approval ---"))
	fmt.Fprintln(t.out, "The blog post has been compiled. Here is the content:")
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, rule)
	if report == "" {
		report = "No content generated."
	}
	fmt.Fprintln(t.out, report)
	fmt.Fprintln(t.out, rule)
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, hintStyle.Render("To APPROVE: type 'approve', 'yes', or 'ok'."))
	fmt.Fprintln(t.out, hintStyle.Render("To EDIT/RETRY: type your feedback/instructions (e.g., 'rewrite to focus on performance')."))

	reply, err := t.Ask(ctx, "> ")
	if err != nil {
		return types.Decision{}, err
	}
	return ParseDecision(reply), nil
}

// WithClarification answers the first Clarify call with text and defers
// every later call, and every review, to r.
func WithClarification(r Reviewer, text string) Reviewer {
	return &preset{Reviewer: r, text: text}
}

type preset struct {
	Reviewer
	text string
	used bool
}

func (p *preset) Clarify(ctx context.Context, topic string) (string, error) {
	if !p.used {
		p.used = true
		return p.text, nil
	}
	return p.Reviewer.Clarify(ctx, topic)
}

// Auto answers without a person: a fixed clarification and approval of
// every report.
type Auto struct {
	Clarification string
}

// Clarify returns the fixed clarification.
func (a Auto) Clarify(context.Context, string) (string, error) {
	return a.Clarification, nil
}

// Review approves.
func (a Auto) Review(context.Context, string) (types.Decision, error) {
	return types.Decision{Approved: true}, nil
}
