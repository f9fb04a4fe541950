// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ResearchState is the slice of run state owned by the research loop.
type ResearchState struct {
	// Guidelines steer what the orchestrator searches for.
	Guidelines string `json:"guidelines" yaml:"guidelines"`

	// RawNotes accumulates every query and its unprocessed search results.
	RawNotes string `json:"raw_notes" yaml:"raw_notes"`

	// Notes is the model's running synthesis of everything found so far.
	Notes string `json:"notes" yaml:"notes"`

	// Iterations counts completed searches in the current research pass.
	Iterations int `json:"iterations" yaml:"iterations"`

	// Query is the most recent orchestrator decision: a search query or "DONE".
	Query string `json:"query" yaml:"query"`
}

// Approval is the reviewer's verdict on a compiled report.
type Approval string

const (
	ApprovalPending Approval = ""
	ApprovalApprove Approval = "approve"
	ApprovalRetry   Approval = "retry"
)

// Decision is what the approval gate returns after showing the report.
type Decision struct {
	Approved bool
	Feedback string
}

// RunState is the full state threaded through one pipeline run.
type RunState struct {
	Topic         string `json:"topic" yaml:"topic"`
	Clarification string `json:"clarification" yaml:"clarification"`
	Guidelines    string `json:"guidelines" yaml:"guidelines"`

	RawNotes   string `json:"raw_notes" yaml:"raw_notes"`
	Notes      string `json:"notes" yaml:"notes"`
	Iterations int    `json:"iterations" yaml:"iterations"`

	// Outline is the free-text outline returned with the section list.
	Outline string `json:"outline" yaml:"outline"`

	// Sections are the planned sections, in order, with empty content.
	Sections []Section `json:"sections" yaml:"sections"`

	// Completed holds written sections in arrival order. Writers only append.
	Completed []Section `json:"completed" yaml:"completed"`

	Report string `json:"report" yaml:"report"`

	Approval Approval `json:"approval" yaml:"approval"`
	Feedback string   `json:"feedback,omitempty" yaml:"feedback,omitempty"`

	// Round is 1 for the first pass and increments on every retry.
	Round int `json:"round" yaml:"round"`

	// FeedbackHistory records every retry instruction in order.
	FeedbackHistory []string `json:"feedback_history,omitempty" yaml:"feedback_history,omitempty"`
}

// Research returns the research-loop view of the run for a fresh pass.
// Notes carry over between rounds; the iteration count does not.
func (s *RunState) Research() ResearchState {
	return ResearchState{
		Guidelines: s.Guidelines,
		RawNotes:   s.RawNotes,
		Notes:      s.Notes,
	}
}

// MergeResearch folds a finished research pass back into the run.
func (s *RunState) MergeResearch(r ResearchState) {
	s.RawNotes = r.RawNotes
	s.Notes = r.Notes
	s.Iterations = r.Iterations
}

// AppendCompleted merges written sections using list-append semantics.
func (s *RunState) AppendCompleted(sections ...Section) {
	s.Completed = append(s.Completed, sections...)
}
