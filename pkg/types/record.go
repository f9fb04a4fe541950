// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RunRecord is the archived form of a finished run.
type RunRecord struct {
	ID         int64     `json:"id" yaml:"id"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	Topic      string    `json:"topic" yaml:"topic"`
	Model      string    `json:"model" yaml:"model"`
	Rounds     int       `json:"rounds" yaml:"rounds"`
	Approved   bool      `json:"approved" yaml:"approved"`
	Guidelines string    `json:"guidelines" yaml:"guidelines"`
	Notes      string    `json:"notes" yaml:"notes"`
	Outline    string    `json:"outline" yaml:"outline"`
	Sections   []Section `json:"sections" yaml:"sections"`
	Report     string    `json:"report" yaml:"report"`
	Feedback   []string  `json:"feedback,omitempty" yaml:"feedback,omitempty"`
}

// NewRunRecord snapshots a run state. Sections are taken in planned order
// with the content that was compiled into the report.
func NewRunRecord(run *RunState, model string, now time.Time) RunRecord {
	content := make(map[string]string, len(run.Completed))
	for _, c := range run.Completed {
		content[c.Title] = c.Content
	}
	sections := make([]Section, len(run.Sections))
	for i, s := range run.Sections {
		sections[i] = Section{Title: s.Title, Content: content[s.Title]}
	}
	return RunRecord{
		CreatedAt:  now.UTC(),
		Topic:      run.Topic,
		Model:      model,
		Rounds:     run.Round,
		Approved:   run.Approval == ApprovalApprove,
		Guidelines: run.Guidelines,
		Notes:      run.Notes,
		Outline:    run.Outline,
		Sections:   sections,
		Report:     run.Report,
		Feedback:   run.FeedbackHistory,
	}
}
