// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Section is one part of the blog post. Planned sections carry only a title;
// the writer step fills Content.
type Section struct {
	// Title is the section heading.
	Title string `json:"title" yaml:"title"`

	// Content is the generated section body. Empty for planned sections.
	Content string `json:"content" yaml:"content"`
}

// Titles returns the section titles in order.
func Titles(sections []Section) []string {
	titles := make([]string, len(sections))
	for i, s := range sections {
		titles[i] = s.Title
	}
	return titles
}

// SectionStatus tracks a section's progress through the writing workflow.
type SectionStatus string

const (
	StatusPlanned SectionStatus = "planned"
	StatusWritten SectionStatus = "written"
	StatusMissing SectionStatus = "missing"
)

// OutlineSection describes one section in a saved draft project's outline.
type OutlineSection struct {
	// Number is the two-digit sequence number (e.g. "01", "02").
	Number string `json:"number" yaml:"number"`

	// Title is the section heading.
	Title string `json:"title" yaml:"title"`

	// File is the section's filename (e.g. "01-introduction.md").
	File string `json:"file" yaml:"file"`

	// Status is planned, written, or missing.
	Status SectionStatus `json:"status" yaml:"status"`
}

// Outline holds the draft project structure from outline.yaml.
type Outline struct {
	// Topic is the blog post topic.
	Topic string `json:"topic" yaml:"topic"`

	// Summary is the free-text outline produced by the model.
	Summary string `json:"summary" yaml:"summary"`

	// Sections lists the post's sections in planned order.
	Sections []OutlineSection `json:"sections" yaml:"sections"`
}
