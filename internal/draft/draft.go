// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package draft compiles written sections into the final report and saves a
// run as an editable draft project: outline.yaml plus one numbered Markdown
// file per section.
package draft

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-writer/pkg/types"
)

const outlineFile = "outline.yaml"

// MissingContent stands in for a planned section that was never written.
const MissingContent = "Content missing."

// sectionFilePattern matches numbered section files: NN-slug.md.
var sectionFilePattern = regexp.MustCompile(`^\d{2}-.+\.md$`)

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Compile renders the report. Sections appear in planned order; completed
// sections are matched by title, so the order they finished in is irrelevant.
// When a title was written more than once the last copy wins.
func Compile(topic string, planned, completed []types.Section) string {
	content := completedByTitle(completed)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", topic)
	for _, s := range planned {
		body, ok := content[s.Title]
		if !ok {
			body = MissingContent
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.Title, body)
	}
	return b.String()
}

func completedByTitle(completed []types.Section) map[string]string {
	m := make(map[string]string, len(completed))
	for _, s := range completed {
		m[s.Title] = s.Content
	}
	return m
}

// Slug lowercases title and joins its alphanumeric runs with hyphens.
func Slug(title string) string {
	s := strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if s == "" {
		return "section"
	}
	return s
}

// BuildOutline describes the run's planned sections and whether each was
// written.
func BuildOutline(run *types.RunState) types.Outline {
	content := completedByTitle(run.Completed)
	outline := types.Outline{Topic: run.Topic, Summary: run.Outline}
	for i, s := range run.Sections {
		number := fmt.Sprintf("%02d", i+1)
		status := types.StatusMissing
		if _, ok := content[s.Title]; ok {
			status = types.StatusWritten
		}
		outline.Sections = append(outline.Sections, types.OutlineSection{
			Number: number,
			Title:  s.Title,
			File:   number + "-" + Slug(s.Title) + ".md",
			Status: status,
		})
	}
	return outline
}

// SaveProject writes the run into dir as outline.yaml and numbered section
// files, creating dir if needed.
func SaveProject(dir string, run *types.RunState) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating project directory: %w", err)
	}

	outline := BuildOutline(run)
	data, err := yaml.Marshal(outline)
	if err != nil {
		return fmt.Errorf("encoding outline: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, outlineFile), data, 0o644); err != nil {
		return fmt.Errorf("writing outline: %w", err)
	}

	content := completedByTitle(run.Completed)
	for _, s := range outline.Sections {
		body, ok := content[s.Title]
		if !ok {
			body = MissingContent
		}
		text := fmt.Sprintf("## %s\n\n%s\n", s.Title, body)
		if err := os.WriteFile(filepath.Join(dir, s.File), []byte(text), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", s.File, err)
		}
	}
	return nil
}

// LoadOutline reads outline.yaml from a draft project directory.
func LoadOutline(projectDir string) (*types.Outline, error) {
	data, err := os.ReadFile(filepath.Join(projectDir, outlineFile))
	if err != nil {
		return nil, fmt.Errorf("reading outline: %w", err)
	}
	var outline types.Outline
	if err := yaml.Unmarshal(data, &outline); err != nil {
		return nil, fmt.Errorf("parsing outline: %w", err)
	}
	return &outline, nil
}

// SectionFiles returns the ordered list of numbered section file paths
// (NN-*.md) in a draft project directory.
func SectionFiles(projectDir string) ([]string, error) {
	entries, err := os.ReadDir(projectDir)
	if err != nil {
		return nil, fmt.Errorf("reading project directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if sectionFilePattern.MatchString(e.Name()) {
			files = append(files, filepath.Join(projectDir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadProject rebuilds a run from a saved, possibly hand-edited, project.
// Section files are read in number order and the report is their
// concatenation under the outline's topic heading. A file starting with a
// "## " heading contributes that heading as its title; the rest is content.
func LoadProject(projectDir string) (*types.RunState, error) {
	outline, err := LoadOutline(projectDir)
	if err != nil {
		return nil, err
	}
	files, err := SectionFiles(projectDir)
	if err != nil {
		return nil, err
	}

	run := &types.RunState{Topic: outline.Topic, Outline: outline.Summary}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", outline.Topic)
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", filepath.Base(f), err)
		}
		text := strings.TrimRight(string(data), "\n")
		b.WriteString(text)
		b.WriteString("\n\n")

		section := parseSection(text)
		run.Sections = append(run.Sections, types.Section{Title: section.Title})
		run.Completed = append(run.Completed, section)
	}
	run.Report = b.String()
	return run, nil
}

func parseSection(text string) types.Section {
	heading, body, _ := strings.Cut(text, "\n")
	title, ok := strings.CutPrefix(heading, "## ")
	if !ok {
		return types.Section{Content: strings.TrimSpace(text)}
	}
	return types.Section{Title: strings.TrimSpace(title), Content: strings.TrimSpace(body)}
}
