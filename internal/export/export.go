// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes an approved report to disk. Every file is named after
// the topic: lowercased, spaces as underscores, suffixed with "_blog".
package export

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-writer/pkg/types"
)

// DefaultFormats are written when none are configured.
var DefaultFormats = []types.OutputFormat{types.FormatMarkdown, types.FormatPDF}

var extensions = map[types.OutputFormat]string{
	types.FormatMarkdown: ".md",
	types.FormatPDF:      ".pdf",
	types.FormatHTML:     ".html",
	types.FormatManifest: ".yaml",
}

// BaseName derives the file stem for topic. Characters that are unsafe in
// file names are dropped; an empty result becomes "untitled".
func BaseName(topic string) string {
	lower := strings.ToLower(strings.TrimSpace(topic))
	var b strings.Builder
	for _, r := range lower {
		switch {
		case r == ' ':
			b.WriteRune('_')
		case r == '/', r == '\\', r == ':', r == '*', r == '?', r == '"',
			r == '<', r == '>', r == '|', unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	stem := strings.Trim(b.String(), ".")
	if stem == "" {
		stem = "untitled"
	}
	return stem + "_blog"
}

// PDFRenderer turns Markdown into PDF bytes.
type PDFRenderer interface {
	Render(ctx context.Context, markdown string, w io.Writer) error
}

// Exporter writes the configured formats into Dir.
type Exporter struct {
	Dir     string
	Formats []types.OutputFormat
	PDF     PDFRenderer
	Out     io.Writer
}

// New builds an Exporter from cfg. The pandoc backend is selected by
// cfg.PDFBackend; anything else renders in-process.
func New(cfg types.ExportConfig, w io.Writer) *Exporter {
	var pdf PDFRenderer = FPDF{}
	if cfg.PDFBackend == types.PDFBackendPandoc {
		pdf = &Pandoc{Image: cfg.PandocImage}
	}
	return &Exporter{Dir: cfg.OutputDir, Formats: cfg.Formats, PDF: pdf, Out: w}
}

// Export writes one file per format and returns their paths in format order.
// Files written before a failure are kept.
func (e *Exporter) Export(ctx context.Context, run *types.RunState) ([]string, error) {
	dir := e.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	formats := e.Formats
	if len(formats) == 0 {
		formats = DefaultFormats
	}

	base := filepath.Join(dir, BaseName(run.Topic))
	var paths []string
	for _, f := range formats {
		ext, ok := extensions[f]
		if !ok {
			return paths, fmt.Errorf("unknown output format %q", f)
		}
		path := base + ext

		var err error
		switch f {
		case types.FormatMarkdown:
			err = WriteMarkdown(path, run.Report)
		case types.FormatPDF:
			if e.Out != nil {
				fmt.Fprintln(e.Out, "Generating PDF...")
			}
			err = WritePDF(ctx, e.PDF, path, run.Report)
		case types.FormatHTML:
			err = WriteHTML(path, run.Topic, run.Report)
		case types.FormatManifest:
			err = WriteManifest(path, run)
		}
		if err != nil {
			return paths, err
		}
		if e.Out != nil {
			fmt.Fprintf(e.Out, "%s report saved to %s\n", formatLabel(f), path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func formatLabel(f types.OutputFormat) string {
	switch f {
	case types.FormatPDF, types.FormatHTML:
		return strings.ToUpper(string(f))
	case types.FormatManifest:
		return "Manifest"
	}
	return "Markdown"
}

// ParseFormats validates format names such as "markdown" or "pdf". Entries
// may themselves be comma-separated lists.
func ParseFormats(names []string) ([]types.OutputFormat, error) {
	var formats []types.OutputFormat
	for _, n := range splitList(names) {
		f := types.OutputFormat(strings.ToLower(strings.TrimSpace(n)))
		switch f {
		case "":
			continue
		case "md":
			f = types.FormatMarkdown
		case "yml", "manifest":
			f = types.FormatManifest
		}
		if _, ok := extensions[f]; !ok {
			return nil, fmt.Errorf("unknown output format %q (want markdown, pdf, html, or yaml)", n)
		}
		formats = append(formats, f)
	}
	return formats, nil
}

func splitList(names []string) []string {
	var out []string
	for _, n := range names {
		out = append(out, strings.Split(n, ",")...)
	}
	return out
}

// WriteMarkdown writes the report verbatim.
func WriteMarkdown(path, report string) error {
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return fmt.Errorf("writing markdown: %w", err)
	}
	return nil
}

// WritePDF renders the report with r and writes it to path. A nil r renders
// in-process.
func WritePDF(ctx context.Context, r PDFRenderer, path, report string) error {
	if r == nil {
		r = FPDF{}
	}
	var buf bytes.Buffer
	if err := r.Render(ctx, report, &buf); err != nil {
		return fmt.Errorf("rendering PDF: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing PDF: %w", err)
	}
	return nil
}

const htmlPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`

// WriteHTML converts the report to a standalone HTML page.
func WriteHTML(path, title, report string) error {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(report), &body); err != nil {
		return fmt.Errorf("converting markdown: %w", err)
	}
	page := fmt.Sprintf(htmlPage, html.EscapeString(title), body.String())
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		return fmt.Errorf("writing HTML: %w", err)
	}
	return nil
}

// WriteManifest writes the full run state as YAML.
func WriteManifest(path string, run *types.RunState) error {
	data, err := yaml.Marshal(run)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}
