// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	fontFamily = "Helvetica"
	bodySize   = 12.0
	codeSize   = 10.0
	lineHeight = 6.0
	blockGap   = 3.0
	pageMargin = 15.0
)

// FPDF renders PDFs in-process with the core Helvetica font. Text outside
// the cp1252 code page is replaced.
type FPDF struct{}

// Render lays out markdown on A4 pages and writes the PDF to w.
func (FPDF) Render(_ context.Context, markdown string, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.AddPage()

	l := &pdfLayout{pdf: pdf, src: []byte(markdown), tr: pdf.UnicodeTranslatorFromDescriptor("")}
	l.render()

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("laying out PDF: %w", err)
	}
	return pdf.Output(w)
}

// pdfWriter is the subset of *fpdf.Fpdf the layout uses.
type pdfWriter interface {
	SetFont(familyStr, styleStr string, size float64)
	MultiCell(w, h float64, txtStr, borderStr, alignStr string, fill bool)
	Ln(h float64)
}

type pdfLayout struct {
	pdf pdfWriter
	src []byte
	tr  func(string) string
}

func (l *pdfLayout) render() {
	doc := goldmark.DefaultParser().Parse(text.NewReader(l.src))
	l.block(doc, 0, "")
}

func (l *pdfLayout) children(n ast.Node, depth int, style string) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		l.block(c, depth, style)
	}
}

func (l *pdfLayout) cell(h float64, s string) {
	l.pdf.MultiCell(0, h, l.tr(s), "", "L", false)
}

// block lays out one block node. style is the fpdf font style inherited from
// enclosing blocks ("I" inside quotes).
func (l *pdfLayout) block(n ast.Node, depth int, style string) {
	switch n := n.(type) {
	case *ast.Document:
		l.children(n, depth, style)
	case *ast.Heading:
		size := bodySize
		switch n.Level {
		case 1:
			size = 16
		case 2:
			size = 14
		}
		l.pdf.SetFont(fontFamily, "B", size)
		l.cell(10, inlineText(n, l.src))
	case *ast.Paragraph, *ast.TextBlock:
		l.pdf.SetFont(fontFamily, style, bodySize)
		l.cell(lineHeight, inlineText(n, l.src))
		l.pdf.Ln(blockGap)
	case *ast.List:
		number := n.Start
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			marker := "-"
			if n.IsOrdered() {
				marker = fmt.Sprintf("%d.", number)
				number++
			}
			l.listItem(item, depth, style, marker)
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		l.pdf.SetFont("Courier", "", codeSize)
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			l.cell(5, strings.TrimRight(string(seg.Value(l.src)), "\r\n"))
		}
		l.pdf.Ln(blockGap)
	case *ast.Blockquote:
		l.children(n, depth, "I")
	case *ast.ThematicBreak:
		l.pdf.Ln(lineHeight)
	}
}

// listItem prefixes the item's first text block with its marker and indents
// by nesting depth.
func (l *pdfLayout) listItem(item ast.Node, depth int, style, marker string) {
	indent := strings.Repeat("    ", depth)
	first := true
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		switch c.(type) {
		case *ast.TextBlock, *ast.Paragraph:
			prefix := indent + "  "
			if first {
				prefix = indent + marker + " "
				first = false
			}
			l.pdf.SetFont(fontFamily, style, bodySize)
			l.cell(lineHeight, prefix+inlineText(c, l.src))
		default:
			l.block(c, depth+1, style)
		}
	}
}

// inlineText flattens the inline children of n into plain text. Soft line
// breaks become spaces and hard breaks become newlines.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(src))
			switch {
			case c.HardLineBreak():
				b.WriteByte('\n')
			case c.SoftLineBreak():
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(c.Value)
		case *ast.AutoLink:
			b.Write(c.URL(src))
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
