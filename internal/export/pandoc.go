// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/research-writer/internal/container"
)

// DefaultPandocImage provides pandoc with a LaTeX engine.
const DefaultPandocImage = "pandoc/latex:3.1"

// Pandoc renders PDFs by piping the Markdown through pandoc in a container.
type Pandoc struct {
	Image string

	// Runtime runs the container. Nil means detect docker or podman on
	// first use.
	Runtime container.Runtime
}

func (p *Pandoc) image() string {
	if p.Image == "" {
		return DefaultPandocImage
	}
	return p.Image
}

// Render converts markdown to PDF, pulling the image when it is missing.
func (p *Pandoc) Render(ctx context.Context, markdown string, w io.Writer) error {
	if p.Runtime == nil {
		rt, err := container.Detect(ctx)
		if err != nil {
			return err
		}
		p.Runtime = rt
	}
	if err := container.EnsureImage(ctx, p.Runtime, p.image()); err != nil {
		return err
	}
	args := []string{"--from", "markdown", "--to", "pdf", "--output", "-"}
	if err := p.Runtime.Run(ctx, p.image(), args, strings.NewReader(markdown), w); err != nil {
		return fmt.Errorf("pandoc: %w", err)
	}
	return nil
}
