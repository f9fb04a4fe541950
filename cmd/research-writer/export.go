// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-writer/internal/draft"
	"github.com/pdiddy/research-writer/internal/export"
	"github.com/pdiddy/research-writer/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export <project-dir>",
	Short: "Re-export a saved draft project",
	Long: `Export reads a draft project written by "write --save-project" (outline.yaml
plus numbered section files), reassembles the post from the section files in
number order, and writes it in the requested formats. Edit the section files
by hand and run export again to publish the changes without a new model run.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := pipelineConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if err := applyExportFlags(cmd, &cfg.Export); err != nil {
		return err
	}

	run, err := draft.LoadProject(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %q with %d sections from %s\n", run.Topic, len(run.Sections), args[0])

	_, err = export.New(cfg.Export, cmd.OutOrStdout()).Export(ctx, run)
	return err
}

// applyExportFlags overrides the configured export settings with the flags
// given on the command line.
func applyExportFlags(cmd *cobra.Command, cfg *types.ExportConfig) error {
	f := cmd.Flags()
	if f.Changed("output-dir") {
		cfg.OutputDir, _ = f.GetString("output-dir")
	}
	if f.Changed("formats") {
		names, _ := f.GetStringSlice("formats")
		formats, err := export.ParseFormats(names)
		if err != nil {
			return err
		}
		cfg.Formats = formats
	}
	if f.Changed("pdf-backend") {
		name, _ := f.GetString("pdf-backend")
		backend, err := parsePDFBackend(name)
		if err != nil {
			return err
		}
		cfg.PDFBackend = backend
	}
	return nil
}

func init() {
	f := exportCmd.Flags()
	f.String("output-dir", ".", "directory for the exported files")
	f.StringSlice("formats", []string{"markdown", "pdf"}, "output formats: markdown, pdf, html, yaml")
	f.String("pdf-backend", "fpdf", "PDF renderer: fpdf (built in) or pandoc (container)")

	rootCmd.AddCommand(exportCmd)
}
