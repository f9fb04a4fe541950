// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-writer/internal/approval"
	"github.com/pdiddy/research-writer/internal/draft"
	"github.com/pdiddy/research-writer/internal/export"
	"github.com/pdiddy/research-writer/internal/history"
	"github.com/pdiddy/research-writer/internal/llm"
	"github.com/pdiddy/research-writer/internal/pipeline"
	"github.com/pdiddy/research-writer/internal/search"
	"github.com/pdiddy/research-writer/pkg/types"
)

var writeCmd = &cobra.Command{
	Use:   "write [topic...]",
	Short: "Research a topic and write a blog post",
	Long: `Write runs the full pipeline for a topic: research guidelines, up to
--max-iterations web searches, an outline, parallel section writing, and a
review of the compiled post. Type approve, yes, y, or ok to accept the draft;
anything else is treated as feedback and the pipeline starts over with it.

The approved post is written to --output-dir as <topic>_blog.md and
<topic>_blog.pdf, and the run is archived in the history database.

When no topic is given it is read from stdin.`,
	RunE: runWrite,
}

var headerStyle = lipgloss.NewStyle().Bold(true)

func runWrite(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	cfg, err := pipelineConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if err := resolveKeys(&cfg, loadedSecrets); err != nil {
		return err
	}
	model, err := llm.Resolve(cfg.AI)
	if err != nil {
		return err
	}

	terminal := approval.NewTerminal(cmd.InOrStdin(), out)
	topic := strings.TrimSpace(strings.Join(args, " "))
	if topic == "" {
		if topic, err = terminal.Ask(ctx, "Enter the topic for the blog post: "); err != nil {
			return err
		}
	}

	reviewer := buildReviewer(cmd, terminal)
	searcher := search.New(cfg.Search, nil, cmd.ErrOrStderr())

	fmt.Fprintf(out, "Starting blog generation for topic: %s (model %s)\n", topic, llm.Label(cfg.AI))
	run, runErr := pipeline.New(model, searcher, reviewer, cfg, out).Run(ctx, topic)
	switch {
	case errors.Is(runErr, pipeline.ErrMaxRounds):
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; exporting the last draft\n", runErr)
	case runErr != nil:
		return runErr
	}

	fmt.Fprintf(out, "\n\n%s\n\n", headerStyle.Render("=== FINAL REPORT ==="))
	fmt.Fprintln(out, run.Report)

	if _, err := export.New(cfg.Export, out).Export(ctx, run); err != nil {
		return err
	}
	if cfg.Export.SaveProject {
		if err := saveProject(cfg.Export.OutputDir, run, out); err != nil {
			return err
		}
	}

	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory {
		if err := archive(ctx, cfg, run, out); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: archiving run: %v\n", err)
		}
	}
	return runErr
}

// buildReviewer picks the approval gate: --yes approves every draft, and
// --clarification answers the first clarification prompt.
func buildReviewer(cmd *cobra.Command, terminal *approval.Terminal) approval.Reviewer {
	clarification, _ := cmd.Flags().GetString("clarification")
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return approval.Auto{Clarification: clarification}
	}
	if cmd.Flags().Changed("clarification") {
		return approval.WithClarification(terminal, clarification)
	}
	return terminal
}

func saveProject(outputDir string, run *types.RunState, out io.Writer) error {
	if outputDir == "" {
		outputDir = "."
	}
	dir := filepath.Join(outputDir, export.BaseName(run.Topic))
	if err := draft.SaveProject(dir, run); err != nil {
		return err
	}
	fmt.Fprintf(out, "Draft project saved to %s\n", dir)
	return nil
}

func archive(ctx context.Context, cfg types.PipelineConfig, run *types.RunState, out io.Writer) error {
	store, err := history.NewStore(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Record(ctx, types.NewRunRecord(run, llm.Label(cfg.AI), time.Now()))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Run archived as #%d in %s\n", id, store.Dir())
	return nil
}

func init() {
	f := writeCmd.Flags()
	f.String("provider", "gemini", "model provider: gemini, openai, anthropic, or ollama")
	f.String("model", "", "model name (default depends on provider)")
	f.String("base-url", "", "override the provider endpoint")
	f.String("api-key", "", "model API key (default from environment or .secrets/)")
	f.Int("max-tokens", 4096, "completion token limit")
	f.Duration("delay", 15*time.Second, "pause before each research step and section write")
	f.Int("max-iterations", 5, "maximum web searches per research pass")
	f.Int("concurrency", 0, "parallel section writers (0 = one per section)")
	f.Int("max-rounds", 0, "maximum review rounds (0 = unlimited)")
	f.String("clarification", "", "answer for the first clarification prompt")
	f.BoolP("yes", "y", false, "approve the first draft without prompting")
	f.String("output-dir", ".", "directory for the exported files")
	f.StringSlice("formats", []string{"markdown", "pdf"}, "output formats: markdown, pdf, html, yaml")
	f.String("pdf-backend", "fpdf", "PDF renderer: fpdf (built in) or pandoc (container)")
	f.String("brave-key", "", "Brave Search API key (default from environment or .secrets/)")
	f.String("history-dir", "", "history database directory (default ~/.config/research-writer)")
	f.Bool("no-history", false, "do not archive the run")
	f.Bool("save-project", false, "also write outline.yaml and numbered section files")

	bind := map[string]string{
		keyProvider:      "provider",
		keyModel:         "model",
		keyBaseURL:       "base-url",
		keyAPIKey:        "api-key",
		keyMaxTokens:     "max-tokens",
		keyResearchDelay: "delay",
		keyWriterDelay:   "delay",
		keyMaxIterations: "max-iterations",
		keyConcurrency:   "concurrency",
		keyMaxRounds:     "max-rounds",
		keyOutputDir:     "output-dir",
		keyFormats:       "formats",
		keyPDFBackend:    "pdf-backend",
		keyBraveKey:      "brave-key",
		keyHistoryDir:    "history-dir",
		keySaveProject:   "save-project",
	}
	for key, flag := range bind {
		if err := viper.BindPFlag(key, f.Lookup(flag)); err != nil {
			panic(err)
		}
	}
	setDefaults(viper.GetViper())

	rootCmd.AddCommand(writeCmd)
}
