// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-writer/internal/history"
	"github.com/pdiddy/research-writer/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse archived runs (list, show, search, export, delete)",
	Long: `History reads the local SQLite archive of finished runs. Every run keeps
its guidelines, research notes, outline, sections, final report, and the
feedback given during review.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := store.List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		return printSummaries(cmd, runs)
	},
}

var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over topics and reports",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := store.Search(cmd.Context(), strings.Join(args, " "), limit)
		if err != nil {
			return err
		}
		return printSummaries(cmd, runs)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the report of an archived run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q", args[0])
		}
		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := store.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		}
		if notes, _ := cmd.Flags().GetBool("notes"); notes {
			fmt.Fprintf(out, "Guidelines:\n%s\n\nNotes:\n%s\n\n", rec.Guidelines, rec.Notes)
		}
		for i, fb := range rec.Feedback {
			fmt.Fprintf(out, "Feedback %d: %s\n", i+1, fb)
		}
		fmt.Fprintln(out, rec.Report)
		return nil
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the archive to YAML or JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		path, _ := cmd.Flags().GetString("output")

		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		switch format {
		case "yaml", "":
			if path == "" {
				path = "history-export.yaml"
			}
			err = store.ExportYAML(cmd.Context(), path)
		case "json":
			if path == "" {
				path = "history-export.json"
			}
			err = store.ExportJSON(cmd.Context(), path)
		default:
			return fmt.Errorf("unsupported format %q: use yaml or json", format)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a run from the archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q", args[0])
		}
		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted run #%d\n", id)
		return nil
	},
}

// --- shared helpers ---

func openHistory(cmd *cobra.Command) (*history.Store, error) {
	dir, _ := cmd.Flags().GetString("history-dir")
	if dir == "" {
		dir = viper.GetString(keyHistoryDir)
	}
	if dir == "" {
		dir = defaultHistoryDir()
	}
	return history.NewStore(types.HistoryConfig{Dir: dir, MaxResults: viper.GetInt(keyHistoryLimit)})
}

func printSummaries(cmd *cobra.Command, runs []history.Summary) error {
	out := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	writeSummaries(out, runs)
	return nil
}

func writeSummaries(out io.Writer, runs []history.Summary) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found.")
		return
	}

	fmt.Fprintf(out, "%-5s  %-16s  %-40s  %-6s  %-8s  %s\n",
		"ID", "Created", "Topic", "Rounds", "Approved", "Model")
	fmt.Fprintln(out, strings.Repeat("-", 100))
	for _, r := range runs {
		topic := truncate(r.Topic, 40)
		approved := "no"
		if r.Approved {
			approved = "yes"
		}
		fmt.Fprintf(out, "%-5d  %-16s  %-40s  %-6d  %-8s  %s\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), topic, r.Rounds, approved, r.Model)
	}
	fmt.Fprintf(out, "\n%d runs\n", len(runs))
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func init() {
	historyCmd.PersistentFlags().String("history-dir", "", "history database directory (default ~/.config/research-writer)")
	historyCmd.PersistentFlags().Bool("json", false, "output as JSON")

	historyListCmd.Flags().Int("limit", 0, "maximum runs (0 = use default)")
	historySearchCmd.Flags().Int("limit", 0, "maximum runs (0 = use default)")
	historyShowCmd.Flags().Bool("notes", false, "also print guidelines and research notes")
	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().String("output", "", "output file (default history-export.<format>)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	rootCmd.AddCommand(historyCmd)
}
