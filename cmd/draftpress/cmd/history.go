package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mfenderov/draftpress/internal/journal"
	"github.com/mfenderov/draftpress/pkg/models"
)

var (
	historyLimit  int
	historyFormat string
	historyRun    string
	historyStatus string
)

var historyCmd = &cobra.Command{
	Use:   "history [query]",
	Short: "Search the publication journal",
	Long: `Search past document outcomes recorded in the publication journal,
newest first. Requires the journal to have been enabled during runs.

Examples:
  # Latest outcomes
  draftpress history

  # Skipped documents mentioning an upload failure
  draftpress history upload --status skipped

  # One run, JSON output for scripting
  draftpress history --run 5f0c... --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", journal.DefaultLimit, "Maximum number of results")
	historyCmd.Flags().StringVar(&historyFormat, "format", "text", "Output format: text or json")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Only outcomes of this run ID")
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "Only outcomes with this status: published or skipped")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch models.Status(historyStatus) {
	case "", models.StatusPublished, models.StatusSkipped:
	default:
		return fmt.Errorf("unknown status %q", historyStatus)
	}

	j, err := newJournal(GetConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}

	q := journal.Query{
		RunID:  historyRun,
		Status: models.Status(historyStatus),
		Limit:  historyLimit,
	}
	if len(args) == 1 {
		q.Text = args[0]
	}

	outcomes, err := j.Search(ctx, q)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	return writeHistory(cmd.OutOrStdout(), outcomes, historyFormat)
}

func writeHistory(w io.Writer, outcomes []models.Outcome, format string) error {
	if len(outcomes) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	if format == "json" {
		output, err := json.MarshalIndent(outcomes, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(output))
		return nil
	}

	fmt.Fprintf(w, "Found %d results:\n\n", len(outcomes))
	for i, o := range outcomes {
		fmt.Fprintf(w, "─── Result %d ───\n", i+1)
		fmt.Fprintf(w, "File:    %s\n", o.File)
		fmt.Fprintf(w, "Title:   %s\n", o.Title)
		fmt.Fprintf(w, "Status:  %s (%s)\n", o.Status, o.Stage)
		fmt.Fprintf(w, "Run:     %s\n", o.RunID)
		fmt.Fprintf(w, "When:    %s\n", o.Timestamp.Format("2006-01-02 15:04:05"))
		if o.PostID != 0 {
			fmt.Fprintf(w, "Post:    %d (media %d)\n", o.PostID, o.MediaID)
		}
		if o.Reason != "" {
			fmt.Fprintf(w, "Reason:  %s\n", o.Reason)
		}
		fmt.Fprintln(w)
	}
	return nil
}
