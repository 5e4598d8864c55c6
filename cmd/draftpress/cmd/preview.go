package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mfenderov/draftpress/internal/converter"
	"github.com/mfenderov/draftpress/pkg/models"
)

var (
	previewFormat   string
	previewStrategy string
)

var previewCmd = &cobra.Command{
	Use:   "preview [file.docx]",
	Short: "Convert one document without publishing it",
	Long: `Convert a local .docx file exactly as a run would and print the title,
the meta description and a Markdown rendering of the content.

Nothing is sent over the network.

Examples:
  draftpress preview articles_docx/Report.docx

  # Whole-document conversion, JSON output
  draftpress preview Report.docx --strategy document --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVar(&previewFormat, "format", "text", "Output format: text or json")
	previewCmd.Flags().StringVar(&previewStrategy, "strategy", "", "Conversion strategy: paragraphs or document (default from config)")
}

func runPreview(cmd *cobra.Command, args []string) error {
	strategy := previewStrategy
	if strategy == "" {
		strategy = GetConfig().Converter.Strategy
	}

	conv, err := converter.New(strategy)
	if err != nil {
		return err
	}

	article, err := conv.Convert(args[0])
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	return writePreview(cmd.OutOrStdout(), article, previewFormat)
}

func writePreview(w io.Writer, article models.Article, format string) error {
	if format == "json" {
		output, err := json.MarshalIndent(article, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(output))
		return nil
	}

	fmt.Fprintf(w, "Title:   %s\n", article.Title)
	fmt.Fprintf(w, "Summary: %s\n", article.Summary)
	fmt.Fprintf(w, "Image:   %s\n", models.ImageFilename(article.Title))

	if !article.HasContent() {
		fmt.Fprintln(w, "\nNo content: this document would be skipped.")
		return nil
	}

	markdown, err := converter.Markdown(article.ContentHTML)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	fmt.Fprintf(w, "\n%s\n", markdown)
	return nil
}
