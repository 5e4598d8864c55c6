package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mfenderov/draftpress/internal/archive"
	"github.com/mfenderov/draftpress/internal/config"
	"github.com/mfenderov/draftpress/internal/converter"
	"github.com/mfenderov/draftpress/internal/imagegen"
	"github.com/mfenderov/draftpress/internal/journal"
	"github.com/mfenderov/draftpress/internal/metrics"
	"github.com/mfenderov/draftpress/internal/pipeline"
	"github.com/mfenderov/draftpress/internal/storage"
	"github.com/mfenderov/draftpress/internal/wordpress"
	"github.com/mfenderov/draftpress/pkg/models"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Publish every document of the archive as a draft",
	Long: `Download the configured ZIP archive, extract it, and for each .docx file:
convert it, generate an illustration, upload the image, and create a draft
post in the configured category.

A document that fails at any step is skipped; the run always completes.

Examples:
  # Using the environment
  ZIP_URL=https://files.example.com/articles.zip draftpress run

  # With a config file and debug logs
  draftpress run --config ./config/config.yaml -v`,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	slog.Debug("run command starting", "archive_url", cfg.Source.ArchiveURL, "strategy", cfg.Converter.Strategy)

	p, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Publishing: %s\n", cfg.Source.ArchiveURL)

	result, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	printSummary(cmd.OutOrStdout(), result)
	return nil
}

// newPipeline wires the components and observers described by cfg.
// Optional integrations that cannot be reached are left out with a warning.
func newPipeline(ctx context.Context, cfg config.Config) (*pipeline.Pipeline, error) {
	conv, err := converter.New(cfg.Converter.Strategy)
	if err != nil {
		return nil, err
	}

	images, err := imagegen.New(imagegen.Config{
		APIKey:  cfg.Images.APIKey,
		BaseURL: cfg.Images.BaseURL,
		Model:   cfg.Images.Model,
		Size:    cfg.Images.Size,
		Quality: cfg.Images.Quality,
		Timeout: cfg.HTTP.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create image client: %w", err)
	}

	publisher, err := wordpress.New(wordpress.Config{
		SiteURL:     cfg.WordPress.SiteURL,
		Username:    cfg.WordPress.Username,
		AppPassword: cfg.WordPress.AppPassword,
		Timeout:     cfg.HTTP.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create WordPress client: %w", err)
	}

	observers := []pipeline.Observer{metrics.New(metrics.Config{
		PushgatewayURL: cfg.Metrics.PushgatewayURL,
		Job:            cfg.Metrics.Job,
	})}

	if cfg.Storage.Enabled {
		store, err := storage.New(storage.Config{
			Endpoint:        cfg.Storage.Endpoint,
			Bucket:          cfg.Storage.Bucket,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			UseSSL:          cfg.Storage.UseSSL,
		})
		if err == nil {
			err = store.EnsureBucket(ctx)
		}
		if err != nil {
			slog.Warn("artifact storage disabled", "error", err)
		} else {
			observers = append(observers, store)
			slog.Info("artifact storage enabled", "bucket", store.Bucket())
		}
	}

	if cfg.Journal.Enabled {
		j, err := newJournal(cfg)
		if err == nil {
			err = j.CreateIndex(ctx)
		}
		if err != nil {
			slog.Warn("publication journal disabled", "error", err)
		} else {
			observers = append(observers, j)
			slog.Info("publication journal enabled", "index", cfg.Journal.Index)
		}
	}

	return pipeline.New(
		pipeline.Config{
			ArchiveURL:  cfg.Source.ArchiveURL,
			ArchivePath: cfg.Source.ArchivePath,
			WorkDir:     cfg.Source.WorkDir,
			Prompt:      cfg.Images.Prompt,
			CategoryID:  cfg.WordPress.CategoryID,
		},
		archive.New(archive.Config{Timeout: cfg.HTTP.Timeout}),
		conv,
		images,
		publisher,
		observers...,
	), nil
}

func newJournal(cfg config.Config) (*journal.Client, error) {
	return journal.New(journal.Config{
		Addresses: cfg.Journal.Addresses,
		Index:     cfg.Journal.Index,
		Username:  cfg.Journal.Username,
		Password:  cfg.Journal.Password,
	})
}

func printSummary(w io.Writer, result *pipeline.Result) {
	fmt.Fprintf(w, "\nRun complete:\n")
	fmt.Fprintf(w, "  Run ID: %s\n", result.RunID)
	fmt.Fprintf(w, "  Documents: %d\n", result.Documents)
	fmt.Fprintf(w, "  Drafts created: %d\n", result.Published)
	fmt.Fprintf(w, "  Skipped: %d\n", result.Skipped)
	fmt.Fprintf(w, "  Duration: %v\n", result.Duration)

	var skipped []models.Outcome
	for _, o := range result.Outcomes {
		if o.Status == models.StatusSkipped {
			skipped = append(skipped, o)
		}
	}
	if len(skipped) > 0 {
		fmt.Fprintf(w, "  Skipped documents:\n")
		for _, o := range skipped {
			fmt.Fprintf(w, "    - %s (%s): %s\n", o.File, o.Stage, o.Reason)
		}
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(w, "  Warnings: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(w, "    - %s\n", e)
		}
	}
}
