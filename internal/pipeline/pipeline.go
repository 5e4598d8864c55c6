package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mfenderov/draftpress/internal/archive"
	"github.com/mfenderov/draftpress/internal/converter"
	"github.com/mfenderov/draftpress/internal/events"
	"github.com/mfenderov/draftpress/pkg/models"
)

// Fetcher downloads the source archive.
type Fetcher interface {
	Fetch(ctx context.Context, url, path string) error
}

// ImageGenerator returns the bytes of an illustration for a prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Publisher uploads media and creates posts on the CMS.
type Publisher interface {
	UploadMedia(ctx context.Context, data []byte, filename string) (int, error)
	CreatePost(ctx context.Context, post models.DraftPost) (int, error)
}

// Observer is notified of every document outcome and of the end of a run.
// Observers handle their own failures; they cannot affect the run.
type Observer interface {
	DocumentProcessed(ctx context.Context, event events.DocumentEvent)
	RunComplete(ctx context.Context, event events.RunCompleteEvent)
}

// Config holds pipeline configuration.
type Config struct {
	ArchiveURL  string
	ArchivePath string
	WorkDir     string
	Prompt      string
	CategoryID  int
}

// Result holds pipeline execution results.
type Result struct {
	RunID     string
	Documents int
	Published int
	Skipped   int
	Duration  time.Duration
	Outcomes  []models.Outcome
	Errors    []string
}

// Pipeline downloads the archive and publishes one draft per document.
type Pipeline struct {
	config    Config
	fetcher   Fetcher
	converter converter.Converter
	images    ImageGenerator
	publisher Publisher
	observers []Observer
}

// New creates a new Pipeline.
func New(
	config Config,
	fetcher Fetcher,
	conv converter.Converter,
	images ImageGenerator,
	publisher Publisher,
	observers ...Observer,
) *Pipeline {
	return &Pipeline{
		config:    config,
		fetcher:   fetcher,
		converter: conv,
		images:    images,
		publisher: publisher,
		observers: observers,
	}
}

var (
	errNoContent  = errors.New("document has no content")
	errEmptyImage = errors.New("image generation returned no data")
	errNoMediaID  = errors.New("media upload returned no id")
)

// Run executes one full pass: download, extract, then every document in
// listing order. Download and extraction failures are logged and the run
// continues with whatever the working directory holds. Document failures
// only skip that document, so Run never fails because of them.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.NewString()}

	slog.Info("starting run", "run_id", result.RunID, "archive_url", p.config.ArchiveURL)

	if err := p.fetcher.Fetch(ctx, p.config.ArchiveURL, p.config.ArchivePath); err != nil {
		slog.Error("archive download failed", "url", p.config.ArchiveURL, "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("download: %v", err))
	}

	if err := archive.Extract(p.config.ArchivePath, p.config.WorkDir); err != nil {
		slog.Error("archive extraction failed", "path", p.config.ArchivePath, "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("extract: %v", err))
	}

	files, err := archive.ListDocuments(p.config.WorkDir)
	if err != nil {
		slog.Error("listing documents failed", "dir", p.config.WorkDir, "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("list: %v", err))
	}
	result.Documents = len(files)

	slog.Info("found documents", "count", len(files))

	for _, path := range files {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, "context cancelled")
			break
		}

		event := p.processDocument(ctx, result.RunID, path)
		outcome := event.Outcome

		if outcome.Status == models.StatusPublished {
			result.Published++
			slog.Info("draft created", "file", outcome.File, "title", outcome.Title, "post_id", outcome.PostID)
		} else {
			result.Skipped++
			slog.Warn("document skipped", "file", outcome.File, "stage", outcome.Stage, "error", outcome.Reason)
		}
		result.Outcomes = append(result.Outcomes, outcome)

		for _, o := range p.observers {
			o.DocumentProcessed(ctx, event)
		}
	}

	result.Duration = time.Since(start)
	slog.Info("run complete",
		"run_id", result.RunID,
		"documents", result.Documents,
		"published", result.Published,
		"skipped", result.Skipped,
		"duration", result.Duration)

	complete := events.RunCompleteEvent{
		RunID:      result.RunID,
		ArchiveURL: p.config.ArchiveURL,
		Documents:  result.Documents,
		Published:  result.Published,
		Skipped:    result.Skipped,
		Duration:   result.Duration,
		Timestamp:  time.Now(),
		Errors:     result.Errors,
	}
	for _, o := range p.observers {
		o.RunComplete(ctx, complete)
	}

	return result, nil
}

// processDocument walks one document through
// extracted -> parsed -> image_generated -> image_uploaded -> published,
// stopping at the first failure. Outcome.Stage is the last stage reached.
func (p *Pipeline) processDocument(ctx context.Context, runID, path string) events.DocumentEvent {
	file := filepath.Base(path)
	event := events.DocumentEvent{
		Outcome: models.Outcome{
			ID:        models.GenerateOutcomeID(runID, file),
			RunID:     runID,
			File:      file,
			Stage:     models.StageExtracted,
			Status:    models.StatusSkipped,
			Timestamp: time.Now(),
		},
	}
	skip := func(step string, err error) events.DocumentEvent {
		event.Outcome.Reason = fmt.Sprintf("%s: %v", step, err)
		return event
	}

	slog.Debug("processing document", "file", file)

	article, err := p.converter.Convert(path)
	if err != nil {
		return skip("parse", err)
	}
	event.Article = &article
	event.Outcome.Title = article.Title
	if !article.HasContent() {
		return skip("parse", errNoContent)
	}
	event.Outcome.Stage = models.StageParsed

	data, err := p.images.Generate(ctx, p.config.Prompt)
	if err != nil {
		return skip("generate image", err)
	}
	if len(data) == 0 {
		return skip("generate image", errEmptyImage)
	}
	image := models.GeneratedImage{Data: data, Filename: models.ImageFilename(article.Title)}
	event.Image = &image
	event.Outcome.Stage = models.StageImageGenerated

	mediaID, err := p.publisher.UploadMedia(ctx, image.Data, image.Filename)
	if err != nil {
		return skip("upload image", err)
	}
	if mediaID == 0 {
		return skip("upload image", errNoMediaID)
	}
	event.Outcome.MediaID = mediaID
	event.Outcome.Stage = models.StageImageUploaded

	postID, err := p.publisher.CreatePost(ctx, models.DraftPost{
		Title:         article.Title,
		Content:       article.ContentHTML,
		Status:        models.PostStatusDraft,
		Categories:    []int{p.config.CategoryID},
		FeaturedMedia: mediaID,
		Meta:          models.PostMeta{MetaDescription: article.Summary},
	})
	if err != nil {
		return skip("publish post", err)
	}
	event.Outcome.PostID = postID
	event.Outcome.Stage = models.StagePublished
	event.Outcome.Status = models.StatusPublished

	return event
}
