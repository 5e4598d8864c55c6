package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mfenderov/draftpress/internal/converter"
	"github.com/mfenderov/draftpress/internal/events"
	"github.com/mfenderov/draftpress/pkg/models"
)

// Config holds S3/MinIO client configuration.
type Config struct {
	Endpoint        string // "localhost:9000" for MinIO
	Bucket          string // "draftpress"
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// Client archives run artifacts in an S3-compatible bucket:
//
//	runs/<run id>/articles/<document>.md
//	runs/<run id>/images/<image filename>
//	runs/<run id>/manifest.json
type Client struct {
	minioClient *minio.Client
	bucket      string

	mu       sync.Mutex
	outcomes map[string][]models.Outcome // run id -> outcomes seen so far
}

// New creates a new S3/MinIO client.
func New(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	minioClient, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Client{
		minioClient: minioClient,
		bucket:      config.Bucket,
		outcomes:    make(map[string][]models.Outcome),
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.minioClient.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	err = c.minioClient.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// RunManifest summarizes one run.
type RunManifest struct {
	RunID      string           `json:"run_id"`
	ArchiveURL string           `json:"archive_url"`
	Timestamp  string           `json:"timestamp"`
	Documents  int              `json:"documents"`
	Published  int              `json:"published"`
	Skipped    int              `json:"skipped"`
	Duration   string           `json:"duration"`
	Errors     []string         `json:"errors,omitempty"`
	Outcomes   []models.Outcome `json:"outcomes"`
}

func runPrefix(runID string) string {
	return path.Join("runs", runID)
}

// ArticleName returns the markdown object name for a source document.
func ArticleName(file string) string {
	return strings.TrimSuffix(path.Base(file), path.Ext(file)) + ".md"
}

func (c *Client) put(ctx context.Context, objectName string, data []byte, contentType string) error {
	_, err := c.minioClient.PutObject(ctx, c.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (c *Client) get(ctx context.Context, objectName string) ([]byte, error) {
	object, err := c.minioClient.GetObject(ctx, c.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer object.Close()
	return io.ReadAll(object)
}

// PutArticle writes the markdown rendering of a document.
func (c *Client) PutArticle(ctx context.Context, runID, file, content string) error {
	objectName := path.Join(runPrefix(runID), "articles", ArticleName(file))
	if err := c.put(ctx, objectName, []byte(content), "text/markdown"); err != nil {
		return fmt.Errorf("failed to put article: %w", err)
	}
	return nil
}

// PutImage writes a generated illustration.
func (c *Client) PutImage(ctx context.Context, runID string, image models.GeneratedImage) error {
	objectName := path.Join(runPrefix(runID), "images", image.Filename)
	if err := c.put(ctx, objectName, image.Data, "image/jpeg"); err != nil {
		return fmt.Errorf("failed to put image: %w", err)
	}
	return nil
}

// PutManifest writes the run manifest JSON.
func (c *Client) PutManifest(ctx context.Context, manifest RunManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	objectName := path.Join(runPrefix(manifest.RunID), "manifest.json")
	if err := c.put(ctx, objectName, data, "application/json"); err != nil {
		return fmt.Errorf("failed to put manifest: %w", err)
	}
	return nil
}

// GetManifest reads the manifest of a run.
func (c *Client) GetManifest(ctx context.Context, runID string) (*RunManifest, error) {
	data, err := c.get(ctx, path.Join(runPrefix(runID), "manifest.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to get manifest: %w", err)
	}

	var manifest RunManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &manifest, nil
}

// ListArticles returns the markdown object names stored for a run.
func (c *Client) ListArticles(ctx context.Context, runID string) ([]string, error) {
	prefix := path.Join(runPrefix(runID), "articles") + "/"
	var files []string

	objectCh := c.minioClient.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		if strings.HasSuffix(object.Key, ".md") {
			files = append(files, path.Base(object.Key))
		}
	}

	return files, nil
}

// GetArticle reads an archived markdown article.
func (c *Client) GetArticle(ctx context.Context, runID, name string) (string, error) {
	data, err := c.get(ctx, path.Join(runPrefix(runID), "articles", name))
	if err != nil {
		return "", fmt.Errorf("failed to get article: %w", err)
	}
	return string(data), nil
}

// DocumentProcessed archives the article and image of a document, when present.
// Failures are logged and never reach the run.
func (c *Client) DocumentProcessed(ctx context.Context, e events.DocumentEvent) {
	c.mu.Lock()
	c.outcomes[e.Outcome.RunID] = append(c.outcomes[e.Outcome.RunID], e.Outcome)
	c.mu.Unlock()

	if e.Article != nil && e.Article.HasContent() {
		md, err := RenderArticle(*e.Article)
		if err != nil {
			slog.Warn("failed to render article", "file", e.Outcome.File, "error", err)
		} else if err := c.PutArticle(ctx, e.Outcome.RunID, e.Outcome.File, md); err != nil {
			slog.Warn("failed to archive article", "file", e.Outcome.File, "error", err)
		}
	}

	if e.Image != nil {
		if err := c.PutImage(ctx, e.Outcome.RunID, *e.Image); err != nil {
			slog.Warn("failed to archive image", "file", e.Outcome.File, "error", err)
		}
	}
}

// RunComplete writes the run manifest.
func (c *Client) RunComplete(ctx context.Context, e events.RunCompleteEvent) {
	c.mu.Lock()
	outcomes := c.outcomes[e.RunID]
	delete(c.outcomes, e.RunID)
	c.mu.Unlock()

	manifest := NewManifest(e, outcomes)
	if err := c.PutManifest(ctx, manifest); err != nil {
		slog.Warn("failed to archive run manifest", "run_id", e.RunID, "error", err)
		return
	}
	slog.Info("archived run", "bucket", c.bucket, "prefix", runPrefix(e.RunID))
}

// NewManifest builds the manifest for a finished run.
func NewManifest(e events.RunCompleteEvent, outcomes []models.Outcome) RunManifest {
	if outcomes == nil {
		outcomes = []models.Outcome{}
	}
	return RunManifest{
		RunID:      e.RunID,
		ArchiveURL: e.ArchiveURL,
		Timestamp:  e.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
		Documents:  e.Documents,
		Published:  e.Published,
		Skipped:    e.Skipped,
		Duration:   e.Duration.String(),
		Errors:     e.Errors,
		Outcomes:   outcomes,
	}
}

// RenderArticle renders an article as a markdown page headed by its title.
func RenderArticle(article models.Article) (string, error) {
	body, err := converter.Markdown(article.ContentHTML)
	if err != nil {
		return "", err
	}
	return "# " + article.Title + "\n\n" + body + "\n", nil
}

// Bucket returns the bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}
