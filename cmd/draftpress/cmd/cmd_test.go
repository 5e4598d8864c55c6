package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/mfenderov/draftpress/internal/config"
	"github.com/mfenderov/draftpress/internal/pipeline"
	"github.com/mfenderov/draftpress/pkg/models"
)

func TestLoadConfig_Defaults(t *testing.T) {
	c := loadConfig(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))

	if c.Source.ArchivePath != "articles.zip" {
		t.Errorf("ArchivePath = %q, want articles.zip", c.Source.ArchivePath)
	}
	if c.WordPress.CategoryID != 17 {
		t.Errorf("CategoryID = %d, want 17", c.WordPress.CategoryID)
	}
}

func TestLoadConfig_LegacyEnv(t *testing.T) {
	t.Setenv("ZIP_URL", "https://files.example.com/articles.zip")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("WP_USER", "editor")
	t.Setenv("WP_APP_PASSWORD", "abcd efgh")

	c := loadConfig(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))

	if c.Source.ArchiveURL != "https://files.example.com/articles.zip" {
		t.Errorf("ArchiveURL = %q", c.Source.ArchiveURL)
	}
	if c.Images.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", c.Images.APIKey)
	}
	if c.WordPress.Username != "editor" || c.WordPress.AppPassword != "abcd efgh" {
		t.Errorf("WordPress = %+v", c.WordPress)
	}
}

func TestLoadConfig_PrefixedEnvWins(t *testing.T) {
	t.Setenv("ZIP_URL", "https://legacy.example.com/a.zip")
	t.Setenv("DRAFTPRESS_SOURCE_ARCHIVE_URL", "https://new.example.com/a.zip")
	t.Setenv("DRAFTPRESS_WORDPRESS_CATEGORY_ID", "23")
	t.Setenv("DRAFTPRESS_JOURNAL_ADDRESSES", "http://es1:9200,http://es2:9200")

	c := loadConfig(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))

	if c.Source.ArchiveURL != "https://new.example.com/a.zip" {
		t.Errorf("ArchiveURL = %q", c.Source.ArchiveURL)
	}
	if c.WordPress.CategoryID != 23 {
		t.Errorf("CategoryID = %d, want 23", c.WordPress.CategoryID)
	}
	if len(c.Journal.Addresses) != 2 {
		t.Errorf("Addresses = %v", c.Journal.Addresses)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
source:
  work_dir: /tmp/docs
converter:
  strategy: document
wordpress:
  site_url: https://blog.example.org
http:
  timeout: 30s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c := loadConfig(viper.New(), path)

	if c.Source.WorkDir != "/tmp/docs" {
		t.Errorf("WorkDir = %q", c.Source.WorkDir)
	}
	if c.Source.ArchivePath != "articles.zip" {
		t.Errorf("ArchivePath = %q, default should survive", c.Source.ArchivePath)
	}
	if c.Converter.Strategy != "document" {
		t.Errorf("Strategy = %q", c.Converter.Strategy)
	}
	if c.WordPress.SiteURL != "https://blog.example.org" {
		t.Errorf("SiteURL = %q", c.WordPress.SiteURL)
	}
	if c.HTTP.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", c.HTTP.Timeout)
	}
}

func TestNewPipeline(t *testing.T) {
	c := config.Defaults()
	if _, err := newPipeline(context.Background(), c); err != nil {
		t.Fatalf("newPipeline() error = %v", err)
	}

	c.Converter.Strategy = "ocr"
	if _, err := newPipeline(context.Background(), c); err == nil {
		t.Error("newPipeline() should reject an unknown strategy")
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &pipeline.Result{
		RunID:     "run-1",
		Documents: 2,
		Published: 1,
		Skipped:   1,
		Outcomes: []models.Outcome{
			{File: "a.docx", Status: models.StatusPublished, Stage: models.StagePublished},
			{File: "b.docx", Status: models.StatusSkipped, Stage: models.StageParsed, Reason: "generate image: quota"},
		},
		Errors: []string{"download: timeout"},
	})

	out := buf.String()
	for _, want := range []string{
		"Documents: 2",
		"Drafts created: 1",
		"Skipped: 1",
		"- b.docx (parsed): generate image: quota",
		"- download: timeout",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "a.docx") {
		t.Errorf("published documents should not be listed:\n%s", out)
	}
}

func TestWritePreview(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		err := writePreview(&buf, models.Article{
			Title:       "My Title",
			ContentHTML: "Sentence one.<br>Sentence two.",
			Summary:     "Sentence one. Sentence two.",
		}, "text")
		if err != nil {
			t.Fatalf("writePreview() error = %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "Title:   My Title") || !strings.Contains(out, "Image:   My_Title.jpg") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("no content", func(t *testing.T) {
		var buf bytes.Buffer
		err := writePreview(&buf, models.Article{
			Title:       models.UntitledPlaceholder,
			ContentHTML: models.NoContentSentinel,
		}, "text")
		if err != nil {
			t.Fatalf("writePreview() error = %v", err)
		}
		if !strings.Contains(buf.String(), "would be skipped") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writePreview(&buf, models.Article{Title: "T"}, "json"); err != nil {
			t.Fatalf("writePreview() error = %v", err)
		}
		if !strings.Contains(buf.String(), `"title": "T"`) {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})
}

func TestWriteHistory(t *testing.T) {
	var buf bytes.Buffer
	if err := writeHistory(&buf, nil, "text"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No results found.") {
		t.Errorf("unexpected output: %s", buf.String())
	}

	buf.Reset()
	err := writeHistory(&buf, []models.Outcome{
		{File: "a.docx", Title: "A", Status: models.StatusPublished, Stage: models.StagePublished, PostID: 9, MediaID: 4},
	}, "text")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Post:    9 (media 4)") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}
