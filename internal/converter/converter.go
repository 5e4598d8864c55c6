package converter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mfenderov/draftpress/internal/docx"
	"github.com/mfenderov/draftpress/pkg/models"
)

// Strategy names accepted by New.
const (
	StrategyParagraphs = "paragraphs"
	StrategyDocument   = "document"
)

// SummaryWords is the number of words kept in a summary before truncation.
const SummaryWords = 20

// Converter turns one .docx file into an article.
// A document without usable text yields an article whose HasContent is false.
type Converter interface {
	Convert(path string) (models.Article, error)
}

// New returns the converter for the named strategy.
func New(strategy string) (Converter, error) {
	switch strategy {
	case StrategyParagraphs, "":
		return Paragraphs{}, nil
	case StrategyDocument:
		return WholeDocument{}, nil
	default:
		return nil, fmt.Errorf("unknown conversion strategy %q", strategy)
	}
}

// Paragraphs uses the first non-empty paragraph as the title and the
// remaining paragraphs, joined by <br>, as the body.
type Paragraphs struct{}

// Convert implements Converter.
func (Paragraphs) Convert(path string) (models.Article, error) {
	doc, err := docx.Open(path)
	if err != nil {
		return models.Article{}, err
	}

	var paragraphs []string
	for _, p := range doc.Paragraphs() {
		if text := strings.TrimSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}

	article := models.Article{
		SourcePath:  path,
		Title:       models.UntitledPlaceholder,
		ContentHTML: models.NoContentSentinel,
		Summary:     models.NoContentSentinel,
	}
	if len(paragraphs) > 0 {
		article.Title = paragraphs[0]
	}
	if len(paragraphs) > 1 {
		body := paragraphs[1:]
		article.ContentHTML = strings.Join(body, "<br>")
		article.Summary = Summarize(strings.Join(body, " "))
	}

	slog.Debug("converted document", "path", path, "strategy", StrategyParagraphs, "paragraphs", len(paragraphs))
	return article, nil
}

// WholeDocument renders the entire document as HTML and titles the article
// after the file name, ignoring any title inside the document.
type WholeDocument struct{}

// Convert implements Converter.
func (WholeDocument) Convert(path string) (models.Article, error) {
	doc, err := docx.Open(path)
	if err != nil {
		return models.Article{}, err
	}

	content := doc.HTML()
	article := models.Article{
		SourcePath:  path,
		Title:       TitleFromPath(path),
		ContentHTML: content,
		Summary:     Summarize(StripTags(content)),
	}

	slog.Debug("converted document", "path", path, "strategy", StrategyDocument, "html_len", len(content))
	return article, nil
}

// TitleFromPath returns the file base name without its extension.
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Summarize keeps the first SummaryWords whitespace-separated words followed
// by "..." when the text is longer, otherwise returns the text as is.
func Summarize(text string) string {
	words := strings.Fields(text)
	if len(words) > SummaryWords {
		return strings.Join(words[:SummaryWords], " ") + "..."
	}
	return strings.TrimSpace(text)
}
