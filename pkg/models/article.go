package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Placeholders used when a document yields no usable text.
const (
	UntitledPlaceholder = "Sans titre"
	NoContentSentinel   = "Pas de contenu"
)

// Article is the result of converting one source document.
type Article struct {
	SourcePath  string `json:"source_path"`
	Title       string `json:"title"`
	ContentHTML string `json:"content_html"`
	Summary     string `json:"summary"` // Plain-text excerpt used as SEO meta description
}

// HasContent reports whether the article carries a body worth publishing.
func (a Article) HasContent() bool {
	content := strings.TrimSpace(a.ContentHTML)
	return content != "" && content != NoContentSentinel
}

// GeneratedImage holds an illustration fetched from the image API.
type GeneratedImage struct {
	Data     []byte
	Filename string
}

// ImageFilename derives the media filename from an article title.
// Spaces become underscores and ".jpg" is appended whatever the real encoding.
func ImageFilename(title string) string {
	return strings.ReplaceAll(title, " ", "_") + ".jpg"
}

// PostStatusDraft is the only status posts are created with.
const PostStatusDraft = "draft"

// DraftPost is the payload sent to the CMS posts endpoint.
type DraftPost struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Status        string   `json:"status"`
	Categories    []int    `json:"categories"`
	FeaturedMedia int      `json:"featured_media"`
	Meta          PostMeta `json:"meta"`
}

// PostMeta carries SEO plugin fields.
type PostMeta struct {
	MetaDescription string `json:"yoast_wpseo_metadesc"`
}

// Stage names a step of the per-document pipeline.
type Stage string

const (
	StageExtracted      Stage = "extracted"
	StageParsed         Stage = "parsed"
	StageImageGenerated Stage = "image_generated"
	StageImageUploaded  Stage = "image_uploaded"
	StagePublished      Stage = "published"
)

// Status is the terminal state of a document within a run.
type Status string

const (
	StatusPublished Status = "published"
	StatusSkipped   Status = "skipped"
)

// Outcome records what happened to one document during a run.
// Stage is the last stage reached before the document was published or skipped.
type Outcome struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	File      string    `json:"file"`
	Title     string    `json:"title,omitempty"`
	Stage     Stage     `json:"stage"`
	Status    Status    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	MediaID   int       `json:"media_id,omitempty"`
	PostID    int       `json:"post_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// GenerateOutcomeID creates a deterministic ID for a document within a run.
// The ID is a SHA-256 hash (first 16 chars) of the run ID and file name.
func GenerateOutcomeID(runID, file string) string {
	hash := sha256.Sum256([]byte(runID + "/" + file))
	return hex.EncodeToString(hash[:])[:16]
}
