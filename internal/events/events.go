package events

import (
	"time"

	"github.com/mfenderov/draftpress/pkg/models"
)

// DocumentEvent is sent when a document has been published or skipped.
type DocumentEvent struct {
	Outcome models.Outcome         // What happened to the document
	Article *models.Article        // nil when conversion failed
	Image   *models.GeneratedImage // nil when no image was generated
}

// RunCompleteEvent is sent once every document of a run has been handled.
type RunCompleteEvent struct {
	RunID      string        // Identifier shared by every outcome of the run
	ArchiveURL string        // Source archive
	Documents  int           // Number of .docx files found
	Published  int           // Number of drafts created
	Skipped    int           // Number of documents skipped
	Duration   time.Duration // How long the run took
	Timestamp  time.Time     // When the run finished
	Errors     []string      // Download/extraction problems (non-fatal)
}
