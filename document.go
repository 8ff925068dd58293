package docpipe

import (
	"context"
	"strings"
	"time"
)

// Document represents one discovered source file and its processing status.
type Document struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	SiteID   *int64 `json:"siteId"`

	// Extraction fields. ExtractedText is nil until the first successful
	// extraction; TextLength always equals its length when set.
	ExtractedText *string `json:"extractedText"`
	TextLength    int     `json:"textLength"`
	PageCount     int     `json:"pageCount"`
	ContentHash   string  `json:"contentHash"`

	// Classification fields.
	Relevant   bool   `json:"relevant"`
	Language   string `json:"language"`
	Theme      string `json:"theme"`
	Confidence string `json:"confidence"`
	Summary    string `json:"summary"`

	IsExtracted  bool       `json:"isExtracted"`
	IsAnalyzed   bool       `json:"isAnalyzed"`
	ErrorMessage *string    `json:"errorMessage"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	ProcessedAt  *time.Time `json:"processedAt"`
}

// Text returns the extracted text or an empty string.
func (d *Document) Text() string {
	if d.ExtractedText == nil {
		return ""
	}
	return *d.ExtractedText
}

// Classification returns the classification fields recorded on d.
func (d *Document) Classification() Classification {
	return Classification{
		Relevant:   d.Relevant,
		Language:   d.Language,
		Theme:      d.Theme,
		Confidence: d.Confidence,
		Summary:    d.Summary,
	}
}

// FailedAt reports whether the last recorded failure happened at stage.
func (d *Document) FailedAt(stage Stage) bool {
	return d.ErrorMessage != nil && strings.HasPrefix(*d.ErrorMessage, string(stage)+":")
}

// AnalysisDelta drops documents whose source could not be extracted. They
// stay out of analysis until an administrative reset.
func AnalysisDelta(docs []*Document) []*Document {
	out := docs[:0:0]
	for _, d := range docs {
		if !d.IsExtracted && d.FailedAt(StageExtract) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// DiscoveredFile describes a file found on disk by the ingestion stage.
type DiscoveredFile struct {
	Filename string
	Path     string
	Size     int64
	SiteID   *int64
}

// Validate returns an error if the discovered file contains invalid fields.
func (f *DiscoveredFile) Validate() error {
	if f.Filename == "" {
		return Errorf(EINVALID, "document filename required")
	}
	if f.Path == "" {
		return Errorf(EINVALID, "document path required")
	}
	return nil
}

// DocumentService represents a service for managing document records.
type DocumentService interface {
	// UpsertDiscovered inserts a record for the file unless one already exists
	// for the same filename and path. An existing record is returned untouched
	// and created is false.
	UpsertDiscovered(ctx context.Context, f *DiscoveredFile) (doc *Document, created bool, err error)

	// FindDocumentByID retrieves a document by ID.
	// Returns ENOTFOUND if document does not exist.
	FindDocumentByID(ctx context.Context, id int64) (*Document, error)

	// FindDocuments retrieves documents matching the filter.
	FindDocuments(ctx context.Context, filter DocumentFilter) ([]*Document, error)

	// ListUnanalyzed returns documents that are not analyzed and whose ID is
	// not in exclude.
	ListUnanalyzed(ctx context.Context, exclude map[int64]struct{}) ([]*Document, error)

	// Filenames returns the set of filenames of all stored documents.
	Filenames(ctx context.Context) (map[string]struct{}, error)

	// RecordExtraction stores extracted text for a document.
	// Returns ENOTFOUND if document does not exist.
	RecordExtraction(ctx context.Context, id int64, res *ExtractionResult) error

	// RecordAnalysis stores a classification and marks the document analyzed.
	// Returns ENOTFOUND if document does not exist and EPRECONDITION if the
	// document has not been extracted.
	RecordAnalysis(ctx context.Context, id int64, c *Classification) error

	// MarkFailed records an error message for a stage without touching the
	// success flags recorded by earlier stages. A failed analysis also stores
	// the sentinel classification.
	MarkFailed(ctx context.Context, id int64, stage Stage, message string) error

	// AssignSite attributes a document to a site.
	AssignSite(ctx context.Context, id int64, siteID int64) error

	// DeleteDocuments removes documents matching the filter and returns the
	// IDs that were removed. Only administrative commands call this.
	DeleteDocuments(ctx context.Context, filter DocumentFilter) ([]int64, error)
}

// DocumentFilter represents a filter for FindDocuments and DeleteDocuments.
type DocumentFilter struct {
	ID       *int64  `json:"id"`
	SiteID   *int64  `json:"siteId"`
	Filename *string `json:"filename"`

	// Unattributed selects documents without a site.
	Unattributed bool `json:"unattributed"`
	IsExtracted  *bool `json:"isExtracted"`
	IsAnalyzed   *bool `json:"isAnalyzed"`
	// Failed selects documents with an error message.
	Failed bool `json:"failed"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// ChangeDetector computes which files on disk still need ingestion.
type ChangeDetector interface {
	// FilesNeedingIngestion returns the base filenames under dir that match
	// the ingestion filter and are not yet known to the document store.
	// A missing directory yields an empty set.
	FilesNeedingIngestion(ctx context.Context, dir string) (map[string]struct{}, error)
}
