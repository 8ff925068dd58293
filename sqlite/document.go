package sqlite

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/docpipe"
)

// Compile-time interface verification.
var _ docpipe.DocumentService = (*DocumentService)(nil)

const documentColumns = `id, filename, path, size_bytes, site_id, extracted_text, text_length, page_count,
	content_hash, relevant, language, theme, confidence, summary, is_extracted, is_analyzed,
	error_message, created_at, updated_at, processed_at`

// DocumentService implements docpipe.DocumentService using SQLite.
type DocumentService struct {
	db *DB
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(db *DB) *DocumentService {
	return &DocumentService{db: db}
}

// hashContent computes xxHash of content and returns hex string.
func hashContent(content string) string {
	h := xxhash.Sum64String(content)
	b := make([]byte, 8)
	b[0] = byte(h >> 56)
	b[1] = byte(h >> 48)
	b[2] = byte(h >> 40)
	b[3] = byte(h >> 32)
	b[4] = byte(h >> 24)
	b[5] = byte(h >> 16)
	b[6] = byte(h >> 8)
	b[7] = byte(h)
	return hex.EncodeToString(b)
}

// UpsertDiscovered inserts a record for the file unless one already exists.
func (s *DocumentService) UpsertDiscovered(ctx context.Context, f *docpipe.DiscoveredFile) (*docpipe.Document, bool, error) {
	if err := f.Validate(); err != nil {
		return nil, false, err
	}

	now := formatTime(time.Now())
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (filename, path, size_bytes, site_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (filename, path) DO NOTHING
	`, f.Filename, f.Path, f.Size, nullInt64(f.SiteID), now, now)
	if err != nil {
		return nil, false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	doc, err := scanDocument(s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE filename = ? AND path = ?",
		f.Filename, f.Path))
	if err != nil {
		return nil, false, err
	}

	return doc, rows == 1, nil
}

// FindDocumentByID retrieves a document by ID.
func (s *DocumentService) FindDocumentByID(ctx context.Context, id int64) (*docpipe.Document, error) {
	doc, err := scanDocument(s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, docpipe.Errorf(docpipe.ENOTFOUND, "document %d not found", id)
	}
	return doc, err
}

// FindDocuments retrieves documents matching the filter.
func (s *DocumentService) FindDocuments(ctx context.Context, filter docpipe.DocumentFilter) ([]*docpipe.Document, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + documentColumns + " FROM documents WHERE 1=1")
	writeDocumentFilter(&query, &args, filter)
	query.WriteString(" ORDER BY id ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	return s.queryDocuments(ctx, query.String(), args...)
}

// ListUnanalyzed returns unanalyzed documents whose ID is not excluded.
func (s *DocumentService) ListUnanalyzed(ctx context.Context, exclude map[int64]struct{}) ([]*docpipe.Document, error) {
	docs, err := s.queryDocuments(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE is_analyzed = 0 ORDER BY id ASC")
	if err != nil {
		return nil, err
	}

	var out []*docpipe.Document
	for _, doc := range docs {
		if _, ok := exclude[doc.ID]; ok {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

// Filenames returns the set of filenames of all stored documents.
func (s *DocumentService) Filenames(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT filename FROM documents")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names[name] = struct{}{}
	}
	return names, rows.Err()
}

// RecordExtraction stores extracted text for a document. processed_at keeps
// the time of the first successful extraction.
func (s *DocumentService) RecordExtraction(ctx context.Context, id int64, res *docpipe.ExtractionResult) error {
	if res == nil {
		return docpipe.Errorf(docpipe.EINVALID, "extraction result required")
	}

	now := formatTime(time.Now())
	result, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET extracted_text = ?, text_length = ?, page_count = ?,
			size_bytes = CASE WHEN ? > 0 THEN ? ELSE size_bytes END,
			content_hash = ?, is_extracted = 1,
			processed_at = COALESCE(processed_at, ?), updated_at = ?
		WHERE id = ?
	`, res.Text, utf8.RuneCountInString(res.Text), res.PageCount,
		res.Size, res.Size, hashContent(res.Text), now, now, id)
	if err != nil {
		return err
	}
	return requireAffected(result, "document %d not found", id)
}

// RecordAnalysis stores a classification for an extracted document.
func (s *DocumentService) RecordAnalysis(ctx context.Context, id int64, c *docpipe.Classification) error {
	if c == nil {
		return docpipe.Errorf(docpipe.EINVALID, "classification required")
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET relevant = ?, language = ?, theme = ?, confidence = ?, summary = ?,
			is_analyzed = 1, error_message = NULL, updated_at = ?
		WHERE id = ? AND is_extracted = 1
	`, boolToInt(c.Relevant), c.Language, c.Theme, c.Confidence, c.Summary, formatTime(time.Now()), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 1 {
		return nil
	}

	// Distinguish a missing record from one that was never extracted.
	var extracted bool
	err = s.db.QueryRowContext(ctx, "SELECT is_extracted FROM documents WHERE id = ?", id).Scan(&extracted)
	if errors.Is(err, sql.ErrNoRows) {
		return docpipe.Errorf(docpipe.ENOTFOUND, "document %d not found", id)
	}
	if err != nil {
		return err
	}
	return docpipe.Errorf(docpipe.EPRECONDITION, "document %d analyzed before extraction", id)
}

// MarkFailed records the failure of a stage on a document. A failed analysis
// also stores the sentinel classification, leaving is_analyzed unset so the
// document stays pending.
func (s *DocumentService) MarkFailed(ctx context.Context, id int64, stage docpipe.Stage, message string) error {
	msg := fmt.Sprintf("%s: %s", stage, message)
	now := formatTime(time.Now())

	var result sql.Result
	var err error
	if stage == docpipe.StageAnalyze {
		c := docpipe.ErrorClassification()
		result, err = s.db.ExecContext(ctx, `
			UPDATE documents
			SET relevant = ?, language = ?, theme = ?, confidence = ?, summary = ?,
				error_message = ?, updated_at = ?
			WHERE id = ?
		`, c.Relevant, c.Language, c.Theme, c.Confidence, c.Summary, msg, now, id)
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE documents SET error_message = ?, updated_at = ? WHERE id = ?
		`, msg, now, id)
	}
	if err != nil {
		return err
	}
	return requireAffected(result, "document %d not found", id)
}

// AssignSite attributes a document to a site.
func (s *DocumentService) AssignSite(ctx context.Context, id int64, siteID int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE documents SET site_id = ?, updated_at = ? WHERE id = ?
	`, siteID, formatTime(time.Now()), id)
	if err != nil {
		return err
	}
	return requireAffected(result, "document %d not found", id)
}

// DeleteDocuments removes documents matching the filter.
func (s *DocumentService) DeleteDocuments(ctx context.Context, filter docpipe.DocumentFilter) ([]int64, error) {
	var query strings.Builder
	var args []any

	query.WriteString("DELETE FROM documents WHERE 1=1")
	writeDocumentFilter(&query, &args, filter)
	query.WriteString(" RETURNING id")

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *DocumentService) queryDocuments(ctx context.Context, query string, args ...any) ([]*docpipe.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*docpipe.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// writeDocumentFilter appends the filter's conditions to a WHERE 1=1 query.
func writeDocumentFilter(query *strings.Builder, args *[]any, filter docpipe.DocumentFilter) {
	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		*args = append(*args, *filter.ID)
	}
	if filter.SiteID != nil {
		query.WriteString(" AND site_id = ?")
		*args = append(*args, *filter.SiteID)
	}
	if filter.Filename != nil {
		query.WriteString(" AND filename = ?")
		*args = append(*args, *filter.Filename)
	}
	if filter.Unattributed {
		query.WriteString(" AND site_id IS NULL")
	}
	if filter.IsExtracted != nil {
		query.WriteString(" AND is_extracted = ?")
		*args = append(*args, boolToInt(*filter.IsExtracted))
	}
	if filter.IsAnalyzed != nil {
		query.WriteString(" AND is_analyzed = ?")
		*args = append(*args, boolToInt(*filter.IsAnalyzed))
	}
	if filter.Failed {
		query.WriteString(" AND error_message IS NOT NULL")
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*docpipe.Document, error) {
	var doc docpipe.Document
	var siteID sql.NullInt64
	var text, errMsg, processedAt sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&doc.ID, &doc.Filename, &doc.Path, &doc.Size, &siteID, &text,
		&doc.TextLength, &doc.PageCount, &doc.ContentHash, &doc.Relevant, &doc.Language,
		&doc.Theme, &doc.Confidence, &doc.Summary, &doc.IsExtracted, &doc.IsAnalyzed,
		&errMsg, &createdAt, &updatedAt, &processedAt); err != nil {
		return nil, err
	}

	if siteID.Valid {
		doc.SiteID = &siteID.Int64
	}
	if text.Valid {
		doc.ExtractedText = &text.String
	}
	if errMsg.Valid {
		doc.ErrorMessage = &errMsg.String
	}

	var err error
	if doc.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if doc.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	if processedAt.Valid {
		t, err := parseRFC3339(processedAt.String, "processed_at")
		if err != nil {
			return nil, err
		}
		doc.ProcessedAt = &t
	}

	return &doc, nil
}
