package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fwojciec/docpipe"
)

// Compile-time interface verification.
var _ docpipe.SiteService = (*SiteService)(nil)

// SiteService implements docpipe.SiteService using SQLite.
type SiteService struct {
	db *DB
}

// NewSiteService creates a new SiteService.
func NewSiteService(db *DB) *SiteService {
	return &SiteService{db: db}
}

// FindOrCreateSite returns the named site, creating it on first use.
func (s *SiteService) FindOrCreateSite(ctx context.Context, name, baseURL string) (*docpipe.Site, error) {
	site := &docpipe.Site{Name: name, BaseURL: baseURL}
	if err := site.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO sites (name, base_url, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO NOTHING
	`, name, baseURL, formatTime(time.Now())); err != nil {
		return nil, err
	}

	return scanSite(s.db.QueryRowContext(ctx,
		"SELECT id, name, base_url, created_at FROM sites WHERE name = ?", name))
}

// FindSiteByID retrieves a site by ID.
func (s *SiteService) FindSiteByID(ctx context.Context, id int64) (*docpipe.Site, error) {
	site, err := scanSite(s.db.QueryRowContext(ctx,
		"SELECT id, name, base_url, created_at FROM sites WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, docpipe.Errorf(docpipe.ENOTFOUND, "site %d not found", id)
	}
	return site, err
}

// FindSites retrieves sites matching the filter.
func (s *SiteService) FindSites(ctx context.Context, filter docpipe.SiteFilter) ([]*docpipe.Site, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, name, base_url, created_at FROM sites WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.Name != nil {
		query.WriteString(" AND name = ?")
		args = append(args, *filter.Name)
	}

	query.WriteString(" ORDER BY name ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []*docpipe.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

func scanSite(row scanner) (*docpipe.Site, error) {
	var site docpipe.Site
	var createdAt string
	if err := row.Scan(&site.ID, &site.Name, &site.BaseURL, &createdAt); err != nil {
		return nil, err
	}

	var err error
	site.CreatedAt, err = parseRFC3339(createdAt, "created_at")
	if err != nil {
		return nil, err
	}
	return &site, nil
}
