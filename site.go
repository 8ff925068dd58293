package docpipe

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Site represents a canonical source identity documents are attributed to.
type Site struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	BaseURL   string    `json:"baseUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate returns an error if the site contains invalid fields.
func (s *Site) Validate() error {
	if s.Name == "" {
		return Errorf(EINVALID, "site name required")
	}
	return nil
}

// SiteService represents a service for managing sites.
type SiteService interface {
	// FindOrCreateSite returns the site with the given name, creating it with
	// baseURL if it does not exist yet. An existing site is never modified.
	FindOrCreateSite(ctx context.Context, name, baseURL string) (*Site, error)

	// FindSiteByID retrieves a site by ID.
	// Returns ENOTFOUND if site does not exist.
	FindSiteByID(ctx context.Context, id int64) (*Site, error)

	// FindSites retrieves sites matching the filter.
	FindSites(ctx context.Context, filter SiteFilter) ([]*Site, error)
}

// SiteFilter represents a filter for FindSites.
type SiteFilter struct {
	ID   *int64  `json:"id"`
	Name *string `json:"name"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// SiteDefinition is the configured description of a source site.
type SiteDefinition struct {
	Name    string
	BaseURL string

	// Dirs are the site's download directories, relative to the site root.
	Dirs []string

	// Fragments are path fragments that identify files belonging to the
	// site. A site may own several fragments.
	Fragments []string
}

// DefaultBaseURL returns the base URL used for a site without one configured.
func DefaultBaseURL(name string) string {
	return "https://www." + name
}

// URL returns the configured base URL or the default for the site name.
func (d SiteDefinition) URL() string {
	if d.BaseURL != "" {
		return d.BaseURL
	}
	return DefaultBaseURL(d.Name)
}

// Directories returns the site's download directories joined to root. A site
// without configured directories uses a directory named after the site.
func (d SiteDefinition) Directories(root string) []string {
	dirs := d.Dirs
	if len(dirs) == 0 {
		dirs = []string{d.Name}
	}
	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if filepath.IsAbs(dir) {
			out = append(out, filepath.Clean(dir))
			continue
		}
		out = append(out, filepath.Join(root, dir))
	}
	return out
}

// WordDirName is the directory converted Word documents are written to.
const WordDirName = "words_downloads"

// WordDirectory returns the directory converted documents of a download
// directory go to: a words_downloads sibling of a pdf_* directory, or a
// subdirectory of any other.
func WordDirectory(dir string) string {
	if strings.HasPrefix(filepath.Base(dir), "pdf_") {
		return filepath.Join(filepath.Dir(dir), WordDirName)
	}
	return filepath.Join(dir, WordDirName)
}

// ConvertedDirectories returns the word directories of the site that do not
// already lie inside one of its download directories.
func (d SiteDefinition) ConvertedDirectories(root string) []string {
	dirs := d.Directories(root)
	var out []string
	for _, dir := range dirs {
		wd := WordDirectory(dir)
		if slices.Contains(out, wd) || withinAny(wd, dirs) {
			continue
		}
		out = append(out, wd)
	}
	return out
}

func withinAny(path string, dirs []string) bool {
	for _, dir := range dirs {
		rel, err := filepath.Rel(dir, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
