// Package fs provides file-based implementations: the JSON result cache,
// the change detector and helpers for writing pipeline artifacts.
package fs

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// URLToPath converts a page URL to a relative file path with extension ext.
// Example: https://example.com/docs/api/users → docs/api/users.html
func URLToPath(rawURL, ext string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	path := u.Path

	// Handle root or trailing slash → index
	if path == "" || path == "/" {
		return "index" + ext, nil
	}

	// Remove leading slash
	path = strings.TrimPrefix(path, "/")

	// Trailing slash becomes index in that directory
	if strings.HasSuffix(path, "/") {
		return path + "index" + ext, nil
	}

	if strings.EqualFold(filepath.Ext(path), ext) {
		return path, nil
	}
	return path + ext, nil
}

// FormatMarkdown formats converted page content with YAML frontmatter.
func FormatMarkdown(source, title string, converted time.Time, body string) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("source: ")
	b.WriteString(source)
	b.WriteString("\ntitle: ")
	b.WriteString(title)
	b.WriteString("\nconverted: ")
	b.WriteString(converted.Format("2006-01-02"))
	b.WriteString("\n---\n\n")
	b.WriteString(body)
	return b.String()
}

// StripFrontmatter removes a leading YAML frontmatter block.
func StripFrontmatter(content string) string {
	if !strings.HasPrefix(content, "---\n") {
		return content
	}
	end := strings.Index(content[4:], "\n---\n")
	if end < 0 {
		return content
	}
	return strings.TrimLeft(content[4+end+5:], "\n")
}

// WriteFileAtomic writes data to a temporary file in the target directory
// and renames it over path, so readers see either the old or the new
// content and never a partial write.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Remove the temp file on any failure before the rename.
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	committed = true
	return nil
}
