package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/docpipe"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements docpipe.HTMLExtractor at compile time.
var _ docpipe.HTMLExtractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract the main content of scraped
// institutional pages, dropping navigation and footers.
type Extractor struct {
	// TargetLanguage, when set, drops content not in this ISO 639-1 language.
	TargetLanguage string
}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string) (*docpipe.HTMLContent, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, docpipe.Errorf(docpipe.EEMPTY, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
		IncludeLinks:   true,
		TargetLanguage: e.TargetLanguage,
	}

	// Saved pages are UTF-8; parsing here skips charset sniffing.
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, docpipe.Errorf(docpipe.ECORRUPT, "parse HTML: %s", err)
	}

	result, err := trafilatura.ExtractDocument(doc, opts)
	if err != nil {
		return nil, docpipe.Errorf(docpipe.EEMPTY, "no main content: %s", err)
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, err
		}
	}

	return &docpipe.HTMLContent{
		Title:       result.Metadata.Title,
		ContentHTML: contentHTML,
	}, nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
