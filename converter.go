package docpipe

// HTMLContent holds the main content extracted from an HTML page.
type HTMLContent struct {
	// Title is the page title extracted from metadata.
	Title string

	// ContentHTML is the main content as clean HTML.
	ContentHTML string
}

// HTMLExtractor extracts main content from HTML pages, removing boilerplate.
type HTMLExtractor interface {
	Extract(html string) (*HTMLContent, error)
}

// Converter converts HTML to Markdown.
type Converter interface {
	// Convert transforms HTML content into Markdown.
	// The input should be clean HTML (e.g., from an HTMLExtractor).
	Convert(html string) (string, error)
}
