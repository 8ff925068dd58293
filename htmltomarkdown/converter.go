// Package htmltomarkdown renders extracted page content as Markdown.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/docpipe"
)

// Ensure Converter implements docpipe.Converter at compile time.
var _ docpipe.Converter = (*Converter)(nil)

// Converter wraps html-to-markdown to convert HTML to Markdown.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms HTML content into Markdown.
func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertPage(html, "")
}

// ConvertPage transforms HTML content into Markdown, resolving relative
// links against pageURL so that document links stay usable offline.
func (c *Converter) ConvertPage(html, pageURL string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", docpipe.Errorf(docpipe.EEMPTY, "empty HTML input")
	}

	var (
		md  string
		err error
	)
	if pageURL != "" {
		md, err = c.conv.ConvertString(html, converter.WithDomain(pageURL))
	} else {
		md, err = c.conv.ConvertString(html)
	}
	if err != nil {
		return "", docpipe.Errorf(docpipe.ECORRUPT, "convert html: %s", err)
	}
	return strings.TrimSpace(md) + "\n", nil
}
