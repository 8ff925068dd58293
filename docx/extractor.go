// Package docx extracts text from Office Open XML word processing documents.
package docx

import (
	"archive/zip"
	"context"
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/docpipe"
)

// Ensure Extractor implements docpipe.TextExtractor at compile time.
var _ docpipe.TextExtractor = (*Extractor)(nil)

// Extractor reads paragraph text from word/document.xml.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText returns the text of the document's paragraphs. Pages are
// delimited by explicit and last-rendered page breaks, so maxPages is
// approximate for documents that were never rendered.
func (e *Extractor) ExtractText(ctx context.Context, path string, maxPages int) (*docpipe.ExtractionResult, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, docpipe.Errorf(docpipe.ENOTFOUND, "file not found: %s", path)
	} else if err != nil {
		return nil, err
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, docpipe.Errorf(docpipe.ECORRUPT, "unreadable docx %s: %s", path, err)
	}
	defer zr.Close()

	body, err := readXML(zr, "word/document.xml")
	if err != nil {
		return nil, docpipe.Errorf(docpipe.ECORRUPT, "unreadable docx %s: %s", path, err)
	}

	var (
		sb    strings.Builder
		page  = 1
		paras = body.FindElements("//w:body//w:p")
	)
	for _, p := range paras {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page += pageBreaks(p)
		if maxPages > 0 && page > maxPages {
			break
		}
		text := paragraphText(p)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
	}

	return &docpipe.ExtractionResult{
		Text:      sb.String(),
		PageCount: pageCount(zr, body),
		Size:      info.Size(),
	}, nil
}

func readXML(zr *zip.ReadCloser, name string) (*etree.Document, error) {
	f, err := zr.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(f); err != nil {
		return nil, err
	}
	return doc, nil
}

func paragraphText(p *etree.Element) string {
	var sb strings.Builder
	for _, el := range p.FindElements(".//*") {
		if el.Space != "w" {
			continue
		}
		switch el.Tag {
		case "t":
			sb.WriteString(el.Text())
		case "tab":
			sb.WriteString("\t")
		}
	}
	return strings.TrimSpace(sb.String())
}

func pageBreaks(p *etree.Element) int {
	n := len(p.FindElements(".//w:lastRenderedPageBreak"))
	for _, br := range p.FindElements(".//w:br") {
		if br.SelectAttrValue("w:type", "") == "page" {
			n++
		}
	}
	return n
}

// pageCount uses the page total stored by the authoring application and
// falls back to counting page breaks.
func pageCount(zr *zip.ReadCloser, body *etree.Document) int {
	if app, err := readXML(zr, "docProps/app.xml"); err == nil {
		if el := app.FindElement("//Pages"); el != nil {
			if n, err := strconv.Atoi(strings.TrimSpace(el.Text())); err == nil && n > 0 {
				return n
			}
		}
	}
	n := 1
	for _, p := range body.FindElements("//w:body//w:p") {
		n += pageBreaks(p)
	}
	return n
}
