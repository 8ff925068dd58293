package docx

import (
	"archive/zip"
	"bytes"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/fwojciec/docpipe"
	"github.com/fwojciec/docpipe/fs"
)

const (
	wordNS     = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	relsNS     = "http://schemas.openxmlformats.org/package/2006/relationships"
	typesNS    = "http://schemas.openxmlformats.org/package/2006/content-types"
	officeDocT = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	coreT      = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	appT       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
)

// Document is the content of a generated word processing file.
type Document struct {
	Title    string
	Pages    []string
	Modified time.Time
}

// WriteFile writes d to path atomically.
func WriteFile(path string, d *Document) error {
	var buf bytes.Buffer
	if err := Write(&buf, d); err != nil {
		return err
	}
	return fs.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

// Write encodes d as a .docx package. Each non-blank line of a page becomes a
// paragraph and pages are separated by page breaks.
func Write(w io.Writer, d *Document) error {
	if len(d.Pages) == 0 {
		return docpipe.Errorf(docpipe.EINVALID, "document has no pages")
	}

	parts := []struct {
		name string
		doc  *etree.Document
	}{
		{"[Content_Types].xml", contentTypes()},
		{"_rels/.rels", packageRels()},
		{"docProps/core.xml", coreProps(d)},
		{"docProps/app.xml", appProps(len(d.Pages))},
		{"word/document.xml", documentBody(d.Pages)},
	}

	zw := zip.NewWriter(w)
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return err
		}
		if _, err := p.doc.WriteTo(f); err != nil {
			return err
		}
	}
	return zw.Close()
}

func newXML() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	return doc
}

func contentTypes() *etree.Document {
	doc := newXML()
	root := doc.CreateElement("Types")
	root.CreateAttr("xmlns", typesNS)

	for ext, ct := range map[string]string{
		"rels": "application/vnd.openxmlformats-package.relationships+xml",
		"xml":  "application/xml",
	} {
		el := root.CreateElement("Default")
		el.CreateAttr("Extension", ext)
		el.CreateAttr("ContentType", ct)
	}
	for part, ct := range map[string]string{
		"/word/document.xml": "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml",
		"/docProps/core.xml": "application/vnd.openxmlformats-package.core-properties+xml",
		"/docProps/app.xml":  "application/vnd.openxmlformats-officedocument.extended-properties+xml",
	} {
		el := root.CreateElement("Override")
		el.CreateAttr("PartName", part)
		el.CreateAttr("ContentType", ct)
	}
	return doc
}

func packageRels() *etree.Document {
	doc := newXML()
	root := doc.CreateElement("Relationships")
	root.CreateAttr("xmlns", relsNS)

	for i, rel := range []struct{ typ, target string }{
		{officeDocT, "word/document.xml"},
		{coreT, "docProps/core.xml"},
		{appT, "docProps/app.xml"},
	} {
		el := root.CreateElement("Relationship")
		el.CreateAttr("Id", "rId"+strconv.Itoa(i+1))
		el.CreateAttr("Type", rel.typ)
		el.CreateAttr("Target", rel.target)
	}
	return doc
}

func coreProps(d *Document) *etree.Document {
	doc := newXML()
	root := doc.CreateElement("cp:coreProperties")
	root.CreateAttr("xmlns:cp", "http://schemas.openxmlformats.org/package/2006/metadata/core-properties")
	root.CreateAttr("xmlns:dc", "http://purl.org/dc/elements/1.1/")
	root.CreateAttr("xmlns:dcterms", "http://purl.org/dc/terms/")
	root.CreateAttr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")

	root.CreateElement("dc:title").SetText(cleanText(d.Title))
	if !d.Modified.IsZero() {
		el := root.CreateElement("dcterms:modified")
		el.CreateAttr("xsi:type", "dcterms:W3CDTF")
		el.SetText(d.Modified.UTC().Format(time.RFC3339))
	}
	return doc
}

func appProps(pages int) *etree.Document {
	doc := newXML()
	root := doc.CreateElement("Properties")
	root.CreateAttr("xmlns", "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties")
	root.CreateElement("Application").SetText("docpipe")
	root.CreateElement("Pages").SetText(strconv.Itoa(pages))
	return doc
}

func documentBody(pages []string) *etree.Document {
	doc := newXML()
	root := doc.CreateElement("w:document")
	root.CreateAttr("xmlns:w", wordNS)
	body := root.CreateElement("w:body")

	for i, page := range pages {
		if i > 0 {
			br := body.CreateElement("w:p").CreateElement("w:r").CreateElement("w:br")
			br.CreateAttr("w:type", "page")
		}
		for _, line := range strings.Split(page, "\n") {
			line = strings.TrimSpace(cleanText(line))
			if line == "" {
				continue
			}
			t := body.CreateElement("w:p").CreateElement("w:r").CreateElement("w:t")
			t.CreateAttr("xml:space", "preserve")
			t.SetText(line)
		}
	}
	return doc
}

// cleanText drops characters XML 1.0 cannot carry, which PDF text layers
// sometimes contain.
func cleanText(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20, r == 0xFFFE, r == 0xFFFF, r >= 0xD800 && r <= 0xDFFF:
			return -1
		}
		return r
	}, s)
}
