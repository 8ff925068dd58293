package goquery_test

import (
	"testing"

	"github.com/fwojciec/docpipe/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const publicationsPage = `<html><head><title>Publications</title></head><body>
<nav><a href="/fr">Accueil</a><a href="/fr/publications#top">Publications</a></nav>
<ul>
<li><a href="/pdf/rapport-2023.pdf">Rapport annuel 2023</a></li>
<li><a href="docs/note.DOCX">Note</a></li>
<li><a href="https://media.bkam.ma/pdf/discours.pdf">Discours</a></li>
<li><a href="https://www.other.org/x.pdf">Externe</a></li>
<li><a href="/fr/communiques?page=2">Suite</a></li>
<li><a href="/images/logo.png">Logo</a></li>
<li><a href="mailto:contact@bkam.ma">Contact</a></li>
<li><a href="/pdf/rapport-2023.pdf#page=2">Doublon</a></li>
</ul>
<iframe src="/viewer/bulletin.pdf"></iframe>
</body></html>`

func TestExtractLinks(t *testing.T) {
	t.Parallel()

	links, err := goquery.ExtractLinks(publicationsPage, "https://www.bkam.ma/fr/publications", []string{".pdf", ".docx"})

	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.bkam.ma/pdf/rapport-2023.pdf",
		"https://www.bkam.ma/fr/docs/note.DOCX",
		"https://media.bkam.ma/pdf/discours.pdf",
		"https://www.bkam.ma/viewer/bulletin.pdf",
	}, links.Documents)
	assert.Equal(t, []string{
		"https://www.bkam.ma/fr",
		"https://www.bkam.ma/fr/communiques?page=2",
	}, links.Pages)
}

func TestExtractLinks_HonorsBaseElement(t *testing.T) {
	t.Parallel()

	html := `<html><head><base href="https://www.cese.ma/media/"></head><body><a href="avis.pdf">Avis</a></body></html>`

	links, err := goquery.ExtractLinks(html, "https://www.cese.ma/fr/avis", []string{".pdf"})

	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.cese.ma/media/avis.pdf"}, links.Documents)
}

func TestExtractLinks_InvalidPageURL(t *testing.T) {
	t.Parallel()

	_, err := goquery.ExtractLinks("<html></html>", "://bad", nil)

	require.Error(t, err)
}

func TestCanonicalURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want string
	}{
		{"canonical link", `<head><link rel="canonical" href="https://www.oecd.org/fr/a.html"></head>`, "https://www.oecd.org/fr/a.html"},
		{"open graph", `<head><meta property="og:url" content="https://www.oecd.org/b"></head>`, "https://www.oecd.org/b"},
		{"relative canonical ignored", `<head><link rel="canonical" href="/a"></head>`, ""},
		{"none", `<p>texte</p>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, goquery.CanonicalURL(tt.html))
		})
	}
}
