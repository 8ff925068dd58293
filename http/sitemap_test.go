package http_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fwojciec/docpipe"
	dphttp "github.com/fwojciec/docpipe/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer serves content by path. {{BASE}} is replaced with the
// server URL.
func newTestServer(t *testing.T, content map[string]string) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := content[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		body = strings.ReplaceAll(body, "{{BASE}}", srv.URL)
		if strings.HasSuffix(r.URL.Path, ".gz") {
			var buf bytes.Buffer
			gz := gzip.NewWriter(&buf)
			_, _ = gz.Write([]byte(body))
			_ = gz.Close()
			_, _ = w.Write(buf.Bytes())
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	return srv
}

func urlset(locs ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, loc := range locs {
		b.WriteString("<url><loc>" + loc + "</loc></url>")
	}
	b.WriteString("</urlset>")
	return b.String()
}

func TestSitemapService_DiscoverURLs(t *testing.T) {
	t.Parallel()

	t.Run("reads sitemaps declared in robots.txt", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/robots.txt":       "User-agent: *\nDisallow: /admin/\nSITEMAP: {{BASE}}/docs-sitemap.xml\n",
			"/docs-sitemap.xml": urlset("{{BASE}}/publications/rapport-2023.pdf", "{{BASE}}/actualites"),
		})
		defer srv.Close()

		svc := dphttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/publications/rapport-2023.pdf", srv.URL + "/actualites"}, urls)
	})

	t.Run("falls back to sitemap.xml", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": urlset("{{BASE}}/page1"),
		})
		defer srv.Close()

		svc := dphttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/page1"}, urls)
	})

	t.Run("follows sitemap indexes and gzipped sitemaps", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>{{BASE}}/sitemap-pages.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/sitemap-files.xml.gz</loc></sitemap>
  <sitemap><loc>{{BASE}}/missing.xml</loc></sitemap>
</sitemapindex>`,
			"/sitemap-pages.xml":    urlset("{{BASE}}/a", "{{BASE}}/b"),
			"/sitemap-files.xml.gz": urlset("{{BASE}}/b", "{{BASE}}/files/c.pdf"),
		})
		defer srv.Close()

		svc := dphttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/a", srv.URL + "/b", srv.URL + "/files/c.pdf"}, urls)
	})

	t.Run("keeps urls below the base path", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": urlset("{{BASE}}/Communiques/one.pdf", "{{BASE}}/Communiques", "{{BASE}}/CommuniquesArchive/x", "{{BASE}}/Discours/two.pdf"),
		})
		defer srv.Close()

		svc := dphttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL+"/Communiques/")

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/Communiques/one.pdf", srv.URL + "/Communiques"}, urls)
	})

	t.Run("caps the number of urls", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": urlset("{{BASE}}/1", "{{BASE}}/2", "{{BASE}}/3"),
		})
		defer srv.Close()

		svc := dphttp.NewSitemapService(srv.Client())
		svc.MaxURLs = 2
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL)

		require.NoError(t, err)
		assert.Len(t, urls, 2)
	})

	t.Run("site without sitemap yields empty list", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{})
		defer srv.Close()

		svc := dphttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL)

		require.NoError(t, err)
		assert.NotNil(t, urls)
		assert.Empty(t, urls)
	})

	t.Run("malformed sitemap is an error", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": "<urlset><url><loc>broken",
		})
		defer srv.Close()

		svc := dphttp.NewSitemapService(srv.Client())
		_, err := svc.DiscoverURLs(context.Background(), srv.URL)

		assert.Error(t, err)
	})

	t.Run("invalid base url", func(t *testing.T) {
		t.Parallel()

		svc := dphttp.NewSitemapService(nil)
		_, err := svc.DiscoverURLs(context.Background(), "not a url")

		assert.Equal(t, docpipe.EINVALID, docpipe.ErrorCode(err))
	})

	t.Run("context cancellation", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": urlset("{{BASE}}/page1"),
		})
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		svc := dphttp.NewSitemapService(srv.Client())
		_, err := svc.DiscoverURLs(ctx, srv.URL)

		require.ErrorIs(t, err, context.Canceled)
	})
}
