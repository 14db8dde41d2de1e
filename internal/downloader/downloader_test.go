package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/ndkgw/internal/apierrors"
	"github.com/ternarybob/ndkgw/internal/content"
	"github.com/ternarybob/ndkgw/internal/validated"
)

func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewService(srv.Client(), nil), srv
}

func TestFetchBytesReturnsBodyAndMime(t *testing.T) {
	s, srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		_, _ = w.Write([]byte("# hello"))
	})

	body, mt, _, err := s.FetchBytes(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "# hello", string(body))
	assert.Equal(t, "text/markdown", mt.String())
}

func TestFetchBytesMaps404ToUnavailable(t *testing.T) {
	s, srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, _, _, err := s.FetchBytes(context.Background(), srv.URL, nil)
	require.Error(t, err)
	_, ok := apierrors.AsUnavailable(err)
	assert.True(t, ok)
}

func TestFetchJSONDecodesBody(t *testing.T) {
	s, srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	parsed, _, err := s.FetchJSON(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	m, ok := parsed.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, m["ok"])
}

func TestDocumentsReadBlobPlainMarkdown(t *testing.T) {
	s := NewService(nil, nil)
	mt, err := validated.DecodeMimeType("text/markdown")
	require.NoError(t, err)
	resp, err := s.DocumentsReadBlob(context.Background(), "a.md", mt, []byte("# title"), ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "# title", resp.Text)
}

func TestDocumentsReadBlobHTMLConvertsToMarkdown(t *testing.T) {
	s := NewService(nil, nil)
	mt, err := validated.DecodeMimeType("text/html")
	require.NoError(t, err)
	resp, err := s.DocumentsReadBlob(context.Background(), "page.html", mt, []byte("<h1>Hi</h1><script>evil()</script>"), ReadOptions{ConvertHTMLToMarkdown: true})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Hi")
	assert.NotContains(t, resp.Text, "evil")
}

func TestDocumentsReadBlobImageEncodesDataUri(t *testing.T) {
	s := NewService(nil, nil)
	mt, err := validated.DecodeMimeType("image/png")
	require.NoError(t, err)
	resp, err := s.DocumentsReadBlob(context.Background(), "pic.png", mt, []byte{0x89, 'P', 'N', 'G'}, ReadOptions{})
	require.NoError(t, err)
	_, ok := resp.Blobs[content.SelfResource]
	require.True(t, ok)
}
