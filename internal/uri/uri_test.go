package uri

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceUriRoundtrip(t *testing.T) {
	str := "ndk://github/file/acme/widget/README.md"
	r, err := Decode(str)
	require.NoError(t, err)
	assert.Equal(t, str, r.String())
	assert.Equal(t, "github", r.Realm().String())
	assert.Equal(t, "file", r.Subrealm().String())
	assert.Len(t, r.Path(), 3)

	r2, err := Decode(r.String())
	require.NoError(t, err)
	assert.Equal(t, r, r2)
}

func TestResourceUriRejectsMissingSubrealm(t *testing.T) {
	_, err := Decode("ndk://github")
	assert.Error(t, err)
}

func TestChildAffordance(t *testing.T) {
	r, err := Decode("ndk://github/file/acme/widget/README.md")
	require.NoError(t, err)
	au := r.ChildAffordance(AffordanceBody)
	assert.Equal(t, "ndk://github/file/acme/widget/README.md$body", au.String())

	parsed, err := DecodeAffordanceUri(au.String())
	require.NoError(t, err)
	assert.Equal(t, r, parsed.ResourceUri())
	assert.Equal(t, AffordanceBody, parsed.Affordance())
}

func TestExternalUriRoundtrip(t *testing.T) {
	e, err := DecodeExternalUri("ext://abc123")
	require.NoError(t, err)
	assert.Equal(t, "ext://abc123", e.String())
	assert.Equal(t, "abc123", e.Opaque())
}

func TestWebUrlOrderedQuery(t *testing.T) {
	w, err := DecodeWebUrl("https://example.com/a/b?z=1&a=2#frag")
	require.NoError(t, err)
	q := w.Query()
	require.Len(t, q, 2)
	assert.Equal(t, "z", q[0].Name)
	assert.Equal(t, "a", q[1].Name)
	v, ok := w.GetQuery("a")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
	assert.Equal(t, "frag", w.Fragment())
}

func TestWebUrlTryJoinHrefNeverLeavesDotSegments(t *testing.T) {
	base, err := DecodeWebUrl("https://example.com/docs/guide/page.html")
	require.NoError(t, err)

	cases := []string{"../images/x.png", "./sibling.html", "/absolute/path", "//other.example.com/x"}
	for _, rel := range cases {
		joined, ok := base.TryJoinHref(rel)
		require.True(t, ok, rel)
		assert.NotContains(t, joined.Path(), "/./", rel)
		assert.NotContains(t, joined.Path(), "/../", rel)
	}
}

func TestWebUrlTryJoinHrefProtocolRelative(t *testing.T) {
	base, err := DecodeWebUrl("https://example.com/a/")
	require.NoError(t, err)
	joined, ok := base.TryJoinHref("//cdn.example.com/img.png")
	require.True(t, ok)
	assert.Equal(t, "cdn.example.com", joined.Host())
	assert.Equal(t, "https", joined.Scheme())
}

func TestAffordanceDecode(t *testing.T) {
	for _, a := range []string{"body", "collection", "file", "plain"} {
		got, err := DecodeAffordance(a)
		require.NoError(t, err)
		assert.Equal(t, a, got.String())
	}
	_, err := DecodeAffordance("unknown")
	assert.Error(t, err)
}
