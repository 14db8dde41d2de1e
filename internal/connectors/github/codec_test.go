package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

// fakeLocator is a minimal locator.Locator implementation used only to
// exercise FileLocatorCodec.Encode's type-mismatch error path.
type fakeLocator struct{}

func (fakeLocator) Kind() string                      { return "fake" }
func (fakeLocator) ResourceUri() uri.ResourceUri       { return uri.ResourceUri{} }
func (fakeLocator) ContentUrl() (uri.WebUrl, bool)     { return uri.WebUrl{}, false }
func (fakeLocator) CitationUrl() (uri.WebUrl, bool)    { return uri.WebUrl{}, false }
func (fakeLocator) Realm() validated.Realm             { r, _ := validated.DecodeRealm("fake"); return r }

func TestFileLocatorCodecRoundTrips(t *testing.T) {
	original := FileLocator{Owner: "acme", Repo: "widget", Ref: "feature/x", IsDefaultBranch: false, Path: []string{"README.md"}}

	codec := FileLocatorCodec{}
	fields, err := codec.Encode(original)
	require.NoError(t, err)

	decoded, err := codec.Decode(fields)
	require.NoError(t, err)

	fl, ok := decoded.(FileLocator)
	require.True(t, ok)
	assert.Equal(t, original, fl)
}

func TestFileLocatorCodecDecodeRejectsMissingOwner(t *testing.T) {
	_, err := FileLocatorCodec{}.Decode(map[string]any{"repo": "widget"})
	require.Error(t, err)
}

func TestFileLocatorCodecEncodeRejectsForeignLocator(t *testing.T) {
	_, err := FileLocatorCodec{}.Encode(fakeLocator{})
	require.Error(t, err)
}
