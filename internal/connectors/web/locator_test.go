package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/ndkgw/internal/uri"
)

func TestPageLocatorResourceUriRoundTrips(t *testing.T) {
	w, err := uri.DecodeWebUrl("https://example.com/blog/post?id=1")
	require.NoError(t, err)

	loc := PageLocator{Url: w}
	res := loc.ResourceUri()
	assert.Equal(t, "web", res.Realm().String())

	parts := res.Path()
	require.Len(t, parts, 1)
	decoded, err := decodeUrlSegment(parts[0].String())
	require.NoError(t, err)
	assert.Equal(t, w.String(), decoded.String())
}
