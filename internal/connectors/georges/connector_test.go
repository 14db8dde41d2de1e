package georges

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageLocatorResourceUriAndContentUrl(t *testing.T) {
	loc := ImageLocator{Domain: "images.example.com", ID: "gen-abc123"}

	res := loc.ResourceUri()
	assert.Equal(t, "georges", res.Realm().String())
	assert.Equal(t, "image", res.Subrealm().String())

	content, ok := loc.ContentUrl()
	require.True(t, ok)
	assert.Equal(t, "https://images.example.com/images/gen-abc123", content.String())

	_, ok = loc.CitationUrl()
	assert.False(t, ok)
}

func TestImageLocatorCodecRoundTrips(t *testing.T) {
	loc := ImageLocator{Domain: "images.example.com", ID: "gen-abc123"}
	codec := ImageLocatorCodec{}

	fields, err := codec.Encode(loc)
	require.NoError(t, err)

	decoded, err := codec.Decode(fields)
	require.NoError(t, err)
	assert.Equal(t, loc, decoded)
}
