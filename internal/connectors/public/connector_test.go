package public

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/ndkgw/internal/connectors"
	"github.com/ternarybob/ndkgw/internal/uri"
)

// TestArXivLocatorFromAbsUrl pins spec §8 scenario 5's locator half: the
// abstract-page URL yields ArXivLocator{paper_id=2301.00001v2} and
// resource_uri() == ndk://public/arxiv/2301.00001v2.
func TestArXivLocatorFromAbsUrl(t *testing.T) {
	c := NewConnector(nil)

	w, err := uri.DecodeWebUrl("https://arxiv.org/abs/2301.00001v2")
	require.NoError(t, err)

	loc, err := c.Locator(context.Background(), connectors.WebReference{Url: w})
	require.NoError(t, err)
	require.NotNil(t, loc)

	arxiv, ok := loc.(ArXivLocator)
	require.True(t, ok)
	assert.Equal(t, "2301.00001v2", arxiv.PaperID)
	assert.Equal(t, "ndk://public/arxiv/2301.00001v2", loc.ResourceUri().String())
}

func TestYouTubeLocatorFromWatchUrl(t *testing.T) {
	c := NewConnector(nil)

	w, err := uri.DecodeWebUrl("https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)

	loc, err := c.Locator(context.Background(), connectors.WebReference{Url: w})
	require.NoError(t, err)
	require.NotNil(t, loc)

	yt, ok := loc.(YouTubeLocator)
	require.True(t, ok)
	assert.Equal(t, "dQw4w9WgXcQ", yt.VideoID)
	assert.Equal(t, "ndk://public/youtube/dQw4w9WgXcQ", loc.ResourceUri().String())
}

func TestYouTubeLocatorFromShortUrl(t *testing.T) {
	c := NewConnector(nil)

	w, err := uri.DecodeWebUrl("https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)

	loc, err := c.Locator(context.Background(), connectors.WebReference{Url: w})
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, "ndk://public/youtube/dQw4w9WgXcQ", loc.ResourceUri().String())
}
