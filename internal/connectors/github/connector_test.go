package github

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/ndkgw/internal/connectors"
	"github.com/ternarybob/ndkgw/internal/uri"
)

func TestNewConnectorRequiresToken(t *testing.T) {
	_, err := NewConnector("")
	require.Error(t, err)
}

func TestNewConnectorBuildsClient(t *testing.T) {
	c, err := NewConnector("ghp_validtoken")
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.Equal(t, "github", string(c.Realm().String()))
}

func TestLocatorIgnoresForeignResourceUri(t *testing.T) {
	c, err := NewConnector("ghp_validtoken")
	require.NoError(t, err)

	res, err := uri.Decode("ndk://confluence/page/space/123")
	require.NoError(t, err)

	loc, err := c.Locator(context.Background(), connectors.ResourceReference{Uri: res})
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestLocatorIgnoresNonGithubWebUrl(t *testing.T) {
	c, err := NewConnector("ghp_validtoken")
	require.NoError(t, err)

	w, err := uri.DecodeWebUrl("https://gitlab.com/acme/repo/-/blob/main/README.md")
	require.NoError(t, err)

	loc, err := c.Locator(context.Background(), connectors.WebReference{Url: w})
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestLocatorIgnoresUnsupportedWebUrlShape(t *testing.T) {
	c, err := NewConnector("ghp_validtoken")
	require.NoError(t, err)

	w, err := uri.DecodeWebUrl("https://github.com/acme/repo/issues/42")
	require.NoError(t, err)

	loc, err := c.Locator(context.Background(), connectors.WebReference{Url: w})
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestSanitizeRefSegmentReplacesSlashes(t *testing.T) {
	assert.Equal(t, "feature_x", sanitizeRefSegment("feature/x"))
	assert.Equal(t, "main", sanitizeRefSegment("main"))
}
