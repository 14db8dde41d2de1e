package confluence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/ndkgw/internal/connectors"
	"github.com/ternarybob/ndkgw/internal/uri"
)

func TestPageLocatorFromPageIdQuery(t *testing.T) {
	c, err := NewConnector("wiki.example.com", "", nil)
	require.NoError(t, err)

	w, err := uri.DecodeWebUrl("https://wiki.example.com/pages/viewpage.action?pageId=12345")
	require.NoError(t, err)

	loc, err := c.Locator(context.Background(), connectors.WebReference{Url: w})
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, "ndk://confluence/page/12345", loc.ResourceUri().String())
}

func TestPageLocatorFromCloudSpacesUrl(t *testing.T) {
	c, err := NewConnector("example.atlassian.net", "", nil)
	require.NoError(t, err)

	w, err := uri.DecodeWebUrl("https://example.atlassian.net/wiki/spaces/ENG/pages/98765/Runbook")
	require.NoError(t, err)

	loc, err := c.Locator(context.Background(), connectors.WebReference{Url: w})
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, "ndk://confluence/page/98765", loc.ResourceUri().String())
}
