package gitlab

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/ndkgw/internal/uri"
)

// TestCompareLocatorResourceUri pins spec §8 scenario 3: a compare between
// a subgrouped namespace's project folds to "group_sub/proj/v1.0_v2.0".
func TestCompareLocatorResourceUri(t *testing.T) {
	l := CompareLocator{Domain: "gitlab.example.com", Namespace: "group/sub", Project: "proj", Base: "v1.0", Head: "v2.0"}
	assert.Equal(t, "ndk://gitlab/compare/group_sub/proj/v1.0_v2.0", l.ResourceUri().String())

	citation, ok := l.CitationUrl()
	assert.True(t, ok)
	assert.Equal(t, "https://gitlab.example.com/group/sub/proj/-/compare/v1.0...v2.0", citation.String())
}

func TestRepositoryLocatorResourceUri(t *testing.T) {
	l := RepositoryLocator{Domain: "gitlab.example.com", Namespace: "group/sub", Project: "proj"}
	assert.Equal(t, "ndk://gitlab/repo/group_sub/proj", l.ResourceUri().String())
}

func TestFileLocatorResourceUriDefaultBranch(t *testing.T) {
	l := FileLocator{Domain: "gitlab.example.com", Namespace: "acme", Project: "widget", Ref: "main", IsDefaultBranch: true, Path: []string{"README.md"}}
	assert.Equal(t, "ndk://gitlab/file/acme/widget/README.md", l.ResourceUri().String())
}

// TestLocatorFromWebUrlCompare drives spec §8 scenario 3 end to end
// through Connector.Locator; the "compare" URL shape never needs a
// network call, so this runs without a downloader.
func TestLocatorFromWebUrlCompare(t *testing.T) {
	c, err := NewConnector("gitlab.example.com", "glpat-token", nil)
	require.NoError(t, err)

	w, err := uri.DecodeWebUrl("https://gitlab.example.com/group/sub/proj/-/compare/v1.0...v2.0")
	require.NoError(t, err)

	loc, err := c.locatorFromWebUrl(context.Background(), w)
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, "ndk://gitlab/compare/group_sub/proj/v1.0_v2.0", loc.ResourceUri().String())
}
