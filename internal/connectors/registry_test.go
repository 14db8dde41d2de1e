package connectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/ndkgw/internal/apierrors"
	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

type stubLocator struct{ res uri.ResourceUri }

func (l stubLocator) Kind() string                   { return "stub" }
func (l stubLocator) ResourceUri() uri.ResourceUri    { return l.res }
func (l stubLocator) ContentUrl() (uri.WebUrl, bool)  { return uri.WebUrl{}, false }
func (l stubLocator) CitationUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }
func (l stubLocator) Realm() validated.Realm          { return l.res.Realm() }

// stubConnector claims a reference only when match reports true.
type stubConnector struct {
	realm    string
	match    func(Reference) bool
	fail     error
	resource uri.ResourceUri
}

func (c stubConnector) Realm() validated.Realm { r, _ := validated.DecodeRealm(c.realm); return r }

func (c stubConnector) Locator(ctx context.Context, ref Reference) (locator.Locator, error) {
	if !c.match(ref) {
		return nil, nil
	}
	if c.fail != nil {
		return nil, c.fail
	}
	return stubLocator{res: c.resource}, nil
}

func (c stubConnector) Resolve(ctx context.Context, loc locator.Locator, cached *ResolveResult) (ResolveResult, error) {
	return ResolveResult{}, nil
}

func (c stubConnector) Observe(ctx context.Context, loc locator.Locator, aff uri.Affordance, resolved ResolveResult) (ObserveResult, error) {
	return ObserveResult{}, nil
}

func mustResource(t *testing.T, str string) uri.ResourceUri {
	t.Helper()
	r, err := uri.Decode(str)
	require.NoError(t, err)
	return r
}

func TestRegistryDispatchesInOrder(t *testing.T) {
	res := mustResource(t, "ndk://github/file/acme/repo/README.md")
	never := stubConnector{realm: "confluence", match: func(Reference) bool { return false }}
	claims := stubConnector{realm: "github", match: func(Reference) bool { return true }, resource: res}
	catchall := stubConnector{realm: "web", match: func(Reference) bool { return true }}

	reg := NewRegistry(never, claims, catchall)
	loc, err := reg.Locate(context.Background(), ResourceReference{Uri: res})
	require.NoError(t, err)
	assert.Equal(t, "github", string(loc.Realm().String()))
}

func TestRegistryNoConnectorClaims(t *testing.T) {
	never := stubConnector{realm: "confluence", match: func(Reference) bool { return false }}
	reg := NewRegistry(never)
	_, err := reg.Locate(context.Background(), WebReference{})
	require.Error(t, err)
}

func TestRegistryAbortsOnUnavailable(t *testing.T) {
	res := mustResource(t, "ndk://github/file/acme/repo/README.md")
	aborts := stubConnector{realm: "github", match: func(Reference) bool { return true }, fail: apierrors.NewUnavailable("", "no access")}
	never := stubConnector{realm: "web", match: func(Reference) bool { return true }}

	reg := NewRegistry(aborts, never)
	_, err := reg.Locate(context.Background(), ResourceReference{Uri: res})
	require.Error(t, err)
	_, ok := apierrors.AsUnavailable(err)
	assert.True(t, ok)
}

func TestByRealm(t *testing.T) {
	gh := stubConnector{realm: "github", match: func(Reference) bool { return true }}
	reg := NewRegistry(gh)
	c, ok := reg.ByRealm("github")
	require.True(t, ok)
	assert.Equal(t, "github", string(c.Realm().String()))

	_, ok = reg.ByRealm("gitlab")
	assert.False(t, ok)
}
