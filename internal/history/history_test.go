package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

type fakeLocator struct {
	kind string
	res  uri.ResourceUri
}

func (f fakeLocator) Kind() string                        { return f.kind }
func (f fakeLocator) ResourceUri() uri.ResourceUri         { return f.res }
func (f fakeLocator) ContentUrl() (uri.WebUrl, bool)       { return uri.WebUrl{}, false }
func (f fakeLocator) CitationUrl() (uri.WebUrl, bool)      { return uri.WebUrl{}, false }
func (f fakeLocator) Realm() validated.Realm {
	r, _ := validated.DecodeRealm(f.res.Realm().String())
	return r
}

func mustResource(t *testing.T, str string) uri.ResourceUri {
	t.Helper()
	r, err := uri.Decode(str)
	require.NoError(t, err)
	return r
}

func TestFirstDeltaMustSetLocator(t *testing.T) {
	h := NewResourceHistory()
	_, err := h.Update(ResourceDelta{RefreshedAt: time.Unix(0, 0), Labels: []Label{{Name: "x", Target: "y"}}})
	assert.ErrorIs(t, err, ErrFirstDeltaMissingLocator)
}

func TestResourceHistoryMergeBasics(t *testing.T) {
	h := NewResourceHistory()
	res := mustResource(t, "ndk://github/file/acme/widget/a.md")
	loc := fakeLocator{kind: "github_blob", res: res}

	appended, err := h.Update(ResourceDelta{
		RefreshedAt: time.Unix(100, 0),
		Locator:     SomeLocator(loc),
		Metadata: MetadataDelta{
			Name: Some("a.md"),
		},
		Labels: []Label{{Name: "lang", Target: "go"}},
	})
	require.NoError(t, err)
	assert.True(t, appended)

	view := h.Merged()
	require.NotNil(t, view.Locator)
	assert.Equal(t, "github_blob", view.Locator.Kind())
	name, ok := view.Metadata.Name.Value()
	require.True(t, ok)
	assert.Equal(t, "a.md", name)
	require.Len(t, view.Labels, 1)
	assert.Equal(t, "lang", view.Labels[0].Name)

	// A second, identical update should be fully elided: nothing appended.
	appended2, err := h.Update(ResourceDelta{
		RefreshedAt: time.Unix(200, 0),
		Locator:     SomeLocator(loc),
		Metadata: MetadataDelta{
			Name: Some("a.md"),
		},
		Labels: []Label{{Name: "lang", Target: "go"}},
	})
	require.NoError(t, err)
	assert.False(t, appended2)
	assert.Len(t, h.Deltas(), 1)
}

func TestResetLabelsClearsPriorLabels(t *testing.T) {
	h := NewResourceHistory()
	res := mustResource(t, "ndk://github/file/acme/widget/a.md")
	loc := fakeLocator{kind: "github_blob", res: res}

	_, err := h.Update(ResourceDelta{
		RefreshedAt: time.Unix(1, 0),
		Locator:     SomeLocator(loc),
		Labels:      []Label{{Name: "lang", Target: "go"}, {Name: "topic", Target: "cli"}},
	})
	require.NoError(t, err)

	_, err = h.Update(ResourceDelta{
		RefreshedAt: time.Unix(2, 0),
		ResetLabels: true,
		Labels:      []Label{{Name: "lang", Target: "rust"}},
	})
	require.NoError(t, err)

	view := h.Merged()
	require.Len(t, view.Labels, 1)
	assert.Equal(t, "rust", view.Labels[0].Target)
}

func TestExpiredClearedOnReobservation(t *testing.T) {
	h := NewResourceHistory()
	res := mustResource(t, "ndk://github/file/acme/widget/a.md")
	loc := fakeLocator{kind: "github_blob", res: res}

	_, err := h.Update(ResourceDelta{
		RefreshedAt: time.Unix(1, 0),
		Locator:     SomeLocator(loc),
		Expired:     []uri.Affordance{uri.AffordanceBody},
	})
	require.NoError(t, err)
	assert.True(t, h.Merged().Expired[uri.AffordanceBody])

	_, err = h.Update(ResourceDelta{
		RefreshedAt: time.Unix(2, 0),
		Observed: map[uri.Affordance]ObservedDelta{
			uri.AffordanceBody: {MimeType: Some("text/markdown")},
		},
	})
	require.NoError(t, err)
	assert.False(t, h.Merged().Expired[uri.AffordanceBody])
}
