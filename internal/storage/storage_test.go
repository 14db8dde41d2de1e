package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/ndkgw/internal/content"
	"github.com/ternarybob/ndkgw/internal/history"
	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/relation"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

type testLocator struct {
	res uri.ResourceUri
}

func (l testLocator) Kind() string                   { return "test_locator" }
func (l testLocator) ResourceUri() uri.ResourceUri    { return l.res }
func (l testLocator) ContentUrl() (uri.WebUrl, bool)  { return uri.WebUrl{}, false }
func (l testLocator) CitationUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }
func (l testLocator) Realm() validated.Realm          { return l.res.Realm() }

type testLocatorCodec struct{}

func (testLocatorCodec) Kind() string { return "test_locator" }
func (testLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	return map[string]any{"resource_uri": loc.ResourceUri().String()}, nil
}
func (testLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	res, err := uri.Decode(fields["resource_uri"].(string))
	if err != nil {
		return nil, err
	}
	return testLocator{res: res}, nil
}

func mustResource(t *testing.T, str string) uri.ResourceUri {
	t.Helper()
	r, err := uri.Decode(str)
	require.NoError(t, err)
	return r
}

func newTestCodecs() *CodecRegistry {
	r := NewCodecRegistry()
	r.Register(testLocatorCodec{})
	return r
}

func TestResourceHistoryStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	objects := newMemoryObjectStore()
	store := NewResourceHistoryStore(objects, newTestCodecs())

	res := mustResource(t, "ndk://github/file/acme/widget/a.md")
	h := history.NewResourceHistory()
	_, err := h.Update(history.ResourceDelta{
		RefreshedAt: time.Unix(1000, 0),
		Locator:     history.SomeLocator(testLocator{res: res}),
		Metadata: history.MetadataDelta{
			Name:        history.Some("a.md"),
			Description: history.Some("a widget"),
		},
		Labels: []history.Label{{Name: "lang", Target: "go"}},
	})
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, res, h))

	loaded, err := store.Load(ctx, res)
	require.NoError(t, err)

	view := loaded.Merged()
	require.NotNil(t, view.Locator)
	assert.Equal(t, res.String(), view.Locator.ResourceUri().String())
	name, ok := view.Metadata.Name.Value()
	require.True(t, ok)
	assert.Equal(t, "a.md", name)
	require.Len(t, view.Labels, 1)
	assert.Equal(t, "lang", view.Labels[0].Name)
}

func TestResourceHistoryStoreLoadMissingReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	objects := newMemoryObjectStore()
	store := NewResourceHistoryStore(objects, newTestCodecs())

	res := mustResource(t, "ndk://github/file/acme/widget/missing.md")
	h, err := store.Load(ctx, res)
	require.NoError(t, err)
	assert.Empty(t, h.Deltas())
}

func TestAliasStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	objects := newMemoryObjectStore()
	store := NewAliasStore(objects, newTestCodecs())

	res := mustResource(t, "ndk://github/file/acme/widget/a.md")
	require.NoError(t, store.Save(ctx, "https://github.com/acme/widget/blob/main/a.md", testLocator{res: res}))

	loaded, ok, err := store.Load(ctx, "https://github.com/acme/widget/blob/main/a.md")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, res.String(), loaded.ResourceUri().String())

	_, ok, err = store.Load(ctx, "https://example.com/nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBundleStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	objects := newMemoryObjectStore()
	store := NewBundleStore(objects)

	res := mustResource(t, "ndk://github/file/acme/widget/a.md")
	bundle := content.BundlePlain{Uri: res, MimeType: mustMime(t, "text/markdown"), Text: "hello"}

	require.NoError(t, store.Save(ctx, res, uri.AffordancePlain, bundle))
	loaded, ok, err := store.Load(ctx, res, uri.AffordancePlain)
	require.NoError(t, err)
	require.True(t, ok)
	plain, isPlain := loaded.(content.BundlePlain)
	require.True(t, isPlain)
	assert.Equal(t, "hello", plain.Text)

	require.NoError(t, store.Invalidate(ctx, res, uri.AffordancePlain))
	_, ok, err = store.Load(ctx, res, uri.AffordancePlain)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRelationStoreBackreferenceInvariant(t *testing.T) {
	ctx := context.Background()
	objects := newMemoryObjectStore()
	store := NewRelationStore(objects)

	src := mustResource(t, "ndk://github/file/acme/widget/a.md")
	tgt := mustResource(t, "ndk://github/file/acme/widget/b.md")
	rel := relation.Link{Source: src, Target: tgt}

	require.NoError(t, store.Save(ctx, rel))

	for _, node := range []uri.ResourceUri{src, tgt} {
		ids, err := store.RelationIDsTouching(ctx, node)
		require.NoError(t, err)
		require.Len(t, ids, 1)
		assert.Equal(t, rel.UniqueID().String(), ids[0])
	}

	rels, err := store.RelationsTouching(ctx, src)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, rel.UniqueID().String(), rels[0].UniqueID().String())
}

func mustMime(t *testing.T, s string) validated.MimeType {
	t.Helper()
	mt, err := validated.DecodeMimeType(s)
	require.NoError(t, err)
	return mt
}
