package coordinator

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/ndkgw/internal/connectors"
	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/relation"
	"github.com/ternarybob/ndkgw/internal/storage"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

type memoryObjectStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryObjectStore() *memoryObjectStore { return &memoryObjectStore{data: map[string][]byte{}} }

func (m *memoryObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memoryObjectStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memoryObjectStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memoryObjectStore) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

type testLocator struct{ res uri.ResourceUri }

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

// fakeConnector claims every ResourceReference within its realm.
type fakeConnector struct {
	realm      string
	resolveErr error
}

func (c fakeConnector) Realm() validated.Realm {
	r, _ := validated.DecodeRealm(c.realm)
	return r
}

func (c fakeConnector) Locator(ctx context.Context, ref connectors.Reference) (locator.Locator, error) {
	resRef, ok := ref.(connectors.ResourceReference)
	if !ok || string(resRef.Uri.Realm().String()) != c.realm {
		return nil, nil
	}
	return testLocator{res: resRef.Uri}, nil
}

func (c fakeConnector) Resolve(ctx context.Context, loc locator.Locator, cached *connectors.ResolveResult) (connectors.ResolveResult, error) {
	if c.resolveErr != nil {
		return connectors.ResolveResult{}, c.resolveErr
	}
	return connectors.ResolveResult{Cacheable: true}, nil
}

func (c fakeConnector) Observe(ctx context.Context, loc locator.Locator, aff uri.Affordance, resolved connectors.ResolveResult) (connectors.ObserveResult, error) {
	return connectors.ObserveResult{}, nil
}

func mustResource(t *testing.T, str string) uri.ResourceUri {
	t.Helper()
	r, err := uri.Decode(str)
	require.NoError(t, err)
	return r
}

func newTestCoordinator(t *testing.T, conns ...connectors.Connector) *Coordinator {
	t.Helper()
	objects := newMemoryObjectStore()
	codecs := storage.NewCodecRegistry()
	codecs.Register(testLocatorCodec{})
	histories := storage.NewResourceHistoryStore(objects, codecs)
	aliases := storage.NewAliasStore(objects, codecs)
	registry := connectors.NewRegistry(conns...)
	return New(registry, histories, aliases, nil)
}

func TestTryInferLocatorDispatchesToConnector(t *testing.T) {
	c := newTestCoordinator(t, fakeConnector{realm: "github"})
	res := mustResource(t, "ndk://github/file/acme/repo/README.md")

	loc, err := c.TryInferLocator(context.Background(), connectors.ResourceReference{Uri: res})
	require.NoError(t, err)
	assert.Equal(t, res.String(), loc.ResourceUri().String())
}

func TestTryInferLocatorMemoizesResult(t *testing.T) {
	calls := 0
	conn := countingConnector{fakeConnector: fakeConnector{realm: "github"}, calls: &calls}
	c := newTestCoordinator(t, conn)
	res := mustResource(t, "ndk://github/file/acme/repo/README.md")
	ref := connectors.ResourceReference{Uri: res}

	_, err := c.TryInferLocator(context.Background(), ref)
	require.NoError(t, err)
	_, err = c.TryInferLocator(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

type countingConnector struct {
	fakeConnector
	calls *int
}

func (c countingConnector) Locator(ctx context.Context, ref connectors.Reference) (locator.Locator, error) {
	*c.calls++
	return c.fakeConnector.Locator(ctx, ref)
}

func TestResolveLocatorCachesFailure(t *testing.T) {
	calls := 0
	conn := countingResolveConnector{fakeConnector: fakeConnector{realm: "github", resolveErr: assert.AnError}, calls: &calls}
	c := newTestCoordinator(t, conn)
	res := mustResource(t, "ndk://github/file/acme/repo/README.md")
	loc := testLocator{res: res}

	_, err1 := c.ResolveLocator(context.Background(), loc)
	_, err2 := c.ResolveLocator(context.Background(), loc)
	require.Error(t, err1)
	require.Error(t, err2)
	assert.Equal(t, 1, calls)
}

type countingResolveConnector struct {
	fakeConnector
	calls *int
}

func (c countingResolveConnector) Resolve(ctx context.Context, loc locator.Locator, cached *connectors.ResolveResult) (connectors.ResolveResult, error) {
	*c.calls++
	return c.fakeConnector.Resolve(ctx, loc, cached)
}

func TestTryResolveRelationsFiltersUnresolvable(t *testing.T) {
	c := newTestCoordinator(t, fakeConnector{realm: "github"})
	origin := mustResource(t, "ndk://github/file/acme/repo/a.md")
	resolvable := mustResource(t, "ndk://github/file/acme/repo/b.md")
	unresolvable := mustResource(t, "ndk://confluence/page/space/123")

	candidates := []relation.Relation{
		relation.Link{Source: origin, Target: resolvable},
		relation.Link{Source: origin, Target: unresolvable},
	}

	valid, touched := c.TryResolveRelations(context.Background(), origin, candidates)
	require.Len(t, valid, 1)
	require.Len(t, touched, 1)
	assert.Equal(t, resolvable.String(), touched[0].Locator.ResourceUri().String())
}

func TestTryInferAndResolveLocatorsPreservesOrderAndDropsFailures(t *testing.T) {
	c := newTestCoordinator(t, fakeConnector{realm: "github"})
	a := mustResource(t, "ndk://github/file/acme/repo/a.md")
	b := mustResource(t, "ndk://confluence/page/space/123")
	d := mustResource(t, "ndk://github/file/acme/repo/d.md")

	refs := []connectors.Reference{
		connectors.ResourceReference{Uri: a},
		connectors.ResourceReference{Uri: b},
		connectors.ResourceReference{Uri: d},
	}

	out := c.TryInferAndResolveLocators(context.Background(), refs)
	require.Len(t, out, 2)
	assert.Equal(t, a.String(), out[0].ResourceUri().String())
	assert.Equal(t, d.String(), out[1].ResourceUri().String())
}
