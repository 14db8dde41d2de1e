// Package coordinator implements the resolution coordinator (spec §4.6):
// inferring a Locator for a Reference, resolving it against its connector,
// and validating proposed relations — all memoised for the lifetime of one
// request.
package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ndkgw/internal/common"
	"github.com/ternarybob/ndkgw/internal/connectors"
	"github.com/ternarybob/ndkgw/internal/connectors/framework"
	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/relation"
	"github.com/ternarybob/ndkgw/internal/storage"
	"github.com/ternarybob/ndkgw/internal/uri"
)

// batchFanOut bounds the number of concurrent tasks per batch for
// TryInferAndResolveLocators (spec §4.6: "fan-out of 10 concurrent tasks
// per batch").
const batchFanOut = 10

// referenceKey is a comparable stand-in for connectors.Reference, used as
// a memoization map key. Built per-call rather than requiring Reference
// itself to be comparable.
func referenceKey(ref connectors.Reference) string {
	switch r := ref.(type) {
	case connectors.ResourceReference:
		return "resource:" + r.Uri.String()
	case connectors.WebReference:
		return "web:" + r.Url.String()
	case connectors.ExternalReference:
		return "external:" + r.Uri.String()
	default:
		return fmt.Sprintf("unknown:%v", ref)
	}
}

// Coordinator is the per-request resolution façade. A fresh Coordinator
// must be created for each inbound request — its caches are not safe to
// share across requests (spec §4.6: "memoised per request").
type Coordinator struct {
	registry  *connectors.Registry
	histories *storage.ResourceHistoryStore
	aliases   *storage.AliasStore
	logger    arbor.ILogger

	mu           sync.Mutex
	locatorCache map[string]locatorResult
	resolveCache map[string]resolveResult
}

type locatorResult struct {
	loc locator.Locator
	err error
}

type resolveResult struct {
	result connectors.ResolveResult
	err    error
}

// New builds a Coordinator scoped to one request. A nil logger falls
// back to the package-level logger (common.GetLogger's idiom).
func New(registry *connectors.Registry, histories *storage.ResourceHistoryStore, aliases *storage.AliasStore, logger arbor.ILogger) *Coordinator {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Coordinator{
		registry:     registry,
		histories:    histories,
		aliases:      aliases,
		logger:       logger,
		locatorCache: make(map[string]locatorResult),
		resolveCache: make(map[string]resolveResult),
	}
}

// TryInferLocator infers a Locator for ref, memoised per request. Order of
// precedence (spec §4.6): (1) the cached resource history's latest
// locator, (2) a persisted alias, (3) per-connector Locator dispatch. A
// successful inference from an ExternalReference with no prior resource
// record persists an alias for the inverse lookup.
func (c *Coordinator) TryInferLocator(ctx context.Context, ref connectors.Reference) (locator.Locator, error) {
	key := referenceKey(ref)

	c.mu.Lock()
	if cached, ok := c.locatorCache[key]; ok {
		c.mu.Unlock()
		return cached.loc, cached.err
	}
	c.mu.Unlock()

	loc, isNewAlias, err := c.inferLocator(ctx, ref)

	c.mu.Lock()
	c.locatorCache[key] = locatorResult{loc: loc, err: err}
	c.mu.Unlock()

	if err == nil && isNewAlias {
		if aliasErr := c.aliases.Save(ctx, key, loc); aliasErr != nil {
			c.logger.Warn().Err(aliasErr).Str("reference", key).Msg("failed to persist locator alias")
		}
	}
	return loc, err
}

func (c *Coordinator) inferLocator(ctx context.Context, ref connectors.Reference) (locator.Locator, bool, error) {
	if resRef, ok := ref.(connectors.ResourceReference); ok {
		hist, err := c.histories.Load(ctx, resRef.Uri)
		if err == nil {
			if merged := hist.Merged(); merged.Locator != nil {
				return merged.Locator, false, nil
			}
		}
	}

	key := referenceKey(ref)
	if aliased, ok, err := c.aliases.Load(ctx, key); err == nil && ok {
		return aliased, false, nil
	}

	loc, err := c.registry.Locate(ctx, ref)
	if err != nil {
		return nil, false, err
	}

	_, isExternal := ref.(connectors.ExternalReference)
	return loc, isExternal, nil
}

// TryInferLocators infers a Locator for each ref sequentially, returning a
// map from the reference's stable key to its result (spec §4.6).
func (c *Coordinator) TryInferLocators(ctx context.Context, refs []connectors.Reference) map[string]locator.Locator {
	out := make(map[string]locator.Locator, len(refs))
	for _, ref := range refs {
		loc, err := c.TryInferLocator(ctx, ref)
		if err != nil {
			continue
		}
		out[referenceKey(ref)] = loc
	}
	return out
}

// ResolveLocator resolves loc against its connector, memoised per
// request. A cached failure re-raises the original error rather than
// retrying the connector (spec §4.6).
func (c *Coordinator) ResolveLocator(ctx context.Context, loc locator.Locator) (connectors.ResolveResult, error) {
	key := loc.Kind() + ":" + loc.ResourceUri().String()

	c.mu.Lock()
	if cached, ok := c.resolveCache[key]; ok {
		c.mu.Unlock()
		return cached.result, cached.err
	}
	c.mu.Unlock()

	conn, ok := c.registry.ByRealm(string(loc.Realm().String()))
	var result connectors.ResolveResult
	var err error
	if !ok {
		err = fmt.Errorf("coordinator: no connector registered for realm %q", loc.Realm().String())
	} else {
		result, err = conn.Resolve(ctx, loc, nil)
	}

	c.mu.Lock()
	c.resolveCache[key] = resolveResult{result: result, err: err}
	c.mu.Unlock()

	return result, err
}

// TryResolveRelations validates that every endpoint of each candidate
// relation can be inferred and resolved, returning the filtered list of
// valid relations and a deduped list of (locator, relation IDs) pairs,
// excluding origin itself (spec §4.6).
func (c *Coordinator) TryResolveRelations(ctx context.Context, origin uri.ResourceUri, candidates []relation.Relation) ([]relation.Relation, []TouchedNode) {
	valid := make([]relation.Relation, 0, len(candidates))
	touched := make(map[string]*TouchedNode)
	var order []string

	for _, rel := range candidates {
		if !c.allEndpointsResolve(ctx, rel) {
			continue
		}
		valid = append(valid, rel)

		for _, node := range append([]uri.ResourceUri{rel.GetSource()}, rel.GetTargets()...) {
			if node.String() == origin.String() {
				continue
			}
			nodeLoc, err := c.TryInferLocator(ctx, connectors.ResourceReference{Uri: node})
			if err != nil {
				continue
			}
			key := node.String()
			if _, ok := touched[key]; !ok {
				touched[key] = &TouchedNode{Locator: nodeLoc}
				order = append(order, key)
			}
			touched[key].RelationIDs = append(touched[key].RelationIDs, rel.UniqueID().String())
		}
	}

	out := make([]TouchedNode, 0, len(order))
	for _, key := range order {
		out = append(out, *touched[key])
	}
	return valid, out
}

// TouchedNode is a relation endpoint other than the origin, paired with
// every relation ID that touches it (spec §4.6).
type TouchedNode struct {
	Locator     locator.Locator
	RelationIDs []string
}

func (c *Coordinator) allEndpointsResolve(ctx context.Context, rel relation.Relation) bool {
	nodes := append([]uri.ResourceUri{rel.GetSource()}, rel.GetTargets()...)
	for _, node := range nodes {
		loc, err := c.TryInferLocator(ctx, connectors.ResourceReference{Uri: node})
		if err != nil {
			return false
		}
		if _, err := c.ResolveLocator(ctx, loc); err != nil {
			return false
		}
	}
	return true
}

// TryInferAndResolveLocators infers and resolves a Locator for each ref,
// fanning out batchFanOut concurrent tasks at a time while preserving
// input order in the result. Failures for an individual reference are
// swallowed — it simply drops from the result (spec §4.6).
func (c *Coordinator) TryInferAndResolveLocators(ctx context.Context, refs []connectors.Reference) []locator.Locator {
	results := make([]locator.Locator, len(refs))
	ok := make([]bool, len(refs))

	for start := 0; start < len(refs); start += batchFanOut {
		end := start + batchFanOut
		if end > len(refs) {
			end = len(refs)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				loc, err := c.TryInferLocator(ctx, refs[i])
				if err != nil {
					return
				}
				if _, err := c.ResolveLocator(ctx, loc); err != nil {
					return
				}
				results[i] = loc
				ok[i] = true
			}(i)
		}
		wg.Wait()
	}

	out := make([]locator.Locator, 0, len(refs))
	for i, present := range ok {
		if present {
			out = append(out, results[i])
		}
	}
	return out
}

// ResolvePostProcessing turns an ObserveResult's PostProcessing flags into
// validated graph edges (spec §4.5): when GenerateLinkRelations is set, it
// extracts in-body Markdown links (framework.ExtractMarkdownLinks), resolves
// each href through the same registry TryInferLocator uses, and runs the
// survivors through TryResolveRelations so only endpoints every registered
// connector can actually resolve are returned.
func (c *Coordinator) ResolvePostProcessing(ctx context.Context, origin uri.ResourceUri, observed connectors.ObserveResult) ([]relation.Relation, []TouchedNode) {
	resolve := func(href string) (uri.ResourceUri, bool) {
		w, err := uri.DecodeWebUrl(href)
		if err != nil {
			return uri.ResourceUri{}, false
		}
		loc, err := c.TryInferLocator(ctx, connectors.WebReference{Url: w})
		if err != nil || loc == nil {
			return uri.ResourceUri{}, false
		}
		return loc.ResourceUri(), true
	}

	candidates := framework.BuildLinkCandidates(origin, observed.Bundle, observed.PostProcessing, resolve)
	if len(candidates) == 0 {
		return nil, nil
	}
	return c.TryResolveRelations(ctx, origin, candidates)
}
