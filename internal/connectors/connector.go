// Package connectors defines the Connector contract and the ordered
// Registry that dispatches a reference to the first connector willing to
// claim it (spec §4.4).
package connectors

import (
	"context"

	"github.com/ternarybob/ndkgw/internal/content"
	"github.com/ternarybob/ndkgw/internal/history"
	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

// ResolveResult is what Connector.Resolve produces: a metadata delta plus
// the set of observables that should be treated as expired (spec §4.4).
type ResolveResult struct {
	Metadata history.MetadataDelta
	Expired  []uri.Affordance
	// Cacheable reports whether the coordinator may memoize this result
	// for the lifetime of the request.
	Cacheable bool
}

// PostProcessing carries the per-bundle flags spec §4.5 lists: whether to
// extract a description as a label, synthesize link/parent relations, or
// regenerate per-chunk observation fields.
type PostProcessing struct {
	ExtractDescriptionLabel bool
	GenerateLinkRelations   bool
	GenerateParentRelations bool
	Cacheable               bool
}

// ObserveResult is what Connector.Observe produces: the fetched bundle,
// any metadata/relation updates it implies, and post-processing hints
// (spec §4.4, §4.5).
type ObserveResult struct {
	Bundle         content.Bundle
	Metadata       history.MetadataDelta
	Observed       history.ObservedDelta
	PostProcessing PostProcessing
}

// Reference is anything the coordinator might be asked to resolve: a
// ResourceUri, a WebUrl, or an ExternalUri. Concrete connectors type-switch
// on it inside Locator (spec §4.4's "state machines inside connectors").
type Reference interface {
	isReference()
}

// ResourceReference wraps a ResourceUri reference.
type ResourceReference struct{ Uri uri.ResourceUri }

func (ResourceReference) isReference() {}

// WebReference wraps a WebUrl reference.
type WebReference struct{ Url uri.WebUrl }

func (WebReference) isReference() {}

// ExternalReference wraps an ExternalUri reference.
type ExternalReference struct{ Uri uri.ExternalUri }

func (ExternalReference) isReference() {}

// Connector is a value-typed record parameterized by a realm (spec §3.8,
// §4.4). Implementations must be safe for concurrent use; any per-request
// state lives in the context and arguments each call receives, not in the
// Connector itself.
type Connector interface {
	// Realm is this connector's namespace.
	Realm() validated.Realm

	// Locator attempts to parse ref as belonging to this connector. It
	// returns (nil, nil) to defer to the next connector, a Locator on
	// success, or an UnavailableError if ref clearly belongs here but
	// cannot be resolved.
	Locator(ctx context.Context, ref Reference) (locator.Locator, error)

	// Resolve validates access and computes the resolve-time delta. It
	// MUST NOT fetch full content and MUST return UnavailableError when
	// the caller may not access the resource.
	Resolve(ctx context.Context, loc locator.Locator, cached *ResolveResult) (ResolveResult, error)

	// Observe performs the (possibly expensive) fetch for one affordance.
	Observe(ctx context.Context, loc locator.Locator, aff uri.Affordance, resolved ResolveResult) (ObserveResult, error)
}

// Refresher is implemented by connectors that can sync deltas from
// upstream (e.g. a drive delta token) — optional per spec §4.4.
type Refresher interface {
	Refresh(ctx context.Context) ([]locator.Locator, error)
}
