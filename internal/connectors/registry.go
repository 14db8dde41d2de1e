package connectors

import (
	"context"
	"fmt"

	"github.com/ternarybob/ndkgw/internal/locator"
)

// Registry dispatches a Reference to the first registered Connector
// willing to claim it, in registration order (spec §4.4: "Registered
// order is significant"). Grounded on gardener-docforge's
// repositoryhosts.Registry.Get first-match iteration.
type Registry struct {
	connectors []Connector
}

// NewRegistry builds a Registry over connectors, preserving order.
// Callers should register domain-scoped connectors first and any
// catch-all connector (e.g. the web connector) last.
func NewRegistry(connectors ...Connector) *Registry {
	return &Registry{connectors: connectors}
}

// Connectors returns the registered connectors in dispatch order.
func (r *Registry) Connectors() []Connector {
	return r.connectors
}

// ByRealm returns the connector registered for realm, if any.
func (r *Registry) ByRealm(realm string) (Connector, bool) {
	for _, c := range r.connectors {
		if c.Realm().String() == realm {
			return c, true
		}
	}
	return nil, false
}

// Locate asks each connector in turn to claim ref, returning the first
// Locator produced. A connector defers by returning (nil, nil); it may
// abort the whole lookup by returning a non-nil error (spec §4.4: "A
// connector MAY return None to defer; it MAY return an UnavailableError
// to abort the lookup").
func (r *Registry) Locate(ctx context.Context, ref Reference) (locator.Locator, error) {
	for _, c := range r.connectors {
		loc, err := c.Locator(ctx, ref)
		if err != nil {
			return nil, err
		}
		if loc != nil {
			return loc, nil
		}
	}
	return nil, fmt.Errorf("connectors: no registered connector claims this reference")
}
