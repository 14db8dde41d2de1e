// Package locator defines the Locator sum type (spec §3.3): the
// machine-readable, connector-specific inputs needed to re-fetch a
// resource. Concrete variants live alongside each connector; this package
// only fixes the shared contract so the history and storage layers can
// hold a Locator without depending on the connector framework.
package locator

import (
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

// Locator is the minimum machine-readable description of a resource that
// a connector needs to re-fetch it.
type Locator interface {
	// Kind discriminates the concrete variant (e.g. "github_blob",
	// "sharepoint_file").
	Kind() string
	// ResourceUri is the deterministic canonical URI this locator maps to.
	ResourceUri() uri.ResourceUri
	// ContentUrl is the source-system URL to follow for bytes, if any.
	ContentUrl() (uri.WebUrl, bool)
	// CitationUrl is the URL shown to humans; may equal ContentUrl, may be
	// absent.
	CitationUrl() (uri.WebUrl, bool)
	// Realm is the connector namespace.
	Realm() validated.Realm
}
