// Package web implements WebConnector, the catch-all realm for arbitrary
// public web pages (spec §4.4's dispatch precedence: registered last,
// after every domain-scoped and the public connector). It never claims a
// ndk:// resource URI by path shape the way domain connectors do — a page
// is addressed by its URL alone, base64url-encoded into one resource-path
// segment.
package web

import (
	"encoding/base64"
	"fmt"

	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

const realmName = "web"

func realmValue() validated.Realm {
	r, _ := validated.DecodeRealm(realmName)
	return r
}

// PageLocator addresses an arbitrary public web page by its full URL
// (spec's "Public web page" row: $body only, cached only when the fetched
// MIME is document/media, no link relations).
type PageLocator struct {
	Url uri.WebUrl
}

func (l PageLocator) Kind() string { return "web_page" }
func (l PageLocator) ResourceUri() uri.ResourceUri {
	subrealm, _ := validated.DecodeSubrealm("page")
	segment, _ := validated.DecodeFileName(encodeUrlSegment(l.Url))
	return uri.New(realmValue(), subrealm, segment)
}
func (l PageLocator) ContentUrl() (uri.WebUrl, bool)  { return uri.WebUrl{}, false }
func (l PageLocator) CitationUrl() (uri.WebUrl, bool) { return l.Url, true }
func (l PageLocator) Realm() validated.Realm          { return realmValue() }

// encodeUrlSegment packs a page's full URL into a single FileName-legal
// path segment: base64url (no padding) only ever emits [A-Za-z0-9_-],
// which fileNameRe accepts without escaping.
func encodeUrlSegment(w uri.WebUrl) string {
	return base64.RawURLEncoding.EncodeToString([]byte(w.String()))
}

// decodeUrlSegment is the inverse of encodeUrlSegment, used when
// reconstructing a locator from a persisted resource URI.
func decodeUrlSegment(segment string) (uri.WebUrl, error) {
	raw, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return uri.WebUrl{}, fmt.Errorf("web connector: decode resource path segment: %w", err)
	}
	return uri.DecodeWebUrl(string(raw))
}

var _ locator.Locator = PageLocator{}
