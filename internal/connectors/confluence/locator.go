// Package confluence implements the Confluence connector: wiki pages
// fetched via REST and converted from storage-format HTML to Markdown
// (spec §5: "confluence -- wiki pages via REST, HTML->Markdown via
// html-to-markdown + goquery link extraction").
package confluence

import (
	"fmt"

	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

const realmName = "confluence"

func realmValue() validated.Realm {
	r, _ := validated.DecodeRealm(realmName)
	return r
}

func pathUri(subrealm validated.Subrealm, parts ...string) uri.ResourceUri {
	path := make([]validated.FileName, 0, len(parts))
	for _, p := range parts {
		fn, _ := validated.DecodeFileName(p)
		path = append(path, fn)
	}
	return uri.New(realmValue(), subrealm, path...)
}

func decodeWebUrlOrZero(raw string) (uri.WebUrl, bool) {
	w, err := uri.DecodeWebUrl(raw)
	if err != nil {
		return uri.WebUrl{}, false
	}
	return w, true
}

// PageLocator addresses a single Confluence page by its numeric content
// ID (spec's "Wiki page" row: $body/$plain, html-to-markdown converted).
type PageLocator struct {
	Domain string
	PageID string
}

func (l PageLocator) Kind() string { return "confluence_page" }
func (l PageLocator) ResourceUri() uri.ResourceUri {
	subrealm, _ := validated.DecodeSubrealm("page")
	return pathUri(subrealm, l.PageID)
}
func (l PageLocator) ContentUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }
func (l PageLocator) CitationUrl() (uri.WebUrl, bool) {
	return decodeWebUrlOrZero(fmt.Sprintf("https://%s/pages/viewpage.action?pageId=%s", l.Domain, l.PageID))
}
func (l PageLocator) Realm() validated.Realm { return realmValue() }

var _ locator.Locator = PageLocator{}
