// Package public implements the ArXiv and YouTube locators: public
// resources addressable without per-realm credentials (spec §8 scenario
// 5). It is registered ahead of the catch-all web connector so these two
// well-known hosts get richer handling than a generic scrape (spec §4.4's
// dispatch-precedence invariant).
package public

import (
	"fmt"
	"strings"

	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

const realmName = "public"

func realmValue() validated.Realm {
	r, _ := validated.DecodeRealm(realmName)
	return r
}

func pathUri(subrealm string, parts ...string) uri.ResourceUri {
	sr, _ := validated.DecodeSubrealm(subrealm)
	path := make([]validated.FileName, 0, len(parts))
	for _, p := range parts {
		fn, _ := validated.DecodeFileName(p)
		path = append(path, fn)
	}
	return uri.New(realmValue(), sr, path...)
}

func decodeWebUrlOrZero(raw string) (uri.WebUrl, bool) {
	w, err := uri.DecodeWebUrl(raw)
	if err != nil {
		return uri.WebUrl{}, false
	}
	return w, true
}

// ArXivLocator addresses an arXiv paper (spec §8 scenario 5:
// resource_uri() == ndk://public/arxiv/{paper_id}).
type ArXivLocator struct {
	PaperID string
}

func (l ArXivLocator) Kind() string { return "public_arxiv" }
func (l ArXivLocator) ResourceUri() uri.ResourceUri {
	return pathUri("arxiv", sanitizePaperID(l.PaperID))
}
func (l ArXivLocator) ContentUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }
func (l ArXivLocator) CitationUrl() (uri.WebUrl, bool) {
	return decodeWebUrlOrZero(fmt.Sprintf("https://arxiv.org/abs/%s", l.PaperID))
}
func (l ArXivLocator) Realm() validated.Realm { return realmValue() }

// sanitizePaperID folds the rare slash-bearing legacy arXiv identifiers
// (e.g. "hep-th/9901001") into a single path segment, the same fold
// convention github/gitlab apply to refs.
func sanitizePaperID(id string) string { return strings.ReplaceAll(id, "/", "_") }

// YouTubeLocator addresses a YouTube video by ID, resolved via the public
// oEmbed endpoint (no API key required).
type YouTubeLocator struct {
	VideoID string
}

func (l YouTubeLocator) Kind() string { return "public_youtube" }
func (l YouTubeLocator) ResourceUri() uri.ResourceUri {
	return pathUri("youtube", l.VideoID)
}
func (l YouTubeLocator) ContentUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }
func (l YouTubeLocator) CitationUrl() (uri.WebUrl, bool) {
	return decodeWebUrlOrZero(fmt.Sprintf("https://www.youtube.com/watch?v=%s", l.VideoID))
}
func (l YouTubeLocator) Realm() validated.Realm { return realmValue() }

var (
	_ locator.Locator = ArXivLocator{}
	_ locator.Locator = YouTubeLocator{}
)
