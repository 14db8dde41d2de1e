// Package georges implements the image-generation blob-store connector
// (spec §5: the internal codename retained from the connectors.yml config
// surface). It serves opaque generated-image blobs addressed by "ext://"
// IDs as $body/$file affordances.
package georges

import (
	"fmt"

	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

const realmName = "georges"

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

// ImageLocator addresses a single generated-image blob by its opaque
// external ID (the "ext://..." form a caller originally supplied).
type ImageLocator struct {
	Domain string
	ID     string
}

func (l ImageLocator) Kind() string                  { return "georges_image" }
func (l ImageLocator) ResourceUri() uri.ResourceUri { return pathUri("image", l.ID) }
func (l ImageLocator) ContentUrl() (uri.WebUrl, bool) {
	w, err := uri.DecodeWebUrl(fmt.Sprintf("https://%s/images/%s", l.Domain, l.ID))
	if err != nil {
		return uri.WebUrl{}, false
	}
	return w, true
}
func (l ImageLocator) CitationUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }
func (l ImageLocator) Realm() validated.Realm          { return realmValue() }

var _ locator.Locator = ImageLocator{}
