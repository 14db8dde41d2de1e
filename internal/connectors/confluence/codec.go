package confluence

import (
	"fmt"

	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/storage"
)

// PageLocatorCodec implements storage.LocatorCodec for PageLocator.
type PageLocatorCodec struct{}

func (PageLocatorCodec) Kind() string { return "confluence_page" }
func (PageLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	l, ok := loc.(PageLocator)
	if !ok {
		return nil, fmt.Errorf("confluence: PageLocatorCodec.Encode: unexpected type %T", loc)
	}
	return map[string]any{"domain": l.Domain, "page_id": l.PageID}, nil
}
func (PageLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	domain, _ := fields["domain"].(string)
	pageID, _ := fields["page_id"].(string)
	if pageID == "" {
		return nil, fmt.Errorf("confluence: PageLocatorCodec.Decode: missing page_id")
	}
	return PageLocator{Domain: domain, PageID: pageID}, nil
}

var _ storage.LocatorCodec = PageLocatorCodec{}
