package web

import (
	"fmt"

	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/storage"
	"github.com/ternarybob/ndkgw/internal/uri"
)

// PageLocatorCodec implements storage.LocatorCodec for PageLocator.
type PageLocatorCodec struct{}

func (PageLocatorCodec) Kind() string { return "web_page" }
func (PageLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	l, ok := loc.(PageLocator)
	if !ok {
		return nil, fmt.Errorf("web: PageLocatorCodec.Encode: unexpected type %T", loc)
	}
	return map[string]any{"url": l.Url.String()}, nil
}
func (PageLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	raw, _ := fields["url"].(string)
	if raw == "" {
		return nil, fmt.Errorf("web: PageLocatorCodec.Decode: missing url")
	}
	w, err := uri.DecodeWebUrl(raw)
	if err != nil {
		return nil, fmt.Errorf("web: PageLocatorCodec.Decode: %w", err)
	}
	return PageLocator{Url: w}, nil
}

var _ storage.LocatorCodec = PageLocatorCodec{}
