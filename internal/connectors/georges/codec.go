package georges

import (
	"fmt"

	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/storage"
)

// ImageLocatorCodec implements storage.LocatorCodec for ImageLocator.
type ImageLocatorCodec struct{}

func (ImageLocatorCodec) Kind() string { return "georges_image" }
func (ImageLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	l, ok := loc.(ImageLocator)
	if !ok {
		return nil, fmt.Errorf("georges: ImageLocatorCodec.Encode: unexpected type %T", loc)
	}
	return map[string]any{"domain": l.Domain, "id": l.ID}, nil
}
func (ImageLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	domain, _ := fields["domain"].(string)
	id, _ := fields["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("georges: ImageLocatorCodec.Decode: missing id")
	}
	return ImageLocator{Domain: domain, ID: id}, nil
}

var _ storage.LocatorCodec = ImageLocatorCodec{}
