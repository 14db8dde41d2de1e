package public

import (
	"fmt"

	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/storage"
)

// ArXivLocatorCodec implements storage.LocatorCodec for ArXivLocator.
type ArXivLocatorCodec struct{}

func (ArXivLocatorCodec) Kind() string { return "public_arxiv" }
func (ArXivLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	l, ok := loc.(ArXivLocator)
	if !ok {
		return nil, fmt.Errorf("public: ArXivLocatorCodec.Encode: unexpected type %T", loc)
	}
	return map[string]any{"paper_id": l.PaperID}, nil
}
func (ArXivLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	id, _ := fields["paper_id"].(string)
	if id == "" {
		return nil, fmt.Errorf("public: ArXivLocatorCodec.Decode: missing paper_id")
	}
	return ArXivLocator{PaperID: id}, nil
}

// YouTubeLocatorCodec implements storage.LocatorCodec for YouTubeLocator.
type YouTubeLocatorCodec struct{}

func (YouTubeLocatorCodec) Kind() string { return "public_youtube" }
func (YouTubeLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	l, ok := loc.(YouTubeLocator)
	if !ok {
		return nil, fmt.Errorf("public: YouTubeLocatorCodec.Encode: unexpected type %T", loc)
	}
	return map[string]any{"video_id": l.VideoID}, nil
}
func (YouTubeLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	id, _ := fields["video_id"].(string)
	if id == "" {
		return nil, fmt.Errorf("public: YouTubeLocatorCodec.Decode: missing video_id")
	}
	return YouTubeLocator{VideoID: id}, nil
}

var (
	_ storage.LocatorCodec = ArXivLocatorCodec{}
	_ storage.LocatorCodec = YouTubeLocatorCodec{}
)
