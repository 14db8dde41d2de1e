package georges

import (
	"context"
	"fmt"

	"github.com/ternarybob/ndkgw/internal/connectors"
	"github.com/ternarybob/ndkgw/internal/content"
	"github.com/ternarybob/ndkgw/internal/downloader"
	"github.com/ternarybob/ndkgw/internal/history"
	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

// Connector implements connectors.Connector for the "georges" realm: a
// blob store of opaque generated-image content fetched by ID from a
// single internal domain. Generated images never change once produced,
// so both Resolve and Observe report the resource as unconditionally
// cacheable.
type Connector struct {
	domain     string
	downloader *downloader.Service
}

// NewConnector builds a Connector for the given blob-store domain.
func NewConnector(domain string, dl *downloader.Service) (*Connector, error) {
	if domain == "" {
		return nil, fmt.Errorf("georges: domain is required")
	}
	return &Connector{domain: domain, downloader: dl}, nil
}

func (c *Connector) Realm() validated.Realm { return realmValue() }

func (c *Connector) Locator(ctx context.Context, ref connectors.Reference) (locator.Locator, error) {
	switch r := ref.(type) {
	case connectors.ExternalReference:
		if r.Uri.Opaque() == "" {
			return nil, nil
		}
		return ImageLocator{Domain: c.domain, ID: r.Uri.Opaque()}, nil

	case connectors.ResourceReference:
		if r.Uri.Realm().String() != realmName {
			return nil, nil
		}
		parts := r.Uri.Path()
		if len(parts) < 1 {
			return nil, fmt.Errorf("georges: resource URI missing image ID segment")
		}
		return ImageLocator{Domain: c.domain, ID: parts[0].String()}, nil

	default:
		return nil, nil
	}
}

func (c *Connector) Resolve(ctx context.Context, loc locator.Locator, cached *connectors.ResolveResult) (connectors.ResolveResult, error) {
	l, ok := loc.(ImageLocator)
	if !ok {
		return connectors.ResolveResult{}, fmt.Errorf("georges connector: unexpected locator kind %q", loc.Kind())
	}
	contentURL, _ := l.ContentUrl()
	headers, err := c.downloader.FetchHead(ctx, contentURL.String(), nil)
	if err != nil {
		return connectors.ResolveResult{}, err
	}
	mt, _ := validated.DecodeMimeType(headers.Get("Content-Type"))
	meta := history.MetadataDelta{MimeType: history.Some(mt.String())}
	meta.AffordanceInfos = history.Some([]content.AffordanceInfo{
		{Suffix: uri.AffordanceBody, MimeType: &mt},
		{Suffix: uri.AffordanceFile, MimeType: &mt},
	})
	return connectors.ResolveResult{Metadata: meta, Cacheable: true}, nil
}

// Observe fetches the raw image bytes and returns them as a self://~
// blob (spec's "$body/$file affordances for opaque generated-image
// blobs").
func (c *Connector) Observe(ctx context.Context, loc locator.Locator, aff uri.Affordance, resolved connectors.ResolveResult) (connectors.ObserveResult, error) {
	l, ok := loc.(ImageLocator)
	if !ok {
		return connectors.ObserveResult{}, fmt.Errorf("georges connector: unexpected locator kind %q", loc.Kind())
	}
	contentURL, _ := l.ContentUrl()
	raw, mt, _, err := c.downloader.FetchBytes(ctx, contentURL.String(), nil)
	if err != nil {
		return connectors.ObserveResult{}, err
	}
	dataURI := validated.NewDataUri(mt, raw)

	return connectors.ObserveResult{
		Bundle: content.Fragment{
			Mode:  content.FragmentModeData,
			Blobs: map[content.FragmentUri]validated.DataUri{content.SelfResource: dataURI},
		},
		PostProcessing: connectors.PostProcessing{Cacheable: true},
	}, nil
}

var _ connectors.Connector = (*Connector)(nil)
