package web

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/ndkgw/internal/connectors"
	"github.com/ternarybob/ndkgw/internal/content"
	"github.com/ternarybob/ndkgw/internal/downloader"
	"github.com/ternarybob/ndkgw/internal/history"
	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

// Connector implements connectors.Connector for the "web" realm: the
// catch-all that claims any http(s) URL no domain-scoped connector and no
// PublicConnector recognised (spec §4.4's dispatch precedence has this
// connector registered last).
type Connector struct {
	downloader *downloader.Service
}

// NewConnector builds the catch-all web Connector. It needs no
// credentials — it only ever performs anonymous GETs.
func NewConnector(dl *downloader.Service) *Connector {
	return &Connector{downloader: dl}
}

func (c *Connector) Realm() validated.Realm { return realmValue() }

// Locator claims every WebReference unconditionally (it is registered
// last, so only references no earlier connector claimed reach here) and
// any ndk://web resource URI.
func (c *Connector) Locator(ctx context.Context, ref connectors.Reference) (locator.Locator, error) {
	switch r := ref.(type) {
	case connectors.WebReference:
		return PageLocator{Url: r.Url}, nil
	case connectors.ResourceReference:
		if r.Uri.Realm().String() != realmName {
			return nil, nil
		}
		parts := r.Uri.Path()
		if len(parts) < 1 {
			return nil, fmt.Errorf("web connector: resource URI missing page segment")
		}
		w, err := decodeUrlSegment(parts[0].String())
		if err != nil {
			return nil, err
		}
		return PageLocator{Url: w}, nil
	default:
		return nil, nil
	}
}

func (c *Connector) Resolve(ctx context.Context, loc locator.Locator, cached *connectors.ResolveResult) (connectors.ResolveResult, error) {
	l, ok := loc.(PageLocator)
	if !ok {
		return connectors.ResolveResult{}, fmt.Errorf("web connector: unexpected locator kind %q", loc.Kind())
	}
	headers, err := c.downloader.FetchHead(ctx, l.Url.String(), nil)
	if err != nil {
		return connectors.ResolveResult{}, err
	}
	mt, _ := validated.DecodeMimeType(stripMimeParams(headers.Get("Content-Type")))
	meta := history.MetadataDelta{MimeType: history.Some(mt.String())}
	meta.AffordanceInfos = history.Some([]content.AffordanceInfo{{Suffix: uri.AffordanceBody, MimeType: &mt}})
	cacheable := mt.Mode() == validated.ModeDocument || mt.Mode() == validated.ModeMedia
	return connectors.ResolveResult{Metadata: meta, Cacheable: cacheable}, nil
}

// Observe fetches and, for HTML pages, scrapes the page through
// internal/downloader's goquery pipeline (spec's "Public web page" row:
// $body only, no link relations, cached only for media/document MIME).
func (c *Connector) Observe(ctx context.Context, loc locator.Locator, aff uri.Affordance, resolved connectors.ResolveResult) (connectors.ObserveResult, error) {
	l, ok := loc.(PageLocator)
	if !ok {
		return connectors.ObserveResult{}, fmt.Errorf("web connector: unexpected locator kind %q", loc.Kind())
	}

	resp, err := c.downloader.DocumentsReadDownload(ctx, l.Url.String(), nil, downloader.ReadOptions{ConvertHTMLToMarkdown: true})
	if err != nil {
		return connectors.ObserveResult{}, err
	}

	cacheable := resp.MimeType.Mode() == validated.ModeDocument || resp.MimeType.Mode() == validated.ModeMedia
	return connectors.ObserveResult{
		Bundle: content.Fragment{Mode: resp.Mode, Text: resp.Text, Blobs: resp.Blobs},
		PostProcessing: connectors.PostProcessing{
			GenerateLinkRelations: false,
			Cacheable:             cacheable,
		},
	}, nil
}

// stripMimeParams drops a Content-Type header's "; charset=..." suffix
// before handing it to validated.DecodeMimeType, which only accepts the
// bare "type/subtype" form.
func stripMimeParams(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(base)
}

var _ connectors.Connector = (*Connector)(nil)
