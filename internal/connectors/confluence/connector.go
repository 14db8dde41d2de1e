package confluence

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/ndkgw/internal/connectors"
	"github.com/ternarybob/ndkgw/internal/connectors/framework"
	"github.com/ternarybob/ndkgw/internal/content"
	"github.com/ternarybob/ndkgw/internal/downloader"
	"github.com/ternarybob/ndkgw/internal/history"
	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

// Connector implements connectors.Connector for the "confluence" realm.
type Connector struct {
	domain     string
	token      string // empty => anonymous/unauthenticated reads
	downloader *downloader.Service
}

// NewConnector builds a Connector for one Confluence instance (spec
// §6.6's confluence{realm,domain,public_token?} manifest variant).
func NewConnector(domain, token string, dl *downloader.Service) (*Connector, error) {
	if domain == "" {
		return nil, fmt.Errorf("confluence connector: domain is required")
	}
	return &Connector{domain: domain, token: token, downloader: dl}, nil
}

func (c *Connector) Realm() validated.Realm { return realmValue() }

func (c *Connector) headers() map[string]string {
	if c.token == "" {
		return nil
	}
	return map[string]string{"Authorization": framework.BearerAuthHeader(c.token)}
}

func (c *Connector) apiURL(path string) string {
	return fmt.Sprintf("https://%s/wiki/rest/api%s", c.domain, path)
}

func (c *Connector) getJSON(ctx context.Context, path string) (any, error) {
	raw, _, err := c.downloader.FetchJSON(ctx, c.apiURL(path), c.headers())
	return raw, err
}

// Locator claims this instance's page URLs (both the viewpage.action?pageId=
// legacy shape and the /wiki/spaces/{space}/pages/{id}/{title} Cloud shape)
// and ndk://confluence resource URIs.
func (c *Connector) Locator(ctx context.Context, ref connectors.Reference) (locator.Locator, error) {
	switch r := ref.(type) {
	case connectors.WebReference:
		return c.locatorFromWebUrl(r.Url)
	case connectors.ResourceReference:
		if r.Uri.Realm().String() != realmName {
			return nil, nil
		}
		return c.locatorFromResourceUri(r.Uri)
	default:
		return nil, nil
	}
}

func (c *Connector) locatorFromWebUrl(w uri.WebUrl) (locator.Locator, error) {
	if w.Host() != c.domain {
		return nil, nil
	}
	if pageID, ok := w.GetQuery("pageId"); ok && pageID != "" {
		return PageLocator{Domain: c.domain, PageID: pageID}, nil
	}
	segments := strings.Split(strings.Trim(w.Path(), "/"), "/")
	for i, seg := range segments {
		if seg == "pages" && i+1 < len(segments) {
			return PageLocator{Domain: c.domain, PageID: segments[i+1]}, nil
		}
	}
	return nil, nil
}

func (c *Connector) locatorFromResourceUri(res uri.ResourceUri) (locator.Locator, error) {
	parts := res.Path()
	if len(parts) < 1 {
		return nil, fmt.Errorf("confluence connector: resource URI missing page id")
	}
	return PageLocator{Domain: c.domain, PageID: parts[0].String()}, nil
}

func (c *Connector) Resolve(ctx context.Context, loc locator.Locator, cached *connectors.ResolveResult) (connectors.ResolveResult, error) {
	l, ok := loc.(PageLocator)
	if !ok {
		return connectors.ResolveResult{}, fmt.Errorf("confluence connector: unexpected locator kind %q", loc.Kind())
	}
	raw, err := c.getJSON(ctx, fmt.Sprintf("/content/%s?expand=version", l.PageID))
	if err != nil {
		return connectors.ResolveResult{}, err
	}
	m, err := asMap(raw)
	if err != nil {
		return connectors.ResolveResult{}, fmt.Errorf("confluence: page response: %w", err)
	}
	meta := history.MetadataDelta{Name: history.Some(asString(m, "title"))}
	meta.AffordanceInfos = history.Some([]content.AffordanceInfo{{Suffix: uri.AffordanceBody}, {Suffix: uri.AffordancePlain}})
	return connectors.ResolveResult{Metadata: meta, Cacheable: true}, nil
}

// Observe fetches the page's storage-format body and converts it to
// Markdown through internal/downloader's goquery + html-to-markdown
// pipeline (spec §5's "HTML->Markdown via html-to-markdown + goquery link
// extraction"), then extracts in-body links for relation discovery.
func (c *Connector) Observe(ctx context.Context, loc locator.Locator, aff uri.Affordance, resolved connectors.ResolveResult) (connectors.ObserveResult, error) {
	l, ok := loc.(PageLocator)
	if !ok {
		return connectors.ObserveResult{}, fmt.Errorf("confluence connector: unexpected locator kind %q", loc.Kind())
	}

	raw, err := c.getJSON(ctx, fmt.Sprintf("/content/%s?expand=body.storage", l.PageID))
	if err != nil {
		return connectors.ObserveResult{}, err
	}
	m, err := asMap(raw)
	if err != nil {
		return connectors.ObserveResult{}, fmt.Errorf("confluence: page response: %w", err)
	}
	body, err := asMap(m["body"])
	if err != nil {
		return connectors.ObserveResult{}, fmt.Errorf("confluence: page missing body: %w", err)
	}
	storage, err := asMap(body["storage"])
	if err != nil {
		return connectors.ObserveResult{}, fmt.Errorf("confluence: page missing body.storage: %w", err)
	}
	html := asString(storage, "value")

	htmlMime, err := validated.DecodeMimeType("text/html")
	if err != nil {
		return connectors.ObserveResult{}, fmt.Errorf("confluence: decode mime type: %w", err)
	}
	resp, err := c.downloader.DocumentsReadBlob(ctx, l.PageID, htmlMime, []byte(html), downloader.ReadOptions{ConvertHTMLToMarkdown: true})
	if err != nil {
		return connectors.ObserveResult{}, fmt.Errorf("confluence: convert page body: %w", err)
	}

	return connectors.ObserveResult{
		Bundle: content.Fragment{Mode: resp.Mode, Text: resp.Text, Blobs: resp.Blobs},
		PostProcessing: connectors.PostProcessing{
			ExtractDescriptionLabel: true,
			GenerateLinkRelations:   true,
			Cacheable:               true,
		},
	}, nil
}

var _ connectors.Connector = (*Connector)(nil)
