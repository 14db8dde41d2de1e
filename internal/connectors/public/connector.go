package public

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/ndkgw/internal/apierrors"
	"github.com/ternarybob/ndkgw/internal/connectors"
	"github.com/ternarybob/ndkgw/internal/content"
	"github.com/ternarybob/ndkgw/internal/downloader"
	"github.com/ternarybob/ndkgw/internal/history"
	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

// Connector implements connectors.Connector for the "public" realm:
// ArXiv papers and YouTube videos, both reachable without credentials.
type Connector struct {
	downloader *downloader.Service
}

// NewConnector builds a Connector. dl is the shared downloader.Service
// used for every fetch (spec §4.8).
func NewConnector(dl *downloader.Service) *Connector {
	return &Connector{downloader: dl}
}

func (c *Connector) Realm() validated.Realm { return realmValue() }

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
	switch w.Host() {
	case "arxiv.org":
		segments := strings.Split(strings.Trim(w.Path(), "/"), "/")
		if len(segments) < 2 {
			return nil, nil
		}
		switch segments[0] {
		case "abs", "pdf", "src":
			return ArXivLocator{PaperID: segments[1]}, nil
		default:
			return nil, nil
		}
	case "www.youtube.com", "youtube.com":
		if w.Path() != "/watch" {
			return nil, nil
		}
		id, ok := w.GetQuery("v")
		if !ok || id == "" {
			return nil, nil
		}
		return YouTubeLocator{VideoID: id}, nil
	case "youtu.be":
		id := strings.Trim(w.Path(), "/")
		if id == "" {
			return nil, nil
		}
		return YouTubeLocator{VideoID: id}, nil
	default:
		return nil, nil
	}
}

func (c *Connector) locatorFromResourceUri(res uri.ResourceUri) (locator.Locator, error) {
	parts := res.Path()
	if len(parts) < 1 {
		return nil, nil
	}
	switch res.Subrealm().String() {
	case "arxiv":
		return ArXivLocator{PaperID: strings.ReplaceAll(parts[0].String(), "_", "/")}, nil
	case "youtube":
		return YouTubeLocator{VideoID: parts[0].String()}, nil
	default:
		return nil, nil
	}
}

func (c *Connector) Resolve(ctx context.Context, loc locator.Locator, cached *connectors.ResolveResult) (connectors.ResolveResult, error) {
	switch l := loc.(type) {
	case ArXivLocator:
		meta := history.MetadataDelta{Name: history.Some(l.PaperID)}
		meta.AffordanceInfos = history.Some([]content.AffordanceInfo{{Suffix: uri.AffordanceBody}})
		return connectors.ResolveResult{Metadata: meta, Cacheable: true}, nil
	case YouTubeLocator:
		meta := history.MetadataDelta{Name: history.Some(l.VideoID)}
		meta.AffordanceInfos = history.Some([]content.AffordanceInfo{{Suffix: uri.AffordanceBody}})
		return connectors.ResolveResult{Metadata: meta, Cacheable: true}, nil
	default:
		return connectors.ResolveResult{}, fmt.Errorf("public connector: unexpected locator kind %q", loc.Kind())
	}
}

func (c *Connector) Observe(ctx context.Context, loc locator.Locator, aff uri.Affordance, resolved connectors.ResolveResult) (connectors.ObserveResult, error) {
	switch l := loc.(type) {
	case ArXivLocator:
		return c.observeArXiv(ctx, l)
	case YouTubeLocator:
		return c.observeYouTube(ctx, l)
	default:
		return connectors.ObserveResult{}, fmt.Errorf("public connector: unexpected locator kind %q", loc.Kind())
	}
}

// observeArXiv implements spec §8 scenario 5: try the LaTeX source first,
// then fall back to the PDF.
func (c *Connector) observeArXiv(ctx context.Context, l ArXivLocator) (connectors.ObserveResult, error) {
	srcURL := fmt.Sprintf("https://arxiv.org/src/%s", l.PaperID)
	body, mt, _, err := c.downloader.FetchBytes(ctx, srcURL, nil)
	if err == nil {
		mode := content.FragmentModePlain
		if mt.Mode() == validated.ModeMarkdown {
			mode = content.FragmentModeMarkdown
		}
		return connectors.ObserveResult{
			Bundle:         content.Fragment{Mode: mode, Text: string(body)},
			PostProcessing: connectors.PostProcessing{ExtractDescriptionLabel: true, Cacheable: true},
		}, nil
	}

	pdfURL := fmt.Sprintf("https://arxiv.org/pdf/%s", l.PaperID)
	resp, pdfErr := c.downloader.DocumentsReadDownload(ctx, pdfURL, nil, downloader.ReadOptions{})
	if pdfErr != nil {
		return connectors.ObserveResult{}, fmt.Errorf("public connector: arxiv %s has no LaTeX source (%v) and PDF fetch failed: %w", l.PaperID, err, pdfErr)
	}
	return connectors.ObserveResult{
		Bundle:         content.Fragment{Mode: resp.Mode, Text: resp.Text, Blobs: resp.Blobs},
		PostProcessing: connectors.PostProcessing{ExtractDescriptionLabel: true, Cacheable: true},
	}, nil
}

func (c *Connector) observeYouTube(ctx context.Context, l YouTubeLocator) (connectors.ObserveResult, error) {
	oembedURL := fmt.Sprintf("https://www.youtube.com/oembed?url=%s&format=json", fmt.Sprintf("https://www.youtube.com/watch?v=%s", l.VideoID))
	raw, _, err := c.downloader.FetchJSON(ctx, oembedURL, nil)
	if err != nil {
		if _, ok := apierrors.AsUnavailable(err); ok {
			return connectors.ObserveResult{}, err
		}
		return connectors.ObserveResult{}, fmt.Errorf("public connector: youtube oembed %s: %w", l.VideoID, err)
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return connectors.ObserveResult{}, fmt.Errorf("public connector: youtube oembed %s: unexpected response shape", l.VideoID)
	}
	title, _ := m["title"].(string)
	author, _ := m["author_name"].(string)
	text := fmt.Sprintf("# %s\n\nChannel: %s\nVideo: https://www.youtube.com/watch?v=%s\n", title, author, l.VideoID)
	return connectors.ObserveResult{
		Bundle:         content.Fragment{Mode: content.FragmentModeMarkdown, Text: text},
		PostProcessing: connectors.PostProcessing{ExtractDescriptionLabel: true, Cacheable: true},
	}, nil
}

var _ connectors.Connector = (*Connector)(nil)
