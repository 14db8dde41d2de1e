package microsoft

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/ndkgw/internal/apierrors"
	"github.com/ternarybob/ndkgw/internal/connectors"
	"github.com/ternarybob/ndkgw/internal/content"
	"github.com/ternarybob/ndkgw/internal/downloader"
	"github.com/ternarybob/ndkgw/internal/history"
	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

// Connector implements connectors.Connector for one Microsoft tenant's
// SharePoint/OneDrive + Outlook + Teams surfaces (spec §5, §8 scenarios 4
// and 6). A single Connector value backs both the "microsoft-my" and
// "microsoft-org" manifest variants; RefreshSiteIDs is empty for "-my".
type Connector struct {
	domain         string
	shared         *SharedState
	downloader     *downloader.Service
	refreshSiteIDs []string
	imap           ImapConfig
}

// NewConnector builds a Connector. shared is process-wide per tenant
// (spec §5: "Shares the process-wide Graph mutex + token cache").
func NewConnector(domain string, shared *SharedState, dl *downloader.Service, refreshSiteIDs []string, imap ImapConfig) (*Connector, error) {
	if domain == "" {
		return nil, fmt.Errorf("microsoft: domain is required")
	}
	if shared == nil {
		return nil, fmt.Errorf("microsoft: shared state is required")
	}
	return &Connector{domain: domain, shared: shared, downloader: dl, refreshSiteIDs: refreshSiteIDs, imap: imap}, nil
}

func (c *Connector) Realm() validated.Realm { return realmValue() }

func (c *Connector) headers(ctx context.Context) (map[string]string, error) {
	auth, err := c.shared.AuthHeader(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{"Authorization": auth}, nil
}

func (c *Connector) getJSON(ctx context.Context, path string) (any, error) {
	h, err := c.headers(ctx)
	if err != nil {
		return nil, err
	}
	raw, _, err := c.downloader.FetchJSON(ctx, graphBaseURL+path, h)
	return raw, err
}

func (c *Connector) Locator(ctx context.Context, ref connectors.Reference) (locator.Locator, error) {
	switch r := ref.(type) {
	case connectors.WebReference:
		return c.locatorFromWebUrl(ctx, r.Url)
	case connectors.ResourceReference:
		if r.Uri.Realm().String() != realmName {
			return nil, nil
		}
		return c.locatorFromResourceUri(r.Uri)
	default:
		return nil, nil
	}
}

func (c *Connector) locatorFromWebUrl(ctx context.Context, w uri.WebUrl) (locator.Locator, error) {
	switch {
	case w.Host() == "teams.microsoft.com":
		loc, ok := ParseTeamsMessageUrl(w)
		if !ok {
			return nil, nil
		}
		return loc, nil

	case w.Host() == c.domain:
		encoded := encodeSharingURL(w.String())
		raw, err := c.getJSON(ctx, fmt.Sprintf("/shares/%s/driveItem?$select=id,name,parentReference", encoded))
		if err != nil {
			if _, ok := apierrors.AsUnavailable(err); ok {
				return nil, err
			}
			return nil, nil
		}
		m, err := asMap(raw)
		if err != nil {
			return nil, fmt.Errorf("microsoft: driveItem response: %w", err)
		}
		itemID := asString(m, "id")
		parent, _ := asMap(m["parentReference"])
		return MsSharePointFileLocator{
			SiteID:   asString(parent, "siteId"),
			DriveID:  asString(parent, "driveId"),
			ItemID:   itemID,
			ItemPath: w.Path(),
		}, nil

	default:
		return nil, nil
	}
}

// encodeSharingURL implements Graph's "u!{base64url, no padding}" sharing
// token encoding (documented Graph convention for /shares/{id}).
func encodeSharingURL(rawURL string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(rawURL))
	encoded = strings.TrimRight(encoded, "=")
	encoded = strings.NewReplacer("/", "_", "+", "-").Replace(encoded)
	return "u!" + encoded
}

func (c *Connector) locatorFromResourceUri(res uri.ResourceUri) (locator.Locator, error) {
	parts := res.Path()
	switch res.Subrealm().String() {
	case "sharepoint":
		if len(parts) < 3 {
			return nil, fmt.Errorf("microsoft: sharepoint resource URI missing site/drive/item")
		}
		return MsSharePointFileLocator{SiteID: parts[0].String(), DriveID: parts[1].String(), ItemID: parts[2].String()}, nil
	case "teams":
		if len(parts) < 2 {
			return nil, fmt.Errorf("microsoft: teams resource URI missing thread/message")
		}
		return TeamsLocator{ThreadID: parts[0].String(), MessageID: parts[1].String()}, nil
	case "outlook":
		if len(parts) == 1 {
			return OutlookLocator{MessageID: parts[0].String()}, nil
		}
		if len(parts) >= 2 {
			var seq uint32
			fmt.Sscanf(parts[1].String(), "%d", &seq)
			return OutlookLocator{Mailbox: parts[0].String(), SeqNum: seq}, nil
		}
		return nil, fmt.Errorf("microsoft: outlook resource URI missing message id")
	default:
		return nil, nil
	}
}

func (c *Connector) Resolve(ctx context.Context, loc locator.Locator, cached *connectors.ResolveResult) (connectors.ResolveResult, error) {
	switch l := loc.(type) {
	case MsSharePointFileLocator:
		raw, err := c.getJSON(ctx, fmt.Sprintf("/sites/%s/drives/%s/items/%s?$select=id,name,file", l.SiteID, l.DriveID, l.ItemID))
		if err != nil {
			return connectors.ResolveResult{}, err
		}
		m, err := asMap(raw)
		if err != nil {
			return connectors.ResolveResult{}, fmt.Errorf("microsoft: driveItem resolve: %w", err)
		}
		meta := history.MetadataDelta{Name: history.Some(asString(m, "name"))}
		meta.AffordanceInfos = history.Some([]content.AffordanceInfo{
			{Suffix: uri.AffordanceBody}, {Suffix: uri.AffordanceCollection}, {Suffix: uri.AffordanceFile},
		})
		return connectors.ResolveResult{Metadata: meta, Cacheable: false}, nil

	case TeamsLocator:
		meta := history.MetadataDelta{Name: history.Some(l.MessageID)}
		meta.AffordanceInfos = history.Some([]content.AffordanceInfo{{Suffix: uri.AffordanceBody}})
		return connectors.ResolveResult{Metadata: meta, Cacheable: false}, nil

	case OutlookLocator:
		meta := history.MetadataDelta{}
		meta.AffordanceInfos = history.Some([]content.AffordanceInfo{{Suffix: uri.AffordanceBody}})
		return connectors.ResolveResult{Metadata: meta, Cacheable: false}, nil

	default:
		return connectors.ResolveResult{}, fmt.Errorf("microsoft connector: unexpected locator kind %q", loc.Kind())
	}
}

func (c *Connector) Observe(ctx context.Context, loc locator.Locator, aff uri.Affordance, resolved connectors.ResolveResult) (connectors.ObserveResult, error) {
	switch l := loc.(type) {
	case MsSharePointFileLocator:
		return c.observeSharePoint(ctx, l, aff)
	case TeamsLocator:
		return c.observeTeams(ctx, l)
	case OutlookLocator:
		return c.observeOutlook(ctx, l)
	default:
		return connectors.ObserveResult{}, fmt.Errorf("microsoft connector: unexpected locator kind %q", loc.Kind())
	}
}

func (c *Connector) observeSharePoint(ctx context.Context, l MsSharePointFileLocator, aff uri.Affordance) (connectors.ObserveResult, error) {
	base := fmt.Sprintf("/sites/%s/drives/%s/items/%s", l.SiteID, l.DriveID, l.ItemID)

	switch aff {
	case uri.AffordanceCollection:
		raw, err := c.getJSON(ctx, base+"/children?$select=id,name")
		if err != nil {
			return connectors.ObserveResult{}, err
		}
		m, err := asMap(raw)
		if err != nil {
			return connectors.ObserveResult{}, fmt.Errorf("microsoft: children response: %w", err)
		}
		values, err := asSlice(m["value"])
		if err != nil {
			return connectors.ObserveResult{}, fmt.Errorf("microsoft: children value: %w", err)
		}
		var results []uri.ResourceUri
		for _, v := range values {
			child, err := asMap(v)
			if err != nil {
				continue
			}
			childLoc := MsSharePointFileLocator{SiteID: l.SiteID, DriveID: l.DriveID, ItemID: asString(child, "id")}
			results = append(results, childLoc.ResourceUri())
		}
		return connectors.ObserveResult{
			Bundle:         content.BundleCollection{Uri: l.ResourceUri(), Results: results},
			PostProcessing: connectors.PostProcessing{Cacheable: false},
		}, nil

	case uri.AffordanceFile:
		raw, err := c.getJSON(ctx, base+"?$select=id,name,file,@microsoft.graph.downloadUrl")
		if err != nil {
			return connectors.ObserveResult{}, err
		}
		m, err := asMap(raw)
		if err != nil {
			return connectors.ObserveResult{}, fmt.Errorf("microsoft: driveItem file response: %w", err)
		}
		downloadURL := asString(m, "@microsoft.graph.downloadUrl")
		webURL, ok := decodeWebUrlOrZero(downloadURL)
		if !ok {
			return connectors.ObserveResult{}, fmt.Errorf("microsoft: driveItem %s has no download URL", l.ItemID)
		}
		expiry := time.Now().Add(time.Hour)
		mimeStr := "application/octet-stream"
		if file, fileErr := asMap(m["file"]); fileErr == nil {
			if mt := asString(file, "mimeType"); mt != "" {
				mimeStr = mt
			}
		}
		mt, mtErr := validated.DecodeMimeType(mimeStr)
		if mtErr != nil {
			mt, _ = validated.DecodeMimeType("application/octet-stream")
		}
		return connectors.ObserveResult{
			Bundle: content.BundleFile{
				Uri: l.ResourceUri(), MimeType: mt,
				DownloadUrl: content.NewWebDownloadRef(webURL), Expiry: &expiry,
				Description: asString(m, "name"),
			},
			PostProcessing: connectors.PostProcessing{Cacheable: false},
		}, nil

	default:
		resp, err := c.downloader.DocumentsReadDownload(ctx, graphBaseURL+base+"/content", mustHeaders(c, ctx), downloader.ReadOptions{ConvertHTMLToMarkdown: true})
		if err != nil {
			return connectors.ObserveResult{}, err
		}
		return connectors.ObserveResult{
			Bundle:         content.Fragment{Mode: resp.Mode, Text: resp.Text, Blobs: resp.Blobs},
			PostProcessing: connectors.PostProcessing{ExtractDescriptionLabel: true, Cacheable: true},
		}, nil
	}
}

func mustHeaders(c *Connector, ctx context.Context) map[string]string {
	h, err := c.headers(ctx)
	if err != nil {
		return nil
	}
	return h
}

func (c *Connector) observeTeams(ctx context.Context, l TeamsLocator) (connectors.ObserveResult, error) {
	raw, err := c.getJSON(ctx, fmt.Sprintf("/chats/%s/messages/%s", l.ThreadID, l.MessageID))
	if err != nil {
		return connectors.ObserveResult{}, err
	}
	m, err := asMap(raw)
	if err != nil {
		return connectors.ObserveResult{}, fmt.Errorf("microsoft: teams message response: %w", err)
	}
	from, _ := asMap(m["from"])
	user, _ := asMap(from["user"])
	body, _ := asMap(m["body"])
	text := fmt.Sprintf("**%s**: %s\n", asString(user, "displayName"), asString(body, "content"))
	return connectors.ObserveResult{
		Bundle:         content.Fragment{Mode: content.FragmentModeMarkdown, Text: text},
		PostProcessing: connectors.PostProcessing{Cacheable: false},
	}, nil
}

func (c *Connector) observeOutlook(ctx context.Context, l OutlookLocator) (connectors.ObserveResult, error) {
	if l.MessageID != "" {
		raw, graphErr := c.getJSON(ctx, fmt.Sprintf("/me/messages/%s?$select=subject,from,bodyPreview,body", l.MessageID))
		if graphErr == nil {
			if m, mErr := asMap(raw); mErr == nil {
				body, _ := asMap(m["body"])
				text := fmt.Sprintf("# %s\n\n%s\n", asString(m, "subject"), asString(body, "content"))
				return connectors.ObserveResult{
					Bundle:         content.Fragment{Mode: content.FragmentModeMarkdown, Text: text},
					PostProcessing: connectors.PostProcessing{Cacheable: true},
				}, nil
			}
		}
		if _, ok := apierrors.AsUnavailable(graphErr); ok {
			return connectors.ObserveResult{}, graphErr
		}
	}

	subject, from, body, err := fetchViaIMAP(c.imap, l.Mailbox, l.SeqNum)
	if err != nil {
		return connectors.ObserveResult{}, fmt.Errorf("microsoft: outlook IMAP fallback: %w", err)
	}
	text := fmt.Sprintf("# %s\n\nFrom: %s\n\n%s\n", subject, from, body)
	return connectors.ObserveResult{
		Bundle:         content.Fragment{Mode: content.FragmentModeMarkdown, Text: text},
		PostProcessing: connectors.PostProcessing{Cacheable: true},
	}, nil
}

// Refresh implements connectors.Refresher for every site in RefreshSiteIDs
// (spec §8 scenario 6): fetch the stored delta link (or the initial
// /drive/root/delta when absent), emit a locator for each changed item
// whose "file" facet is set, persist the new @odata.deltaLink, and never
// overwrite a stored link with an empty one.
func (c *Connector) Refresh(ctx context.Context) ([]locator.Locator, error) {
	var changed []locator.Locator
	for _, siteID := range c.refreshSiteIDs {
		locs, err := c.refreshSite(ctx, siteID)
		if err != nil {
			return nil, err
		}
		changed = append(changed, locs...)
	}
	return changed, nil
}

func (c *Connector) refreshSite(ctx context.Context, siteID string) ([]locator.Locator, error) {
	var path string
	if link, ok := c.shared.DeltaLink(siteID); ok {
		path = link
	} else {
		path = fmt.Sprintf("%s/sites/%s/drive/root/delta", graphBaseURL, siteID)
	}

	h, err := c.headers(ctx)
	if err != nil {
		return nil, err
	}
	raw, _, err := c.downloader.FetchJSON(ctx, path, h)
	if err != nil {
		return nil, fmt.Errorf("microsoft: refresh site %s: %w", siteID, err)
	}
	m, err := asMap(raw)
	if err != nil {
		return nil, fmt.Errorf("microsoft: delta response for site %s: %w", siteID, err)
	}

	values, _ := asSlice(m["value"])
	var locs []locator.Locator
	for _, v := range values {
		item, err := asMap(v)
		if err != nil {
			continue
		}
		if _, hasFile := item["file"]; !hasFile {
			continue
		}
		parent, _ := asMap(item["parentReference"])
		locs = append(locs, MsSharePointFileLocator{
			SiteID:  siteID,
			DriveID: asString(parent, "driveId"),
			ItemID:  asString(item, "id"),
		})
	}

	if next := asString(m, "@odata.deltaLink"); next != "" {
		c.shared.SetDeltaLink(siteID, next)
	} else if nextPage := asString(m, "@odata.nextLink"); nextPage != "" {
		c.shared.SetDeltaLink(siteID, nextPage)
	}

	return locs, nil
}

var (
	_ connectors.Connector = (*Connector)(nil)
	_ connectors.Refresher = (*Connector)(nil)
)
