package jira

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/ndkgw/internal/connectors"
	"github.com/ternarybob/ndkgw/internal/connectors/framework"
	"github.com/ternarybob/ndkgw/internal/connectors/microsoft"
	"github.com/ternarybob/ndkgw/internal/content"
	"github.com/ternarybob/ndkgw/internal/downloader"
	"github.com/ternarybob/ndkgw/internal/history"
	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/relation"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

// teamsLinkRe finds a Microsoft Teams conversation link embedded in a Jira
// comment's wiki-markup body (spec §8 scenario 4's
// "[Microsoft Teams conversation|https://teams.microsoft.com/...]").
var teamsLinkRe = regexp.MustCompile(`https://teams\.microsoft\.com/l/message/\S+`)

// Connector implements connectors.Connector for the "jira" realm.
type Connector struct {
	domain     string
	username   string // empty => bearer token auth instead of basic
	token      string
	downloader *downloader.Service
}

// NewConnector builds a Connector. When username is empty, token is sent
// as a Bearer credential; otherwise as HTTP Basic (username + API token),
// matching Jira Cloud's two supported auth schemes (spec §6.6's
// `public_username?`/`public_token?` manifest fields).
func NewConnector(domain, username, token string, dl *downloader.Service) (*Connector, error) {
	if domain == "" || token == "" {
		return nil, fmt.Errorf("jira: domain and token are required")
	}
	return &Connector{domain: domain, username: username, token: token, downloader: dl}, nil
}

func (c *Connector) Realm() validated.Realm { return realmValue() }

func (c *Connector) headers() map[string]string {
	if c.username != "" {
		return map[string]string{"Authorization": framework.BasicAuthHeader(c.username, c.token)}
	}
	return map[string]string{"Authorization": framework.BearerAuthHeader(c.token)}
}

func (c *Connector) apiURL(path string) string {
	return fmt.Sprintf("https://%s/rest/api/2%s", c.domain, path)
}

func (c *Connector) getJSON(ctx context.Context, path string) (any, error) {
	raw, _, err := c.downloader.FetchJSON(ctx, c.apiURL(path), c.headers())
	return raw, err
}

func (c *Connector) Locator(ctx context.Context, ref connectors.Reference) (locator.Locator, error) {
	switch r := ref.(type) {
	case connectors.WebReference:
		if r.Url.Host() != c.domain {
			return nil, nil
		}
		segments := strings.Split(strings.Trim(r.Url.Path(), "/"), "/")
		if len(segments) != 2 || segments[0] != "browse" {
			return nil, nil
		}
		return IssueLocator{Domain: c.domain, Key: segments[1]}, nil

	case connectors.ResourceReference:
		if r.Uri.Realm().String() != realmName {
			return nil, nil
		}
		if r.Uri.Subrealm().String() != "issue" {
			return nil, nil
		}
		parts := r.Uri.Path()
		if len(parts) < 1 {
			return nil, fmt.Errorf("jira: resource URI missing issue key")
		}
		return IssueLocator{Domain: c.domain, Key: parts[0].String()}, nil

	default:
		return nil, nil
	}
}

func (c *Connector) Resolve(ctx context.Context, loc locator.Locator, cached *connectors.ResolveResult) (connectors.ResolveResult, error) {
	l, ok := loc.(IssueLocator)
	if !ok {
		return connectors.ResolveResult{}, fmt.Errorf("jira connector: unexpected locator kind %q", loc.Kind())
	}
	raw, err := c.getJSON(ctx, fmt.Sprintf("/issue/%s?fields=summary", l.Key))
	if err != nil {
		return connectors.ResolveResult{}, err
	}
	m, err := asMap(raw)
	if err != nil {
		return connectors.ResolveResult{}, fmt.Errorf("jira: issue response: %w", err)
	}
	fields, err := asMap(m["fields"])
	if err != nil {
		return connectors.ResolveResult{}, fmt.Errorf("jira: issue fields: %w", err)
	}
	meta := history.MetadataDelta{Name: history.Some(asString(fields, "summary"))}
	meta.AffordanceInfos = history.Some([]content.AffordanceInfo{{Suffix: uri.AffordanceBody}})
	return connectors.ResolveResult{Metadata: meta, Cacheable: false}, nil
}

func (c *Connector) Observe(ctx context.Context, loc locator.Locator, aff uri.Affordance, resolved connectors.ResolveResult) (connectors.ObserveResult, error) {
	l, ok := loc.(IssueLocator)
	if !ok {
		return connectors.ObserveResult{}, fmt.Errorf("jira connector: unexpected locator kind %q", loc.Kind())
	}

	raw, err := c.getJSON(ctx, fmt.Sprintf("/issue/%s?fields=summary,description,comment", l.Key))
	if err != nil {
		return connectors.ObserveResult{}, err
	}
	m, err := asMap(raw)
	if err != nil {
		return connectors.ObserveResult{}, fmt.Errorf("jira: issue response: %w", err)
	}
	fields, err := asMap(m["fields"])
	if err != nil {
		return connectors.ObserveResult{}, fmt.Errorf("jira: issue fields: %w", err)
	}

	var comments []any
	if comment, cErr := asMap(fields["comment"]); cErr == nil {
		comments, _ = asSlice(comment["comments"])
	}

	text, relations := renderIssue(l.Key, l.ResourceUri(), asString(fields, "summary"), asString(fields, "description"), comments)

	var observed history.ObservedDelta
	if len(relations) > 0 {
		observed.Relations = history.Some(relations)
	}

	return connectors.ObserveResult{
		Bundle:   content.Fragment{Mode: content.FragmentModeMarkdown, Text: text},
		Observed: observed,
		PostProcessing: connectors.PostProcessing{
			ExtractDescriptionLabel: true,
			GenerateParentRelations: len(relations) > 0,
			Cacheable:               false,
		},
	}, nil
}

// renderIssue builds the Markdown body for an issue and the parent
// relations implied by Teams-link comments (spec §8 scenario 4). Pure and
// network-free so it can be unit tested directly against synthetic
// comment payloads.
func renderIssue(key string, issueUri uri.ResourceUri, summary, description string, comments []any) (string, []relation.Relation) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s: %s\n\n", key, summary)
	if description != "" {
		b.WriteString(description)
		b.WriteString("\n\n")
	}

	var relations []relation.Relation
	if len(comments) > 0 {
		b.WriteString("## Comments\n\n")
		for _, raw := range comments {
			cm, cmErr := asMap(raw)
			if cmErr != nil {
				continue
			}
			body := asString(cm, "body")

			if href := teamsLinkRe.FindString(body); href != "" {
				href = strings.TrimSuffix(href, "]")
				if w, decodeErr := uri.DecodeWebUrl(href); decodeErr == nil {
					if teamsLoc, ok := microsoft.ParseTeamsMessageUrl(w); ok {
						relations = append(relations, relation.Parent{ParentUri: issueUri, Child: teamsLoc.ResourceUri()})
						continue // exclude this comment from the rendered body
					}
				}
			}

			author, _ := asMap(cm["author"])
			fmt.Fprintf(&b, "**%s**: %s\n\n", asString(author, "displayName"), body)
		}
	}

	return b.String(), relations
}

var _ connectors.Connector = (*Connector)(nil)
