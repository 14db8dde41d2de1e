package testrail

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ternarybob/ndkgw/internal/connectors"
	"github.com/ternarybob/ndkgw/internal/connectors/framework"
	"github.com/ternarybob/ndkgw/internal/content"
	"github.com/ternarybob/ndkgw/internal/downloader"
	"github.com/ternarybob/ndkgw/internal/history"
	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/relation"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

// Connector implements connectors.Connector for the "testrail" realm:
// test cases and runs fetched over TestRail's REST API v2
// (index.php?/api/v2/...), authenticated with HTTP Basic
// (username + API key).
type Connector struct {
	domain     string
	username   string
	password   string
	downloader *downloader.Service
}

// NewConnector builds a Connector. TestRail's API requires Basic auth on
// every call, so both username and password are mandatory (spec §6.6's
// `public_username?`/`public_password?` manifest fields).
func NewConnector(domain, username, password string, dl *downloader.Service) (*Connector, error) {
	if domain == "" || username == "" || password == "" {
		return nil, fmt.Errorf("testrail: domain, username and password are required")
	}
	return &Connector{domain: domain, username: username, password: password, downloader: dl}, nil
}

func (c *Connector) Realm() validated.Realm { return realmValue() }

func (c *Connector) headers() map[string]string {
	return map[string]string{"Authorization": framework.BasicAuthHeader(c.username, c.password)}
}

func (c *Connector) apiURL(endpoint string) string {
	return fmt.Sprintf("https://%s/index.php?/api/v2/%s", c.domain, endpoint)
}

func (c *Connector) getJSON(ctx context.Context, endpoint string) (any, error) {
	raw, _, err := c.downloader.FetchJSON(ctx, c.apiURL(endpoint), c.headers())
	return raw, err
}

func (c *Connector) Locator(ctx context.Context, ref connectors.Reference) (locator.Locator, error) {
	switch r := ref.(type) {
	case connectors.WebReference:
		if r.Url.Host() != c.domain {
			return nil, nil
		}
		// The "?/cases/view/{id}" part is the query string, not the path.
		if id, ok := trailingID(r.Url.String(), "cases/view"); ok {
			return CaseLocator{Domain: c.domain, CaseID: id}, nil
		}
		if id, ok := trailingID(r.Url.String(), "runs/view"); ok {
			return RunLocator{Domain: c.domain, RunID: id}, nil
		}
		return nil, nil

	case connectors.ResourceReference:
		if r.Uri.Realm().String() != realmName {
			return nil, nil
		}
		parts := r.Uri.Path()
		if len(parts) < 1 {
			return nil, fmt.Errorf("testrail: resource URI missing ID segment")
		}
		id, err := strconv.Atoi(parts[0].String())
		if err != nil {
			return nil, fmt.Errorf("testrail: resource URI has non-numeric ID: %w", err)
		}
		switch r.Uri.Subrealm().String() {
		case "case":
			return CaseLocator{Domain: c.domain, CaseID: id}, nil
		case "run":
			return RunLocator{Domain: c.domain, RunID: id}, nil
		default:
			return nil, nil
		}

	default:
		return nil, nil
	}
}

// trailingID extracts the numeric ID suffix of a TestRail legacy URL path
// shaped like "/index.php" with "/cases/view/{id}" or "/runs/view/{id}"
// embedded after the "?/" marker TestRail uses for its pretty URLs.
func trailingID(path, marker string) (int, bool) {
	idx := strings.Index(path, marker)
	if idx < 0 {
		return 0, false
	}
	rest := strings.TrimPrefix(path[idx+len(marker):], "/")
	rest = strings.SplitN(rest, "/", 2)[0]
	id, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (c *Connector) Resolve(ctx context.Context, loc locator.Locator, cached *connectors.ResolveResult) (connectors.ResolveResult, error) {
	switch l := loc.(type) {
	case CaseLocator:
		raw, err := c.getJSON(ctx, fmt.Sprintf("get_case/%d", l.CaseID))
		if err != nil {
			return connectors.ResolveResult{}, err
		}
		m, err := asMap(raw)
		if err != nil {
			return connectors.ResolveResult{}, fmt.Errorf("testrail: case response: %w", err)
		}
		meta := history.MetadataDelta{Name: history.Some(asString(m, "title"))}
		meta.AffordanceInfos = history.Some([]content.AffordanceInfo{{Suffix: uri.AffordanceBody}})
		return connectors.ResolveResult{Metadata: meta, Cacheable: false}, nil

	case RunLocator:
		raw, err := c.getJSON(ctx, fmt.Sprintf("get_run/%d", l.RunID))
		if err != nil {
			return connectors.ResolveResult{}, err
		}
		m, err := asMap(raw)
		if err != nil {
			return connectors.ResolveResult{}, fmt.Errorf("testrail: run response: %w", err)
		}
		meta := history.MetadataDelta{Name: history.Some(asString(m, "name"))}
		meta.AffordanceInfos = history.Some([]content.AffordanceInfo{{Suffix: uri.AffordanceBody}})
		return connectors.ResolveResult{Metadata: meta, Cacheable: false}, nil

	default:
		return connectors.ResolveResult{}, fmt.Errorf("testrail connector: unexpected locator kind %q", loc.Kind())
	}
}

// Observe renders a case's steps/expected-result fields as Markdown, or a
// run's test list as Markdown plus a parent relation from the run to each
// constituent case (so the case is reachable from the run's resource
// graph without re-crawling TestRail).
func (c *Connector) Observe(ctx context.Context, loc locator.Locator, aff uri.Affordance, resolved connectors.ResolveResult) (connectors.ObserveResult, error) {
	switch l := loc.(type) {
	case CaseLocator:
		raw, err := c.getJSON(ctx, fmt.Sprintf("get_case/%d", l.CaseID))
		if err != nil {
			return connectors.ObserveResult{}, err
		}
		m, err := asMap(raw)
		if err != nil {
			return connectors.ObserveResult{}, fmt.Errorf("testrail: case response: %w", err)
		}
		text := renderCase(asString(m, "title"), asString(m, "custom_steps"), asString(m, "custom_expected"))
		return connectors.ObserveResult{
			Bundle: content.Fragment{Mode: content.FragmentModeMarkdown, Text: text},
			PostProcessing: connectors.PostProcessing{
				ExtractDescriptionLabel: true,
				Cacheable:               false,
			},
		}, nil

	case RunLocator:
		raw, err := c.getJSON(ctx, fmt.Sprintf("get_run/%d", l.RunID))
		if err != nil {
			return connectors.ObserveResult{}, err
		}
		runMeta, err := asMap(raw)
		if err != nil {
			return connectors.ObserveResult{}, fmt.Errorf("testrail: run response: %w", err)
		}

		testsRaw, err := c.getJSON(ctx, fmt.Sprintf("get_tests/%d", l.RunID))
		if err != nil {
			return connectors.ObserveResult{}, err
		}
		tests, err := asSlice(testsRaw)
		if err != nil {
			return connectors.ObserveResult{}, fmt.Errorf("testrail: tests response: %w", err)
		}

		text, relations := renderRun(l.Domain, l.ResourceUri(), asString(runMeta, "name"), tests)

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

	default:
		return connectors.ObserveResult{}, fmt.Errorf("testrail connector: unexpected locator kind %q", loc.Kind())
	}
}

func renderCase(title, steps, expected string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if steps != "" {
		b.WriteString("## Steps\n\n")
		b.WriteString(steps)
		b.WriteString("\n\n")
	}
	if expected != "" {
		b.WriteString("## Expected Result\n\n")
		b.WriteString(expected)
		b.WriteString("\n\n")
	}
	return b.String()
}

// renderRun builds the Markdown body listing a run's tests and the
// parent relation from the run to each test's underlying case.
func renderRun(domain string, runUri uri.ResourceUri, name string, tests []any) (string, []relation.Relation) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n## Tests\n\n", name)

	var relations []relation.Relation
	for _, raw := range tests {
		tm, err := asMap(raw)
		if err != nil {
			continue
		}
		caseID := asInt(tm, "case_id")
		fmt.Fprintf(&b, "- %s\n", asString(tm, "title"))
		if caseID > 0 {
			caseLoc := CaseLocator{Domain: domain, CaseID: caseID}
			relations = append(relations, relation.Parent{ParentUri: runUri, Child: caseLoc.ResourceUri()})
		}
	}

	return b.String(), relations
}

var _ connectors.Connector = (*Connector)(nil)
