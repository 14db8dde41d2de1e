// Package jira implements the Jira connector: issues fetched over the
// REST API, rendered as Markdown, with Teams-link comments excluded from
// the rendered body and re-emitted as a parent relation instead (spec §8
// scenario 4).
package jira

import (
	"fmt"

	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

const realmName = "jira"

func realmValue() validated.Realm {
	r, _ := validated.DecodeRealm(realmName)
	return r
}

func pathUri(subrealm string, parts ...string) uri.ResourceUri {
	sr, _ := validated.DecodeSubrealm(subrealm)
	path := make([]validated.FileName, 0, len(parts))
	for _, p := range parts {
		fn, _ := validated.DecodeFileName(p)
		path = append(path, fn)
	}
	return uri.New(realmValue(), sr, path...)
}

func decodeWebUrlOrZero(raw string) (uri.WebUrl, bool) {
	w, err := uri.DecodeWebUrl(raw)
	if err != nil {
		return uri.WebUrl{}, false
	}
	return w, true
}

// IssueLocator addresses a single Jira issue by key (e.g. "PROJ-42").
type IssueLocator struct {
	Domain string
	Key    string
}

func (l IssueLocator) Kind() string                  { return "jira_issue" }
func (l IssueLocator) ResourceUri() uri.ResourceUri { return pathUri("issue", l.Key) }
func (l IssueLocator) ContentUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }
func (l IssueLocator) CitationUrl() (uri.WebUrl, bool) {
	return decodeWebUrlOrZero(fmt.Sprintf("https://%s/browse/%s", l.Domain, l.Key))
}
func (l IssueLocator) Realm() validated.Realm { return realmValue() }

var _ locator.Locator = IssueLocator{}
