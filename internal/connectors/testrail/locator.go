// Package testrail implements the TestRail connector: test cases and
// runs fetched over TestRail's REST API v2 (spec §5: "testrail --
// test-case/run locator over TestRail's REST API").
package testrail

import (
	"fmt"
	"strconv"

	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

const realmName = "testrail"

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

// CaseLocator addresses a single test case (spec's test-case row: $body).
type CaseLocator struct {
	Domain string
	CaseID int
}

func (l CaseLocator) Kind() string { return "testrail_case" }
func (l CaseLocator) ResourceUri() uri.ResourceUri {
	return pathUri("case", strconv.Itoa(l.CaseID))
}
func (l CaseLocator) ContentUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }
func (l CaseLocator) CitationUrl() (uri.WebUrl, bool) {
	return decodeWebUrlOrZero(fmt.Sprintf("https://%s/index.php?/cases/view/%d", l.Domain, l.CaseID))
}
func (l CaseLocator) Realm() validated.Realm { return realmValue() }

// RunLocator addresses a single test run (spec's test-run row: $collection).
type RunLocator struct {
	Domain string
	RunID  int
}

func (l RunLocator) Kind() string { return "testrail_run" }
func (l RunLocator) ResourceUri() uri.ResourceUri {
	return pathUri("run", strconv.Itoa(l.RunID))
}
func (l RunLocator) ContentUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }
func (l RunLocator) CitationUrl() (uri.WebUrl, bool) {
	return decodeWebUrlOrZero(fmt.Sprintf("https://%s/index.php?/runs/view/%d", l.Domain, l.RunID))
}
func (l RunLocator) Realm() validated.Realm { return realmValue() }

var (
	_ locator.Locator = CaseLocator{}
	_ locator.Locator = RunLocator{}
)
