package github

import (
	"fmt"
	"strings"

	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

var _ locator.Locator = FileLocator{}

const realmName = "github"

// FileLocator addresses a single file blob inside a GitHub repository at a
// specific ref (spec §3.3 scenarios 1-2). Ref may contain slashes (e.g.
// "feature/x"); Path never does — each element is one path segment.
type FileLocator struct {
	Owner           string
	Repo            string
	Ref             string
	IsDefaultBranch bool
	Path            []string
}

func (l FileLocator) Kind() string { return "github_file" }

// ResourceUri builds the canonical ndk:// URI (spec §3.3 scenarios 1-2):
// subrealm "file" when ref is the default branch (ref omitted from the
// path), "ref" with a sanitized ref segment otherwise.
func (l FileLocator) ResourceUri() uri.ResourceUri {
	realm, _ := validated.DecodeRealm(realmName)

	var subrealm validated.Subrealm
	parts := []string{l.Owner, l.Repo}
	if l.IsDefaultBranch {
		subrealm, _ = validated.DecodeSubrealm("file")
	} else {
		subrealm, _ = validated.DecodeSubrealm("ref")
		parts = append(parts, sanitizeRefSegment(l.Ref))
	}
	parts = append(parts, l.Path...)

	path := make([]validated.FileName, 0, len(parts))
	for _, p := range parts {
		fn, _ := validated.DecodeFileName(p)
		path = append(path, fn)
	}
	return uri.New(realm, subrealm, path...)
}

// ContentUrl is the raw.githubusercontent.com URL to fetch bytes from.
func (l FileLocator) ContentUrl() (uri.WebUrl, bool) {
	raw := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", l.Owner, l.Repo, l.Ref, strings.Join(l.Path, "/"))
	w, err := uri.DecodeWebUrl(raw)
	if err != nil {
		return uri.WebUrl{}, false
	}
	return w, true
}

// CitationUrl is the human-facing github.com blob URL.
func (l FileLocator) CitationUrl() (uri.WebUrl, bool) {
	human := fmt.Sprintf("https://github.com/%s/%s/blob/%s/%s", l.Owner, l.Repo, l.Ref, strings.Join(l.Path, "/"))
	w, err := uri.DecodeWebUrl(human)
	if err != nil {
		return uri.WebUrl{}, false
	}
	return w, true
}

func (l FileLocator) Realm() validated.Realm {
	r, _ := validated.DecodeRealm(realmName)
	return r
}

// sanitizeRefSegment folds a branch/tag name into a single FileName path
// segment by replacing '/' with '_' (spec §3.3 scenario 2: "feature/x" ->
// "feature_x").
func sanitizeRefSegment(ref string) string {
	return strings.ReplaceAll(ref, "/", "_")
}
