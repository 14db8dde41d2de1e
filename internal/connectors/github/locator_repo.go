package github

import (
	"fmt"
	"strings"

	"github.com/ternarybob/ndkgw/internal/connectors/gitforge"
	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

// RepositoryLocator addresses a whole repository (spec §4.5's "Repository
// (fork/git)" row: $collection only, parent relations off).
type RepositoryLocator struct {
	Owner, Repo string
}

func (l RepositoryLocator) Kind() string { return "github_repository" }

func (l RepositoryLocator) ResourceUri() uri.ResourceUri {
	realm, _ := validated.DecodeRealm(realmName)
	subrealm, _ := validated.DecodeSubrealm("repo")
	return pathUri(realm, subrealm, l.Owner, l.Repo)
}

func (l RepositoryLocator) ContentUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }

func (l RepositoryLocator) CitationUrl() (uri.WebUrl, bool) {
	return decodeWebUrlOrZero(fmt.Sprintf("https://github.com/%s/%s", l.Owner, l.Repo))
}

func (l RepositoryLocator) Realm() validated.Realm {
	r, _ := validated.DecodeRealm(realmName)
	return r
}

// TreeLocator addresses a directory inside a repository at a ref (spec
// §4.5's "File tree" row: $collection, parent relations on for the
// default branch).
type TreeLocator struct {
	Owner           string
	Repo            string
	Ref             string
	IsDefaultBranch bool
	Path            []string
}

func (l TreeLocator) Kind() string { return "github_tree" }

func (l TreeLocator) ResourceUri() uri.ResourceUri {
	realm, _ := validated.DecodeRealm(realmName)
	var subrealm validated.Subrealm
	parts := []string{l.Owner, l.Repo}
	if l.IsDefaultBranch {
		subrealm, _ = validated.DecodeSubrealm("tree")
	} else {
		subrealm, _ = validated.DecodeSubrealm("tree_ref")
		parts = append(parts, sanitizeRefSegment(l.Ref))
	}
	parts = append(parts, l.Path...)
	return pathUri(realm, subrealm, parts...)
}

func (l TreeLocator) ContentUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }

func (l TreeLocator) CitationUrl() (uri.WebUrl, bool) {
	human := fmt.Sprintf("https://github.com/%s/%s/tree/%s/%s", l.Owner, l.Repo, l.Ref, strings.Join(l.Path, "/"))
	return decodeWebUrlOrZero(human)
}

func (l TreeLocator) Realm() validated.Realm {
	r, _ := validated.DecodeRealm(realmName)
	return r
}

// CommitLocator addresses a single commit's diff (spec §4.5's "Commit /
// compare" row: $body, formatted diff markdown).
type CommitLocator struct {
	Owner, Repo, SHA string
}

func (l CommitLocator) Kind() string { return "github_commit" }

func (l CommitLocator) ResourceUri() uri.ResourceUri {
	realm, _ := validated.DecodeRealm(realmName)
	subrealm, _ := validated.DecodeSubrealm("commit")
	return pathUri(realm, subrealm, l.Owner, l.Repo, l.SHA)
}

func (l CommitLocator) ContentUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }

func (l CommitLocator) CitationUrl() (uri.WebUrl, bool) {
	return decodeWebUrlOrZero(fmt.Sprintf("https://github.com/%s/%s/commit/%s", l.Owner, l.Repo, l.SHA))
}

func (l CommitLocator) Realm() validated.Realm {
	r, _ := validated.DecodeRealm(realmName)
	return r
}

// CompareLocator addresses a compare between two refs (spec §4.5's
// "Commit / compare" row, and the grammar spec §8 scenario 3 illustrates
// for GitLab's equivalent locator).
type CompareLocator struct {
	Owner, Repo, Base, Head string
}

func (l CompareLocator) Kind() string { return "github_compare" }

func (l CompareLocator) ResourceUri() uri.ResourceUri {
	realm, _ := validated.DecodeRealm(realmName)
	subrealm, _ := validated.DecodeSubrealm("compare")
	return pathUri(realm, subrealm, l.Owner, l.Repo, gitforge.SanitizeRefPair(l.Base, l.Head))
}

func (l CompareLocator) ContentUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }

func (l CompareLocator) CitationUrl() (uri.WebUrl, bool) {
	human := fmt.Sprintf("https://github.com/%s/%s/compare/%s...%s", l.Owner, l.Repo, l.Base, l.Head)
	return decodeWebUrlOrZero(human)
}

func (l CompareLocator) Realm() validated.Realm {
	r, _ := validated.DecodeRealm(realmName)
	return r
}

func pathUri(realm validated.Realm, subrealm validated.Subrealm, parts ...string) uri.ResourceUri {
	path := make([]validated.FileName, 0, len(parts))
	for _, p := range parts {
		fn, _ := validated.DecodeFileName(p)
		path = append(path, fn)
	}
	return uri.New(realm, subrealm, path...)
}

func decodeWebUrlOrZero(raw string) (uri.WebUrl, bool) {
	w, err := uri.DecodeWebUrl(raw)
	if err != nil {
		return uri.WebUrl{}, false
	}
	return w, true
}

var (
	_ locator.Locator = RepositoryLocator{}
	_ locator.Locator = TreeLocator{}
	_ locator.Locator = CommitLocator{}
	_ locator.Locator = CompareLocator{}
)
