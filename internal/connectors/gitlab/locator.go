// Package gitlab implements the GitLab connector: repository files, trees,
// commits and compares against a self-hosted GitLab instance's REST API v4
// (spec §8 scenario 3). There is no GitLab SDK in the example pack, so
// requests go through internal/downloader the way the teacher's own
// services reach for plain HTTP when no client library is grounded.
package gitlab

import (
	"fmt"
	"strings"

	"github.com/ternarybob/ndkgw/internal/connectors/gitforge"
	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

// projectPath reconstructs "namespace/project" from a Locator's stored
// fields, for building GitLab API URLs.
func projectPath(namespace, project string) string {
	return namespace + "/" + project
}

// sanitizeNamespaceSegment folds a namespace's '/' separators into '_' for
// the resource-URI path (spec §8 scenario 3: "group/sub" -> "group_sub"),
// the same lossy fold sanitizeRefSegment applies to refs in the github
// connector.
func sanitizeNamespaceSegment(namespace string) string {
	return strings.ReplaceAll(namespace, "/", "_")
}

// unsanitizeNamespaceSegment is the best-effort inverse used only when
// reconstructing a locator from a persisted resource URI, where the
// original '/' boundaries inside a multi-level namespace are already
// lost. It turns every '_' back into '/', so a namespace or project name
// that itself contains '_' does not round-trip; a true inverse would
// require probing GitLab's project-search API.
func unsanitizeNamespaceSegment(segment string) string {
	return strings.ReplaceAll(segment, "_", "/")
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

func realmValue() validated.Realm {
	r, _ := validated.DecodeRealm(realmName)
	return r
}

// RepositoryLocator addresses a whole project (spec §4.5's "Repository"
// row: $collection only).
type RepositoryLocator struct {
	Domain, Namespace, Project string
}

func (l RepositoryLocator) Kind() string { return "gitlab_repository" }
func (l RepositoryLocator) ResourceUri() uri.ResourceUri {
	subrealm, _ := validated.DecodeSubrealm("repo")
	return pathUri(realmValue(), subrealm, sanitizeNamespaceSegment(l.Namespace), l.Project)
}
func (l RepositoryLocator) ContentUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }
func (l RepositoryLocator) CitationUrl() (uri.WebUrl, bool) {
	return decodeWebUrlOrZero(fmt.Sprintf("https://%s/%s", l.Domain, projectPath(l.Namespace, l.Project)))
}
func (l RepositoryLocator) Realm() validated.Realm { return realmValue() }

// FileLocator addresses a blob at a ref (spec's "File blob" row:
// $body/$plain), mirroring github.FileLocator.
type FileLocator struct {
	Domain, Namespace, Project, Ref string
	IsDefaultBranch                 bool
	Path                            []string
}

func (l FileLocator) Kind() string { return "gitlab_file" }
func (l FileLocator) ResourceUri() uri.ResourceUri {
	var subrealm validated.Subrealm
	parts := []string{sanitizeNamespaceSegment(l.Namespace), l.Project}
	if l.IsDefaultBranch {
		subrealm, _ = validated.DecodeSubrealm("file")
	} else {
		subrealm, _ = validated.DecodeSubrealm("ref")
		parts = append(parts, sanitizeNamespaceSegment(l.Ref))
	}
	parts = append(parts, l.Path...)
	return pathUri(realmValue(), subrealm, parts...)
}
func (l FileLocator) ContentUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }
func (l FileLocator) CitationUrl() (uri.WebUrl, bool) {
	human := fmt.Sprintf("https://%s/%s/-/blob/%s/%s", l.Domain, projectPath(l.Namespace, l.Project), l.Ref, strings.Join(l.Path, "/"))
	return decodeWebUrlOrZero(human)
}
func (l FileLocator) Realm() validated.Realm { return realmValue() }

// TreeLocator addresses a directory at a ref (spec's "File tree" row).
type TreeLocator struct {
	Domain, Namespace, Project, Ref string
	IsDefaultBranch                 bool
	Path                            []string
}

func (l TreeLocator) Kind() string { return "gitlab_tree" }
func (l TreeLocator) ResourceUri() uri.ResourceUri {
	var subrealm validated.Subrealm
	parts := []string{sanitizeNamespaceSegment(l.Namespace), l.Project}
	if l.IsDefaultBranch {
		subrealm, _ = validated.DecodeSubrealm("tree")
	} else {
		subrealm, _ = validated.DecodeSubrealm("tree_ref")
		parts = append(parts, sanitizeNamespaceSegment(l.Ref))
	}
	parts = append(parts, l.Path...)
	return pathUri(realmValue(), subrealm, parts...)
}
func (l TreeLocator) ContentUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }
func (l TreeLocator) CitationUrl() (uri.WebUrl, bool) {
	human := fmt.Sprintf("https://%s/%s/-/tree/%s/%s", l.Domain, projectPath(l.Namespace, l.Project), l.Ref, strings.Join(l.Path, "/"))
	return decodeWebUrlOrZero(human)
}
func (l TreeLocator) Realm() validated.Realm { return realmValue() }

// CommitLocator addresses a single commit's diff (spec's "Commit /
// compare" row).
type CommitLocator struct {
	Domain, Namespace, Project, SHA string
}

func (l CommitLocator) Kind() string { return "gitlab_commit" }
func (l CommitLocator) ResourceUri() uri.ResourceUri {
	subrealm, _ := validated.DecodeSubrealm("commit")
	return pathUri(realmValue(), subrealm, sanitizeNamespaceSegment(l.Namespace), l.Project, l.SHA)
}
func (l CommitLocator) ContentUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }
func (l CommitLocator) CitationUrl() (uri.WebUrl, bool) {
	return decodeWebUrlOrZero(fmt.Sprintf("https://%s/%s/-/commit/%s", l.Domain, projectPath(l.Namespace, l.Project), l.SHA))
}
func (l CommitLocator) Realm() validated.Realm { return realmValue() }

// CompareLocator addresses a base...head compare (spec §8 scenario 3:
// resource_uri() == ndk://gitlab/compare/group_sub/proj/v1.0_v2.0).
type CompareLocator struct {
	Domain, Namespace, Project, Base, Head string
}

func (l CompareLocator) Kind() string { return "gitlab_compare" }
func (l CompareLocator) ResourceUri() uri.ResourceUri {
	subrealm, _ := validated.DecodeSubrealm("compare")
	return pathUri(realmValue(), subrealm, sanitizeNamespaceSegment(l.Namespace), l.Project, gitforge.SanitizeRefPair(l.Base, l.Head))
}
func (l CompareLocator) ContentUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }
func (l CompareLocator) CitationUrl() (uri.WebUrl, bool) {
	human := fmt.Sprintf("https://%s/%s/-/compare/%s...%s", l.Domain, projectPath(l.Namespace, l.Project), l.Base, l.Head)
	return decodeWebUrlOrZero(human)
}
func (l CompareLocator) Realm() validated.Realm { return realmValue() }

var (
	_ locator.Locator = RepositoryLocator{}
	_ locator.Locator = FileLocator{}
	_ locator.Locator = TreeLocator{}
	_ locator.Locator = CommitLocator{}
	_ locator.Locator = CompareLocator{}
)
