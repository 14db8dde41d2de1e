package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepositoryLocatorResourceUri(t *testing.T) {
	l := RepositoryLocator{Owner: "acme", Repo: "widget"}
	assert.Equal(t, "ndk://github/repo/acme/widget", l.ResourceUri().String())
	citation, ok := l.CitationUrl()
	assert.True(t, ok)
	assert.Equal(t, "https://github.com/acme/widget", citation.String())
}

func TestTreeLocatorResourceUriDefaultBranch(t *testing.T) {
	l := TreeLocator{Owner: "acme", Repo: "widget", Ref: "main", IsDefaultBranch: true, Path: []string{"docs"}}
	assert.Equal(t, "ndk://github/tree/acme/widget/docs", l.ResourceUri().String())
}

func TestTreeLocatorResourceUriNonDefaultBranch(t *testing.T) {
	l := TreeLocator{Owner: "acme", Repo: "widget", Ref: "feature/x", IsDefaultBranch: false, Path: []string{"docs"}}
	assert.Equal(t, "ndk://github/tree_ref/acme/widget/feature_x/docs", l.ResourceUri().String())
}

func TestCommitLocatorResourceUri(t *testing.T) {
	l := CommitLocator{Owner: "acme", Repo: "widget", SHA: "abc123"}
	assert.Equal(t, "ndk://github/commit/acme/widget/abc123", l.ResourceUri().String())
}

func TestCompareLocatorResourceUri(t *testing.T) {
	l := CompareLocator{Owner: "acme", Repo: "widget", Base: "v1.0", Head: "v2.0"}
	assert.Equal(t, "ndk://github/compare/acme/widget/v1.0_v2.0", l.ResourceUri().String())
	citation, ok := l.CitationUrl()
	assert.True(t, ok)
	assert.Equal(t, "https://github.com/acme/widget/compare/v1.0...v2.0", citation.String())
}
