package framework

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/ndkgw/internal/connectors"
	"github.com/ternarybob/ndkgw/internal/content"
	"github.com/ternarybob/ndkgw/internal/uri"
)

func TestExtractMarkdownLinksFindsInlineAndAutoLinks(t *testing.T) {
	md := "See [the docs](https://example.com/docs) and also <https://example.com/auto>."
	hrefs := ExtractMarkdownLinks(md)
	assert.ElementsMatch(t, []string{"https://example.com/docs", "https://example.com/auto"}, hrefs)
}

func TestExtractMarkdownLinksIgnoresPlainText(t *testing.T) {
	hrefs := ExtractMarkdownLinks("just some plain text, no links here")
	assert.Empty(t, hrefs)
}

func TestBuildLinkCandidatesSkipsWhenFlagUnset(t *testing.T) {
	origin, err := uri.Decode("ndk://github/file/acme/widget/README.md")
	assert.NoError(t, err)

	bundle := content.Fragment{Mode: content.FragmentModeMarkdown, Text: "[a](https://example.com/a)"}
	candidates := BuildLinkCandidates(origin, bundle, connectors.PostProcessing{}, func(string) (uri.ResourceUri, bool) {
		t.Fatal("resolve should not be called when the flag is unset")
		return uri.ResourceUri{}, false
	})
	assert.Nil(t, candidates)
}

func TestBuildLinkCandidatesBuildsLinkForResolvableHref(t *testing.T) {
	origin, err := uri.Decode("ndk://github/file/acme/widget/README.md")
	assert.NoError(t, err)
	target, err := uri.Decode("ndk://github/file/acme/other/NOTES.md")
	assert.NoError(t, err)

	bundle := content.Fragment{
		Mode: content.FragmentModeMarkdown,
		Text: "See [notes](https://github.com/acme/other/blob/main/NOTES.md) for detail.",
	}
	candidates := BuildLinkCandidates(origin, bundle, connectors.PostProcessing{GenerateLinkRelations: true}, func(href string) (uri.ResourceUri, bool) {
		if href == "https://github.com/acme/other/blob/main/NOTES.md" {
			return target, true
		}
		return uri.ResourceUri{}, false
	})

	assert.Len(t, candidates, 1)
	assert.Equal(t, origin.String(), candidates[0].GetSource().String())
	assert.Equal(t, target.String(), candidates[0].GetTargets()[0].String())
}

func TestBuildLinkCandidatesIgnoresUnresolvableHrefs(t *testing.T) {
	origin, err := uri.Decode("ndk://github/file/acme/widget/README.md")
	assert.NoError(t, err)

	bundle := content.Fragment{
		Mode: content.FragmentModeMarkdown,
		Text: "See [elsewhere](https://unrelated.example/page).",
	}
	candidates := BuildLinkCandidates(origin, bundle, connectors.PostProcessing{GenerateLinkRelations: true}, func(string) (uri.ResourceUri, bool) {
		return uri.ResourceUri{}, false
	})
	assert.Empty(t, candidates)
}
