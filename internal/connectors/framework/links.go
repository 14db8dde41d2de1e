// Package framework holds the connector-post-processing helpers shared
// across realms (spec §4.5): the caller-side half of the "bundle
// post-processing flags" a Connector.Observe result may set.
package framework

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ternarybob/ndkgw/internal/connectors"
	"github.com/ternarybob/ndkgw/internal/content"
	"github.com/ternarybob/ndkgw/internal/relation"
	"github.com/ternarybob/ndkgw/internal/uri"
)

var markdownParser = goldmark.New().Parser()

// ExtractMarkdownLinks walks a Markdown fragment's AST and returns every
// link/autolink destination found in document order (spec §4.5: "generate
// link relations from in-body Markdown links"). Grounded on the teacher's
// PDF renderer (`internal/services/pdf`), which parses the same way
// (`goldmark.New().Parser().Parse(text.NewReader(source))` + `ast.Walk`)
// to drive PDF layout instead of relation extraction.
func ExtractMarkdownLinks(markdown string) []string {
	source := []byte(markdown)
	doc := markdownParser.Parse(text.NewReader(source))

	var hrefs []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch link := n.(type) {
		case *ast.Link:
			hrefs = append(hrefs, string(link.Destination))
		case *ast.AutoLink:
			hrefs = append(hrefs, string(link.URL(source)))
		}
		return ast.WalkContinue, nil
	})
	return hrefs
}

// ResolveFunc attempts to infer a ResourceUri for an arbitrary href string,
// the way a coordinator's TryInferLocator would for a WebReference. It
// returns false when no registered connector claims the href.
type ResolveFunc func(href string) (uri.ResourceUri, bool)

// BuildLinkCandidates turns a bundle's PostProcessing.GenerateLinkRelations
// flag into candidate relation.Link edges: every in-body Markdown link that
// a registered connector can resolve to a ResourceUri becomes one edge from
// origin. The caller (typically the coordinator) is responsible for
// validating these candidates with TryResolveRelations before persisting
// them — BuildLinkCandidates only proposes, it never resolves.
func BuildLinkCandidates(origin uri.ResourceUri, bundle content.Bundle, post connectors.PostProcessing, resolve ResolveFunc) []relation.Relation {
	if !post.GenerateLinkRelations {
		return nil
	}
	fragment, ok := bundle.(content.Fragment)
	if !ok || fragment.Mode != content.FragmentModeMarkdown {
		return nil
	}

	var candidates []relation.Relation
	for _, href := range ExtractMarkdownLinks(fragment.Text) {
		target, ok := resolve(href)
		if !ok {
			continue
		}
		if target.String() == origin.String() {
			continue
		}
		candidates = append(candidates, relation.Link{Source: origin, Target: target})
	}
	return candidates
}
