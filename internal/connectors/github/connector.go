// Package github implements the GitHub connector: repository files,
// trees, commits and compares (spec §3.3 scenarios 1-2). Client
// construction is adapted in place from the teacher's go-github +
// oauth2.StaticTokenSource connector.
package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/ternarybob/ndkgw/internal/connectors"
	"github.com/ternarybob/ndkgw/internal/connectors/gitforge"
	"github.com/ternarybob/ndkgw/internal/content"
	"github.com/ternarybob/ndkgw/internal/history"
	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

// Connector implements connectors.Connector for the "github" realm.
type Connector struct {
	client *github.Client
}

// NewConnector builds a Connector from a personal access token, the same
// oauth2.StaticTokenSource construction the teacher's original connector
// used.
func NewConnector(token string) (*Connector, error) {
	if token == "" {
		return nil, fmt.Errorf("github connector: token is required")
	}
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return &Connector{client: github.NewClient(tc)}, nil
}

// TestConnection verifies the token works by getting the authenticated
// user.
func (c *Connector) TestConnection(ctx context.Context) error {
	if _, _, err := c.client.Users.Get(ctx, ""); err != nil {
		return fmt.Errorf("github connection test failed: %w", err)
	}
	return nil
}

// Realm returns "github".
func (c *Connector) Realm() validated.Realm {
	r, _ := validated.DecodeRealm(realmName)
	return r
}

// Locator claims github.com blob URLs and ndk://github resource URIs
// (spec §3.3 scenarios 1-2).
func (c *Connector) Locator(ctx context.Context, ref connectors.Reference) (locator.Locator, error) {
	switch r := ref.(type) {
	case connectors.WebReference:
		return c.locatorFromWebUrl(ctx, r.Url)
	case connectors.ResourceReference:
		if string(r.Uri.Realm().String()) != realmName {
			return nil, nil
		}
		return c.locatorFromResourceUri(ctx, r.Uri)
	default:
		return nil, nil
	}
}

func (c *Connector) locatorFromWebUrl(ctx context.Context, w uri.WebUrl) (locator.Locator, error) {
	if w.Host() != "github.com" {
		return nil, nil
	}
	segments := strings.Split(strings.Trim(w.Path(), "/"), "/")
	if len(segments) < 2 {
		return nil, nil
	}
	owner, repo := segments[0], segments[1]

	if len(segments) == 2 {
		return RepositoryLocator{Owner: owner, Repo: repo}, nil
	}
	if len(segments) < 4 {
		return nil, nil
	}

	switch segments[2] {
	case "blob":
		ref, path, err := c.splitRefAndPath(ctx, owner, repo, segments[3:])
		if err != nil {
			return nil, err
		}
		isDefault, err := c.isDefaultBranch(ctx, owner, repo, ref)
		if err != nil {
			return nil, err
		}
		return FileLocator{Owner: owner, Repo: repo, Ref: ref, IsDefaultBranch: isDefault, Path: path}, nil

	case "tree":
		ref, path, err := c.splitRefAndPath(ctx, owner, repo, segments[3:])
		if err != nil {
			return nil, err
		}
		isDefault, err := c.isDefaultBranch(ctx, owner, repo, ref)
		if err != nil {
			return nil, err
		}
		return TreeLocator{Owner: owner, Repo: repo, Ref: ref, IsDefaultBranch: isDefault, Path: path}, nil

	case "commit":
		return CommitLocator{Owner: owner, Repo: repo, SHA: segments[3]}, nil

	case "compare":
		base, head, ok := strings.Cut(segments[3], "...")
		if !ok {
			return nil, fmt.Errorf("github connector: compare URL %q missing \"...\"", w.String())
		}
		return CompareLocator{Owner: owner, Repo: repo, Base: base, Head: head}, nil

	default:
		return nil, nil
	}
}

func (c *Connector) locatorFromResourceUri(ctx context.Context, res uri.ResourceUri) (locator.Locator, error) {
	segs := res.Path()
	parts := make([]string, 0, len(segs))
	for _, p := range segs {
		parts = append(parts, p.String())
	}
	if len(parts) < 2 {
		return nil, nil
	}
	owner, repo := parts[0], parts[1]
	subrealm := string(res.Subrealm().String())

	switch subrealm {
	case "repo":
		return RepositoryLocator{Owner: owner, Repo: repo}, nil

	case "commit":
		if len(parts) < 3 {
			return nil, nil
		}
		return CommitLocator{Owner: owner, Repo: repo, SHA: parts[2]}, nil

	case "compare":
		if len(parts) < 3 {
			return nil, nil
		}
		base, head, ok := strings.Cut(parts[2], "_")
		if !ok {
			return nil, fmt.Errorf("github connector: compare resource URI %q has malformed pair segment", res.String())
		}
		return CompareLocator{Owner: owner, Repo: repo, Base: base, Head: head}, nil

	case "tree":
		if len(parts) < 3 {
			return nil, nil
		}
		def, err := c.defaultBranchName(ctx, owner, repo)
		if err != nil {
			return nil, err
		}
		return TreeLocator{Owner: owner, Repo: repo, Ref: def, IsDefaultBranch: true, Path: parts[2:]}, nil

	case "tree_ref":
		if len(parts) < 3 {
			return nil, nil
		}
		ref, path, err := c.splitRefAndPath(ctx, owner, repo, parts[2:])
		if err != nil {
			return nil, err
		}
		return TreeLocator{Owner: owner, Repo: repo, Ref: ref, IsDefaultBranch: false, Path: path}, nil

	case "file":
		if len(parts) < 3 {
			return nil, nil
		}
		def, err := c.defaultBranchName(ctx, owner, repo)
		if err != nil {
			return nil, err
		}
		return FileLocator{Owner: owner, Repo: repo, Ref: def, IsDefaultBranch: true, Path: parts[2:]}, nil

	default:
		// subrealm "ref": parts[2] is the sanitized ref segment, which is
		// lossy for refs containing '/'. Resolve it the same way a fresh
		// blob URL would, by probing branches.
		if len(parts) < 3 {
			return nil, nil
		}
		ref, path, err := c.splitRefAndPath(ctx, owner, repo, parts[2:])
		if err != nil {
			return nil, err
		}
		return FileLocator{Owner: owner, Repo: repo, Ref: ref, IsDefaultBranch: false, Path: path}, nil
	}
}

// splitRefAndPath disambiguates a GitHub blob URL's "{ref}/{path}" suffix,
// which is ambiguous when ref itself contains '/' (spec §3.3 scenario 2:
// branch "feature/x"). It probes increasingly long segment prefixes
// against the repository's branches, the way GitHub's own UI does.
func (c *Connector) splitRefAndPath(ctx context.Context, owner, repo string, segments []string) (string, []string, error) {
	if len(segments) == 0 {
		return "", nil, fmt.Errorf("github connector: blob URL for %s/%s has no ref/path", owner, repo)
	}
	for split := 1; split < len(segments); split++ {
		candidate := strings.Join(segments[:split], "/")
		if _, _, err := c.client.Repositories.GetBranch(ctx, owner, repo, candidate, 0); err == nil {
			return candidate, segments[split:], nil
		}
	}
	// No multi-segment branch matched; assume the conventional single
	// segment ref.
	return segments[0], segments[1:], nil
}

func (c *Connector) isDefaultBranch(ctx context.Context, owner, repo, ref string) (bool, error) {
	def, err := c.defaultBranchName(ctx, owner, repo)
	if err != nil {
		return false, err
	}
	return def == ref, nil
}

func (c *Connector) defaultBranchName(ctx context.Context, owner, repo string) (string, error) {
	r, _, err := c.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf("github connector: get repo %s/%s: %w", owner, repo, err)
	}
	return r.GetDefaultBranch(), nil
}

// Resolve dispatches on the locator variant to compute the MetadataDelta
// and affordance list for each git-forge row of spec §4.5's observation
// table, without fetching full content.
func (c *Connector) Resolve(ctx context.Context, loc locator.Locator, cached *connectors.ResolveResult) (connectors.ResolveResult, error) {
	switch l := loc.(type) {
	case FileLocator:
		return c.resolveFile(ctx, l)
	case RepositoryLocator:
		return c.resolveRepository(ctx, l)
	case TreeLocator:
		return c.resolveTree(ctx, l)
	case CommitLocator:
		return c.resolveSingleBodyAffordance(ctx, l.Owner, l.Repo)
	case CompareLocator:
		return c.resolveSingleBodyAffordance(ctx, l.Owner, l.Repo)
	default:
		return connectors.ResolveResult{}, fmt.Errorf("github connector: unexpected locator kind %q", loc.Kind())
	}
}

func (c *Connector) resolveFile(ctx context.Context, fl FileLocator) (connectors.ResolveResult, error) {
	path := strings.Join(fl.Path, "/")
	contentFile, _, _, err := c.client.Repositories.GetContents(ctx, fl.Owner, fl.Repo, path, &github.RepositoryContentGetOptions{Ref: fl.Ref})
	if err != nil {
		return connectors.ResolveResult{}, fmt.Errorf("github connector: get contents %s/%s@%s/%s: %w", fl.Owner, fl.Repo, fl.Ref, path, err)
	}

	mt, _ := validated.GuessMimeFromFilename(path)
	affordances := []content.AffordanceInfo{{Suffix: uri.AffordanceBody, MimeType: &mt}}
	if mt.Mode() == validated.ModeMarkdown || mt.Mode() == validated.ModePlain {
		affordances = append(affordances, content.AffordanceInfo{Suffix: uri.AffordancePlain, MimeType: &mt})
	}

	meta := history.MetadataDelta{
		Name:     history.Some(contentFile.GetName()),
		MimeType: history.Some(mt.String()),
	}
	meta.AffordanceInfos = history.Some(affordances)

	return connectors.ResolveResult{Metadata: meta, Cacheable: false}, nil
}

func (c *Connector) resolveRepository(ctx context.Context, rl RepositoryLocator) (connectors.ResolveResult, error) {
	repo, _, err := c.client.Repositories.Get(ctx, rl.Owner, rl.Repo)
	if err != nil {
		return connectors.ResolveResult{}, fmt.Errorf("github connector: get repo %s/%s: %w", rl.Owner, rl.Repo, err)
	}
	meta := history.MetadataDelta{Name: history.Some(repo.GetFullName())}
	meta.AffordanceInfos = history.Some([]content.AffordanceInfo{{Suffix: uri.AffordanceCollection}})
	return connectors.ResolveResult{Metadata: meta, Cacheable: false}, nil
}

func (c *Connector) resolveTree(ctx context.Context, tl TreeLocator) (connectors.ResolveResult, error) {
	meta := history.MetadataDelta{Name: history.Some(strings.Join(append([]string{tl.Owner, tl.Repo}, tl.Path...), "/"))}
	meta.AffordanceInfos = history.Some([]content.AffordanceInfo{{Suffix: uri.AffordanceCollection}})
	return connectors.ResolveResult{Metadata: meta, Cacheable: false}, nil
}

// resolveSingleBodyAffordance is shared by CommitLocator and
// CompareLocator, both of which expose only $body (spec §4.5).
func (c *Connector) resolveSingleBodyAffordance(ctx context.Context, owner, repo string) (connectors.ResolveResult, error) {
	meta := history.MetadataDelta{Name: history.Some(owner + "/" + repo)}
	meta.AffordanceInfos = history.Some([]content.AffordanceInfo{{Suffix: uri.AffordanceBody}})
	return connectors.ResolveResult{Metadata: meta, Cacheable: false}, nil
}

// Observe dispatches on the locator variant to perform the fetch for aff
// (spec §4.5).
func (c *Connector) Observe(ctx context.Context, loc locator.Locator, aff uri.Affordance, resolved connectors.ResolveResult) (connectors.ObserveResult, error) {
	switch l := loc.(type) {
	case FileLocator:
		return c.observeFile(ctx, l, aff)
	case RepositoryLocator:
		return c.observeRepository(ctx, l)
	case TreeLocator:
		return c.observeTree(ctx, l)
	case CommitLocator:
		return c.observeCommit(ctx, l)
	case CompareLocator:
		return c.observeCompare(ctx, l)
	default:
		return connectors.ObserveResult{}, fmt.Errorf("github connector: unexpected locator kind %q", loc.Kind())
	}
}

func (c *Connector) observeFile(ctx context.Context, fl FileLocator, aff uri.Affordance) (connectors.ObserveResult, error) {
	path := strings.Join(fl.Path, "/")
	contentFile, _, _, err := c.client.Repositories.GetContents(ctx, fl.Owner, fl.Repo, path, &github.RepositoryContentGetOptions{Ref: fl.Ref})
	if err != nil {
		return connectors.ObserveResult{}, fmt.Errorf("github connector: get contents %s/%s@%s/%s: %w", fl.Owner, fl.Repo, fl.Ref, path, err)
	}
	if contentFile.Content == nil {
		return connectors.ObserveResult{}, fmt.Errorf("github connector: %s/%s@%s/%s is not a text blob", fl.Owner, fl.Repo, fl.Ref, path)
	}
	decoded, err := base64.StdEncoding.DecodeString(*contentFile.Content)
	if err != nil {
		return connectors.ObserveResult{}, fmt.Errorf("github connector: decode content: %w", err)
	}

	mt, _ := validated.GuessMimeFromFilename(path)
	mode := content.FragmentModeMarkdown
	if mt.Mode() == validated.ModePlain {
		mode = content.FragmentModePlain
	}

	bundle := content.Fragment{Mode: mode, Text: string(decoded)}
	return connectors.ObserveResult{
		Bundle: bundle,
		PostProcessing: connectors.PostProcessing{
			ExtractDescriptionLabel: true,
			GenerateLinkRelations:   aff == uri.AffordanceBody,
		},
	}, nil
}

// observeRepository lists the repository root as a BundleCollection
// (spec §4.5's "Repository" row: $collection, parent relations off).
func (c *Connector) observeRepository(ctx context.Context, rl RepositoryLocator) (connectors.ObserveResult, error) {
	_, dirContents, _, err := c.client.Repositories.GetContents(ctx, rl.Owner, rl.Repo, "", nil)
	if err != nil {
		return connectors.ObserveResult{}, fmt.Errorf("github connector: list root %s/%s: %w", rl.Owner, rl.Repo, err)
	}
	def, err := c.defaultBranchName(ctx, rl.Owner, rl.Repo)
	if err != nil {
		return connectors.ObserveResult{}, err
	}

	results := treeEntriesToResourceUris(rl.Owner, rl.Repo, def, nil, dirContents)
	bundle := content.BundleCollection{Uri: rl.ResourceUri(), Results: results}
	return connectors.ObserveResult{
		Bundle:         bundle,
		PostProcessing: connectors.PostProcessing{GenerateParentRelations: false},
	}, nil
}

// observeTree lists a directory as a BundleCollection (spec §4.5's "File
// tree" row: $collection, parent relations on for the default branch).
func (c *Connector) observeTree(ctx context.Context, tl TreeLocator) (connectors.ObserveResult, error) {
	path := strings.Join(tl.Path, "/")
	_, dirContents, _, err := c.client.Repositories.GetContents(ctx, tl.Owner, tl.Repo, path, &github.RepositoryContentGetOptions{Ref: tl.Ref})
	if err != nil {
		return connectors.ObserveResult{}, fmt.Errorf("github connector: list tree %s/%s@%s/%s: %w", tl.Owner, tl.Repo, tl.Ref, path, err)
	}

	results := treeEntriesToResourceUris(tl.Owner, tl.Repo, tl.Ref, tl.Path, dirContents)
	bundle := content.BundleCollection{Uri: tl.ResourceUri(), Results: results}
	return connectors.ObserveResult{
		Bundle:         bundle,
		PostProcessing: connectors.PostProcessing{GenerateParentRelations: tl.IsDefaultBranch},
	}, nil
}

func treeEntriesToResourceUris(owner, repo, ref string, basePath []string, entries []*github.RepositoryContent) []uri.ResourceUri {
	out := make([]uri.ResourceUri, 0, len(entries))
	for _, e := range entries {
		childPath := append(append([]string{}, basePath...), e.GetName())
		if e.GetType() == "dir" {
			out = append(out, TreeLocator{Owner: owner, Repo: repo, Ref: ref, Path: childPath}.ResourceUri())
		} else {
			out = append(out, FileLocator{Owner: owner, Repo: repo, Ref: ref, Path: childPath}.ResourceUri())
		}
	}
	return out
}

// observeCommit renders a single commit's diff as Markdown (spec §4.5's
// "Commit / compare" row).
func (c *Connector) observeCommit(ctx context.Context, cl CommitLocator) (connectors.ObserveResult, error) {
	commit, _, err := c.client.Repositories.GetCommit(ctx, cl.Owner, cl.Repo, cl.SHA, nil)
	if err != nil {
		return connectors.ObserveResult{}, fmt.Errorf("github connector: get commit %s/%s@%s: %w", cl.Owner, cl.Repo, cl.SHA, err)
	}

	summary := gitforge.Commit{
		SHA:     commit.GetSHA(),
		Author:  commit.GetCommit().GetAuthor().GetName(),
		Date:    commit.GetCommit().GetAuthor().GetDate().String(),
		Message: commit.GetCommit().GetMessage(),
	}
	files := make([]gitforge.FileDiff, 0, len(commit.Files))
	for _, f := range commit.Files {
		files = append(files, gitforge.FileDiff{
			Path: f.GetFilename(), Status: f.GetStatus(),
			Additions: f.GetAdditions(), Deletions: f.GetDeletions(), Patch: f.GetPatch(),
		})
	}

	text := gitforge.FormatCommit(summary, files)
	return connectors.ObserveResult{
		Bundle:         content.Fragment{Mode: content.FragmentModeMarkdown, Text: text},
		PostProcessing: connectors.PostProcessing{ExtractDescriptionLabel: true},
	}, nil
}

// observeCompare renders a base...head compare as <commits>/<diffs>
// sectioned Markdown (spec §8 scenario 3's format, shared with gitlab).
func (c *Connector) observeCompare(ctx context.Context, cl CompareLocator) (connectors.ObserveResult, error) {
	cmp, _, err := c.client.Repositories.CompareCommits(ctx, cl.Owner, cl.Repo, cl.Base, cl.Head, nil)
	if err != nil {
		return connectors.ObserveResult{}, fmt.Errorf("github connector: compare %s/%s %s...%s: %w", cl.Owner, cl.Repo, cl.Base, cl.Head, err)
	}

	commits := make([]gitforge.Commit, 0, len(cmp.Commits))
	for _, commit := range cmp.Commits {
		commits = append(commits, gitforge.Commit{
			SHA:     commit.GetSHA(),
			Author:  commit.GetCommit().GetAuthor().GetName(),
			Date:    commit.GetCommit().GetAuthor().GetDate().String(),
			Message: commit.GetCommit().GetMessage(),
		})
	}
	files := make([]gitforge.FileDiff, 0, len(cmp.Files))
	for _, f := range cmp.Files {
		files = append(files, gitforge.FileDiff{
			Path: f.GetFilename(), Status: f.GetStatus(),
			Additions: f.GetAdditions(), Deletions: f.GetDeletions(), Patch: f.GetPatch(),
		})
	}

	text := gitforge.FormatCompare(cl.Base, cl.Head, commits, files)
	return connectors.ObserveResult{
		Bundle:         content.Fragment{Mode: content.FragmentModeMarkdown, Text: text},
		PostProcessing: connectors.PostProcessing{ExtractDescriptionLabel: true},
	}, nil
}

var _ connectors.Connector = (*Connector)(nil)
