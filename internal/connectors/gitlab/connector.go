package gitlab

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/ternarybob/ndkgw/internal/connectors"
	"github.com/ternarybob/ndkgw/internal/connectors/framework"
	"github.com/ternarybob/ndkgw/internal/connectors/gitforge"
	"github.com/ternarybob/ndkgw/internal/content"
	"github.com/ternarybob/ndkgw/internal/downloader"
	"github.com/ternarybob/ndkgw/internal/history"
	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

const realmName = "gitlab"

// Connector implements connectors.Connector for the "gitlab" realm,
// talking to a self-hosted (or gitlab.com) instance's REST API v4.
type Connector struct {
	domain     string
	token      string
	downloader *downloader.Service
}

// NewConnector builds a Connector for one GitLab instance (spec §6.6's
// gitlab{realm,domain,public_token} manifest variant).
func NewConnector(domain, token string, dl *downloader.Service) (*Connector, error) {
	if domain == "" {
		return nil, fmt.Errorf("gitlab connector: domain is required")
	}
	if token == "" {
		return nil, fmt.Errorf("gitlab connector: token is required")
	}
	return &Connector{domain: domain, token: token, downloader: dl}, nil
}

func (c *Connector) Realm() validated.Realm { return realmValue() }

func (c *Connector) headers() map[string]string {
	return map[string]string{"Authorization": framework.BearerAuthHeader(c.token)}
}

func (c *Connector) apiURL(path string) string {
	return fmt.Sprintf("https://%s/api/v4%s", c.domain, path)
}

func (c *Connector) getJSON(ctx context.Context, path string) (any, error) {
	parsed, _, err := c.downloader.FetchJSON(ctx, c.apiURL(path), c.headers())
	if err != nil {
		return nil, err
	}
	return parsed, nil
}

func encodedProjectPath(namespace, project string) string {
	return url.PathEscape(projectPath(namespace, project))
}

// Locator claims this instance's web URLs and ndk://gitlab resource URIs.
func (c *Connector) Locator(ctx context.Context, ref connectors.Reference) (locator.Locator, error) {
	switch r := ref.(type) {
	case connectors.WebReference:
		return c.locatorFromWebUrl(ctx, r.Url)
	case connectors.ResourceReference:
		if r.Uri.Realm().String() != realmName {
			return nil, nil
		}
		return c.locatorFromResourceUri(r.Uri)
	default:
		return nil, nil
	}
}

// locatorFromWebUrl parses GitLab's "{namespace}/{project}/-/{action}/..."
// URL shape (spec §8 scenario 3).
func (c *Connector) locatorFromWebUrl(ctx context.Context, w uri.WebUrl) (locator.Locator, error) {
	if w.Host() != c.domain {
		return nil, nil
	}
	full := strings.Trim(w.Path(), "/")
	projectPart, actionPart, hasAction := strings.Cut(full, "/-/")
	projSegments := strings.Split(projectPart, "/")
	if len(projSegments) < 2 {
		return nil, nil
	}
	namespace := strings.Join(projSegments[:len(projSegments)-1], "/")
	project := projSegments[len(projSegments)-1]

	if !hasAction {
		return RepositoryLocator{Domain: c.domain, Namespace: namespace, Project: project}, nil
	}

	actionSegments := strings.Split(actionPart, "/")
	if len(actionSegments) < 2 {
		return nil, nil
	}
	switch actionSegments[0] {
	case "blob":
		ref, path, err := c.splitRefAndPath(ctx, namespace, project, actionSegments[1:])
		if err != nil {
			return nil, err
		}
		isDefault, err := c.isDefaultBranch(ctx, namespace, project, ref)
		if err != nil {
			return nil, err
		}
		return FileLocator{Domain: c.domain, Namespace: namespace, Project: project, Ref: ref, IsDefaultBranch: isDefault, Path: path}, nil

	case "tree":
		ref, path, err := c.splitRefAndPath(ctx, namespace, project, actionSegments[1:])
		if err != nil {
			return nil, err
		}
		isDefault, err := c.isDefaultBranch(ctx, namespace, project, ref)
		if err != nil {
			return nil, err
		}
		return TreeLocator{Domain: c.domain, Namespace: namespace, Project: project, Ref: ref, IsDefaultBranch: isDefault, Path: path}, nil

	case "commit":
		return CommitLocator{Domain: c.domain, Namespace: namespace, Project: project, SHA: actionSegments[1]}, nil

	case "compare":
		base, head, ok := strings.Cut(actionSegments[1], "...")
		if !ok {
			return nil, fmt.Errorf("gitlab connector: compare URL %q missing \"...\"", w.String())
		}
		return CompareLocator{Domain: c.domain, Namespace: namespace, Project: project, Base: base, Head: head}, nil

	default:
		return nil, nil
	}
}

func (c *Connector) locatorFromResourceUri(res uri.ResourceUri) (locator.Locator, error) {
	segs := res.Path()
	parts := make([]string, 0, len(segs))
	for _, p := range segs {
		parts = append(parts, p.String())
	}
	if len(parts) < 2 {
		return nil, nil
	}
	namespace := unsanitizeNamespaceSegment(parts[0])
	project := parts[1]
	subrealm := res.Subrealm().String()

	switch subrealm {
	case "repo":
		return RepositoryLocator{Domain: c.domain, Namespace: namespace, Project: project}, nil
	case "commit":
		if len(parts) < 3 {
			return nil, nil
		}
		return CommitLocator{Domain: c.domain, Namespace: namespace, Project: project, SHA: parts[2]}, nil
	case "compare":
		if len(parts) < 3 {
			return nil, nil
		}
		base, head, ok := strings.Cut(parts[2], "_")
		if !ok {
			return nil, fmt.Errorf("gitlab connector: compare resource URI %q has malformed pair segment", res.String())
		}
		return CompareLocator{Domain: c.domain, Namespace: namespace, Project: project, Base: base, Head: head}, nil
	case "file":
		if len(parts) < 3 {
			return nil, nil
		}
		return FileLocator{Domain: c.domain, Namespace: namespace, Project: project, Path: parts[2:]}, nil
	case "tree":
		if len(parts) < 3 {
			return nil, nil
		}
		return TreeLocator{Domain: c.domain, Namespace: namespace, Project: project, Path: parts[2:]}, nil
	default:
		return nil, nil
	}
}

// splitRefAndPath mirrors github.Connector.splitRefAndPath: it probes
// increasingly long segment prefixes against the project's branches,
// since GitLab's own "{ref}/{path}" URL suffix is equally ambiguous for a
// ref containing '/'.
func (c *Connector) splitRefAndPath(ctx context.Context, namespace, project string, segments []string) (string, []string, error) {
	if len(segments) == 0 {
		return "", nil, fmt.Errorf("gitlab connector: blob URL for %s/%s has no ref/path", namespace, project)
	}
	for split := 1; split < len(segments); split++ {
		candidate := strings.Join(segments[:split], "/")
		branchPath := fmt.Sprintf("/projects/%s/repository/branches/%s", encodedProjectPath(namespace, project), url.PathEscape(candidate))
		if _, err := c.getJSON(ctx, branchPath); err == nil {
			return candidate, segments[split:], nil
		}
	}
	return segments[0], segments[1:], nil
}

func (c *Connector) isDefaultBranch(ctx context.Context, namespace, project, ref string) (bool, error) {
	def, err := c.defaultBranchName(ctx, namespace, project)
	if err != nil {
		return false, err
	}
	return def == ref, nil
}

func (c *Connector) defaultBranchName(ctx context.Context, namespace, project string) (string, error) {
	raw, err := c.getJSON(ctx, "/projects/"+encodedProjectPath(namespace, project))
	if err != nil {
		return "", fmt.Errorf("gitlab connector: get project %s/%s: %w", namespace, project, err)
	}
	m, err := asMap(raw)
	if err != nil {
		return "", err
	}
	return asString(m, "default_branch"), nil
}

// Resolve dispatches on the locator variant (spec §4.5's git-forge rows).
func (c *Connector) Resolve(ctx context.Context, loc locator.Locator, cached *connectors.ResolveResult) (connectors.ResolveResult, error) {
	switch l := loc.(type) {
	case FileLocator:
		return c.resolveFile(ctx, l)
	case RepositoryLocator:
		return c.resolveRepository(ctx, l)
	case TreeLocator:
		return c.resolveTree(ctx, l)
	case CommitLocator:
		return c.resolveSingleBody(l.Namespace, l.Project)
	case CompareLocator:
		return c.resolveSingleBody(l.Namespace, l.Project)
	default:
		return connectors.ResolveResult{}, fmt.Errorf("gitlab connector: unexpected locator kind %q", loc.Kind())
	}
}

func (c *Connector) resolveFile(ctx context.Context, fl FileLocator) (connectors.ResolveResult, error) {
	path := strings.Join(fl.Path, "/")
	raw, err := c.getJSON(ctx, fmt.Sprintf("/projects/%s/repository/files/%s?ref=%s", encodedProjectPath(fl.Namespace, fl.Project), url.PathEscape(path), url.QueryEscape(fl.Ref)))
	if err != nil {
		return connectors.ResolveResult{}, fmt.Errorf("gitlab connector: get file %s/%s@%s/%s: %w", fl.Namespace, fl.Project, fl.Ref, path, err)
	}
	m, err := asMap(raw)
	if err != nil {
		return connectors.ResolveResult{}, err
	}

	mt, _ := validated.GuessMimeFromFilename(path)
	affordances := []content.AffordanceInfo{{Suffix: uri.AffordanceBody, MimeType: &mt}}
	if mt.Mode() == validated.ModeMarkdown || mt.Mode() == validated.ModePlain {
		affordances = append(affordances, content.AffordanceInfo{Suffix: uri.AffordancePlain, MimeType: &mt})
	}

	meta := history.MetadataDelta{Name: history.Some(asString(m, "file_name")), MimeType: history.Some(mt.String())}
	meta.AffordanceInfos = history.Some(affordances)
	return connectors.ResolveResult{Metadata: meta, Cacheable: false}, nil
}

func (c *Connector) resolveRepository(ctx context.Context, rl RepositoryLocator) (connectors.ResolveResult, error) {
	raw, err := c.getJSON(ctx, "/projects/"+encodedProjectPath(rl.Namespace, rl.Project))
	if err != nil {
		return connectors.ResolveResult{}, fmt.Errorf("gitlab connector: get project %s/%s: %w", rl.Namespace, rl.Project, err)
	}
	m, err := asMap(raw)
	if err != nil {
		return connectors.ResolveResult{}, err
	}
	meta := history.MetadataDelta{Name: history.Some(asString(m, "path_with_namespace"))}
	meta.AffordanceInfos = history.Some([]content.AffordanceInfo{{Suffix: uri.AffordanceCollection}})
	return connectors.ResolveResult{Metadata: meta, Cacheable: false}, nil
}

func (c *Connector) resolveTree(ctx context.Context, tl TreeLocator) (connectors.ResolveResult, error) {
	meta := history.MetadataDelta{Name: history.Some(strings.Join(append([]string{tl.Namespace, tl.Project}, tl.Path...), "/"))}
	meta.AffordanceInfos = history.Some([]content.AffordanceInfo{{Suffix: uri.AffordanceCollection}})
	return connectors.ResolveResult{Metadata: meta, Cacheable: false}, nil
}

func (c *Connector) resolveSingleBody(namespace, project string) (connectors.ResolveResult, error) {
	meta := history.MetadataDelta{Name: history.Some(namespace + "/" + project)}
	meta.AffordanceInfos = history.Some([]content.AffordanceInfo{{Suffix: uri.AffordanceBody}})
	return connectors.ResolveResult{Metadata: meta, Cacheable: false}, nil
}

// Observe dispatches on the locator variant to perform the fetch.
func (c *Connector) Observe(ctx context.Context, loc locator.Locator, aff uri.Affordance, resolved connectors.ResolveResult) (connectors.ObserveResult, error) {
	switch l := loc.(type) {
	case FileLocator:
		return c.observeFile(ctx, l)
	case RepositoryLocator:
		return c.observeRepository(ctx, l)
	case TreeLocator:
		return c.observeTree(ctx, l)
	case CommitLocator:
		return c.observeCommit(ctx, l)
	case CompareLocator:
		return c.observeCompare(ctx, l)
	default:
		return connectors.ObserveResult{}, fmt.Errorf("gitlab connector: unexpected locator kind %q", loc.Kind())
	}
}

func (c *Connector) observeFile(ctx context.Context, fl FileLocator) (connectors.ObserveResult, error) {
	path := strings.Join(fl.Path, "/")
	raw, err := c.getJSON(ctx, fmt.Sprintf("/projects/%s/repository/files/%s?ref=%s", encodedProjectPath(fl.Namespace, fl.Project), url.PathEscape(path), url.QueryEscape(fl.Ref)))
	if err != nil {
		return connectors.ObserveResult{}, fmt.Errorf("gitlab connector: get file %s/%s@%s/%s: %w", fl.Namespace, fl.Project, fl.Ref, path, err)
	}
	m, err := asMap(raw)
	if err != nil {
		return connectors.ObserveResult{}, err
	}
	decoded, err := base64.StdEncoding.DecodeString(asString(m, "content"))
	if err != nil {
		return connectors.ObserveResult{}, fmt.Errorf("gitlab connector: decode content: %w", err)
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
			GenerateLinkRelations:   true,
		},
	}, nil
}

func (c *Connector) observeRepository(ctx context.Context, rl RepositoryLocator) (connectors.ObserveResult, error) {
	def, err := c.defaultBranchName(ctx, rl.Namespace, rl.Project)
	if err != nil {
		return connectors.ObserveResult{}, err
	}
	results, err := c.listTreeResources(ctx, rl.Namespace, rl.Project, def, nil)
	if err != nil {
		return connectors.ObserveResult{}, err
	}
	bundle := content.BundleCollection{Uri: rl.ResourceUri(), Results: results}
	return connectors.ObserveResult{Bundle: bundle, PostProcessing: connectors.PostProcessing{GenerateParentRelations: false}}, nil
}

func (c *Connector) observeTree(ctx context.Context, tl TreeLocator) (connectors.ObserveResult, error) {
	results, err := c.listTreeResources(ctx, tl.Namespace, tl.Project, tl.Ref, tl.Path)
	if err != nil {
		return connectors.ObserveResult{}, err
	}
	bundle := content.BundleCollection{Uri: tl.ResourceUri(), Results: results}
	return connectors.ObserveResult{Bundle: bundle, PostProcessing: connectors.PostProcessing{GenerateParentRelations: tl.IsDefaultBranch}}, nil
}

func (c *Connector) listTreeResources(ctx context.Context, namespace, project, ref string, basePath []string) ([]uri.ResourceUri, error) {
	path := strings.Join(basePath, "/")
	raw, err := c.getJSON(ctx, fmt.Sprintf("/projects/%s/repository/tree?ref=%s&path=%s", encodedProjectPath(namespace, project), url.QueryEscape(ref), url.QueryEscape(path)))
	if err != nil {
		return nil, fmt.Errorf("gitlab connector: list tree %s/%s@%s/%s: %w", namespace, project, ref, path, err)
	}
	entries, err := asSlice(raw)
	if err != nil {
		return nil, err
	}
	out := make([]uri.ResourceUri, 0, len(entries))
	for _, e := range entries {
		em, err := asMap(e)
		if err != nil {
			return nil, err
		}
		childPath := append(append([]string{}, basePath...), asString(em, "name"))
		if asString(em, "type") == "tree" {
			out = append(out, TreeLocator{Domain: c.domain, Namespace: namespace, Project: project, Ref: ref, Path: childPath}.ResourceUri())
		} else {
			out = append(out, FileLocator{Domain: c.domain, Namespace: namespace, Project: project, Ref: ref, Path: childPath}.ResourceUri())
		}
	}
	return out, nil
}

func (c *Connector) observeCommit(ctx context.Context, cl CommitLocator) (connectors.ObserveResult, error) {
	raw, err := c.getJSON(ctx, fmt.Sprintf("/projects/%s/repository/commits/%s", encodedProjectPath(cl.Namespace, cl.Project), cl.SHA))
	if err != nil {
		return connectors.ObserveResult{}, fmt.Errorf("gitlab connector: get commit %s/%s@%s: %w", cl.Namespace, cl.Project, cl.SHA, err)
	}
	m, err := asMap(raw)
	if err != nil {
		return connectors.ObserveResult{}, err
	}
	summary := gitforge.Commit{SHA: asString(m, "id"), Author: asString(m, "author_name"), Date: asString(m, "created_at"), Message: asString(m, "message")}

	diffRaw, err := c.getJSON(ctx, fmt.Sprintf("/projects/%s/repository/commits/%s/diff", encodedProjectPath(cl.Namespace, cl.Project), cl.SHA))
	if err != nil {
		return connectors.ObserveResult{}, fmt.Errorf("gitlab connector: get commit diff %s/%s@%s: %w", cl.Namespace, cl.Project, cl.SHA, err)
	}
	files, err := diffsToFileDiffs(diffRaw)
	if err != nil {
		return connectors.ObserveResult{}, err
	}

	text := gitforge.FormatCommit(summary, files)
	return connectors.ObserveResult{
		Bundle:         content.Fragment{Mode: content.FragmentModeMarkdown, Text: text},
		PostProcessing: connectors.PostProcessing{ExtractDescriptionLabel: true},
	}, nil
}

// observeCompare renders base...head as the <commits>/<diffs> sectioned
// Markdown spec §8 scenario 3 requires, sharing gitforge.FormatCompare
// with the github connector.
func (c *Connector) observeCompare(ctx context.Context, cl CompareLocator) (connectors.ObserveResult, error) {
	raw, err := c.getJSON(ctx, fmt.Sprintf("/projects/%s/repository/compare?from=%s&to=%s", encodedProjectPath(cl.Namespace, cl.Project), url.QueryEscape(cl.Base), url.QueryEscape(cl.Head)))
	if err != nil {
		return connectors.ObserveResult{}, fmt.Errorf("gitlab connector: compare %s/%s %s...%s: %w", cl.Namespace, cl.Project, cl.Base, cl.Head, err)
	}
	m, err := asMap(raw)
	if err != nil {
		return connectors.ObserveResult{}, err
	}

	commitsRaw, _ := asSlice(m["commits"])
	commits := make([]gitforge.Commit, 0, len(commitsRaw))
	for _, cr := range commitsRaw {
		crm, err := asMap(cr)
		if err != nil {
			return connectors.ObserveResult{}, err
		}
		commits = append(commits, gitforge.Commit{
			SHA: asString(crm, "id"), Author: asString(crm, "author_name"),
			Date: asString(crm, "created_at"), Message: asString(crm, "message"),
		})
	}

	files, err := diffsToFileDiffs(m["diffs"])
	if err != nil {
		return connectors.ObserveResult{}, err
	}

	text := gitforge.FormatCompare(cl.Base, cl.Head, commits, files)
	return connectors.ObserveResult{
		Bundle:         content.Fragment{Mode: content.FragmentModeMarkdown, Text: text},
		PostProcessing: connectors.PostProcessing{ExtractDescriptionLabel: true},
	}, nil
}

// diffsToFileDiffs converts a GitLab "diffs" JSON array into
// gitforge.FileDiff values. GitLab diffs carry new_file/deleted_file/
// renamed_file booleans rather than github's single "status" string.
func diffsToFileDiffs(raw any) ([]gitforge.FileDiff, error) {
	entries, err := asSlice(raw)
	if err != nil {
		return nil, err
	}
	out := make([]gitforge.FileDiff, 0, len(entries))
	for _, e := range entries {
		em, err := asMap(e)
		if err != nil {
			return nil, err
		}
		status := "modified"
		switch {
		case asBool(em, "new_file"):
			status = "added"
		case asBool(em, "deleted_file"):
			status = "deleted"
		case asBool(em, "renamed_file"):
			status = "renamed"
		}
		path := asString(em, "new_path")
		if path == "" {
			path = asString(em, "old_path")
		}
		out = append(out, gitforge.FileDiff{Path: path, Status: status, Patch: asString(em, "diff")})
	}
	return out, nil
}

var _ connectors.Connector = (*Connector)(nil)
