package github

import (
	"fmt"

	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/storage"
)

// RepositoryLocatorCodec implements storage.LocatorCodec for RepositoryLocator.
type RepositoryLocatorCodec struct{}

func (RepositoryLocatorCodec) Kind() string { return "github_repository" }

func (RepositoryLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	rl, ok := loc.(RepositoryLocator)
	if !ok {
		return nil, fmt.Errorf("github: RepositoryLocatorCodec.Encode: unexpected locator type %T", loc)
	}
	return map[string]any{"owner": rl.Owner, "repo": rl.Repo}, nil
}

func (RepositoryLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	owner, _ := fields["owner"].(string)
	repo, _ := fields["repo"].(string)
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("github: RepositoryLocatorCodec.Decode: missing owner/repo")
	}
	return RepositoryLocator{Owner: owner, Repo: repo}, nil
}

// TreeLocatorCodec implements storage.LocatorCodec for TreeLocator.
type TreeLocatorCodec struct{}

func (TreeLocatorCodec) Kind() string { return "github_tree" }

func (TreeLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	tl, ok := loc.(TreeLocator)
	if !ok {
		return nil, fmt.Errorf("github: TreeLocatorCodec.Encode: unexpected locator type %T", loc)
	}
	return map[string]any{
		"owner": tl.Owner, "repo": tl.Repo, "ref": tl.Ref,
		"is_default_branch": tl.IsDefaultBranch, "path": tl.Path,
	}, nil
}

func (TreeLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	owner, _ := fields["owner"].(string)
	repo, _ := fields["repo"].(string)
	ref, _ := fields["ref"].(string)
	isDefault, _ := fields["is_default_branch"].(bool)
	path, err := decodeStringSlice(fields["path"])
	if err != nil {
		return nil, fmt.Errorf("github: TreeLocatorCodec.Decode: %w", err)
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("github: TreeLocatorCodec.Decode: missing owner/repo")
	}
	return TreeLocator{Owner: owner, Repo: repo, Ref: ref, IsDefaultBranch: isDefault, Path: path}, nil
}

// CommitLocatorCodec implements storage.LocatorCodec for CommitLocator.
type CommitLocatorCodec struct{}

func (CommitLocatorCodec) Kind() string { return "github_commit" }

func (CommitLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	cl, ok := loc.(CommitLocator)
	if !ok {
		return nil, fmt.Errorf("github: CommitLocatorCodec.Encode: unexpected locator type %T", loc)
	}
	return map[string]any{"owner": cl.Owner, "repo": cl.Repo, "sha": cl.SHA}, nil
}

func (CommitLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	owner, _ := fields["owner"].(string)
	repo, _ := fields["repo"].(string)
	sha, _ := fields["sha"].(string)
	if owner == "" || repo == "" || sha == "" {
		return nil, fmt.Errorf("github: CommitLocatorCodec.Decode: missing owner/repo/sha")
	}
	return CommitLocator{Owner: owner, Repo: repo, SHA: sha}, nil
}

// CompareLocatorCodec implements storage.LocatorCodec for CompareLocator.
type CompareLocatorCodec struct{}

func (CompareLocatorCodec) Kind() string { return "github_compare" }

func (CompareLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	cl, ok := loc.(CompareLocator)
	if !ok {
		return nil, fmt.Errorf("github: CompareLocatorCodec.Encode: unexpected locator type %T", loc)
	}
	return map[string]any{"owner": cl.Owner, "repo": cl.Repo, "base": cl.Base, "head": cl.Head}, nil
}

func (CompareLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	owner, _ := fields["owner"].(string)
	repo, _ := fields["repo"].(string)
	base, _ := fields["base"].(string)
	head, _ := fields["head"].(string)
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("github: CompareLocatorCodec.Decode: missing owner/repo")
	}
	return CompareLocator{Owner: owner, Repo: repo, Base: base, Head: head}, nil
}

// decodeStringSlice handles the two shapes a []string field may arrive in
// after a YAML/map round trip: []string directly, or []any of strings.
func decodeStringSlice(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("element %v is not a string", e)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected type %T", raw)
	}
}

var (
	_ storage.LocatorCodec = RepositoryLocatorCodec{}
	_ storage.LocatorCodec = TreeLocatorCodec{}
	_ storage.LocatorCodec = CommitLocatorCodec{}
	_ storage.LocatorCodec = CompareLocatorCodec{}
)
