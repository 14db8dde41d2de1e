package gitlab

import (
	"fmt"

	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/storage"
)

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

// RepositoryLocatorCodec implements storage.LocatorCodec for RepositoryLocator.
type RepositoryLocatorCodec struct{}

func (RepositoryLocatorCodec) Kind() string { return "gitlab_repository" }
func (RepositoryLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	l, ok := loc.(RepositoryLocator)
	if !ok {
		return nil, fmt.Errorf("gitlab: RepositoryLocatorCodec.Encode: unexpected type %T", loc)
	}
	return map[string]any{"domain": l.Domain, "namespace": l.Namespace, "project": l.Project}, nil
}
func (RepositoryLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	domain, _ := fields["domain"].(string)
	ns, _ := fields["namespace"].(string)
	proj, _ := fields["project"].(string)
	if ns == "" || proj == "" {
		return nil, fmt.Errorf("gitlab: RepositoryLocatorCodec.Decode: missing namespace/project")
	}
	return RepositoryLocator{Domain: domain, Namespace: ns, Project: proj}, nil
}

// FileLocatorCodec implements storage.LocatorCodec for FileLocator.
type FileLocatorCodec struct{}

func (FileLocatorCodec) Kind() string { return "gitlab_file" }
func (FileLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	l, ok := loc.(FileLocator)
	if !ok {
		return nil, fmt.Errorf("gitlab: FileLocatorCodec.Encode: unexpected type %T", loc)
	}
	return map[string]any{
		"domain": l.Domain, "namespace": l.Namespace, "project": l.Project, "ref": l.Ref,
		"is_default_branch": l.IsDefaultBranch, "path": l.Path,
	}, nil
}
func (FileLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	domain, _ := fields["domain"].(string)
	ns, _ := fields["namespace"].(string)
	proj, _ := fields["project"].(string)
	ref, _ := fields["ref"].(string)
	isDefault, _ := fields["is_default_branch"].(bool)
	path, err := decodeStringSlice(fields["path"])
	if err != nil {
		return nil, fmt.Errorf("gitlab: FileLocatorCodec.Decode: %w", err)
	}
	if ns == "" || proj == "" {
		return nil, fmt.Errorf("gitlab: FileLocatorCodec.Decode: missing namespace/project")
	}
	return FileLocator{Domain: domain, Namespace: ns, Project: proj, Ref: ref, IsDefaultBranch: isDefault, Path: path}, nil
}

// TreeLocatorCodec implements storage.LocatorCodec for TreeLocator.
type TreeLocatorCodec struct{}

func (TreeLocatorCodec) Kind() string { return "gitlab_tree" }
func (TreeLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	l, ok := loc.(TreeLocator)
	if !ok {
		return nil, fmt.Errorf("gitlab: TreeLocatorCodec.Encode: unexpected type %T", loc)
	}
	return map[string]any{
		"domain": l.Domain, "namespace": l.Namespace, "project": l.Project, "ref": l.Ref,
		"is_default_branch": l.IsDefaultBranch, "path": l.Path,
	}, nil
}
func (TreeLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	domain, _ := fields["domain"].(string)
	ns, _ := fields["namespace"].(string)
	proj, _ := fields["project"].(string)
	ref, _ := fields["ref"].(string)
	isDefault, _ := fields["is_default_branch"].(bool)
	path, err := decodeStringSlice(fields["path"])
	if err != nil {
		return nil, fmt.Errorf("gitlab: TreeLocatorCodec.Decode: %w", err)
	}
	if ns == "" || proj == "" {
		return nil, fmt.Errorf("gitlab: TreeLocatorCodec.Decode: missing namespace/project")
	}
	return TreeLocator{Domain: domain, Namespace: ns, Project: proj, Ref: ref, IsDefaultBranch: isDefault, Path: path}, nil
}

// CommitLocatorCodec implements storage.LocatorCodec for CommitLocator.
type CommitLocatorCodec struct{}

func (CommitLocatorCodec) Kind() string { return "gitlab_commit" }
func (CommitLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	l, ok := loc.(CommitLocator)
	if !ok {
		return nil, fmt.Errorf("gitlab: CommitLocatorCodec.Encode: unexpected type %T", loc)
	}
	return map[string]any{"domain": l.Domain, "namespace": l.Namespace, "project": l.Project, "sha": l.SHA}, nil
}
func (CommitLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	domain, _ := fields["domain"].(string)
	ns, _ := fields["namespace"].(string)
	proj, _ := fields["project"].(string)
	sha, _ := fields["sha"].(string)
	if ns == "" || proj == "" || sha == "" {
		return nil, fmt.Errorf("gitlab: CommitLocatorCodec.Decode: missing namespace/project/sha")
	}
	return CommitLocator{Domain: domain, Namespace: ns, Project: proj, SHA: sha}, nil
}

// CompareLocatorCodec implements storage.LocatorCodec for CompareLocator.
type CompareLocatorCodec struct{}

func (CompareLocatorCodec) Kind() string { return "gitlab_compare" }
func (CompareLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	l, ok := loc.(CompareLocator)
	if !ok {
		return nil, fmt.Errorf("gitlab: CompareLocatorCodec.Encode: unexpected type %T", loc)
	}
	return map[string]any{"domain": l.Domain, "namespace": l.Namespace, "project": l.Project, "base": l.Base, "head": l.Head}, nil
}
func (CompareLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	domain, _ := fields["domain"].(string)
	ns, _ := fields["namespace"].(string)
	proj, _ := fields["project"].(string)
	base, _ := fields["base"].(string)
	head, _ := fields["head"].(string)
	if ns == "" || proj == "" {
		return nil, fmt.Errorf("gitlab: CompareLocatorCodec.Decode: missing namespace/project")
	}
	return CompareLocator{Domain: domain, Namespace: ns, Project: proj, Base: base, Head: head}, nil
}

var (
	_ storage.LocatorCodec = RepositoryLocatorCodec{}
	_ storage.LocatorCodec = FileLocatorCodec{}
	_ storage.LocatorCodec = TreeLocatorCodec{}
	_ storage.LocatorCodec = CommitLocatorCodec{}
	_ storage.LocatorCodec = CompareLocatorCodec{}
)
