package github

import (
	"fmt"

	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/storage"
)

// FileLocatorCodec implements storage.LocatorCodec for FileLocator, so the
// coordinator's AliasStore/ResourceHistoryStore can persist and reload a
// github_file locator (spec §4.7's locator-wire layer).
type FileLocatorCodec struct{}

func (FileLocatorCodec) Kind() string { return "github_file" }

func (FileLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	fl, ok := loc.(FileLocator)
	if !ok {
		return nil, fmt.Errorf("github: FileLocatorCodec.Encode: unexpected locator type %T", loc)
	}
	return map[string]any{
		"owner":             fl.Owner,
		"repo":              fl.Repo,
		"ref":               fl.Ref,
		"is_default_branch": fl.IsDefaultBranch,
		"path":              fl.Path,
	}, nil
}

func (FileLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	owner, _ := fields["owner"].(string)
	repo, _ := fields["repo"].(string)
	ref, _ := fields["ref"].(string)
	isDefault, _ := fields["is_default_branch"].(bool)

	var path []string
	switch raw := fields["path"].(type) {
	case []string:
		path = raw
	case []any:
		for _, p := range raw {
			s, ok := p.(string)
			if !ok {
				return nil, fmt.Errorf("github: FileLocatorCodec.Decode: path element %v is not a string", p)
			}
			path = append(path, s)
		}
	default:
		return nil, fmt.Errorf("github: FileLocatorCodec.Decode: unexpected path field type %T", fields["path"])
	}

	if owner == "" || repo == "" {
		return nil, fmt.Errorf("github: FileLocatorCodec.Decode: missing owner/repo")
	}
	return FileLocator{Owner: owner, Repo: repo, Ref: ref, IsDefaultBranch: isDefault, Path: path}, nil
}

var _ storage.LocatorCodec = FileLocatorCodec{}
