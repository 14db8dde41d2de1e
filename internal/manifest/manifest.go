// Package manifest parses connectors.yml (spec §6.6): a YAML list of
// tagged connector records, one per realm, each validated against its
// variant's required fields before buildRegistry constructs the
// connector it describes.
package manifest

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Kind discriminates the recognised manifest record variants (spec §6.6,
// ENUMERATED).
type Kind string

const (
	KindConfluence   Kind = "confluence"
	KindGitHub       Kind = "github"
	KindGitLab       Kind = "gitlab"
	KindJira         Kind = "jira"
	KindMicrosoftMy  Kind = "microsoft-my"
	KindMicrosoftOrg Kind = "microsoft-org"
	KindGeorges      Kind = "georges"
	KindTestRail     Kind = "testrail"
)

type ConfluenceEntry struct {
	Realm       string `yaml:"realm" validate:"required"`
	Domain      string `yaml:"domain" validate:"required"`
	PublicToken string `yaml:"public_token"`
}

type GitHubEntry struct {
	Realm       string `yaml:"realm" validate:"required"`
	PublicToken string `yaml:"public_token"`
}

type GitLabEntry struct {
	Realm       string `yaml:"realm" validate:"required"`
	Domain      string `yaml:"domain" validate:"required"`
	PublicToken string `yaml:"public_token" validate:"required"`
}

type JiraEntry struct {
	Realm          string `yaml:"realm" validate:"required"`
	Domain         string `yaml:"domain" validate:"required"`
	PublicUsername string `yaml:"public_username"`
	PublicToken    string `yaml:"public_token"`
}

type MicrosoftMyEntry struct {
	Realm    string `yaml:"realm" validate:"required"`
	Domain   string `yaml:"domain" validate:"required"`
	TenantID string `yaml:"tenant_id" validate:"required"`
}

type MicrosoftOrgEntry struct {
	Realm               string   `yaml:"realm" validate:"required"`
	Domain              string   `yaml:"domain" validate:"required"`
	TenantID            string   `yaml:"tenant_id" validate:"required"`
	PublicClientID      string   `yaml:"public_client_id"`
	PublicClientSecret  string   `yaml:"public_client_secret"`
	InternalSiteIDs     []string `yaml:"internal_site_ids"`
	RefreshSiteIDs      []string `yaml:"refresh_site_ids"`
}

type GeorgesEntry struct {
	Realm  string `yaml:"realm" validate:"required"`
	Domain string `yaml:"domain" validate:"required"`
}

type TestRailEntry struct {
	Realm          string `yaml:"realm" validate:"required"`
	Domain         string `yaml:"domain" validate:"required"`
	PublicUsername string `yaml:"public_username"`
	PublicPassword string `yaml:"public_password"`
}

// Entry is one tagged manifest record; exactly one of the variant
// pointers is non-nil, selected by Kind.
type Entry struct {
	Kind Kind

	Confluence   *ConfluenceEntry
	GitHub       *GitHubEntry
	GitLab       *GitLabEntry
	Jira         *JiraEntry
	MicrosoftMy  *MicrosoftMyEntry
	MicrosoftOrg *MicrosoftOrgEntry
	Georges      *GeorgesEntry
	TestRail     *TestRailEntry
}

type document struct {
	Connectors []map[string]any `yaml:"connectors"`
}

var validate = validator.New()

// Load parses and validates path's connectors.yml. A missing file is not
// an error: it yields an empty manifest (spec §6.6 manifests are
// optional; an all-env-var deployment is valid).
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", path, err)
	}

	entries := make([]Entry, 0, len(doc.Connectors))
	for i, raw := range doc.Connectors {
		entry, err := decodeEntry(raw)
		if err != nil {
			return nil, fmt.Errorf("manifest: %s entry %d: %w", path, i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func decodeEntry(raw map[string]any) (Entry, error) {
	kindStr, _ := raw["kind"].(string)
	kind := Kind(kindStr)

	reencoded, err := yaml.Marshal(raw)
	if err != nil {
		return Entry{}, fmt.Errorf("re-encode record: %w", err)
	}

	switch kind {
	case KindConfluence:
		var v ConfluenceEntry
		if err := decodeAndValidate(reencoded, &v); err != nil {
			return Entry{}, err
		}
		return Entry{Kind: kind, Confluence: &v}, nil
	case KindGitHub:
		var v GitHubEntry
		if err := decodeAndValidate(reencoded, &v); err != nil {
			return Entry{}, err
		}
		return Entry{Kind: kind, GitHub: &v}, nil
	case KindGitLab:
		var v GitLabEntry
		if err := decodeAndValidate(reencoded, &v); err != nil {
			return Entry{}, err
		}
		return Entry{Kind: kind, GitLab: &v}, nil
	case KindJira:
		var v JiraEntry
		if err := decodeAndValidate(reencoded, &v); err != nil {
			return Entry{}, err
		}
		return Entry{Kind: kind, Jira: &v}, nil
	case KindMicrosoftMy:
		var v MicrosoftMyEntry
		if err := decodeAndValidate(reencoded, &v); err != nil {
			return Entry{}, err
		}
		return Entry{Kind: kind, MicrosoftMy: &v}, nil
	case KindMicrosoftOrg:
		var v MicrosoftOrgEntry
		if err := decodeAndValidate(reencoded, &v); err != nil {
			return Entry{}, err
		}
		return Entry{Kind: kind, MicrosoftOrg: &v}, nil
	case KindGeorges:
		var v GeorgesEntry
		if err := decodeAndValidate(reencoded, &v); err != nil {
			return Entry{}, err
		}
		return Entry{Kind: kind, Georges: &v}, nil
	case KindTestRail:
		var v TestRailEntry
		if err := decodeAndValidate(reencoded, &v); err != nil {
			return Entry{}, err
		}
		return Entry{Kind: kind, TestRail: &v}, nil
	default:
		return Entry{}, fmt.Errorf("unrecognised connector kind %q", kindStr)
	}
}

func decodeAndValidate(data []byte, v any) error {
	if err := yaml.Unmarshal(data, v); err != nil {
		return err
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation: %w", err)
	}
	return nil
}
