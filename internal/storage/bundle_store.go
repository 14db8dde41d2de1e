package storage

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ternarybob/ndkgw/internal/content"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

type dataUriWire struct {
	MimeType string `yaml:"mime_type"`
	Payload  string `yaml:"payload"` // base64-std
}

type bundleWire struct {
	Kind string `yaml:"kind"`

	// Fragment
	Mode  string                 `yaml:"mode,omitempty"`
	Text  string                 `yaml:"text,omitempty"`
	Blobs map[string]dataUriWire `yaml:"blobs,omitempty"`

	// BundleCollection
	Uri     string   `yaml:"uri,omitempty"`
	Results []string `yaml:"results,omitempty"`

	// BundleFile
	MimeType    string     `yaml:"mime_type,omitempty"`
	DownloadUrl string     `yaml:"download_url,omitempty"`
	DownloadIsData bool    `yaml:"download_is_data,omitempty"`
	Expiry      *time.Time `yaml:"expiry,omitempty"`
	Description string     `yaml:"description,omitempty"`

	// BundlePlain reuses Uri/MimeType/Text above.
}

func dataUriToWire(d validated.DataUri) dataUriWire {
	return dataUriWire{MimeType: d.MimeType().String(), Payload: d.String()}
}

func dataUriFromWire(w dataUriWire) (validated.DataUri, error) {
	return validated.DecodeDataUri(w.Payload)
}

// bundleToWire converts a content.Bundle into its persisted YAML shape.
func bundleToWire(b content.Bundle) (bundleWire, error) {
	switch v := b.(type) {
	case content.Fragment:
		w := bundleWire{Kind: "fragment", Mode: string(v.Mode), Text: v.Text}
		if len(v.Blobs) > 0 {
			w.Blobs = make(map[string]dataUriWire, len(v.Blobs))
			for key, blob := range v.Blobs {
				w.Blobs[key.String()] = dataUriToWire(blob)
			}
		}
		return w, nil
	case content.BundleCollection:
		w := bundleWire{Kind: "collection", Uri: v.Uri.String()}
		for _, r := range v.Results {
			w.Results = append(w.Results, r.String())
		}
		return w, nil
	case content.BundleFile:
		w := bundleWire{
			Kind:        "file",
			Uri:         v.Uri.String(),
			MimeType:    v.MimeType.String(),
			Expiry:      v.Expiry,
			Description: v.Description,
		}
		if webURL, ok := v.DownloadUrl.WebUrl(); ok {
			w.DownloadUrl = webURL.String()
		} else if dataURI, ok := v.DownloadUrl.DataUri(); ok {
			w.DownloadUrl = dataURI.String()
			w.DownloadIsData = true
		}
		return w, nil
	case content.BundlePlain:
		return bundleWire{Kind: "plain", Uri: v.Uri.String(), MimeType: v.MimeType.String(), Text: v.Text}, nil
	default:
		return bundleWire{}, fmt.Errorf("storage: unknown bundle kind %T", b)
	}
}

func bundleFromWire(w bundleWire) (content.Bundle, error) {
	switch w.Kind {
	case "fragment":
		blobs := make(map[content.FragmentUri]validated.DataUri, len(w.Blobs))
		for keyStr, blobWire := range w.Blobs {
			key, err := content.DecodeFragmentUri(keyStr)
			if err != nil {
				return nil, err
			}
			blob, err := dataUriFromWire(blobWire)
			if err != nil {
				return nil, err
			}
			blobs[key] = blob
		}
		return content.Fragment{Mode: content.FragmentMode(w.Mode), Text: w.Text, Blobs: blobs}, nil
	case "collection":
		res, err := uri.Decode(w.Uri)
		if err != nil {
			return nil, err
		}
		results := make([]uri.ResourceUri, 0, len(w.Results))
		for _, r := range w.Results {
			ru, err := uri.Decode(r)
			if err != nil {
				return nil, err
			}
			results = append(results, ru)
		}
		return content.BundleCollection{Uri: res, Results: results}, nil
	case "file":
		res, err := uri.Decode(w.Uri)
		if err != nil {
			return nil, err
		}
		mt, err := validated.DecodeMimeType(w.MimeType)
		if err != nil {
			return nil, err
		}
		var ref content.DownloadRef
		if w.DownloadIsData {
			d, err := validated.DecodeDataUri(w.DownloadUrl)
			if err != nil {
				return nil, err
			}
			ref = content.NewDataDownloadRef(d)
		} else if w.DownloadUrl != "" {
			webURL, err := uri.DecodeWebUrl(w.DownloadUrl)
			if err != nil {
				return nil, err
			}
			ref = content.NewWebDownloadRef(webURL)
		}
		return content.BundleFile{Uri: res, MimeType: mt, DownloadUrl: ref, Expiry: w.Expiry, Description: w.Description}, nil
	case "plain":
		res, err := uri.Decode(w.Uri)
		if err != nil {
			return nil, err
		}
		mt, err := validated.DecodeMimeType(w.MimeType)
		if err != nil {
			return nil, err
		}
		return content.BundlePlain{Uri: res, MimeType: mt, Text: w.Text}, nil
	default:
		return nil, fmt.Errorf("storage: unknown persisted bundle kind %q", w.Kind)
	}
}

// BundleStore persists observed Bundles as the observation cache (spec
// §4.7, "v1/observed/..."). Only affordances whose cache hint permits it
// (spec §4.5) should ever be written here; that policy lives in the
// observation pipeline, not this store.
type BundleStore struct {
	objects ObjectStore
}

// NewBundleStore wraps an ObjectStore with the Bundle wire format.
func NewBundleStore(objects ObjectStore) *BundleStore {
	return &BundleStore{objects: objects}
}

// Save caches bundle for res at affordance aff.
func (s *BundleStore) Save(ctx context.Context, res uri.ResourceUri, aff uri.Affordance, bundle content.Bundle) error {
	w, err := bundleToWire(bundle)
	if err != nil {
		return err
	}
	raw, err := yaml.Marshal(w)
	if err != nil {
		return fmt.Errorf("storage: marshal bundle for %s$%s: %w", res.String(), aff.String(), err)
	}
	return s.objects.Set(ctx, ObservedKey(res, aff), raw)
}

// Load returns the cached bundle for res at affordance aff, if present.
func (s *BundleStore) Load(ctx context.Context, res uri.ResourceUri, aff uri.Affordance) (content.Bundle, bool, error) {
	raw, err := s.objects.Get(ctx, ObservedKey(res, aff))
	if err == ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var w bundleWire
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return nil, false, fmt.Errorf("storage: unmarshal bundle for %s$%s: %w", res.String(), aff.String(), err)
	}
	b, err := bundleFromWire(w)
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Invalidate removes a cached bundle, e.g. when an affordance is marked
// expired.
func (s *BundleStore) Invalidate(ctx context.Context, res uri.ResourceUri, aff uri.Affordance) error {
	return s.objects.Delete(ctx, ObservedKey(res, aff))
}
