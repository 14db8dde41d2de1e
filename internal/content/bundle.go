// Package content implements the uniform bundle variants and observation
// metadata the gateway normalizes every backend's content into (spec §3.4,
// §4.2).
package content

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

// FragmentMode is the shape of a Fragment's text.
type FragmentMode string

const (
	FragmentModeData     FragmentMode = "data"
	FragmentModeMarkdown FragmentMode = "markdown"
	FragmentModePlain    FragmentMode = "plain"
)

// FragmentUri is a "self://{path|~}" blob key inside a Fragment.
type FragmentUri struct {
	path string // "" means "~" (the resource itself)
}

// SelfResource is the "self://~" sentinel blob key.
var SelfResource = FragmentUri{path: ""}

// NewFragmentPath builds a "self://{path}" blob key.
func NewFragmentPath(path validated.FilePath) FragmentUri {
	return FragmentUri{path: path.String()}
}

// DecodeFragmentUri parses "self://~" or "self://{FilePath}".
func DecodeFragmentUri(str string) (FragmentUri, error) {
	const prefix = "self://"
	if !strings.HasPrefix(str, prefix) {
		return FragmentUri{}, fmt.Errorf("content: FragmentUri %q missing %q prefix", str, prefix)
	}
	rest := strings.TrimPrefix(str, prefix)
	if rest == "~" || rest == "" {
		return SelfResource, nil
	}
	if _, err := validated.DecodeFilePath(rest); err != nil {
		return FragmentUri{}, fmt.Errorf("content: FragmentUri %q: %w", str, err)
	}
	return FragmentUri{path: rest}, nil
}

// String returns the canonical "self://~" or "self://{path}" form.
func (f FragmentUri) String() string {
	if f.path == "" {
		return "self://~"
	}
	return "self://" + f.path
}

// embedRe matches a Markdown image embed referencing a self:// blob.
var embedRe = regexp.MustCompile(`!\[[^\]]*\]\((self://[^)\s]+)\)`)

// Fragment is inline text content plus any embedded blobs it references.
type Fragment struct {
	Mode  FragmentMode
	Text  string
	Blobs map[FragmentUri]validated.DataUri
}

func (Fragment) isBundle() {}

// Kind returns the bundle discriminator.
func (Fragment) Kind() string { return "fragment" }

// EmbeddedReferences returns every "self://..." reference found inside
// Text as a Markdown image embed.
func (f Fragment) EmbeddedReferences() ([]FragmentUri, error) {
	matches := embedRe.FindAllStringSubmatch(f.Text, -1)
	out := make([]FragmentUri, 0, len(matches))
	for _, m := range matches {
		fu, err := DecodeFragmentUri(m[1])
		if err != nil {
			return nil, fmt.Errorf("content: Fragment embed reference: %w", err)
		}
		out = append(out, fu)
	}
	return out, nil
}

// ValidateEmbeds enforces the fragment embed invariant (spec §4.2, §6.2,
// §8): every key in Blobs appears exactly once in Text as a Markdown image
// embed, and every embed reference has a corresponding Blobs key.
func (f Fragment) ValidateEmbeds() error {
	refs, err := f.EmbeddedReferences()
	if err != nil {
		return err
	}
	seen := make(map[FragmentUri]int, len(refs))
	for _, r := range refs {
		seen[r]++
	}
	for key, count := range seen {
		if count != 1 {
			return fmt.Errorf("content: Fragment embed %q referenced %d times, want exactly 1", key.String(), count)
		}
		if _, ok := f.Blobs[key]; !ok {
			return fmt.Errorf("content: Fragment embed %q has no matching blobs entry", key.String())
		}
	}
	for key := range f.Blobs {
		if seen[key] == 0 {
			return fmt.Errorf("content: Fragment blobs key %q is never referenced in text", key.String())
		}
	}
	return nil
}

// BundleCollection is a listing of child resources.
type BundleCollection struct {
	Uri     uri.ResourceUri
	Results []uri.ResourceUri
}

func (BundleCollection) isBundle()      {}
func (BundleCollection) Kind() string   { return "collection" }

// BundleFile is a raw downloadable file stub.
type BundleFile struct {
	Uri         uri.ResourceUri
	MimeType    validated.MimeType
	DownloadUrl DownloadRef
	Expiry      *time.Time
	Description string
}

func (BundleFile) isBundle()    {}
func (BundleFile) Kind() string { return "file" }

// DownloadRef is either a WebUrl or a DataUri — the two forms BundleFile's
// download_url may take (spec §3.4).
type DownloadRef struct {
	webUrl  *uri.WebUrl
	dataUri *validated.DataUri
}

// NewWebDownloadRef wraps a WebUrl as a DownloadRef.
func NewWebDownloadRef(w uri.WebUrl) DownloadRef { return DownloadRef{webUrl: &w} }

// NewDataDownloadRef wraps a DataUri as a DownloadRef.
func NewDataDownloadRef(d validated.DataUri) DownloadRef { return DownloadRef{dataUri: &d} }

// WebUrl returns the wrapped WebUrl and true, if this ref is a WebUrl.
func (d DownloadRef) WebUrl() (uri.WebUrl, bool) {
	if d.webUrl == nil {
		return uri.WebUrl{}, false
	}
	return *d.webUrl, true
}

// DataUri returns the wrapped DataUri and true, if this ref is a DataUri.
func (d DownloadRef) DataUri() (validated.DataUri, bool) {
	if d.dataUri == nil {
		return validated.DataUri{}, false
	}
	return *d.dataUri, true
}

// String renders whichever form is set.
func (d DownloadRef) String() string {
	if d.webUrl != nil {
		return d.webUrl.String()
	}
	if d.dataUri != nil {
		return d.dataUri.String()
	}
	return ""
}

// BundlePlain is unparsed text content.
type BundlePlain struct {
	Uri      uri.ResourceUri
	MimeType validated.MimeType
	Text     string
}

func (BundlePlain) isBundle()    {}
func (BundlePlain) Kind() string { return "plain" }

// Bundle is the closed sum type of content payloads a connector's observe
// may return (spec §3.4).
type Bundle interface {
	isBundle()
	Kind() string
}

var (
	_ Bundle = Fragment{}
	_ Bundle = BundleCollection{}
	_ Bundle = BundleFile{}
	_ Bundle = BundlePlain{}
)
