package uri

import (
	"fmt"
	"net/url"
	"strings"
)

// QueryPair is a single ordered query-string key/value pair.
type QueryPair struct {
	Name  string
	Value string
}

// WebUrl is a parsed HTTP(S) URL with host, port, path, ordered query
// pairs and fragment (spec §3.1).
type WebUrl struct {
	scheme   string
	host     string
	port     string
	path     string
	query    []QueryPair
	rawQuery string
	fragment string
}

// DecodeWebUrl parses str as an http(s) URL.
func DecodeWebUrl(str string) (WebUrl, error) {
	u, err := url.Parse(str)
	if err != nil {
		return WebUrl{}, fmt.Errorf("uri: WebUrl %q: %w", str, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return WebUrl{}, fmt.Errorf("uri: WebUrl %q must be http or https, got %q", str, u.Scheme)
	}
	if u.Host == "" {
		return WebUrl{}, fmt.Errorf("uri: WebUrl %q has no host", str)
	}

	var pairs []QueryPair
	// Preserve the original ordering (url.Values loses it) by walking the
	// raw query string ourselves.
	for _, kv := range strings.Split(u.RawQuery, "&") {
		if kv == "" {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		name, _ := url.QueryUnescape(parts[0])
		value := ""
		if len(parts) == 2 {
			value, _ = url.QueryUnescape(parts[1])
		}
		pairs = append(pairs, QueryPair{Name: name, Value: value})
	}

	return WebUrl{
		scheme:   u.Scheme,
		host:     u.Hostname(),
		port:     u.Port(),
		path:     u.Path,
		query:    pairs,
		rawQuery: u.RawQuery,
		fragment: u.Fragment,
	}, nil
}

// TryDecodeWebUrl is the non-throwing counterpart to DecodeWebUrl.
func TryDecodeWebUrl(str string) (WebUrl, bool) {
	v, err := DecodeWebUrl(str)
	return v, err == nil
}

func (w WebUrl) Scheme() string { return w.scheme }
func (w WebUrl) Host() string   { return w.host }
func (w WebUrl) Port() string   { return w.port }
func (w WebUrl) Path() string   { return w.path }
func (w WebUrl) Fragment() string { return w.fragment }
func (w WebUrl) Query() []QueryPair {
	out := make([]QueryPair, len(w.query))
	copy(out, w.query)
	return out
}

// GetQuery returns the first query value for name, or ("", false).
func (w WebUrl) GetQuery(name string) (string, bool) {
	for _, p := range w.query {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// String reconstructs the canonical URL string, writing the query string
// exactly as it was decoded.
func (w WebUrl) String() string {
	var b strings.Builder
	b.WriteString(w.scheme)
	b.WriteString("://")
	b.WriteString(w.host)
	if w.port != "" {
		b.WriteByte(':')
		b.WriteString(w.port)
	}
	b.WriteString(w.path)
	if w.rawQuery != "" {
		b.WriteByte('?')
		b.WriteString(w.rawQuery)
	}
	if w.fragment != "" {
		b.WriteByte('#')
		b.WriteString(w.fragment)
	}
	return b.String()
}

// TryJoinHref applies standard URL-join semantics (protocol-relative,
// absolute-path, and relative-path resolution) and normalizes away any
// "/./" or "/../" segments.
func (w WebUrl) TryJoinHref(relative string) (WebUrl, bool) {
	base, err := url.Parse(w.String())
	if err != nil {
		return WebUrl{}, false
	}
	ref, err := url.Parse(relative)
	if err != nil {
		return WebUrl{}, false
	}
	joined := base.ResolveReference(ref)
	joined.Path = cleanPath(joined.Path)
	return TryDecodeWebUrl(joined.String())
}

// cleanPath removes "." and ".." segments the way path.Clean does, but
// preserves a trailing slash and never collapses to "" (keeps "/").
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	trailingSlash := strings.HasSuffix(p, "/") && p != "/"
	segments := strings.Split(p, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}
	cleaned := "/" + strings.Join(out, "/")
	if trailingSlash && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}
