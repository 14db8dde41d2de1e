package validated

import (
	"fmt"
	"strings"
)

// FilePath is a non-empty sequence of FileName segments joined by "/".
type FilePath struct {
	parts []FileName
}

// DecodeFilePath splits str on "/" and validates every segment as a FileName.
func DecodeFilePath(str string) (FilePath, error) {
	if str == "" {
		return FilePath{}, fmt.Errorf("validated: FilePath must not be empty")
	}
	segments := strings.Split(str, "/")
	parts := make([]FileName, 0, len(segments))
	for _, seg := range segments {
		fn, err := DecodeFileName(seg)
		if err != nil {
			return FilePath{}, fmt.Errorf("validated: FilePath %q: %w", str, err)
		}
		parts = append(parts, fn)
	}
	return FilePath{parts: parts}, nil
}

// TryDecodeFilePath is the non-throwing counterpart to DecodeFilePath.
func TryDecodeFilePath(str string) (FilePath, bool) {
	v, err := DecodeFilePath(str)
	return v, err == nil
}

// NewFilePath builds a FilePath directly from already-validated parts.
func NewFilePath(parts ...FileName) FilePath {
	out := make([]FileName, len(parts))
	copy(out, parts)
	return FilePath{parts: out}
}

// Parts returns the path's FileName segments.
func (p FilePath) Parts() []FileName {
	out := make([]FileName, len(p.parts))
	copy(out, p.parts)
	return out
}

// String returns the canonical "/"-joined form.
func (p FilePath) String() string {
	segs := make([]string, len(p.parts))
	for i, part := range p.parts {
		segs[i] = part.String()
	}
	return strings.Join(segs, "/")
}

// Extension returns the last segment's file extension (including the dot),
// or "" if the last segment has none.
func (p FilePath) Extension() string {
	if len(p.parts) == 0 {
		return ""
	}
	last := p.parts[len(p.parts)-1].String()
	idx := strings.LastIndexByte(last, '.')
	if idx <= 0 {
		return ""
	}
	return last[idx:]
}
