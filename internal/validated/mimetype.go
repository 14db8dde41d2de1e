package validated

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

var mimeRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9!#$&\-^_.+]*/[A-Za-z0-9][A-Za-z0-9!#$&\-^_.+]*$`)

// Mode classifies a MimeType into the curated buckets the bundle and
// observation pipelines branch on (spec §3.1).
type Mode string

const (
	ModeImage      Mode = "image"
	ModeMarkdown   Mode = "markdown"
	ModeMedia      Mode = "media"
	ModePlain      Mode = "plain"
	ModeDocument   Mode = "document"
	ModeSpreadsheet Mode = "spreadsheet"
)

// MimeType is a "type/subtype" value over the IANA media-type grammar.
type MimeType struct{ value string }

// DecodeMimeType validates str as a MimeType.
func DecodeMimeType(str string) (MimeType, error) {
	if !mimeRe.MatchString(str) {
		return MimeType{}, fmt.Errorf("validated: MimeType %q does not match pattern %s", str, mimeRe.String())
	}
	return MimeType{value: strings.ToLower(str)}, nil
}

// TryDecodeMimeType is the non-throwing counterpart to DecodeMimeType.
func TryDecodeMimeType(str string) (MimeType, bool) {
	v, err := DecodeMimeType(str)
	return v, err == nil
}

// String returns the canonical form.
func (m MimeType) String() string { return m.value }

// IsZero reports whether m is the zero value.
func (m MimeType) IsZero() bool { return m.value == "" }

// modeTable maps a curated set of MIME types to their Mode. Lookup falls
// back to a type-prefix heuristic (image/*, audio/*, video/*) when the
// specific subtype is not in the table.
var modeTable = map[string]Mode{
	"text/markdown":   ModeMarkdown,
	"text/x-markdown":  ModeMarkdown,
	"text/plain":      ModePlain,
	"text/csv":        ModePlain,
	"application/pdf": ModeDocument,
	"application/msword": ModeDocument,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ModeDocument,
	"application/vnd.ms-excel": ModeSpreadsheet,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": ModeSpreadsheet,
	"application/vnd.google-apps.spreadsheet": ModeSpreadsheet,
	"application/vnd.google-apps.document": ModeDocument,
}

// Mode classifies this MIME type into one of the curated buckets. The
// result is constant across calls for a given MimeType value.
func (m MimeType) Mode() Mode {
	if mode, ok := modeTable[m.value]; ok {
		return mode
	}
	switch {
	case strings.HasPrefix(m.value, "image/"):
		return ModeImage
	case strings.HasPrefix(m.value, "audio/"), strings.HasPrefix(m.value, "video/"):
		return ModeMedia
	case strings.HasPrefix(m.value, "text/"):
		return ModePlain
	default:
		return ModeDocument
	}
}

// extensionTable is the extension<->MIME mapping used by
// GuessMimeFromFilename and GuessExtension. Several extensions share one
// MIME type; GuessExtension returns the first one listed.
var extensionTable = []struct {
	ext  string
	mime string
}{
	{".md", "text/markdown"},
	{".markdown", "text/markdown"},
	{".mdx", "text/markdown"},
	{".txt", "text/plain"},
	{".csv", "text/csv"},
	{".html", "text/html"},
	{".htm", "text/html"},
	{".pdf", "application/pdf"},
	{".doc", "application/msword"},
	{".docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	{".xls", "application/vnd.ms-excel"},
	{".xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	{".png", "image/png"},
	{".jpg", "image/jpeg"},
	{".jpeg", "image/jpeg"},
	{".gif", "image/gif"},
	{".webp", "image/webp"},
	{".json", "application/json"},
	{".yaml", "application/yaml"},
	{".yml", "application/yaml"},
	{".go", "text/x-go"},
	{".py", "text/x-python"},
	{".mp4", "video/mp4"},
	{".mp3", "audio/mpeg"},
}

// GuessMimeFromFilename returns the MimeType associated with name's
// extension, or (zero, false) if the extension is unrecognized.
func GuessMimeFromFilename(name string) (MimeType, bool) {
	lower := strings.ToLower(name)
	for _, row := range extensionTable {
		if strings.HasSuffix(lower, row.ext) {
			mt, _ := DecodeMimeType(row.mime)
			return mt, true
		}
	}
	return MimeType{}, false
}

// GuessExtension returns a canonical extension (including the dot) for m,
// or "" if none is registered.
func (m MimeType) GuessExtension() string {
	for _, row := range extensionTable {
		if row.mime == m.value {
			return row.ext
		}
	}
	return ""
}

// magic-byte signatures for the image formats spec §3.1 calls out.
var magicSignatures = []struct {
	sig  []byte
	mime string
}{
	{[]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, "image/png"},
	{[]byte{0xFF, 0xD8, 0xFF}, "image/jpeg"},
	{[]byte("GIF87a"), "image/gif"},
	{[]byte("GIF89a"), "image/gif"},
	// WebP: "RIFF"....{"WEBP"
	{[]byte("RIFF"), "image/webp"},
}

// GuessMimeFromMagicBytes sniffs the first bytes of data against the
// PNG/JPEG/GIF/WebP signatures (spec §3.1). Returns (zero, false) if no
// signature matches.
func GuessMimeFromMagicBytes(data []byte) (MimeType, bool) {
	for _, row := range magicSignatures {
		if row.mime == "image/webp" {
			if len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
				mt, _ := DecodeMimeType(row.mime)
				return mt, true
			}
			continue
		}
		if bytes.HasPrefix(data, row.sig) {
			mt, _ := DecodeMimeType(row.mime)
			return mt, true
		}
	}
	return MimeType{}, false
}
