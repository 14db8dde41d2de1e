package downloader

import (
	"context"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/ndkgw/internal/content"
	"github.com/ternarybob/ndkgw/internal/validated"
)

// DocumentsReadResponse is the normalized shape documents_read_download
// and documents_read_blob both return (spec §4.8).
type DocumentsReadResponse struct {
	Name     string
	MimeType validated.MimeType
	Mode     content.FragmentMode
	Text     string
	Blobs    map[content.FragmentUri]validated.DataUri
}

// ReadOptions tunes how a document is parsed; currently only whether HTML
// is converted to Markdown (spec §4.5: "markdown-aware metadata/link
// rewriting on *.md/*.mdx" implies other document types are read as-is).
type ReadOptions struct {
	ConvertHTMLToMarkdown bool
}

var htmlConverter = md.NewConverter("", true, nil)

// DocumentsReadDownload fetches url and converts its body into a
// DocumentsReadResponse (spec §4.8).
func (s *Service) DocumentsReadDownload(ctx context.Context, url string, headers map[string]string, opts ReadOptions) (DocumentsReadResponse, error) {
	body, mt, _, err := s.FetchBytes(ctx, url, headers)
	if err != nil {
		return DocumentsReadResponse{}, err
	}
	return s.DocumentsReadBlob(ctx, lastPathSegment(url), mt, body, opts)
}

// DocumentsReadBlob converts an already-downloaded blob into a
// DocumentsReadResponse (spec §4.8).
func (s *Service) DocumentsReadBlob(ctx context.Context, name string, mt validated.MimeType, blob []byte, opts ReadOptions) (DocumentsReadResponse, error) {
	mode := mt.Mode()

	switch {
	case mode == validated.ModeImage || mode == validated.ModeMedia:
		encoded := validated.NewDataUri(mt, blob)
		return DocumentsReadResponse{
			Name: name, MimeType: mt, Mode: content.FragmentModeData,
			Blobs: map[content.FragmentUri]validated.DataUri{content.SelfResource: encoded},
		}, nil

	case opts.ConvertHTMLToMarkdown && mt.String() == "text/html":
		text, blobs, err := htmlToFragmentText(string(blob))
		if err != nil {
			return DocumentsReadResponse{}, fmt.Errorf("downloader: html to markdown for %s: %w", name, err)
		}
		return DocumentsReadResponse{Name: name, MimeType: mt, Mode: content.FragmentModeMarkdown, Text: text, Blobs: blobs}, nil

	case mode == validated.ModeMarkdown || mode == validated.ModePlain:
		return DocumentsReadResponse{Name: name, MimeType: mt, Mode: content.FragmentModePlain, Text: string(blob)}, nil

	default:
		encoded := validated.NewDataUri(mt, blob)
		return DocumentsReadResponse{
			Name: name, MimeType: mt, Mode: content.FragmentModeData,
			Blobs: map[content.FragmentUri]validated.DataUri{content.SelfResource: encoded},
		}, nil
	}
}

// htmlToFragmentText parses html with goquery to strip script/style
// noise, then runs html-to-markdown over the cleaned body. Returns no
// blobs: embedded images in scraped web HTML are left as ordinary
// Markdown image links rather than inlined data URIs.
func htmlToFragmentText(html string) (string, map[content.FragmentUri]validated.DataUri, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", nil, err
	}
	doc.Find("script, style, noscript").Remove()

	cleaned, err := doc.Html()
	if err != nil {
		return "", nil, err
	}

	markdown, err := htmlConverter.ConvertString(cleaned)
	if err != nil {
		return "", nil, err
	}
	return strings.TrimSpace(markdown), nil, nil
}

func lastPathSegment(url string) string {
	trimmed := strings.TrimRight(url, "/")
	idx := strings.LastIndexByte(trimmed, '/')
	if idx < 0 {
		return trimmed
	}
	return trimmed[idx+1:]
}
