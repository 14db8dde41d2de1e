// Package downloader implements the five primitives the core
// depends on (spec §4.8): fetch_bytes, fetch_head, fetch_json, and the
// two documents_read_* entry points that turn raw bytes into a parsed
// Fragment.
package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ndkgw/internal/apierrors"
	"github.com/ternarybob/ndkgw/internal/validated"
)

// Service fetches bytes/headers/JSON over HTTP and classifies failures
// into the gateway's error taxonomy (spec §4.8, §9).
type Service struct {
	client *http.Client
	logger arbor.ILogger
}

// NewService wraps an *http.Client (grounded on the teacher's
// httpclient.NewDefaultHTTPClient constructor).
func NewService(client *http.Client, logger arbor.ILogger) *Service {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Service{client: client, logger: logger}
}

func (s *Service) do(ctx context.Context, method, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("downloader: build request for %s: %w", url, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apierrors.NewDownloadError(0, url, err.Error())
	}
	return resp, nil
}

func classifyStatus(resp *http.Response, url string) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusNotFound:
		return apierrors.NewUnavailable("", fmt.Sprintf("%s returned %d", url, resp.StatusCode))
	case resp.StatusCode >= 400:
		return apierrors.NewDownloadError(resp.StatusCode, url, resp.Status)
	default:
		return nil
	}
}

// FetchBytes fetches url and returns its body, guessed MIME type, and
// response headers (spec §4.8).
func (s *Service) FetchBytes(ctx context.Context, url string, headers map[string]string) ([]byte, validated.MimeType, http.Header, error) {
	resp, err := s.do(ctx, http.MethodGet, url, headers)
	if err != nil {
		return nil, validated.MimeType{}, nil, err
	}
	defer resp.Body.Close()
	if err := classifyStatus(resp, url); err != nil {
		return nil, validated.MimeType{}, nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, validated.MimeType{}, nil, apierrors.NewDownloadError(resp.StatusCode, url, err.Error())
	}

	mt, err := resolveMimeType(resp.Header.Get("Content-Type"), url, body)
	if err != nil {
		return nil, validated.MimeType{}, nil, apierrors.NewDownloadError(resp.StatusCode, url, err.Error())
	}

	return body, mt, resp.Header, nil
}

// FetchHead issues a HEAD request and returns the response headers (spec
// §4.8).
func (s *Service) FetchHead(ctx context.Context, url string, headers map[string]string) (http.Header, error) {
	resp, err := s.do(ctx, http.MethodHead, url, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := classifyStatus(resp, url); err != nil {
		return nil, err
	}
	return resp.Header, nil
}

// FetchJSON fetches url and decodes its body as JSON (spec §4.8).
func (s *Service) FetchJSON(ctx context.Context, url string, headers map[string]string) (any, http.Header, error) {
	body, _, respHeaders, err := s.FetchBytes(ctx, url, headers)
	if err != nil {
		return nil, nil, err
	}
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, nil, apierrors.NewDownloadError(0, url, fmt.Sprintf("invalid JSON response: %v", err))
	}
	return parsed, respHeaders, nil
}

// resolveMimeType prefers the server's declared Content-Type, falling
// back to filename and magic-byte guessing (spec §3.1's MimeType.guess*
// chain).
func resolveMimeType(contentType, url string, body []byte) (validated.MimeType, error) {
	if contentType != "" {
		if mt, err := validated.DecodeMimeType(stripMimeParams(contentType)); err == nil {
			return mt, nil
		}
	}
	if mt, ok := validated.GuessMimeFromFilename(url); ok {
		return mt, nil
	}
	if mt, ok := validated.GuessMimeFromMagicBytes(body); ok {
		return mt, nil
	}
	return validated.DecodeMimeType("application/octet-stream")
}

func stripMimeParams(contentType string) string {
	for i, c := range contentType {
		if c == ';' {
			return contentType[:i]
		}
	}
	return contentType
}
