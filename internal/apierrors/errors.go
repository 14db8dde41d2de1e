// Package apierrors defines the error taxonomy shared by every connector and
// by the resolution coordinator (spec §7).
package apierrors

import "fmt"

// UnavailableError means the resource does not exist, is not accessible to
// the caller, or its connector cannot resolve it. Details are intentionally
// terse to avoid enumeration attacks when surfaced to a client.
type UnavailableError struct {
	Realm  string
	Reason string
}

func (e *UnavailableError) Error() string {
	if e.Realm == "" {
		return "resource unavailable"
	}
	return fmt.Sprintf("resource unavailable in realm %q: %s", e.Realm, e.Reason)
}

// NewUnavailable constructs an UnavailableError.
func NewUnavailable(realm, reason string) *UnavailableError {
	return &UnavailableError{Realm: realm, Reason: reason}
}

// BadRequestError means the requested affordance is not supported for this
// resource (e.g. $plain on a PDF).
type BadRequestError struct {
	Affordance string
	Reason     string
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("affordance %q not supported: %s", e.Affordance, e.Reason)
}

// NewBadRequest constructs a BadRequestError.
func NewBadRequest(affordance, reason string) *BadRequestError {
	return &BadRequestError{Affordance: affordance, Reason: reason}
}

// DownloadError is an upstream parsing/HTTP failure other than 401/403/404.
type DownloadError struct {
	StatusCode int
	URL        string
	Reason     string
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed (status %d) for %s: %s", e.StatusCode, e.URL, e.Reason)
}

// NewDownloadError constructs a DownloadError.
func NewDownloadError(statusCode int, url, reason string) *DownloadError {
	return &DownloadError{StatusCode: statusCode, URL: url, Reason: reason}
}

// IngestionError means a ResourceHistory invariant was violated, e.g. the
// first delta in a history did not set a locator.
type IngestionError struct {
	Reason string
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion invariant violated: %s", e.Reason)
}

// NewIngestionError constructs an IngestionError.
func NewIngestionError(reason string) *IngestionError {
	return &IngestionError{Reason: reason}
}

// ConfigError is raised at connector registration time, e.g. for a
// duplicate connector realm.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// NewConfigError constructs a ConfigError.
func NewConfigError(reason string) *ConfigError {
	return &ConfigError{Reason: reason}
}

// AsUnavailable reports whether err is (or wraps) an *UnavailableError.
func AsUnavailable(err error) (*UnavailableError, bool) {
	var target *UnavailableError
	ok := asTarget(err, &target)
	return target, ok
}

// AsDownloadError reports whether err is (or wraps) a *DownloadError.
func AsDownloadError(err error) (*DownloadError, bool) {
	var target *DownloadError
	ok := asTarget(err, &target)
	return target, ok
}
