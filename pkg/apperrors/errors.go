// Package apperrors defines the sentinel error taxonomy shared across the
// classification pipeline. Use errors.Is against these to branch on failure
// class without coupling to the producing package.
package apperrors

import "errors"

var (
	// ErrNotFound reports a cache miss or an unknown entity.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks a fatal request error (empty document set,
	// unknown dimension). The whole operation aborts with no partial result.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedRecord marks a single raw record that cannot be
	// normalized. Per-record and non-fatal: the record is dropped, counted,
	// and reported while the rest of the batch proceeds.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrServiceUnavailable reports that the remote classifier timed out,
	// returned a non-2xx status, or produced an unparseable body. Recovered
	// via the local fallback template, never fatal to the request.
	ErrServiceUnavailable = errors.New("classification service unavailable")

	// ErrCacheUnavailable reports a cache backend failure. Classification
	// proceeds without caching; a failed cache write never fails the result.
	ErrCacheUnavailable = errors.New("cache unavailable")
)
