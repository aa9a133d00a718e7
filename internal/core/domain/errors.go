package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAllSourcesFailed indicates every source adapter failed for a query.
	// This is the one adapter condition that propagates to the caller; it is
	// distinct from a legitimate zero-result answer.
	ErrAllSourcesFailed = errors.New("all sources failed")

	// ErrAdapterDisabled indicates the adapter has been disabled for the
	// process lifetime, typically after an authorization failure.
	ErrAdapterDisabled = errors.New("adapter disabled")

	// ErrImageUnavailable indicates no usable image could be fetched.
	// The image pipeline converts this into a generated placeholder; it
	// never propagates as a request failure.
	ErrImageUnavailable = errors.New("image unavailable")

	// ErrImageTooLarge indicates a fetched image exceeded the size bound.
	ErrImageTooLarge = errors.New("image exceeds size limit")

	// ErrCacheClosed indicates the cache has been shut down.
	ErrCacheClosed = errors.New("cache closed")
)

// ErrorKind classifies a source adapter failure.
// Every adapter error is absorbed at the orchestrator boundary and recorded
// in provenance; none of them fail the whole request on their own.
type ErrorKind string

// Adapter error kinds.
const (
	// ErrorTimeout indicates the adapter exceeded its tier timeout.
	// Retryable once.
	ErrorTimeout ErrorKind = "timeout"

	// ErrorRateLimited indicates the provider throttled the adapter.
	// The adapter cools down; other adapters proceed.
	ErrorRateLimited ErrorKind = "rate_limited"

	// ErrorUnauthorized indicates invalid credentials.
	// A configuration error: the adapter is disabled for the process
	// lifetime and never retried.
	ErrorUnauthorized ErrorKind = "unauthorized"

	// ErrorUnavailable indicates a transient provider failure.
	// Bounded retry, then skip.
	ErrorUnavailable ErrorKind = "unavailable"

	// ErrorMalformed indicates a single undecodable record.
	// The record is skipped; the fetch itself is not fatal.
	ErrorMalformed ErrorKind = "malformed"
)

// Retryable returns true if a failure of this kind may be retried.
func (k ErrorKind) Retryable() bool {
	switch k {
	case ErrorTimeout, ErrorUnavailable:
		return true
	default:
		return false
	}
}

// AdapterError is a typed failure from a source adapter.
type AdapterError struct {
	// Source is the adapter name that produced the failure.
	Source string

	// Kind classifies the failure.
	Kind ErrorKind

	// Err is the underlying cause, if any.
	Err error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + string(e.Kind) + ": " + e.Err.Error()
	}
	return e.Source + ": " + string(e.Kind)
}

// Unwrap returns the underlying cause.
func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewAdapterError builds a typed adapter failure.
func NewAdapterError(source string, kind ErrorKind, err error) *AdapterError {
	return &AdapterError{Source: source, Kind: kind, Err: err}
}

// AsAdapterError extracts an AdapterError from an error chain.
func AsAdapterError(err error) (*AdapterError, bool) {
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsRateLimited checks if the error indicates provider throttling.
func IsRateLimited(err error) bool {
	ae, ok := AsAdapterError(err)
	return ok && ae.Kind == ErrorRateLimited
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	ae, ok := AsAdapterError(err)
	return ok && ae.Kind == ErrorUnauthorized
}
