package domain

import "errors"

// Sentinel errors shared across tiers.
// Only ErrInvalidRequest is allowed to cross the resolution pipeline
// boundary as a hard failure; every other condition is handled inside
// the pipeline (skip tier, retry, or degrade).
var (
	// ErrInvalidRequest marks a malformed request (empty symbol, inverted
	// date range). Surfaced to the caller immediately, never retried.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrCacheMiss is returned by Cache.Get when a key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrNotFound is returned by repositories when a row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited is returned by provider clients when the upstream
	// rejected the call with a rate-limit response. Retryable.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrProviderUnavailable covers network failures, timeouts and
	// malformed upstream payloads. Not retryable.
	ErrProviderUnavailable = errors.New("provider unavailable")
)
