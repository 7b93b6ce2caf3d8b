package domain

import (
	"context"
	"time"
)

// Cache is a key-value store with per-key TTL. Entries may vanish at any
// time; callers must behave identically whether a read hits or misses.
// Errors on this interface are always non-fatal to the resolution
// pipeline, which logs and falls through to the next tier.
type Cache interface {
	// Get returns the last written value for key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// SetWithTTL writes value under key, expiring after ttl.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ProviderClient wraps one upstream market-data source behind a uniform
// shape. Implementations are pure translation layers: one outbound HTTP
// call per method, no cache or store access. Failures are mapped to
// ErrRateLimited (retryable) or ErrProviderUnavailable (not retryable).
type ProviderClient interface {
	// Name identifies the upstream source, for logging.
	Name() string

	// FetchSnapshot returns the current price observation for a symbol.
	FetchSnapshot(ctx context.Context, symbol string) (*Snapshot, error)

	// FetchRange returns historical bars for [start, end], daily unless
	// intraday resolution is requested. Bars are sorted ascending.
	FetchRange(ctx context.Context, symbol string, start, end time.Time, intraday bool) ([]PriceBar, error)
}

// PricePublisher emits bar-refresh events after the pipeline pulls fresh
// data from a provider. Publishing is best-effort; failures are logged
// and never fail the resolve call.
type PricePublisher interface {
	PublishBars(ctx context.Context, symbol string, bars []PriceBar) error
}
