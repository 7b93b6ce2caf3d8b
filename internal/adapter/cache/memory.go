package cache

import (
	"context"
	"sync"
	"time"

	"github.com/finview/finview-backend/internal/domain"
)

// Memory implements domain.Cache as a mutex-guarded in-process map with
// per-entry expiry. It is the fallback for deployments without Redis and
// is always passed by reference into the pipeline at construction, never
// held as a package-level variable.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	janitor *time.Ticker
	done    chan struct{}
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemory creates an in-memory cache with a background janitor that
// sweeps expired entries every interval.
func NewMemory(sweepInterval time.Duration) *Memory {
	m := &Memory{
		entries: make(map[string]memoryEntry),
		janitor: time.NewTicker(sweepInterval),
		done:    make(chan struct{}),
	}
	go m.sweep()
	return m
}

func (m *Memory) sweep() {
	for {
		select {
		case <-m.janitor.C:
			now := time.Now()
			m.mu.Lock()
			for k, e := range m.entries {
				if now.After(e.expiresAt) {
					delete(m.entries, k)
				}
			}
			m.mu.Unlock()
		case <-m.done:
			m.janitor.Stop()
			return
		}
	}
}

// Get returns the value stored under key, or domain.ErrCacheMiss when the
// key is absent or past its expiry.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return nil, domain.ErrCacheMiss
	}

	// Return a copy so callers cannot mutate the cached slice
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// SetWithTTL writes value under key with the given expiry.
func (m *Memory) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.entries[key] = memoryEntry{value: stored, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Close stops the janitor goroutine.
func (m *Memory) Close() {
	close(m.done)
}
