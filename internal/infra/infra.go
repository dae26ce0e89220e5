// Package infra provides shared infrastructure for the fetch layer: an
// in-memory TTL cache for fetched document bodies and a token-bucket rate
// limiter that keeps request rates inside EDGAR's fair-access ceiling.
package infra

import (
	"context"
	"sync"
	"time"
)

// --- Document body cache ---

type bodyEntry struct {
	data      []byte
	expiresAt time.Time
}

// BodyCache is a thread-safe in-memory cache of raw document bodies keyed
// by URL. Listings and instance documents requested twice within one run
// cost a single network round trip.
type BodyCache struct {
	mu      sync.RWMutex
	entries map[string]bodyEntry
	ttl     time.Duration
}

// NewBodyCache creates a cache with the given default TTL.
func NewBodyCache(ttl time.Duration) *BodyCache {
	return &BodyCache{
		entries: make(map[string]bodyEntry),
		ttl:     ttl,
	}
}

// Get returns the cached body for url. The second return is false when the
// URL is absent or the entry has expired.
func (c *BodyCache) Get(url string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[url]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

// Set stores a body with the default TTL.
func (c *BodyCache) Set(url string, data []byte) {
	c.SetWithTTL(url, data, c.ttl)
}

// SetWithTTL stores a body with a custom TTL.
func (c *BodyCache) SetWithTTL(url string, data []byte, ttl time.Duration) {
	c.mu.Lock()
	c.entries[url] = bodyEntry{
		data:      data,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
}

// Flush drops all entries.
func (c *BodyCache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]bodyEntry)
	c.mu.Unlock()
}

// Cleanup removes expired entries. Can be called periodically.
func (c *BodyCache) Cleanup() {
	c.mu.Lock()
	now := time.Now()
	for k, v := range c.entries {
		if now.After(v.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// --- Rate limiter ---

// RateLimiter is a token bucket allowing maxTokens requests per window.
// Shared across pipeline workers so parallel companies stay inside one
// global request rate.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	window     time.Duration
	lastRefill time.Time
}

// NewRateLimiter creates a limiter allowing maxTokens requests per window.
func NewRateLimiter(maxTokens int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		window:     window,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or the context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		rl.refill()
		if rl.tokens > 0 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}
		rl.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
			// Re-check after a short sleep.
		}
	}
}

// refill credits whole elapsed windows. Must be called with mu held.
func (rl *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill)
	if elapsed < rl.window {
		return
	}
	periods := int(elapsed / rl.window)
	rl.tokens += periods * rl.maxTokens
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = rl.lastRefill.Add(time.Duration(periods) * rl.window)
}
