package ca

import (
	"crypto/tls"
	"sync"
	"time"
)

// entry is one cached per-authority TLS server configuration.
type entry struct {
	config         *tls.Config
	expiresAt      time.Time
	lastAccessedAt time.Time
}

// configCache is a thread-safe, TTL-bounded, LRU-evicted cache of authority
// (host[:port]) to a completed TLS server configuration. It additionally
// collapses concurrent misses for the same key into a single issuance, so a
// burst of connections to a cold authority triggers exactly one signing
// operation (spec: "concurrent gets for the same missing key SHOULD
// collapse to a single issuance").
type configCache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	inflight   map[string]chan struct{}
	ttl        time.Duration
	maxEntries int

	stopCh          chan struct{}
	cleanupInterval time.Duration
}

func newConfigCache(ttl time.Duration, maxEntries int) *configCache {
	cleanupInterval := ttl / 2
	if cleanupInterval < 10*time.Second {
		cleanupInterval = 10 * time.Second
	}

	c := &configCache{
		entries:         make(map[string]*entry),
		inflight:        make(map[string]chan struct{}),
		ttl:             ttl,
		maxEntries:      maxEntries,
		stopCh:          make(chan struct{}),
		cleanupInterval: cleanupInterval,
	}
	go c.cleanupExpired()
	return c
}

// get returns the cached config for authority, if present and unexpired.
func (c *configCache) get(authority string) (*tls.Config, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[authority]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	e.lastAccessedAt = time.Now()
	return e.config, true
}

// getOrIssue returns the cached config for authority, or calls issue exactly
// once across all concurrent callers racing on the same authority. A failed
// issuance is never cached (spec: "a failure to issue does not poison the
// cache") and does not block subsequent retries.
func (c *configCache) getOrIssue(authority string, issue func() (*tls.Config, error)) (*tls.Config, error) {
	for {
		c.mu.Lock()
		if e, ok := c.entries[authority]; ok && time.Now().Before(e.expiresAt) {
			e.lastAccessedAt = time.Now()
			c.mu.Unlock()
			return e.config, nil
		}

		if ch, inFlight := c.inflight[authority]; inFlight {
			c.mu.Unlock()
			<-ch
			continue
		}

		ch := make(chan struct{})
		c.inflight[authority] = ch
		c.mu.Unlock()

		cfg, err := issue()

		c.mu.Lock()
		delete(c.inflight, authority)
		if err == nil {
			c.set(authority, cfg)
		}
		c.mu.Unlock()
		close(ch)

		return cfg, err
	}
}

// set must be called with the lock held.
func (c *configCache) set(authority string, cfg *tls.Config) {
	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[authority]; !exists {
			c.evictLRU()
		}
	}

	now := time.Now()
	c.entries[authority] = &entry{
		config:         cfg,
		expiresAt:      now.Add(c.ttl),
		lastAccessedAt: now,
	}
}

func (c *configCache) evictLRU() {
	var oldestKey string
	var oldestTime time.Time
	for key, e := range c.entries {
		if oldestKey == "" || e.lastAccessedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.lastAccessedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *configCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *configCache) close() {
	close(c.stopCh)
}

func (c *configCache) cleanupExpired() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, e := range c.entries {
				if now.After(e.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		case <-c.stopCh:
			return
		}
	}
}
