package server

import (
	"sync"
	"time"

	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/mj1618/desktop-pilot/internal/platform"
)

// WindowCache provides a TTL-based cache for the window list. Input,
// focus and launch tools invalidate it.
type WindowCache struct {
	mu        sync.Mutex
	windows   []model.Window
	timestamp time.Time
	valid     bool
	ttl       time.Duration
}

// NewWindowCache creates a new cache. A ttl of 0 disables caching.
func NewWindowCache(ttl time.Duration) *WindowCache {
	return &WindowCache{ttl: ttl}
}

// ListWindows returns the cached list if within TTL, otherwise reads fresh.
// The caller must hold the provider mutex.
func (c *WindowCache) ListWindows(wm platform.WindowManager) ([]model.Window, error) {
	if c.ttl == 0 {
		return wm.ListWindows()
	}

	c.mu.Lock()
	if c.valid && time.Since(c.timestamp) < c.ttl {
		windows := c.windows
		c.mu.Unlock()
		return windows, nil
	}
	c.mu.Unlock()

	windows, err := wm.ListWindows()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.windows, c.timestamp, c.valid = windows, time.Now(), true
	c.mu.Unlock()

	return windows, nil
}

// Invalidate drops the cached list.
func (c *WindowCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.windows, c.valid = nil, false
}
