// File: internal/pagecache/cache.go

// Package pagecache maintains the per-page derived state of a browsing
// session: the last-known interactive and informative element sets for every
// URL observed, plus the pending-updates buckets produced by diffing.
//
// The cache is an explicit, session-owned object. It is created at session
// start and passed by reference to every consumer; there is no process-wide
// singleton.
package pagecache

import (
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagescope-cli/api/schemas"
)

// pageRecord is the cached state for one URL. Baseline maps are replaced by
// atomic swap under the cache lock, never merged element by element, so a
// reader can never observe a half-updated side.
type pageRecord struct {
	interactive        schemas.ElementMap
	informative        schemas.ElementMap
	interactiveUpdates schemas.ElementMap
	informativeUpdates schemas.ElementMap
}

// Cache stores per-URL element state. One record exists per distinct URL
// observed during the session; records live until the session ends or are
// explicitly cleared.
type Cache struct {
	mu     sync.RWMutex
	pages  map[string]*pageRecord
	logger *zap.Logger
}

// NewCache creates an empty session cache.
func NewCache(logger *zap.Logger) *Cache {
	return &Cache{
		pages:  make(map[string]*pageRecord),
		logger: logger.Named("pagecache"),
	}
}

// record returns the page record for url, creating it on first sight. Callers
// must hold c.mu for writing.
func (c *Cache) record(url string) *pageRecord {
	rec, ok := c.pages[url]
	if !ok {
		rec = &pageRecord{}
		c.pages[url] = rec
	}
	return rec
}

// Interactive returns a copy of the interactive baseline for url. A never
// observed URL yields a nil map and false, not an error.
func (c *Cache) Interactive(url string) (schemas.ElementMap, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.pages[url]
	if !ok {
		return nil, false
	}
	return rec.interactive.Clone(), true
}

// Informative returns a copy of the informative baseline for url.
func (c *Cache) Informative(url string) (schemas.ElementMap, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.pages[url]
	if !ok {
		return nil, false
	}
	return rec.informative.Clone(), true
}

// SetInteractive installs a new interactive baseline for url. The swap is
// atomic and clears the side's pending-updates bucket: a fresh baseline has
// no pending deltas relative to itself.
func (c *Cache) SetInteractive(url string, elements schemas.ElementMap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.record(url)
	rec.interactive = elements
	rec.interactiveUpdates = nil
}

// SetInformative installs a new informative baseline for url, clearing that
// side's pending-updates bucket.
func (c *Cache) SetInformative(url string, elements schemas.ElementMap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.record(url)
	rec.informative = elements
	rec.informativeUpdates = nil
}

// installInteractive atomically swaps the interactive baseline and stages the
// diffed updates in one step, so a drain can never land between the swap and
// the staging.
func (c *Cache) installInteractive(url string, baseline, updates schemas.ElementMap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.record(url)
	rec.interactive = baseline
	rec.interactiveUpdates = updates
}

// installInformative is the informative-side counterpart of installInteractive.
func (c *Cache) installInformative(url string, baseline, updates schemas.ElementMap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.record(url)
	rec.informative = baseline
	rec.informativeUpdates = updates
}

// DrainInteractiveUpdates removes and returns the interactive updates bucket
// for url. Buckets are write-once-read-once: the first drain after a diff
// gets the entries, every later drain gets nothing. Concurrent drains are
// serialized by the cache lock, so an update is delivered exactly once.
func (c *Cache) DrainInteractiveUpdates(url string) schemas.ElementMap {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.pages[url]
	if !ok {
		return nil
	}
	updates := rec.interactiveUpdates
	rec.interactiveUpdates = nil
	return updates
}

// DrainInformativeUpdates removes and returns the informative updates bucket
// for url.
func (c *Cache) DrainInformativeUpdates(url string) schemas.ElementMap {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.pages[url]
	if !ok {
		return nil
	}
	updates := rec.informativeUpdates
	rec.informativeUpdates = nil
	return updates
}

// Clear empties both element maps and both update buckets for url without
// removing the record itself.
func (c *Cache) Clear(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.pages[url]
	if !ok {
		return
	}
	rec.interactive = nil
	rec.informative = nil
	rec.interactiveUpdates = nil
	rec.informativeUpdates = nil
	c.logger.Debug("Cleared page cache", zap.String("url", url))
}

// URLs returns every URL the session has observed so far.
func (c *Cache) URLs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	urls := make([]string, 0, len(c.pages))
	for url := range c.pages {
		urls = append(urls, url)
	}
	return urls
}
