package application

import (
	"sync"
	"time"
)

// reportCache stores recently computed report summaries to avoid repeated
// full-collection scans for identical periods while the underlying data is
// unlikely to have meaningfully changed.
type reportCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[ReportPeriod]reportCacheEntry
}

type reportCacheEntry struct {
	report    Report
	expiresAt time.Time
}

func newReportCache(ttl time.Duration, maxEntries int, now func() time.Time) *reportCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 16
	}
	if now == nil {
		now = time.Now
	}
	return &reportCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[ReportPeriod]reportCacheEntry),
	}
}

func (c *reportCache) Get(period ReportPeriod) (Report, bool) {
	if c == nil {
		return Report{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[period]
	c.mu.RUnlock()
	if !ok {
		return Report{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, period)
		c.mu.Unlock()
		return Report{}, false
	}
	return entry.report, true
}

func (c *reportCache) Store(period ReportPeriod, report Report) {
	if c == nil {
		return
	}
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[period] = reportCacheEntry{report: report, expiresAt: expiry}
}

func (c *reportCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[ReportPeriod]reportCacheEntry)
	c.mu.Unlock()
}

func (c *reportCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *reportCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}
