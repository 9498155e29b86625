package cache

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hyp3rd/settingsync/internal/constants"
	"github.com/hyp3rd/settingsync/stats"
)

// Cache is an in-process memoization layer for settings values keyed by module
// name. Entry lifetime is adaptive: entries read at least the configured
// access threshold number of times live for the long TTL, everything else for
// the short TTL. Expiry is enforced on every read; a periodic sweep bounds
// memory growth from abandoned keys but is not required for correctness.
type Cache struct {
	entries ConcurrentMap // sharded entry map

	mu           sync.RWMutex      // guards moduleAccess
	moduleAccess map[string]uint64 // per-module read counters, survive entry eviction

	shortTTL        time.Duration
	longTTL         time.Duration
	accessThreshold uint64
	sweepInterval   time.Duration

	now            func() time.Time
	statsCollector stats.ICollector

	stop     chan struct{}
	once     sync.Once
	stopOnce sync.Once
}

// EntryStats is a read-only view of one entry's usage statistics.
type EntryStats struct {
	AccessCount  uint64
	LastAccessed time.Time
	Timestamp    time.Time
	Age          time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithShortTTL sets the lifetime of entries below the access threshold.
func WithShortTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.shortTTL = ttl
	}
}

// WithLongTTL sets the lifetime of entries at or above the access threshold.
func WithLongTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.longTTL = ttl
	}
}

// WithAccessThreshold sets the read count at which an entry qualifies for the long TTL.
func WithAccessThreshold(threshold uint64) Option {
	return func(c *Cache) {
		c.accessThreshold = threshold
	}
}

// WithSweepInterval sets how often the background sweep evicts expired entries.
// A zero or negative interval disables the sweep.
func WithSweepInterval(interval time.Duration) Option {
	return func(c *Cache) {
		c.sweepInterval = interval
	}
}

// WithNowFunc sets the clock source, allowing tests to simulate time advancing.
func WithNowFunc(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithStatsCollector sets the stats collector used to record hits, misses, and sweep evictions.
func WithStatsCollector(collector stats.ICollector) Option {
	return func(c *Cache) {
		c.statsCollector = collector
	}
}

// New creates a new cache with the given options and starts the sweep loop.
func New(options ...Option) *Cache {
	cache := &Cache{
		entries:         NewMap(),
		moduleAccess:    make(map[string]uint64),
		shortTTL:        constants.DefaultShortTTL,
		longTTL:         constants.DefaultLongTTL,
		accessThreshold: constants.DefaultAccessThreshold,
		sweepInterval:   constants.DefaultSweepInterval,
		now:             time.Now,
		stop:            make(chan struct{}),
	}

	// Apply options
	for _, option := range options {
		option(cache)
	}

	if cache.sweepInterval > 0 {
		cache.once.Do(func() {
			tick := time.NewTicker(cache.sweepInterval)
			go func() {
				defer tick.Stop()
				for {
					select {
					case <-tick.C:
						cache.sweep()
					case <-cache.stop:
						return
					}
				}
			}()
		})
	}

	return cache
}

// ttlFor returns the TTL applicable to an entry with the given access count.
func (c *Cache) ttlFor(accessCount uint64) time.Duration {
	if accessCount >= c.accessThreshold {
		return c.longTTL
	}

	return c.shortTTL
}

// Get looks up the value for a module. An entry past its applicable TTL is
// evicted and reported as a miss. A hit increments the entry's access count,
// updates its last-accessed time, and bumps the per-module read counter used
// to rank frequently used modules.
func (c *Cache) Get(key string) (any, bool) {
	now := c.now()

	shard := c.entries.GetShard(key)
	shard.Lock()

	entry, ok := shard.items[key]
	if !ok {
		shard.Unlock()
		c.incr(stats.StatCacheMisses)

		return nil, false
	}

	if entry.Expired(now, c.ttlFor(entry.AccessCount)) {
		delete(shard.items, key)
		shard.Unlock()

		entry.Reset()
		EntryPool.Put(entry)
		c.incr(stats.StatCacheMisses)

		return nil, false
	}

	entry.Touch(now)
	value := entry.Value
	shard.Unlock()

	c.mu.Lock()
	c.moduleAccess[key]++
	c.mu.Unlock()

	c.incr(stats.StatCacheHits)

	return value, true
}

// Set inserts or overwrites the value for a module. Repeated writes to a hot
// key preserve its access count and last-accessed time so they do not reset
// its hotness; the write timestamp always resets to now.
func (c *Cache) Set(key string, value any) {
	now := c.now()

	shard := c.entries.GetShard(key)
	shard.Lock()
	defer shard.Unlock()

	if entry, ok := shard.items[key]; ok {
		entry.Value = value
		entry.Timestamp = now
		_ = entry.SetSize()

		return
	}

	entry := EntryPool.Get().(*Entry)
	entry.Value = value
	entry.Timestamp = now
	entry.LastAccessed = now
	entry.AccessCount = 0
	_ = entry.SetSize()

	shard.items[key] = entry
}

// Invalidate removes the entry for a module, if present.
func (c *Cache) Invalidate(key string) {
	if entry, ok := c.entries.Remove(key); ok {
		entry.Reset()
		EntryPool.Put(entry)
	}
}

// InvalidateByPrefix removes every entry whose key starts with the given prefix.
func (c *Cache) InvalidateByPrefix(prefix string) {
	for _, key := range c.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.Invalidate(key)
		}
	}
}

// Clear removes all entries and resets the per-module read counters.
func (c *Cache) Clear() {
	c.entries.Clear()

	c.mu.Lock()
	c.moduleAccess = make(map[string]uint64)
	c.mu.Unlock()
}

// EntryStats returns the usage statistics of one entry, or ok=false when the
// module is not cached. Reading stats does not count as an access.
func (c *Cache) EntryStats(key string) (EntryStats, bool) {
	now := c.now()

	shard := c.entries.GetShard(key)
	shard.RLock()
	defer shard.RUnlock()

	entry, ok := shard.items[key]
	if !ok {
		return EntryStats{}, false
	}

	return EntryStats{
		AccessCount:  entry.AccessCount,
		LastAccessed: entry.LastAccessed,
		Timestamp:    entry.Timestamp,
		Age:          entry.Age(now),
	}, true
}

// FrequentlyAccessedModules returns up to limit module names ordered by
// descending read count. Ties break lexicographically for stable output.
func (c *Cache) FrequentlyAccessedModules(limit int) []string {
	if limit <= 0 {
		return nil
	}

	c.mu.RLock()
	modules := make([]string, 0, len(c.moduleAccess))
	for module := range c.moduleAccess {
		modules = append(modules, module)
	}
	counts := make(map[string]uint64, len(c.moduleAccess))
	for module, count := range c.moduleAccess {
		counts[module] = count
	}
	c.mu.RUnlock()

	sort.Slice(modules, func(i, j int) bool {
		if counts[modules[i]] != counts[modules[j]] {
			return counts[modules[i]] > counts[modules[j]]
		}

		return modules[i] < modules[j]
	})

	if len(modules) > limit {
		modules = modules[:limit]
	}

	return modules
}

// Contains reports whether a non-expired entry exists for the module without
// counting an access.
func (c *Cache) Contains(key string) bool {
	now := c.now()

	shard := c.entries.GetShard(key)
	shard.RLock()
	defer shard.RUnlock()

	entry, ok := shard.items[key]

	return ok && !entry.Expired(now, c.ttlFor(entry.AccessCount))
}

// Count returns the number of entries currently held, expired or not.
func (c *Cache) Count() int {
	return c.entries.Count()
}

// Stop terminates the background sweep loop. Safe to call more than once.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// sweep evicts every entry past its applicable TTL.
func (c *Cache) sweep() {
	now := c.now()

	for _, shard := range c.entries.shards {
		shard.Lock()
		for key, entry := range shard.items {
			if entry.Expired(now, c.ttlFor(entry.AccessCount)) {
				delete(shard.items, key)
				entry.Reset()
				EntryPool.Put(entry)
				c.incr(stats.StatSweepEvictions)
			}
		}
		shard.Unlock()
	}
}

// incr records a counter stat when a collector is configured.
func (c *Cache) incr(stat stats.Stat) {
	if c.statsCollector != nil {
		c.statsCollector.Incr(stat, 1)
	}
}
