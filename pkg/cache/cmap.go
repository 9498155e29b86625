// Package cache provides a process-local memoization layer for settings
// modules, keyed by module name, with adaptive expiry and light usage
// statistics. A sharded concurrent map keeps lock contention low when many
// modules are read at once.
package cache

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// ShardCount is the number of shards.
const ShardCount = 32

// ConcurrentMap is a "thread" safe map of type string:*Entry.
// To avoid lock bottlenecks this map is divided into several (ShardCount) map shards.
type ConcurrentMap struct {
	shards []*concurrentMapShard
}

// concurrentMapShard is a "thread" safe string to *Entry map.
type concurrentMapShard struct {
	sync.RWMutex // guards access to the internal map

	items map[string]*Entry
}

// NewMap creates a new concurrent map.
func NewMap() ConcurrentMap {
	cmap := ConcurrentMap{
		shards: make([]*concurrentMapShard, ShardCount),
	}
	for i := range ShardCount {
		cmap.shards[i] = &concurrentMapShard{items: make(map[string]*Entry)}
	}

	return cmap
}

// GetShard returns the shard under the given key.
func (m ConcurrentMap) GetShard(key string) *concurrentMapShard {
	return m.shards[xxhash.Sum64String(key)%ShardCount]
}

// Get retrieves an entry from the map.
func (m ConcurrentMap) Get(key string) (*Entry, bool) {
	shard := m.GetShard(key)
	shard.RLock()
	defer shard.RUnlock()

	entry, ok := shard.items[key]

	return entry, ok
}

// Set stores an entry under the given key.
func (m ConcurrentMap) Set(key string, entry *Entry) {
	shard := m.GetShard(key)
	shard.Lock()
	defer shard.Unlock()

	shard.items[key] = entry
}

// Remove deletes an entry from the map, returning it so callers can recycle it.
func (m ConcurrentMap) Remove(key string) (*Entry, bool) {
	shard := m.GetShard(key)
	shard.Lock()
	defer shard.Unlock()

	entry, ok := shard.items[key]
	if ok {
		delete(shard.items, key)
	}

	return entry, ok
}

// Count returns the number of entries in the map.
func (m ConcurrentMap) Count() int {
	count := 0

	for _, shard := range m.shards {
		shard.RLock()
		count += len(shard.items)
		shard.RUnlock()
	}

	return count
}

// Keys returns all keys present in the map.
func (m ConcurrentMap) Keys() []string {
	keys := make([]string, 0, m.Count())

	for _, shard := range m.shards {
		shard.RLock()
		for key := range shard.items {
			keys = append(keys, key)
		}
		shard.RUnlock()
	}

	return keys
}

// Clear removes all entries from the map.
func (m ConcurrentMap) Clear() {
	for _, shard := range m.shards {
		shard.Lock()
		shard.items = make(map[string]*Entry)
		shard.Unlock()
	}
}
