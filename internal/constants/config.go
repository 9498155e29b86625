// Package constants defines default configuration values for the settingsync
// system. It provides standard settings for cache expiry, remote timeouts,
// push throttling, preloading, and supported store types.
package constants

import "time"

const (
	// StorageKeyPrefix is prepended to the module name to form the durable
	// storage slot key, e.g. "settings_theme" for the "theme" module.
	StorageKeyPrefix = "settings_"

	// DefaultShortTTL is the cache lifetime of an entry that has not yet been
	// read often enough to qualify for the extended lifetime.
	DefaultShortTTL = 30 * time.Second
	// DefaultLongTTL is the cache lifetime of an entry read at least
	// DefaultAccessThreshold times.
	DefaultLongTTL = 5 * time.Minute
	// DefaultAccessThreshold is the number of reads after which an entry
	// qualifies for DefaultLongTTL.
	DefaultAccessThreshold = 5
	// DefaultSweepInterval is how often the cache sweeps out expired entries.
	// The sweep is advisory housekeeping; Get re-checks expiry on every read.
	DefaultSweepInterval = 5 * time.Minute

	// DefaultLoadTimeout bounds a full settings load, including the cold-module
	// remote fetch. On expiry the service falls back to cache, durable storage,
	// and finally compiled-in defaults.
	DefaultLoadTimeout = 5 * time.Second
	// DefaultSettingTimeout bounds a field-level remote read. No retries.
	DefaultSettingTimeout = 1500 * time.Millisecond
	// DefaultRefreshInterval is the minimum age of a cache entry before a fast
	// local read schedules a background remote refresh.
	DefaultRefreshInterval = 60 * time.Second
	// DefaultPushThrottle is the minimum interval between outbound remote
	// pushes for one module. Throttled pushes are coalesced, not dropped: the
	// latest pending value is flushed when the window reopens.
	DefaultPushThrottle = 5 * time.Second

	// DefaultPreloadInitialDelay is the pause before the preloader warms the
	// first module.
	DefaultPreloadInitialDelay = 1 * time.Second
	// DefaultPreloadItemDelay is the pause between consecutive warmed modules.
	DefaultPreloadItemDelay = 800 * time.Millisecond
	// DefaultPreloadPriorityCount is the number of fixed high-priority modules
	// the preloader always considers.
	DefaultPreloadPriorityCount = 2

	// FileStore is the name of the file-backed durable store.
	FileStore = "file"
	// MemoryStore is the name of the in-memory durable store used in tests.
	MemoryStore = "memory"
	// RedisStore is the name of the Redis-backed durable store.
	RedisStore = "redis"
)
