package settingsync

import (
	"time"

	"github.com/hyp3rd/settingsync/internal/libs/serializer"
	"github.com/hyp3rd/settingsync/pkg/cache"
	"github.com/hyp3rd/settingsync/pkg/remote"
	"github.com/hyp3rd/settingsync/pkg/store"
	"github.com/hyp3rd/settingsync/stats"
)

// Option is a function type that can be used to configure a settings service.
type Option[T any] func(*Config[T])

// ApplyOptions applies the given options to the given config.
func ApplyOptions[T any](config *Config[T], options ...Option[T]) {
	for _, option := range options {
		option(config)
	}
}

// WithDefaults sets the compiled-in defaults for the module.
func WithDefaults[T any](defaults T) Option[T] {
	return func(config *Config[T]) {
		config.Defaults = defaults
	}
}

// WithValidator sets the module schema check. A value failing validation is
// replaced with the defaults; the failure is never surfaced to the caller.
func WithValidator[T any](validator Validator[T]) Option[T] {
	return func(config *Config[T]) {
		config.Validator = validator
	}
}

// WithStore sets the durable storage backend.
func WithStore[T any](durable store.Store) Option[T] {
	return func(config *Config[T]) {
		config.Store = durable
	}
}

// WithRemote sets the remote endpoint client.
func WithRemote[T any](client remote.Client) Option[T] {
	return func(config *Config[T]) {
		config.Remote = client
	}
}

// WithCache sets the shared settings cache.
func WithCache[T any](settingsCache *cache.Cache) Option[T] {
	return func(config *Config[T]) {
		config.Cache = settingsCache
	}
}

// WithCacheable gates the module's participation in the shared cache.
func WithCacheable[T any](cacheable bool) Option[T] {
	return func(config *Config[T]) {
		config.Cacheable = cacheable
	}
}

// WithSerializer sets the serializer used for durable records and value copies.
func WithSerializer[T any](ser serializer.ISerializer) Option[T] {
	return func(config *Config[T]) {
		config.Serializer = ser
	}
}

// WithSerializerName selects the serializer from the registry by name
// ("default", "msgpack"). Resolution happens in New, which rejects unknown
// names.
func WithSerializerName[T any](name string) Option[T] {
	return func(config *Config[T]) {
		config.SerializerName = name
	}
}

// WithLogger sets the logger receiving warnings from swallowed failures.
func WithLogger[T any](logger Logger) Option[T] {
	return func(config *Config[T]) {
		config.Logger = logger
	}
}

// WithNetworkStatus sets the injected connectivity provider.
func WithNetworkStatus[T any](status NetworkStatus) Option[T] {
	return func(config *Config[T]) {
		config.NetworkStatus = status
	}
}

// WithNotifier sets the notifier receiving update events.
func WithNotifier[T any](notifier *Notifier) Option[T] {
	return func(config *Config[T]) {
		config.Notifier = notifier
	}
}

// WithStatsCollector sets the stats collector for the service.
func WithStatsCollector[T any](collector stats.ICollector) Option[T] {
	return func(config *Config[T]) {
		config.StatsCollector = collector
	}
}

// WithStatsCollectorName selects the stats collector from the registry by
// name ("default"). Resolution happens in New, which rejects unknown names.
func WithStatsCollectorName[T any](name string) Option[T] {
	return func(config *Config[T]) {
		config.StatsCollectorName = name
	}
}

// WithClock sets the time source, allowing tests to control throttling windows.
func WithClock[T any](clock func() time.Time) Option[T] {
	return func(config *Config[T]) {
		config.Clock = clock
	}
}

// WithLoadTimeout bounds a full settings load.
func WithLoadTimeout[T any](timeout time.Duration) Option[T] {
	return func(config *Config[T]) {
		config.LoadTimeout = timeout
	}
}

// WithRefreshInterval sets the minimum cache entry age before a fast local
// read schedules a background remote refresh.
func WithRefreshInterval[T any](interval time.Duration) Option[T] {
	return func(config *Config[T]) {
		config.RefreshInterval = interval
	}
}

// WithPushThrottle sets the minimum interval between outbound remote pushes
// for the module. Throttled pushes are coalesced, never dropped.
func WithPushThrottle[T any](throttle time.Duration) Option[T] {
	return func(config *Config[T]) {
		config.PushThrottle = throttle
	}
}
