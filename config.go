package settingsync

import (
	"time"

	"github.com/hyp3rd/settingsync/internal/constants"
	"github.com/hyp3rd/settingsync/internal/libs/serializer"
	"github.com/hyp3rd/settingsync/pkg/cache"
	"github.com/hyp3rd/settingsync/pkg/remote"
	"github.com/hyp3rd/settingsync/pkg/store"
	"github.com/hyp3rd/settingsync/stats"
)

// Validator checks a settings value against the module's schema. A nil
// validator accepts every value.
type Validator[T any] func(value T) error

// Config wraps all the configuration options to set up a settings service for
// one module.
type Config[T any] struct {
	// Defaults is the compiled-in settings value returned when no layer has data.
	Defaults T
	// Validator is the module schema check. Invalid values degrade to Defaults.
	Validator Validator[T]
	// Store is the durable storage backend. Required.
	Store store.Store
	// Remote is the remote endpoint client. Nil disables remote sync.
	Remote remote.Client
	// Cache is the shared settings cache. Nil disables caching.
	Cache *cache.Cache
	// Cacheable gates participation in the shared cache.
	Cacheable bool
	// Serializer converts settings values to and from durable records.
	Serializer serializer.ISerializer
	// SerializerName selects a registered serializer by name instead.
	SerializerName string
	// Logger receives warnings from swallowed remote failures.
	Logger Logger
	// NetworkStatus is the injected connectivity provider.
	NetworkStatus NetworkStatus
	// Notifier receives module-updated and setting-updated events.
	Notifier *Notifier
	// StatsCollector records service statistics. Nil disables collection.
	StatsCollector stats.ICollector
	// StatsCollectorName selects a registered stats collector by name instead.
	StatsCollectorName string
	// Clock is the time source, replaceable in tests.
	Clock func() time.Time

	// LoadTimeout bounds a full load including the cold-module remote fetch.
	LoadTimeout time.Duration
	// RefreshInterval is the minimum entry age before a cache hit schedules a
	// background remote refresh.
	RefreshInterval time.Duration
	// PushThrottle is the minimum interval between outbound remote pushes.
	PushThrottle time.Duration
}

// NewConfig returns a new `Config` with the documented defaults:
//   - JSON serializer
//   - caching enabled (when a cache is supplied)
//   - always-online network status
//   - 5s load timeout, 60s refresh interval, 5s push throttle
//
// Each of the above can be overridden through the `Option` functions.
func NewConfig[T any]() *Config[T] {
	return &Config[T]{
		Cacheable:       true,
		Serializer:      &serializer.DefaultJSONSerializer{},
		Logger:          noopLogger{},
		NetworkStatus:   AlwaysOnline{},
		Clock:           time.Now,
		LoadTimeout:     constants.DefaultLoadTimeout,
		RefreshInterval: constants.DefaultRefreshInterval,
		PushThrottle:    constants.DefaultPushThrottle,
	}
}
