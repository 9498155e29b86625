package settingsync

import (
	"sync"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/settingsync/internal/sentinel"
	"github.com/hyp3rd/settingsync/pkg/cache"
	"github.com/hyp3rd/settingsync/pkg/remote"
	"github.com/hyp3rd/settingsync/pkg/store"
	"github.com/hyp3rd/settingsync/stats"
)

// Registry guarantees a single service instance per module name. It is an
// explicit dependency, not process-global state: construct one, share it with
// the components that need it, and let tests build their own. Instances are
// stored type-erased and cast back at the use site based on T.
type Registry struct {
	mu       sync.Mutex
	services map[string]any

	// shared construction defaults, applied before per-call options
	cache          *cache.Cache
	store          store.Store
	remote         remote.Client
	logger         Logger
	netStatus      NetworkStatus
	notifier       *Notifier
	statsCollector stats.ICollector
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryCache sets the shared cache handed to every service.
func WithRegistryCache(settingsCache *cache.Cache) RegistryOption {
	return func(r *Registry) { r.cache = settingsCache }
}

// WithRegistryStore sets the shared durable store handed to every service.
func WithRegistryStore(durable store.Store) RegistryOption {
	return func(r *Registry) { r.store = durable }
}

// WithRegistryRemote sets the shared remote client handed to every service.
func WithRegistryRemote(client remote.Client) RegistryOption {
	return func(r *Registry) { r.remote = client }
}

// WithRegistryLogger sets the shared logger handed to every service.
func WithRegistryLogger(logger Logger) RegistryOption {
	return func(r *Registry) { r.logger = logger }
}

// WithRegistryNetworkStatus sets the shared connectivity provider.
func WithRegistryNetworkStatus(status NetworkStatus) RegistryOption {
	return func(r *Registry) { r.netStatus = status }
}

// WithRegistryNotifier sets the shared update notifier.
func WithRegistryNotifier(notifier *Notifier) RegistryOption {
	return func(r *Registry) { r.notifier = notifier }
}

// WithRegistryStatsCollector sets the shared stats collector.
func WithRegistryStatsCollector(collector stats.ICollector) RegistryOption {
	return func(r *Registry) { r.statsCollector = collector }
}

// NewRegistry creates a registry with the given shared dependencies.
func NewRegistry(opts ...RegistryOption) *Registry {
	registry := &Registry{
		services: make(map[string]any),
	}

	for _, opt := range opts {
		opt(registry)
	}

	return registry
}

// GetService returns the registry's service for a module, constructing and
// registering it on first use. The registry's shared dependencies are applied
// first, then the per-call options, so callers can override any of them.
// Requesting an existing module with a different value type is an error.
func GetService[T any](registry *Registry, module string, options ...Option[T]) (*Manager[T], error) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if existing, found := registry.services[module]; found {
		manager, castOK := existing.(*Manager[T])
		if !castOK {
			return nil, ewrap.Wrap(sentinel.ErrInvalidModule, "module "+module+" registered with a different value type")
		}

		return manager, nil
	}

	merged := make([]Option[T], 0, len(options)+7)
	if registry.cache != nil {
		merged = append(merged, WithCache[T](registry.cache))
	}
	if registry.store != nil {
		merged = append(merged, WithStore[T](registry.store))
	}
	if registry.remote != nil {
		merged = append(merged, WithRemote[T](registry.remote))
	}
	if registry.logger != nil {
		merged = append(merged, WithLogger[T](registry.logger))
	}
	if registry.netStatus != nil {
		merged = append(merged, WithNetworkStatus[T](registry.netStatus))
	}
	if registry.notifier != nil {
		merged = append(merged, WithNotifier[T](registry.notifier))
	}
	if registry.statsCollector != nil {
		merged = append(merged, WithStatsCollector[T](registry.statsCollector))
	}
	merged = append(merged, options...)

	manager, err := New[T](module, merged...)
	if err != nil {
		return nil, err
	}

	registry.services[module] = manager

	return manager, nil
}

// Handle returns the type-erased view of a registered module's service.
func (r *Registry) Handle(module string) (ModuleHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, found := r.services[module]
	if !found {
		return nil, false
	}

	handle, castOK := existing.(ModuleHandle)

	return handle, castOK
}

// Modules returns the names of all registered modules.
func (r *Registry) Modules() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	modules := make([]string, 0, len(r.services))
	for module := range r.services {
		modules = append(modules, module)
	}

	return modules
}

// ClearInstances closes every registered service and wipes the registry.
// Intended for test isolation and orderly shutdown.
func (r *Registry) ClearInstances() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for module, existing := range r.services {
		if handle, castOK := existing.(ModuleHandle); castOK {
			_ = handle.Close()
		}
		delete(r.services, module)
	}
}
