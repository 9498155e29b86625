package settingsync

import (
	"context"
	"time"
)

// Metadata is a derived, read-only snapshot of a service's current status.
// It is recomputed on demand and never persisted.
type Metadata struct {
	// Module is the settings domain this service owns.
	Module string
	// StorageMode is the layer that satisfied the most recent read.
	StorageMode Source
	// Cacheable reports whether the service uses the shared cache.
	Cacheable bool
	// LastSync is the last time a remote reconciliation completed.
	LastSync time.Time
	// Online is the current network status.
	Online bool
	// SyncInProgress reports whether a manual or reconnect sync is running.
	SyncInProgress bool
}

// Service is the per-module settings interface. It enables middleware to be
// added to the service.
type Service[T any] interface {
	settings[T]
	// Module returns the settings domain this service owns.
	Module() string
	// Metadata returns a snapshot of the service's current status.
	Metadata() Metadata
	// Close cancels background work and detaches network-status listeners.
	Close() error
}

type settings[T any] interface {
	// GetSettings resolves the current settings value. It never fails under
	// normal conditions; errors degrade to cached, durable, or default data.
	GetSettings(ctx context.Context) (T, error)
	// Load is GetSettings with the source and degradation reason attached.
	Load(ctx context.Context) (Result[T], error)
	// SaveSettings validates and persists a settings value locally, then
	// pushes it to the remote endpoint on a best-effort basis.
	SaveSettings(ctx context.Context, value T) error
	// ResetSettings restores the compiled-in defaults everywhere and returns them.
	ResetSettings(ctx context.Context) (T, error)
	// SettingValue resolves a single field of the settings value.
	SettingValue(ctx context.Context, key string) (any, error)
	// UpdateSettingValue mutates a single field and persists the whole value.
	UpdateSettingValue(ctx context.Context, key string, value any) error
	// SyncWithRemote reconciles with the remote endpoint: remote data wins when
	// present, otherwise the local value is pushed. Reports whether a sync occurred.
	SyncWithRemote(ctx context.Context) (bool, error)
}

// Middleware describes a service middleware.
type Middleware[T any] func(Service[T]) Service[T]

// ApplyMiddleware applies middlewares to a service.
func ApplyMiddleware[T any](svc Service[T], mw ...Middleware[T]) Service[T] {
	// Apply each middleware in the chain
	for _, m := range mw {
		svc = m(svc)
	}
	// Return the decorated service
	return svc
}
