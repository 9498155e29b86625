// Package settingsync reconciles settings values across four layers: an
// in-memory reference, a process-local cache with adaptive expiry, durable
// local storage, and a best-effort remote endpoint. Reads never wait on the
// network except on an uncached cold module, and even then only up to a hard
// timeout before degrading to local data or compiled-in defaults.
package settingsync

// Source identifies the layer that satisfied a settings read.
type Source string

const (
	// SourceCache means the value came from the in-process cache.
	SourceCache Source = "cache"
	// SourceMemory means the value came from the service's in-memory reference.
	SourceMemory Source = "memory"
	// SourceDurable means the value came from durable local storage.
	SourceDurable Source = "durable"
	// SourceRemote means the value came from the remote endpoint.
	SourceRemote Source = "remote"
	// SourceDefaults means the value is a copy of the compiled-in defaults.
	SourceDefaults Source = "defaults"
)

// String returns the string representation of a Source.
func (s Source) String() string {
	return string(s)
}

// Result is a tagged settings read. Degraded is empty for a normal read and
// names the reason when the value is a fallback (load timeout, validation
// failure, storage error), so callers and tests can observe degradation
// instead of scraping logs.
type Result[T any] struct {
	Value    T
	Source   Source
	Degraded string
}

// Ok reports whether the read completed without degradation.
func (r Result[T]) Ok() bool {
	return r.Degraded == ""
}

// ok builds a non-degraded result.
func ok[T any](value T, source Source) Result[T] {
	return Result[T]{Value: value, Source: source}
}

// degraded builds a fallback result with the given reason.
func degraded[T any](value T, source Source, reason string) Result[T] {
	return Result[T]{Value: value, Source: source, Degraded: reason}
}
