// Package stats provides statistics collection for the settingsync service:
// cache hits and misses, load sources, background refreshes, degradations,
// and operation timings.
package stats

import (
	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/settingsync/internal/sentinel"
)

// Stat identifies a statistic tracked by a collector.
type Stat string

const (
	// StatCacheHits counts settings reads served from the cache.
	StatCacheHits Stat = "cache_hits"
	// StatCacheMisses counts settings reads that missed the cache.
	StatCacheMisses Stat = "cache_misses"
	// StatDurableReads counts settings reads served from the durable store.
	StatDurableReads Stat = "durable_reads"
	// StatRemoteLoads counts full loads served by the remote endpoint.
	StatRemoteLoads Stat = "remote_loads"
	// StatRefreshes counts completed background remote refreshes.
	StatRefreshes Stat = "refreshes"
	// StatDegradations counts reads that fell back to a degraded value.
	StatDegradations Stat = "degradations"
	// StatPushes counts outbound remote pushes.
	StatPushes Stat = "pushes"
	// StatPushesCoalesced counts pushes coalesced by the throttle window.
	StatPushesCoalesced Stat = "pushes_coalesced"
	// StatSweepEvictions counts entries evicted by the cache sweep loop.
	StatSweepEvictions Stat = "sweep_evictions"
	// StatLoadDuration records full-load durations in nanoseconds.
	StatLoadDuration Stat = "load_duration"
	// StatSaveDuration records save durations in nanoseconds.
	StatSaveDuration Stat = "save_duration"
)

// String returns the string representation of a Stat.
func (s Stat) String() string {
	return string(s)
}

// StatSummary holds the aggregate values computed for one statistic.
type StatSummary struct {
	Mean     float64
	Median   float64
	Min      int64
	Max      int64
	Values   []int64
	Count    int
	Sum      int64
	Variance float64
}

// Stats maps stat names to their aggregates.
type Stats map[string]*StatSummary

// ICollector is an interface that defines the methods that a stats collector should implement.
type ICollector interface {
	// Incr increments the count of a statistic by the given value.
	Incr(stat Stat, value int64)
	// Decr decrements the count of a statistic by the given value.
	Decr(stat Stat, value int64)
	// Timing records the time it took for an event to occur.
	Timing(stat Stat, value int64)
	// Gauge records the current value of a statistic.
	Gauge(stat Stat, value int64)
	// Histogram records the statistical distribution of a set of values.
	Histogram(stat Stat, value int64)
	// GetStats returns the collected statistics.
	GetStats() Stats
}

// CollectorRegistry manages stats collector constructors.
type CollectorRegistry struct {
	collectors map[string]func() (ICollector, error)
}

// NewCollectorRegistry creates a new collector registry with default collectors pre-registered.
func NewCollectorRegistry() *CollectorRegistry {
	registry := &CollectorRegistry{
		collectors: make(map[string]func() (ICollector, error)),
	}
	// Register the default collector
	registry.Register("default", func() (ICollector, error) {
		collector := NewHistogramStatsCollector()
		if collector == nil {
			return nil, ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "default collector")
		}

		return collector, nil
	})

	return registry
}

// NewEmptyCollectorRegistry creates a new collector registry without default collectors.
// This is useful for testing or when you want to register only specific collectors.
func NewEmptyCollectorRegistry() *CollectorRegistry {
	return &CollectorRegistry{
		collectors: make(map[string]func() (ICollector, error)),
	}
}

// Register registers a new stats collector with the given name.
func (r *CollectorRegistry) Register(name string, createFunc func() (ICollector, error)) {
	r.collectors[name] = createFunc
}

// NewCollector creates a new stats collector.
func (r *CollectorRegistry) NewCollector(statsCollectorName string) (ICollector, error) {
	// Check the parameters.
	if statsCollectorName == "" {
		return nil, ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "statsCollectorName")
	}

	createFunc, ok := r.collectors[statsCollectorName]
	if !ok {
		return nil, ewrap.New("stats collector not found: " + statsCollectorName)
	}

	return createFunc()
}

// NewCollector creates a new stats collector using a new registry instance with default collectors.
// The statsCollectorName parameter is used to select the stats collector from the default collectors.
func NewCollector(statsCollectorName string) (ICollector, error) {
	registry := NewCollectorRegistry()

	return registry.NewCollector(statsCollectorName)
}
