// Package attrs provides reusable OpenTelemetry attribute key constants
// to avoid duplication across middlewares. These constants give metrics,
// traces, and logs standardized key names so telemetry data stays consistent
// across the settingsync system.
package attrs

const (
	// AttrModule represents the telemetry attribute key naming the settings
	// module an operation targets. It lets dashboards break service calls
	// down per settings domain.
	AttrModule = "module"
	// AttrKeyLength represents the telemetry attribute key for measuring the
	// length of a setting key in bytes. This metric helps monitor key size
	// distribution across modules.
	AttrKeyLength = "key.len"
	// AttrSource represents the telemetry attribute key recording which layer
	// satisfied a read (cache, memory, durable, remote, or defaults). This
	// metric helps monitor cache effectiveness and remote availability.
	AttrSource = "source"
	// AttrDegraded represents the telemetry attribute key flagging reads that
	// fell back to stale or default data. This metric helps monitor how often
	// the durable or remote layers are unavailable.
	AttrDegraded = "degraded"
	// AttrSynced represents the telemetry attribute key reporting whether a
	// remote reconciliation actually ran. This metric helps distinguish
	// offline no-ops from real syncs.
	AttrSynced = "synced"
)
