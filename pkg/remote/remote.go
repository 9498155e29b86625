// Package remote defines the network client (interface + HTTP implementation)
// for the settings remote endpoints. The remote is a best-effort enhancement
// over durable local storage: every consumer of this package treats failures
// as recoverable and falls back to local data.
package remote

import (
	"context"
)

// RPCError represents a transport-level error with the failing operation and module attached.
type RPCError struct {
	Op     string
	Module string
	Err    error
}

func (e *RPCError) Error() string {
	if e == nil {
		return ""
	}

	return e.Op + "(" + e.Module + "): " + e.Err.Error()
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *RPCError) Unwrap() error {
	return e.Err
}

// Client defines the remote operations the settings service needs. Payloads
// cross the wire as serialized records; the service owns typed decoding.
// A found=false return means the remote has no data yet, which is not an error.
type Client interface {
	// GetModule fetches the full settings record of a module.
	GetModule(ctx context.Context, module string) ([]byte, bool, error)
	// GetSetting fetches a single field of a module's settings.
	GetSetting(ctx context.Context, module, key string) ([]byte, bool, error)
	// PutModule persists the full settings record of a module.
	PutModule(ctx context.Context, module string, data []byte) error
	// PutSetting persists a single field of a module's settings.
	PutSetting(ctx context.Context, module, key string, data []byte) error
	// Health probes the remote endpoint.
	Health(ctx context.Context) error
}
