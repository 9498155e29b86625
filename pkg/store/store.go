// Package store defines the durable storage slots that back settings modules:
// one string-keyed record per module, holding the serialized settings value.
// The durable layer is the offline fallback and the local-first authority; a
// settings save is durable once the store write succeeds, regardless of what
// happens to the remote push.
package store

import (
	"context"

	"github.com/hyp3rd/settingsync/internal/constants"
)

// Store is the interface durable storage backends implement. Keys are slot
// keys (storage prefix + module name); values are serialized settings records.
type Store interface {
	// Get retrieves a record from durable storage.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set saves a record to durable storage.
	Set(ctx context.Context, key string, data []byte) error
	// Delete removes a record from durable storage. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys returns all slot keys present in durable storage.
	Keys(ctx context.Context) ([]string, error)
	// Close releases any resources held by the store.
	Close() error
}

// SlotKey returns the durable storage slot key for a module.
func SlotKey(module string) string {
	return constants.StorageKeyPrefix + module
}
