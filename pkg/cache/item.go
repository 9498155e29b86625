package cache

import (
	"sync"
	"time"

	"github.com/ugorji/go/codec"

	"github.com/hyp3rd/settingsync/internal/sentinel"
)

// EntryPool is a pool of Entry values.
var EntryPool = sync.Pool{
	New: func() any {
		return &Entry{}
	},
}

// Entry wraps a settings value stored in the cache together with the usage
// statistics that drive its adaptive lifetime.
type Entry struct {
	Value        any       // Value of the entry
	Size         int64     // Size of the serialized value, in bytes
	Timestamp    time.Time // Timestamp of the last write
	LastAccessed time.Time // LastAccessed time of the last read
	AccessCount  uint64    // AccessCount of times the entry has been read
}

// SetSize stores the size of the Entry value in bytes.
func (entry *Entry) SetSize() error {
	var buf []byte

	enc := codec.NewEncoderBytes(&buf, &codec.CborHandle{})
	if err := enc.Encode(entry.Value); err != nil {
		return sentinel.ErrInvalidSize
	}

	entry.Size = int64(len(buf))

	return nil
}

// SizeKB returns the size of the Entry in kilobytes.
func (entry *Entry) SizeKB() float64 {
	return float64(entry.Size) / 1024
}

// Touch updates the last access time of the entry and increments the access count.
// It does not reset the write timestamp, so touching never extends an entry past
// its applicable TTL window.
func (entry *Entry) Touch(now time.Time) {
	entry.LastAccessed = now
	entry.AccessCount++
}

// Age returns how long ago the entry was last written.
func (entry *Entry) Age(now time.Time) time.Duration {
	return now.Sub(entry.Timestamp)
}

// Expired reports whether the entry is past the given TTL.
func (entry *Entry) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(entry.Timestamp) > ttl
}

// Reset clears the entry for reuse through the pool.
func (entry *Entry) Reset() {
	entry.Value = nil
	entry.Size = 0
	entry.Timestamp = time.Time{}
	entry.LastAccessed = time.Time{}
	entry.AccessCount = 0
}
