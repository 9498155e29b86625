package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hyp3rd/ewrap"
)

const (
	fileMode = 0o600
	dirMode  = 0o750
	// selfWriteGrace suppresses watcher events caused by our own writes.
	selfWriteGrace = time.Second
)

// File is a durable store that persists one file per module slot under a
// directory. Writes go through a temp file and rename so a crash mid-write
// never leaves a truncated record behind.
type File struct {
	dir string

	mu         sync.Mutex
	selfWrites map[string]time.Time

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// FileOption configures a File store.
type FileOption func(*File)

// NewFile creates a file store rooted at dir, creating the directory if needed.
func NewFile(dir string, opts ...FileOption) (*File, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, ewrap.New("file store directory is empty")
	}

	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, ewrap.Wrap(err, "failed to create file store directory")
	}

	fileStore := &File{
		dir:        dir,
		selfWrites: make(map[string]time.Time),
	}

	for _, opt := range opts {
		opt(fileStore)
	}

	return fileStore, nil
}

// path returns the on-disk path of a slot key.
func (f *File) path(key string) string {
	return filepath.Join(f.dir, key)
}

// Get retrieves a record.
func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}

		return nil, false, ewrap.Wrap(err, "failed to read slot "+key)
	}

	return data, true, nil
}

// Set saves a record atomically.
func (f *File) Set(_ context.Context, key string, data []byte) error {
	f.markSelfWrite(key)

	tmp, err := os.CreateTemp(f.dir, key+".tmp-*")
	if err != nil {
		return ewrap.Wrap(err, "failed to create temp file for slot "+key)
	}

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return ewrap.Wrap(err, "failed to write slot "+key)
	}

	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return ewrap.Wrap(err, "failed to close temp file for slot "+key)
	}

	if err = os.Chmod(tmp.Name(), fileMode); err != nil {
		_ = os.Remove(tmp.Name())

		return ewrap.Wrap(err, "failed to chmod slot "+key)
	}

	if err = os.Rename(tmp.Name(), f.path(key)); err != nil {
		_ = os.Remove(tmp.Name())

		return ewrap.Wrap(err, "failed to rename slot "+key)
	}

	return nil
}

// Delete removes a record. Deleting a missing slot is not an error.
func (f *File) Delete(_ context.Context, key string) error {
	f.markSelfWrite(key)

	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return ewrap.Wrap(err, "failed to delete slot "+key)
	}

	return nil
}

// Keys returns all slot keys present.
func (f *File) Keys(_ context.Context) ([]string, error) {
	dirEntries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, ewrap.Wrap(err, "failed to list file store directory")
	}

	keys := make([]string, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() || strings.Contains(dirEntry.Name(), ".tmp-") {
			continue
		}
		keys = append(keys, dirEntry.Name())
	}

	return keys, nil
}

// Watch starts an fsnotify watcher on the store directory and invokes onChange
// with the slot key of every record modified by another process. Events caused
// by this store's own writes are suppressed.
func (f *File) Watch(onChange func(key string)) error {
	if f.watcher != nil {
		return ewrap.New("file store watcher already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return ewrap.Wrap(err, "failed to create file store watcher")
	}

	if err = watcher.Add(f.dir); err != nil {
		_ = watcher.Close()

		return ewrap.Wrap(err, "failed to watch file store directory")
	}

	f.watcher = watcher
	f.done = make(chan struct{})

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}

				key := filepath.Base(event.Name)
				if strings.Contains(key, ".tmp-") || f.isSelfWrite(key) {
					continue
				}

				onChange(key)
			case <-watcher.Errors:
				// Watcher errors are advisory; the store stays usable without events.
			case <-f.done:
				return
			}
		}
	}()

	return nil
}

// markSelfWrite records an own write so the watcher can skip its event.
func (f *File) markSelfWrite(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.selfWrites[key] = time.Now()
}

// isSelfWrite reports whether a watcher event matches a recent own write.
func (f *File) isSelfWrite(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	written, ok := f.selfWrites[key]
	if !ok {
		return false
	}

	if time.Since(written) > selfWriteGrace {
		delete(f.selfWrites, key)

		return false
	}

	return true
}

// Close stops the watcher, if running.
func (f *File) Close() error {
	if f.watcher != nil {
		close(f.done)
		err := f.watcher.Close()
		f.watcher = nil

		if err != nil {
			return ewrap.Wrap(err, "failed to close file store watcher")
		}
	}

	return nil
}
