package settingsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/longbridgeapp/assert"

	"github.com/hyp3rd/settingsync/internal/sentinel"
	"github.com/hyp3rd/settingsync/pkg/cache"
	"github.com/hyp3rd/settingsync/pkg/store"
)

type themeSettings struct {
	Mode      string `json:"mode"`
	FontScale int    `json:"fontScale"`
}

var themeDefaults = themeSettings{Mode: "light", FontScale: 100}

// fakeRemote is an in-memory remote endpoint with call counters.
type fakeRemote struct {
	mu       sync.Mutex
	records  map[string][]byte
	fields   map[string][]byte
	getCalls int
	putCalls int
	lastPut  []byte
	err      error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		records: make(map[string][]byte),
		fields:  make(map[string][]byte),
	}
}

func (r *fakeRemote) GetModule(_ context.Context, module string) ([]byte, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.getCalls++

	if r.err != nil {
		return nil, false, r.err
	}

	data, found := r.records[module]

	return data, found, nil
}

func (r *fakeRemote) GetSetting(_ context.Context, module, key string) ([]byte, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return nil, false, r.err
	}

	data, found := r.fields[module+"/"+key]

	return data, found, nil
}

func (r *fakeRemote) PutModule(_ context.Context, module string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}

	r.putCalls++
	r.records[module] = append([]byte(nil), data...)
	r.lastPut = append([]byte(nil), data...)

	return nil
}

func (r *fakeRemote) PutSetting(_ context.Context, module, key string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.fields[module+"/"+key] = append([]byte(nil), data...)

	return nil
}

func (r *fakeRemote) Health(_ context.Context) error {
	return nil
}

func (r *fakeRemote) puts() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.putCalls
}

func (r *fakeRemote) lastPushed() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]byte(nil), r.lastPut...)
}

// slowStore wraps a store with a per-read delay that honors cancellation.
type slowStore struct {
	store.Store

	delay    time.Duration
	mu       sync.Mutex
	getCalls int
}

func (s *slowStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	s.getCalls++
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}

	return s.Store.Get(ctx, key)
}

func (s *slowStore) gets() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getCalls
}

// failingStore rejects writes.
type failingStore struct {
	store.Store
}

func (failingStore) Set(_ context.Context, _ string, _ []byte) error {
	return errors.New("disk full")
}

// brokenReadStore rejects reads.
type brokenReadStore struct {
	store.Store
}

func (brokenReadStore) Get(_ context.Context, _ string) ([]byte, bool, error) {
	return nil, false, errors.New("i/o error")
}

func newThemeManager(t *testing.T, options ...Option[themeSettings]) *Manager[themeSettings] {
	t.Helper()

	base := []Option[themeSettings]{
		WithDefaults[themeSettings](themeDefaults),
		WithStore[themeSettings](store.NewMemory()),
	}

	manager, err := New[themeSettings]("theme", append(base, options...)...)
	assert.Nil(t, err)

	t.Cleanup(func() { _ = manager.Close() })

	return manager
}

func TestNew_Validation(t *testing.T) {
	_, err := New[themeSettings]("  ", WithStore[themeSettings](store.NewMemory()))
	assert.Equal(t, sentinel.ErrInvalidModule, err)

	_, err = New[themeSettings]("theme")
	assert.Equal(t, sentinel.ErrNilStore, err)
}

func TestNew_NameBasedSelections(t *testing.T) {
	durable := store.NewMemory()

	_, err := New[themeSettings]("theme",
		WithStore[themeSettings](durable),
		WithSerializerName[themeSettings]("xml"),
	)
	assert.True(t, errors.Is(err, sentinel.ErrSerializerNotFound))

	_, err = New[themeSettings]("theme",
		WithStore[themeSettings](durable),
		WithStatsCollectorName[themeSettings]("prometheus"),
	)
	assert.NotNil(t, err)

	manager, err := New[themeSettings]("theme",
		WithDefaults[themeSettings](themeDefaults),
		WithStore[themeSettings](durable),
		WithSerializerName[themeSettings]("msgpack"),
		WithStatsCollectorName[themeSettings]("default"),
	)
	assert.Nil(t, err)

	defer manager.Close()

	ctx := context.Background()

	err = manager.SaveSettings(ctx, themeSettings{Mode: "dark", FontScale: 120})
	assert.Nil(t, err)

	// The durable record is a msgpack document, not JSON.
	data, found, err := durable.Get(ctx, "settings_theme")
	assert.Nil(t, err)
	assert.True(t, found)

	if len(data) == 0 || data[0] == '{' {
		t.Fatalf("expected a msgpack record, got %q", data)
	}

	value, err := manager.GetSettings(ctx)
	assert.Nil(t, err)
	assert.Equal(t, "dark", value.Mode)
}

func TestManager_ColdLoadServesDefaults(t *testing.T) {
	manager := newThemeManager(t)

	result, err := manager.Load(context.Background())
	assert.Nil(t, err)
	assert.True(t, result.Ok())
	assert.Equal(t, SourceDefaults, result.Source)
	assert.Equal(t, themeDefaults, result.Value)

	meta := manager.Metadata()
	assert.Equal(t, "theme", meta.Module)
	assert.Equal(t, SourceDefaults, meta.StorageMode)
}

func TestManager_DefaultsCopyIsIsolated(t *testing.T) {
	manager := newThemeManager(t)

	first, err := manager.GetSettings(context.Background())
	assert.Nil(t, err)

	first.Mode = "mutated"

	second, err := manager.GetSettings(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, "light", second.Mode)
}

func TestManager_SaveThenLoad(t *testing.T) {
	settingsCache := cache.New(cache.WithSweepInterval(0))
	defer settingsCache.Stop()

	manager := newThemeManager(t, WithCache[themeSettings](settingsCache))

	ctx := context.Background()

	err := manager.SaveSettings(ctx, themeSettings{Mode: "dark", FontScale: 120})
	assert.Nil(t, err)

	result, err := manager.Load(ctx)
	assert.Nil(t, err)
	assert.True(t, result.Ok())
	assert.Equal(t, SourceCache, result.Source)
	assert.Equal(t, themeSettings{Mode: "dark", FontScale: 120}, result.Value)
}

func TestManager_SaveThenLoadWithoutCache(t *testing.T) {
	manager := newThemeManager(t)

	ctx := context.Background()

	err := manager.SaveSettings(ctx, themeSettings{Mode: "dark", FontScale: 120})
	assert.Nil(t, err)

	result, err := manager.Load(ctx)
	assert.Nil(t, err)
	assert.Equal(t, SourceMemory, result.Source)
	assert.Equal(t, "dark", result.Value.Mode)
}

func TestManager_RestartRoundtrip(t *testing.T) {
	ctx := context.Background()
	durable := store.NewMemory()

	first, err := New[themeSettings]("theme",
		WithDefaults[themeSettings](themeDefaults),
		WithStore[themeSettings](durable),
	)
	assert.Nil(t, err)

	err = first.SaveSettings(ctx, themeSettings{Mode: "dark", FontScale: 120})
	assert.Nil(t, err)
	assert.Nil(t, first.Close())

	// A fresh service over the same durable store resumes from disk.
	second, err := New[themeSettings]("theme",
		WithDefaults[themeSettings](themeDefaults),
		WithStore[themeSettings](durable),
	)
	assert.Nil(t, err)

	defer second.Close()

	result, err := second.Load(ctx)
	assert.Nil(t, err)
	assert.Equal(t, SourceDurable, result.Source)
	assert.Equal(t, themeSettings{Mode: "dark", FontScale: 120}, result.Value)

	// The durable slot uses the module's prefixed key.
	_, found, err := durable.Get(ctx, "settings_theme")
	assert.Nil(t, err)
	assert.True(t, found)
}

func TestManager_ValidationSubstitutesDefaults(t *testing.T) {
	manager := newThemeManager(t, WithValidator[themeSettings](func(s themeSettings) error {
		if s.FontScale < 50 || s.FontScale > 200 {
			return errors.New("font scale out of range")
		}

		return nil
	}))

	ctx := context.Background()

	// An invalid value is replaced by the defaults, not surfaced as an error.
	err := manager.SaveSettings(ctx, themeSettings{Mode: "dark", FontScale: 9000})
	assert.Nil(t, err)

	value, err := manager.GetSettings(ctx)
	assert.Nil(t, err)
	assert.Equal(t, themeDefaults, value)
}

func TestManager_DurableReadFailureDegrades(t *testing.T) {
	settingsCache := cache.New(cache.WithSweepInterval(0))
	defer settingsCache.Stop()

	manager := newThemeManager(t,
		WithStore[themeSettings](brokenReadStore{Store: store.NewMemory()}),
		WithCache[themeSettings](settingsCache),
	)

	result, err := manager.Load(context.Background())
	assert.Nil(t, err)
	assert.False(t, result.Ok())
	assert.Equal(t, SourceDefaults, result.Source)
	assert.Equal(t, "storage error", result.Degraded)
	assert.Equal(t, themeDefaults, result.Value)

	// The degraded defaults stay out of the cache; the next read retries the
	// layers instead of reporting a healthy cache hit.
	result, err = manager.Load(context.Background())
	assert.Nil(t, err)
	assert.False(t, result.Ok())
	assert.Equal(t, SourceDefaults, result.Source)
}

func TestManager_InvalidDurableRecordDegrades(t *testing.T) {
	ctx := context.Background()
	durable := store.NewMemory()

	err := durable.Set(ctx, "settings_theme", []byte(`{"mode":"dark","fontScale":9000}`))
	assert.Nil(t, err)

	manager := newThemeManager(t,
		WithStore[themeSettings](durable),
		WithValidator[themeSettings](func(s themeSettings) error {
			if s.FontScale < 50 || s.FontScale > 200 {
				return errors.New("font scale out of range")
			}

			return nil
		}),
	)

	result, err := manager.Load(ctx)
	assert.Nil(t, err)
	assert.False(t, result.Ok())
	assert.Equal(t, SourceDefaults, result.Source)
	assert.Equal(t, "validation failure", result.Degraded)
	assert.Equal(t, themeDefaults, result.Value)
}

func TestManager_UnreadableDurableRecordDegrades(t *testing.T) {
	ctx := context.Background()
	durable := store.NewMemory()

	err := durable.Set(ctx, "settings_theme", []byte(`{not json`))
	assert.Nil(t, err)

	manager := newThemeManager(t, WithStore[themeSettings](durable))

	result, err := manager.Load(ctx)
	assert.Nil(t, err)
	assert.False(t, result.Ok())
	assert.Equal(t, SourceDefaults, result.Source)
	assert.Equal(t, "storage error", result.Degraded)
}

func TestManager_DurableWriteFailureSurfaced(t *testing.T) {
	manager := newThemeManager(t, WithStore[themeSettings](failingStore{Store: store.NewMemory()}))

	err := manager.SaveSettings(context.Background(), themeSettings{Mode: "dark", FontScale: 120})
	assert.NotNil(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrDurableWrite))
}

func TestManager_ResetRestoresDefaults(t *testing.T) {
	durable := store.NewMemory()
	manager := newThemeManager(t, WithStore[themeSettings](durable))

	ctx := context.Background()

	err := manager.SaveSettings(ctx, themeSettings{Mode: "dark", FontScale: 120})
	assert.Nil(t, err)

	restored, err := manager.ResetSettings(ctx)
	assert.Nil(t, err)
	assert.Equal(t, themeDefaults, restored)

	_, found, err := durable.Get(ctx, "settings_theme")
	assert.Nil(t, err)
	assert.False(t, found)

	result, err := manager.Load(ctx)
	assert.Nil(t, err)
	assert.Equal(t, SourceDefaults, result.Source)

	// Reset is idempotent.
	restored, err = manager.ResetSettings(ctx)
	assert.Nil(t, err)
	assert.Equal(t, themeDefaults, restored)
}

func TestManager_SettingValue(t *testing.T) {
	manager := newThemeManager(t)

	ctx := context.Background()

	err := manager.SaveSettings(ctx, themeSettings{Mode: "dark", FontScale: 120})
	assert.Nil(t, err)

	mode, err := manager.SettingValue(ctx, "mode")
	assert.Nil(t, err)
	assert.Equal(t, "dark", mode)

	// Numbers come back as float64 through the JSON projection.
	scale, err := manager.SettingValue(ctx, "fontScale")
	assert.Nil(t, err)
	assert.Equal(t, float64(120), scale)

	_, err = manager.SettingValue(ctx, "missing")
	assert.True(t, errors.Is(err, sentinel.ErrSettingNotFound))

	_, err = manager.SettingValue(ctx, "  ")
	assert.True(t, errors.Is(err, sentinel.ErrParamCannotBeEmpty))
}

func TestManager_UpdateSettingValue(t *testing.T) {
	manager := newThemeManager(t)

	ctx := context.Background()

	err := manager.SaveSettings(ctx, themeSettings{Mode: "dark", FontScale: 120})
	assert.Nil(t, err)

	err = manager.UpdateSettingValue(ctx, "mode", "light")
	assert.Nil(t, err)

	value, err := manager.GetSettings(ctx)
	assert.Nil(t, err)
	assert.Equal(t, "light", value.Mode)
	assert.Equal(t, 120, value.FontScale)
}

func TestManager_ConcurrentLoadsShareOneRead(t *testing.T) {
	durable := &slowStore{Store: store.NewMemory(), delay: 50 * time.Millisecond}
	manager := newThemeManager(t,
		WithStore[themeSettings](durable),
		WithLoadTimeout[themeSettings](2*time.Second),
	)

	var wg sync.WaitGroup

	start := make(chan struct{})

	for i := 0; i < 10; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			<-start

			result, err := manager.Load(context.Background())
			assert.Nil(t, err)
			assert.Equal(t, SourceDefaults, result.Source)
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, 1, durable.gets())
}

func TestManager_LoadTimeoutDegradesToDefaults(t *testing.T) {
	durable := &slowStore{Store: store.NewMemory(), delay: 300 * time.Millisecond}
	manager := newThemeManager(t,
		WithStore[themeSettings](durable),
		WithLoadTimeout[themeSettings](50*time.Millisecond),
	)

	result, err := manager.Load(context.Background())
	assert.Nil(t, err)
	assert.False(t, result.Ok())
	assert.Equal(t, SourceDefaults, result.Source)
	assert.Equal(t, themeDefaults, result.Value)
}

func TestManager_LoadTimeoutDegradesToCachedValue(t *testing.T) {
	settingsCache := cache.New(cache.WithSweepInterval(0))
	defer settingsCache.Stop()

	durable := &slowStore{Store: store.NewMemory(), delay: 300 * time.Millisecond}
	manager := newThemeManager(t,
		WithStore[themeSettings](durable),
		WithCache[themeSettings](settingsCache),
		WithLoadTimeout[themeSettings](50*time.Millisecond),
	)

	// Seed the cache directly; the durable layer stays slow.
	settingsCache.Set("theme", themeSettings{Mode: "cached", FontScale: 90})

	result, err := manager.Load(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, SourceCache, result.Source)
	assert.Equal(t, "cached", result.Value.Mode)
}
