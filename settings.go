package settingsync

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hyp3rd/ewrap"
	"golang.org/x/sync/singleflight"

	"github.com/hyp3rd/settingsync/internal/libs/serializer"
	"github.com/hyp3rd/settingsync/internal/sentinel"
	"github.com/hyp3rd/settingsync/pkg/store"
	"github.com/hyp3rd/settingsync/stats"
)

// Manager is the per-module settings service. It owns the module's in-memory
// reference and durable slot exclusively; the cache and durable store are
// shared across modules, keyed by module name, with no cross-module aliasing.
type Manager[T any] struct {
	module string
	config *Config[T]

	mu         sync.RWMutex
	current    *T        // in-memory reference, nil until first load or save
	lastSync   time.Time // last completed remote reconciliation
	lastSource Source    // layer that satisfied the most recent read
	syncing    bool      // manual/reconnect sync in progress

	group singleflight.Group // deduplicates concurrent full loads

	pushMu      sync.Mutex
	lastPush    time.Time
	pendingPush *T // latest coalesced value awaiting the throttle window
	pushTimer   *time.Timer

	runner         *taskRunner
	unsubscribeNet func()
	closeOnce      sync.Once
}

// New creates the settings service for one module. The defaults, store, and
// any remote endpoint come from the options; see NewConfig for the baseline.
func New[T any](module string, options ...Option[T]) (*Manager[T], error) {
	if strings.TrimSpace(module) == "" {
		return nil, sentinel.ErrInvalidModule
	}

	config := NewConfig[T]()
	ApplyOptions(config, options...)

	if config.Store == nil {
		return nil, sentinel.ErrNilStore
	}

	// Name-based selections resolve through the registries here, so an
	// unknown name fails the constructor instead of a later operation.
	if config.SerializerName != "" {
		ser, err := serializer.New(config.SerializerName)
		if err != nil {
			return nil, err
		}

		config.Serializer = ser
	}

	if config.StatsCollectorName != "" {
		collector, err := stats.NewCollector(config.StatsCollectorName)
		if err != nil {
			return nil, err
		}

		config.StatsCollector = collector
	}

	manager := &Manager[T]{
		module: module,
		config: config,
		runner: newTaskRunner(context.Background()),
	}

	manager.unsubscribeNet = config.NetworkStatus.Subscribe(func(online bool) {
		if online {
			manager.runner.submit(func(ctx context.Context) {
				if _, err := manager.SyncWithRemote(ctx); err != nil {
					manager.config.Logger.Printf("settingsync: %s: sync on reconnect failed: %v", manager.module, err)
				}
			})

			return
		}

		manager.config.Logger.Printf("settingsync: %s: network offline, serving local data", manager.module)
	})

	return manager, nil
}

// Module returns the settings domain this service owns.
func (m *Manager[T]) Module() string {
	return m.module
}

// slotKey returns the durable storage slot key for this module.
func (m *Manager[T]) slotKey() string {
	return store.SlotKey(m.module)
}

// GetSettings resolves the current settings value. See Load for the layered
// resolution; this variant drops the source tag.
func (m *Manager[T]) GetSettings(ctx context.Context) (T, error) {
	result, err := m.Load(ctx)

	return result.Value, err
}

// Load resolves the current settings value with its source attached.
//
// Concurrent calls for the same module share one underlying load. The load
// races the configured timeout; on expiry the caller degrades to cache,
// durable storage, or defaults, while the load itself keeps running in the
// background so its result can improve a later read.
func (m *Manager[T]) Load(ctx context.Context) (Result[T], error) {
	start := time.Now()
	defer func() {
		m.record(stats.StatLoadDuration, time.Since(start).Nanoseconds())
	}()

	resultCh := m.group.DoChan(m.module, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(m.runner.ctx, m.config.LoadTimeout)
		defer cancel()

		return m.load(loadCtx), nil
	})

	timer := time.NewTimer(m.config.LoadTimeout)
	defer timer.Stop()

	select {
	case shared := <-resultCh:
		result := shared.Val.(Result[T])
		m.setLastSource(result.Source)

		if !result.Ok() {
			m.incr(stats.StatDegradations)
		}

		return result, nil
	case <-timer.C:
		result := m.fallback("load timeout")
		m.setLastSource(result.Source)
		m.incr(stats.StatDegradations)

		return result, nil
	case <-ctx.Done():
		result := m.fallback("context done: " + ctx.Err().Error())
		m.setLastSource(result.Source)
		m.incr(stats.StatDegradations)

		return result, nil
	}
}

// load walks the layers in priority order: cache, memory, durable, defaults.
// The network is never consulted inline except through the scheduled
// background refreshes, which cannot block this path.
func (m *Manager[T]) load(ctx context.Context) Result[T] {
	// Cache first: instant, and a hit may still schedule an idle refresh when
	// the entry has not been updated recently.
	if m.cacheEnabled() {
		if cached, found := m.config.Cache.Get(m.module); found {
			if value, castOK := cached.(T); castOK {
				m.maybeScheduleRefresh()

				return ok(value, SourceCache)
			}
		}
	}

	// In-memory reference next.
	m.mu.RLock()
	current := m.current
	m.mu.RUnlock()

	if current != nil {
		return ok(*current, SourceMemory)
	}

	// Durable storage: parse, validate, promote into memory and cache. Any
	// failure along the way carries through to the defaults as a degradation
	// reason, so callers can tell a true cold module from a broken layer.
	reason := ""

	data, found, err := m.config.Store.Get(ctx, m.slotKey())
	if err != nil {
		reason = "storage error"

		m.config.Logger.Printf("settingsync: %s: durable read failed: %v", m.module, err)
	}

	if found {
		var value T
		if err = m.config.Serializer.Unmarshal(data, &value); err == nil {
			if err = m.validate(value); err == nil {
				m.setCurrent(value)
				m.incr(stats.StatDurableReads)
				m.scheduleRefresh()

				return ok(value, SourceDurable)
			}

			reason = "validation failure"

			m.config.Logger.Printf("settingsync: %s: durable record failed validation, using defaults", m.module)
		} else {
			reason = "storage error"

			m.config.Logger.Printf("settingsync: %s: durable record unreadable: %v", m.module, err)
		}
	}

	// Nothing local: hand out a copy of the defaults and let a background load
	// populate the layers for next time. The copy goes into the cache so cold
	// modules warmed by the preloader resolve instantly, but not into the
	// in-memory reference, which is reserved for saved or synced data.
	defaults := m.copyDefaults()

	if m.remoteAvailable() {
		m.scheduleRefresh()
	}

	if reason != "" {
		// A broken layer is not a cold module: keep the defaults out of the
		// cache so the next read retries the layers instead of hiding the
		// failure behind a cache hit.
		m.incr(stats.StatDegradations)

		return degraded(defaults, SourceDefaults, reason)
	}

	if m.cacheEnabled() {
		m.config.Cache.Set(m.module, defaults)
	}

	return ok(defaults, SourceDefaults)
}

// fallback resolves a degraded value after a load timeout or cancellation:
// cache, then durable storage, then defaults.
func (m *Manager[T]) fallback(reason string) Result[T] {
	if m.cacheEnabled() {
		if cached, found := m.config.Cache.Get(m.module); found {
			if value, castOK := cached.(T); castOK {
				return degraded(value, SourceCache, reason)
			}
		}
	}

	fallbackCtx, cancel := context.WithTimeout(context.Background(), m.config.LoadTimeout)
	defer cancel()

	data, found, err := m.config.Store.Get(fallbackCtx, m.slotKey())
	if err == nil && found {
		var value T
		if m.config.Serializer.Unmarshal(data, &value) == nil && m.validate(value) == nil {
			return degraded(value, SourceDurable, reason)
		}
	}

	return degraded(m.copyDefaults(), SourceDefaults, reason)
}

// SaveSettings validates and persists a settings value. The durable write is
// the one failure surfaced to the caller: when it fails neither local nor
// remote durability is guaranteed. Remote push failures are logged only,
// because local persistence already succeeded.
func (m *Manager[T]) SaveSettings(ctx context.Context, value T) error {
	start := time.Now()
	defer func() {
		m.record(stats.StatSaveDuration, time.Since(start).Nanoseconds())
	}()

	if err := m.validate(value); err != nil {
		m.config.Logger.Printf("settingsync: %s: save rejected by validator, substituting defaults", m.module)
		value = m.copyDefaults()
	}

	data, err := m.config.Serializer.Marshal(value)
	if err != nil {
		return ewrap.Wrap(sentinel.ErrDurableWrite, err.Error())
	}

	if err = m.config.Store.Set(ctx, m.slotKey(), data); err != nil {
		return ewrap.Wrap(sentinel.ErrDurableWrite, err.Error())
	}

	m.setCurrent(value)

	if m.remoteAvailable() {
		m.schedulePush(value)
	}

	return nil
}

// ResetSettings clears the module everywhere and restores the defaults. The
// defaults are pushed to the remote endpoint on a best-effort basis.
func (m *Manager[T]) ResetSettings(ctx context.Context) (T, error) {
	defaults := m.copyDefaults()

	if err := m.config.Store.Delete(ctx, m.slotKey()); err != nil {
		m.config.Logger.Printf("settingsync: %s: durable delete failed: %v", m.module, err)
	}

	if m.cacheEnabled() {
		m.config.Cache.Invalidate(m.module)
	}

	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if m.remoteAvailable() {
		m.schedulePush(defaults)
	}

	return defaults, nil
}

// SettingValue resolves one field of the settings value through the same
// layered cascade as a full read. A field missing locally is looked up on the
// remote field endpoint with its own short timeout and no retries.
func (m *Manager[T]) SettingValue(ctx context.Context, key string) (any, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "key")
	}

	result, err := m.Load(ctx)
	if err != nil {
		return nil, err
	}

	fields, err := m.toFields(result.Value)
	if err != nil {
		return nil, err
	}

	if value, found := fields[key]; found && value != nil {
		return value, nil
	}

	if m.remoteAvailable() {
		data, found, remoteErr := m.config.Remote.GetSetting(ctx, m.module, key)
		if remoteErr != nil {
			m.config.Logger.Printf("settingsync: %s: remote field read %q failed: %v", m.module, key, remoteErr)
		} else if found {
			var value any
			if decodeErr := m.config.Serializer.Unmarshal(data, &value); decodeErr == nil {
				m.publish(Event{Type: EventSettingUpdated, Module: m.module, Key: key})

				return value, nil
			}
		}
	}

	return nil, ewrap.Wrap(sentinel.ErrSettingNotFound, key)
}

// UpdateSettingValue mutates one field and persists the whole settings value.
// A full load runs first so the rest of the object is populated before the
// mutation; there is no partial-document durable or remote module write.
func (m *Manager[T]) UpdateSettingValue(ctx context.Context, key string, value any) error {
	if strings.TrimSpace(key) == "" {
		return ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "key")
	}

	result, err := m.Load(ctx)
	if err != nil {
		return err
	}

	fields, err := m.toFields(result.Value)
	if err != nil {
		return err
	}

	fields[key] = value

	updated, err := m.fromFields(fields)
	if err != nil {
		return err
	}

	return m.SaveSettings(ctx, updated)
}

// SyncWithRemote reconciles with the remote endpoint: remote data wins when
// present, otherwise the current local value is pushed. Reports whether a sync
// occurred. Unlike the background paths, manual reconciliation surfaces its
// error.
func (m *Manager[T]) SyncWithRemote(ctx context.Context) (bool, error) {
	if m.config.Remote == nil {
		return false, nil
	}

	if !m.config.NetworkStatus.Online() {
		return false, sentinel.ErrOffline
	}

	m.setSyncing(true)
	defer m.setSyncing(false)

	data, found, err := m.config.Remote.GetModule(ctx, m.module)
	if err != nil {
		return false, ewrap.Wrap(sentinel.ErrRemoteUnavailable, err.Error())
	}

	if found {
		if err = m.applyRemote(ctx, data); err != nil {
			return false, err
		}

		return true, nil
	}

	// No remote data yet: push what we have.
	result, err := m.Load(ctx)
	if err != nil {
		return false, err
	}

	payload, err := m.config.Serializer.Marshal(result.Value)
	if err != nil {
		return false, ewrap.Wrap(err, "marshal local value")
	}

	if err = m.config.Remote.PutModule(ctx, m.module, payload); err != nil {
		return false, ewrap.Wrap(sentinel.ErrRemoteUnavailable, err.Error())
	}

	m.markSynced()
	m.incr(stats.StatPushes)

	return true, nil
}

// Metadata returns a snapshot of the service's current status.
func (m *Manager[T]) Metadata() Metadata {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Metadata{
		Module:         m.module,
		StorageMode:    m.lastSource,
		Cacheable:      m.cacheEnabled(),
		LastSync:       m.lastSync,
		Online:         m.config.NetworkStatus.Online(),
		SyncInProgress: m.syncing,
	}
}

// Warm loads the module's settings, populating the cache as a side effect.
func (m *Manager[T]) Warm(ctx context.Context) error {
	_, err := m.GetSettings(ctx)

	return err
}

// Close flushes any coalesced push, cancels background work, and detaches the
// network-status listener. The service must not be used afterwards.
func (m *Manager[T]) Close() error {
	m.closeOnce.Do(func() {
		m.unsubscribeNet()

		m.pushMu.Lock()
		if m.pushTimer != nil {
			m.pushTimer.Stop()
			m.pushTimer = nil
		}
		pending := m.pendingPush
		m.pendingPush = nil
		m.pushMu.Unlock()

		if pending != nil && m.remoteAvailable() {
			flushCtx, cancel := context.WithTimeout(context.Background(), m.config.LoadTimeout)
			m.push(flushCtx, *pending)
			cancel()
		}

		m.runner.stop()
	})

	return nil
}

// maybeScheduleRefresh schedules a background refresh after a cache hit when
// the entry has not been updated within the refresh interval.
func (m *Manager[T]) maybeScheduleRefresh() {
	if !m.remoteAvailable() || !m.cacheEnabled() {
		return
	}

	entryStats, found := m.config.Cache.EntryStats(m.module)
	if found && entryStats.Age < m.config.RefreshInterval {
		return
	}

	m.scheduleRefresh()
}

// scheduleRefresh submits a non-blocking remote refresh. Failures are logged
// as warnings and swallowed; a refresh can only ever improve a later read.
func (m *Manager[T]) scheduleRefresh() {
	if !m.remoteAvailable() {
		return
	}

	m.runner.submit(func(ctx context.Context) {
		refreshCtx, cancel := context.WithTimeout(ctx, m.config.LoadTimeout)
		defer cancel()

		data, found, err := m.config.Remote.GetModule(refreshCtx, m.module)
		if err != nil {
			m.config.Logger.Printf("settingsync: %s: background refresh failed: %v", m.module, err)

			return
		}

		if !found {
			return
		}

		m.mu.RLock()
		cold := m.current == nil
		m.mu.RUnlock()

		if err = m.applyRemote(refreshCtx, data); err != nil {
			m.config.Logger.Printf("settingsync: %s: background refresh rejected: %v", m.module, err)

			return
		}

		if cold {
			m.incr(stats.StatRemoteLoads)
		}
	})
}

// applyRemote decodes and validates a remote record, then writes it through
// every local layer and emits the module-updated notification.
func (m *Manager[T]) applyRemote(ctx context.Context, data []byte) error {
	var value T
	if err := m.config.Serializer.Unmarshal(data, &value); err != nil {
		return ewrap.Wrap(err, "decode remote record")
	}

	if err := m.validate(value); err != nil {
		return ewrap.Wrap(sentinel.ErrValidationFailed, err.Error())
	}

	record, err := m.config.Serializer.Marshal(value)
	if err != nil {
		return ewrap.Wrap(err, "re-encode remote record")
	}

	if err = m.config.Store.Set(ctx, m.slotKey(), record); err != nil {
		m.config.Logger.Printf("settingsync: %s: durable write after refresh failed: %v", m.module, err)
	}

	m.setCurrent(value)
	m.markSynced()
	m.incr(stats.StatRefreshes)
	m.publish(Event{Type: EventModuleUpdated, Module: m.module})

	return nil
}

// schedulePush sends the value to the remote endpoint, coalescing saves that
// land inside the throttle window: the latest value always wins and is flushed
// when the window reopens, so rapid repeated saves cannot lose their final
// state.
func (m *Manager[T]) schedulePush(value T) {
	m.pushMu.Lock()
	defer m.pushMu.Unlock()

	now := m.config.Clock()
	elapsed := now.Sub(m.lastPush)

	if elapsed >= m.config.PushThrottle && m.pendingPush == nil {
		m.lastPush = now

		m.runner.submit(func(ctx context.Context) {
			m.push(ctx, value)
		})

		return
	}

	m.pendingPush = &value
	m.incr(stats.StatPushesCoalesced)

	if m.pushTimer == nil {
		delay := m.config.PushThrottle - elapsed
		if delay < 0 {
			delay = 0
		}

		m.pushTimer = time.AfterFunc(delay, m.flushPendingPush)
	}
}

// flushPendingPush sends the coalesced value once the throttle window reopens.
func (m *Manager[T]) flushPendingPush() {
	m.pushMu.Lock()
	pending := m.pendingPush
	m.pendingPush = nil
	m.pushTimer = nil

	if pending != nil {
		m.lastPush = m.config.Clock()
	}
	m.pushMu.Unlock()

	if pending == nil {
		return
	}

	m.runner.submit(func(ctx context.Context) {
		m.push(ctx, *pending)
	})
}

// push performs one outbound module write. Failures are logged, never
// surfaced: the durable write that preceded this push already succeeded.
func (m *Manager[T]) push(ctx context.Context, value T) {
	data, err := m.config.Serializer.Marshal(value)
	if err != nil {
		m.config.Logger.Printf("settingsync: %s: push encode failed: %v", m.module, err)

		return
	}

	pushCtx, cancel := context.WithTimeout(ctx, m.config.LoadTimeout)
	defer cancel()

	if err = m.config.Remote.PutModule(pushCtx, m.module, data); err != nil {
		m.config.Logger.Printf("settingsync: %s: remote push failed: %v", m.module, err)

		return
	}

	m.markSynced()
	m.incr(stats.StatPushes)
}

// setCurrent updates the in-memory reference and the shared cache.
func (m *Manager[T]) setCurrent(value T) {
	m.mu.Lock()
	m.current = &value
	m.mu.Unlock()

	if m.cacheEnabled() {
		m.config.Cache.Set(m.module, value)
	}
}

// validate runs the module validator, when configured.
func (m *Manager[T]) validate(value T) error {
	if m.config.Validator == nil {
		return nil
	}

	return m.config.Validator(value)
}

// copyDefaults returns a deep copy of the compiled-in defaults so callers can
// never mutate them in place.
func (m *Manager[T]) copyDefaults() T {
	data, err := m.config.Serializer.Marshal(m.config.Defaults)
	if err != nil {
		return m.config.Defaults
	}

	var copied T
	if err = m.config.Serializer.Unmarshal(data, &copied); err != nil {
		return m.config.Defaults
	}

	return copied
}

// toFields projects a settings value onto a field map through the serializer.
func (m *Manager[T]) toFields(value T) (map[string]any, error) {
	data, err := m.config.Serializer.Marshal(value)
	if err != nil {
		return nil, ewrap.Wrap(err, "encode settings value")
	}

	fields := make(map[string]any)
	if err = m.config.Serializer.Unmarshal(data, &fields); err != nil {
		return nil, ewrap.Wrap(err, "project settings value")
	}

	return fields, nil
}

// fromFields rebuilds a settings value from a field map through the serializer.
func (m *Manager[T]) fromFields(fields map[string]any) (T, error) {
	var value T

	data, err := m.config.Serializer.Marshal(fields)
	if err != nil {
		return value, ewrap.Wrap(err, "encode field map")
	}

	if err = m.config.Serializer.Unmarshal(data, &value); err != nil {
		return value, ewrap.Wrap(err, "rebuild settings value")
	}

	return value, nil
}

// cacheEnabled reports whether this module participates in the shared cache.
func (m *Manager[T]) cacheEnabled() bool {
	return m.config.Cacheable && m.config.Cache != nil
}

// remoteAvailable reports whether a remote push or refresh can be attempted.
func (m *Manager[T]) remoteAvailable() bool {
	return m.config.Remote != nil && m.config.NetworkStatus.Online()
}

func (m *Manager[T]) setLastSource(source Source) {
	m.mu.Lock()
	m.lastSource = source
	m.mu.Unlock()
}

func (m *Manager[T]) setSyncing(syncing bool) {
	m.mu.Lock()
	m.syncing = syncing
	m.mu.Unlock()
}

func (m *Manager[T]) markSynced() {
	m.mu.Lock()
	m.lastSync = m.config.Clock()
	m.mu.Unlock()
}

func (m *Manager[T]) publish(event Event) {
	if m.config.Notifier != nil {
		m.config.Notifier.Publish(event)
	}
}

func (m *Manager[T]) incr(stat stats.Stat) {
	if m.config.StatsCollector != nil {
		m.config.StatsCollector.Incr(stat, 1)
	}
}

func (m *Manager[T]) record(stat stats.Stat, value int64) {
	if m.config.StatsCollector != nil {
		m.config.StatsCollector.Timing(stat, value)
	}
}
