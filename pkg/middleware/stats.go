// Package middleware provides service middleware implementations for
// settingsync. This file includes stats middleware that collects and reports
// per-method operation statistics.
package middleware

import (
	"context"
	"time"

	"github.com/hyp3rd/settingsync"
	"github.com/hyp3rd/settingsync/stats"
)

// StatsCollectorMiddleware is a middleware that collects stats. It can and should re-use the same stats collector as the service.
// Must implement the settingsync.Service interface.
type StatsCollectorMiddleware[T any] struct {
	next           settingsync.Service[T]
	statsCollector stats.ICollector
}

// NewStatsCollectorMiddleware returns a new StatsCollectorMiddleware.
func NewStatsCollectorMiddleware[T any](next settingsync.Service[T], statsCollector stats.ICollector) settingsync.Service[T] {
	return &StatsCollectorMiddleware[T]{next: next, statsCollector: statsCollector}
}

// GetSettings collects stats for the GetSettings method.
func (mw *StatsCollectorMiddleware[T]) GetSettings(ctx context.Context) (T, error) {
	start := time.Now()

	defer func() {
		mw.statsCollector.Timing("settingsync_get_settings_duration", time.Since(start).Nanoseconds())
		mw.statsCollector.Incr("settingsync_get_settings_count", 1)
	}()

	return mw.next.GetSettings(ctx)
}

// Load collects stats for the Load method.
func (mw *StatsCollectorMiddleware[T]) Load(ctx context.Context) (settingsync.Result[T], error) {
	start := time.Now()

	defer func() {
		mw.statsCollector.Timing("settingsync_load_duration", time.Since(start).Nanoseconds())
		mw.statsCollector.Incr("settingsync_load_count", 1)
	}()

	return mw.next.Load(ctx)
}

// SaveSettings collects stats for the SaveSettings method.
func (mw *StatsCollectorMiddleware[T]) SaveSettings(ctx context.Context, value T) error {
	start := time.Now()

	defer func() {
		mw.statsCollector.Timing("settingsync_save_settings_duration", time.Since(start).Nanoseconds())
		mw.statsCollector.Incr("settingsync_save_settings_count", 1)
	}()

	return mw.next.SaveSettings(ctx, value)
}

// ResetSettings collects stats for the ResetSettings method.
func (mw *StatsCollectorMiddleware[T]) ResetSettings(ctx context.Context) (T, error) {
	start := time.Now()

	defer func() {
		mw.statsCollector.Timing("settingsync_reset_settings_duration", time.Since(start).Nanoseconds())
		mw.statsCollector.Incr("settingsync_reset_settings_count", 1)
	}()

	return mw.next.ResetSettings(ctx)
}

// SettingValue collects stats for the SettingValue method.
func (mw *StatsCollectorMiddleware[T]) SettingValue(ctx context.Context, key string) (any, error) {
	start := time.Now()

	defer func() {
		mw.statsCollector.Timing("settingsync_setting_value_duration", time.Since(start).Nanoseconds())
		mw.statsCollector.Incr("settingsync_setting_value_count", 1)
	}()

	return mw.next.SettingValue(ctx, key)
}

// UpdateSettingValue collects stats for the UpdateSettingValue method.
func (mw *StatsCollectorMiddleware[T]) UpdateSettingValue(ctx context.Context, key string, value any) error {
	start := time.Now()

	defer func() {
		mw.statsCollector.Timing("settingsync_update_setting_value_duration", time.Since(start).Nanoseconds())
		mw.statsCollector.Incr("settingsync_update_setting_value_count", 1)
	}()

	return mw.next.UpdateSettingValue(ctx, key, value)
}

// SyncWithRemote collects stats for the SyncWithRemote method.
func (mw *StatsCollectorMiddleware[T]) SyncWithRemote(ctx context.Context) (bool, error) {
	start := time.Now()

	defer func() {
		mw.statsCollector.Timing("settingsync_sync_with_remote_duration", time.Since(start).Nanoseconds())
		mw.statsCollector.Incr("settingsync_sync_with_remote_count", 1)
	}()

	return mw.next.SyncWithRemote(ctx)
}

// Module returns the module name of the service.
func (mw *StatsCollectorMiddleware[T]) Module() string {
	return mw.next.Module()
}

// Metadata returns the metadata of the service.
func (mw *StatsCollectorMiddleware[T]) Metadata() settingsync.Metadata {
	return mw.next.Metadata()
}

// Close collects the stats for the Close method and closes the service and all its goroutines (if any).
func (mw *StatsCollectorMiddleware[T]) Close() error {
	start := time.Now()

	defer func() {
		mw.statsCollector.Timing("settingsync_close_duration", time.Since(start).Nanoseconds())
		mw.statsCollector.Incr("settingsync_close_count", 1)
	}()

	return mw.next.Close()
}
