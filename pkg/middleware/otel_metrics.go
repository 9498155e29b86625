package middleware

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hyp3rd/settingsync"
	"github.com/hyp3rd/settingsync/internal/telemetry/attrs"
)

// OTelMetricsMiddleware emits OpenTelemetry metrics for service methods.
type OTelMetricsMiddleware[T any] struct {
	next  settingsync.Service[T]
	meter metric.Meter

	// instruments
	calls     metric.Int64Counter
	durations metric.Float64Histogram
}

// NewOTelMetricsMiddleware constructs a metrics middleware using the provided meter.
func NewOTelMetricsMiddleware[T any](next settingsync.Service[T], meter metric.Meter) (settingsync.Service[T], error) {
	calls, err := meter.Int64Counter("settingsync.calls")
	if err != nil {
		return nil, fmt.Errorf("create counter: %w", err)
	}

	durations, err := meter.Float64Histogram("settingsync.duration.ms")
	if err != nil {
		return nil, fmt.Errorf("create histogram: %w", err)
	}

	return &OTelMetricsMiddleware[T]{next: next, meter: meter, calls: calls, durations: durations}, nil
}

// GetSettings implements Service.GetSettings with metrics.
func (mw *OTelMetricsMiddleware[T]) GetSettings(ctx context.Context) (T, error) {
	start := time.Now()
	value, err := mw.next.GetSettings(ctx)
	mw.rec(ctx, "GetSettings", start)

	return value, err
}

// Load implements Service.Load with metrics.
func (mw *OTelMetricsMiddleware[T]) Load(ctx context.Context) (settingsync.Result[T], error) {
	start := time.Now()
	res, err := mw.next.Load(ctx)
	mw.rec(ctx, "Load", start,
		attribute.String(attrs.AttrSource, string(res.Source)),
		attribute.Bool(attrs.AttrDegraded, !res.Ok()))

	return res, err
}

// SaveSettings implements Service.SaveSettings with metrics.
func (mw *OTelMetricsMiddleware[T]) SaveSettings(ctx context.Context, value T) error {
	start := time.Now()
	err := mw.next.SaveSettings(ctx, value)
	mw.rec(ctx, "SaveSettings", start)

	return err
}

// ResetSettings implements Service.ResetSettings with metrics.
func (mw *OTelMetricsMiddleware[T]) ResetSettings(ctx context.Context) (T, error) {
	start := time.Now()
	value, err := mw.next.ResetSettings(ctx)
	mw.rec(ctx, "ResetSettings", start)

	return value, err
}

// SettingValue implements Service.SettingValue with metrics.
func (mw *OTelMetricsMiddleware[T]) SettingValue(ctx context.Context, key string) (any, error) {
	start := time.Now()
	value, err := mw.next.SettingValue(ctx, key)
	mw.rec(ctx, "SettingValue", start, attribute.Int(attrs.AttrKeyLength, len(key)))

	return value, err
}

// UpdateSettingValue implements Service.UpdateSettingValue with metrics.
func (mw *OTelMetricsMiddleware[T]) UpdateSettingValue(ctx context.Context, key string, value any) error {
	start := time.Now()
	err := mw.next.UpdateSettingValue(ctx, key, value)
	mw.rec(ctx, "UpdateSettingValue", start, attribute.Int(attrs.AttrKeyLength, len(key)))

	return err
}

// SyncWithRemote implements Service.SyncWithRemote with metrics.
func (mw *OTelMetricsMiddleware[T]) SyncWithRemote(ctx context.Context) (bool, error) {
	start := time.Now()
	synced, err := mw.next.SyncWithRemote(ctx)
	mw.rec(ctx, "SyncWithRemote", start, attribute.Bool(attrs.AttrSynced, synced))

	return synced, err
}

// Module returns the module name.
func (mw *OTelMetricsMiddleware[T]) Module() string { return mw.next.Module() }

// Metadata returns the service metadata.
func (mw *OTelMetricsMiddleware[T]) Metadata() settingsync.Metadata { return mw.next.Metadata() }

// Close closes the underlying service.
func (mw *OTelMetricsMiddleware[T]) Close() error { return mw.next.Close() }

// rec records call count and duration with attributes.
func (mw *OTelMetricsMiddleware[T]) rec(ctx context.Context, method string, start time.Time, attributes ...attribute.KeyValue) {
	base := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String(attrs.AttrModule, mw.next.Module()),
	}
	if len(attributes) > 0 {
		base = append(base, attributes...)
	}

	mw.calls.Add(ctx, 1, metric.WithAttributes(base...))
	mw.durations.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(base...))
}
