package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hyp3rd/settingsync"
	"github.com/hyp3rd/settingsync/internal/telemetry/attrs"
)

// OTelTracingMiddleware wraps settingsync.Service methods with OpenTelemetry spans.
type OTelTracingMiddleware[T any] struct {
	next   settingsync.Service[T]
	tracer trace.Tracer
	// static attributes applied to all spans
	commonAttrs []attribute.KeyValue
}

// OTelTracingOption allows configuring the tracing middleware.
type OTelTracingOption[T any] func(*OTelTracingMiddleware[T])

// WithCommonAttributes sets attributes applied to all spans.
func WithCommonAttributes[T any](attributes ...attribute.KeyValue) OTelTracingOption[T] {
	return func(m *OTelTracingMiddleware[T]) { m.commonAttrs = append(m.commonAttrs, attributes...) }
}

// NewOTelTracingMiddleware creates a tracing middleware.
func NewOTelTracingMiddleware[T any](next settingsync.Service[T], tracer trace.Tracer, opts ...OTelTracingOption[T]) settingsync.Service[T] {
	mw := &OTelTracingMiddleware[T]{next: next, tracer: tracer}
	for _, o := range opts {
		o(mw)
	}

	return mw
}

// GetSettings implements Service.GetSettings with tracing.
func (mw *OTelTracingMiddleware[T]) GetSettings(ctx context.Context) (T, error) {
	ctx, span := mw.startSpan(ctx, "settingsync.GetSettings")
	defer span.End()

	value, err := mw.next.GetSettings(ctx)
	if err != nil {
		span.RecordError(err)
	}

	return value, err
}

// Load implements Service.Load with tracing.
func (mw *OTelTracingMiddleware[T]) Load(ctx context.Context) (settingsync.Result[T], error) {
	ctx, span := mw.startSpan(ctx, "settingsync.Load")
	defer span.End()

	res, err := mw.next.Load(ctx)
	if err != nil {
		span.RecordError(err)
	}

	span.SetAttributes(
		attribute.String(attrs.AttrSource, string(res.Source)),
		attribute.Bool(attrs.AttrDegraded, !res.Ok()))

	return res, err
}

// SaveSettings implements Service.SaveSettings with tracing.
func (mw *OTelTracingMiddleware[T]) SaveSettings(ctx context.Context, value T) error {
	ctx, span := mw.startSpan(ctx, "settingsync.SaveSettings")
	defer span.End()

	err := mw.next.SaveSettings(ctx, value)
	if err != nil {
		span.RecordError(err)
	}

	return err
}

// ResetSettings implements Service.ResetSettings with tracing.
func (mw *OTelTracingMiddleware[T]) ResetSettings(ctx context.Context) (T, error) {
	ctx, span := mw.startSpan(ctx, "settingsync.ResetSettings")
	defer span.End()

	value, err := mw.next.ResetSettings(ctx)
	if err != nil {
		span.RecordError(err)
	}

	return value, err
}

// SettingValue implements Service.SettingValue with tracing.
func (mw *OTelTracingMiddleware[T]) SettingValue(ctx context.Context, key string) (any, error) {
	ctx, span := mw.startSpan(ctx, "settingsync.SettingValue", attribute.Int(attrs.AttrKeyLength, len(key)))
	defer span.End()

	value, err := mw.next.SettingValue(ctx, key)
	if err != nil {
		span.RecordError(err)
	}

	return value, err
}

// UpdateSettingValue implements Service.UpdateSettingValue with tracing.
func (mw *OTelTracingMiddleware[T]) UpdateSettingValue(ctx context.Context, key string, value any) error {
	ctx, span := mw.startSpan(ctx, "settingsync.UpdateSettingValue", attribute.Int(attrs.AttrKeyLength, len(key)))
	defer span.End()

	err := mw.next.UpdateSettingValue(ctx, key, value)
	if err != nil {
		span.RecordError(err)
	}

	return err
}

// SyncWithRemote implements Service.SyncWithRemote with tracing.
func (mw *OTelTracingMiddleware[T]) SyncWithRemote(ctx context.Context) (bool, error) {
	ctx, span := mw.startSpan(ctx, "settingsync.SyncWithRemote")
	defer span.End()

	synced, err := mw.next.SyncWithRemote(ctx)
	if err != nil {
		span.RecordError(err)
	}

	span.SetAttributes(attribute.Bool(attrs.AttrSynced, synced))

	return synced, err
}

// Module returns the module name.
func (mw *OTelTracingMiddleware[T]) Module() string { return mw.next.Module() }

// Metadata returns the service metadata.
func (mw *OTelTracingMiddleware[T]) Metadata() settingsync.Metadata { return mw.next.Metadata() }

// Close closes the service with a span.
func (mw *OTelTracingMiddleware[T]) Close() error {
	_, span := mw.startSpan(context.Background(), "settingsync.Close")
	defer span.End()

	return mw.next.Close()
}

// startSpan starts a span with common and provided attributes.
func (mw *OTelTracingMiddleware[T]) startSpan(ctx context.Context, name string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := mw.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))

	span.SetAttributes(attribute.String(attrs.AttrModule, mw.next.Module()))

	if len(mw.commonAttrs) > 0 {
		span.SetAttributes(mw.commonAttrs...)
	}

	if len(attributes) > 0 {
		span.SetAttributes(attributes...)
	}

	return ctx, span
}
