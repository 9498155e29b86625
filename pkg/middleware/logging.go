// Package middleware provides service middleware implementations for
// settingsync. This package includes logging middleware that wraps a settings
// service to provide execution time logging and method call tracing for
// debugging and monitoring purposes.
package middleware

import (
	"context"
	"time"

	"github.com/hyp3rd/settingsync"
)

// Logger describes a logging interface allowing to implement different external, or custom logger.
// Tested with logrus, and Uber's Zap (high-performance), but should work with any other logger that matches the interface.
type Logger interface {
	Printf(format string, v ...any)
	// Errorf(format string, v ...any)
}

// LoggingMiddleware is a middleware that logs the time it takes to execute the next middleware.
// Must implement the settingsync.Service interface.
type LoggingMiddleware[T any] struct {
	next   settingsync.Service[T]
	logger Logger
}

// NewLoggingMiddleware returns a new LoggingMiddleware.
func NewLoggingMiddleware[T any](next settingsync.Service[T], logger Logger) settingsync.Service[T] {
	return &LoggingMiddleware[T]{next: next, logger: logger}
}

// GetSettings logs the time it takes to execute the next middleware.
func (mw *LoggingMiddleware[T]) GetSettings(ctx context.Context) (T, error) {
	defer func(begin time.Time) {
		mw.logger.Printf("method GetSettings took: %s", time.Since(begin))
	}(time.Now())

	mw.logger.Printf("GetSettings method called for module: %s", mw.next.Module())

	return mw.next.GetSettings(ctx)
}

// Load logs the time it takes to execute the next middleware.
func (mw *LoggingMiddleware[T]) Load(ctx context.Context) (settingsync.Result[T], error) {
	defer func(begin time.Time) {
		mw.logger.Printf("method Load took: %s", time.Since(begin))
	}(time.Now())

	mw.logger.Printf("Load method called for module: %s", mw.next.Module())

	return mw.next.Load(ctx)
}

// SaveSettings logs the time it takes to execute the next middleware.
func (mw *LoggingMiddleware[T]) SaveSettings(ctx context.Context, value T) error {
	defer func(begin time.Time) {
		mw.logger.Printf("method SaveSettings took: %s", time.Since(begin))
	}(time.Now())

	mw.logger.Printf("SaveSettings method called for module: %s", mw.next.Module())

	return mw.next.SaveSettings(ctx, value)
}

// ResetSettings logs the time it takes to execute the next middleware.
func (mw *LoggingMiddleware[T]) ResetSettings(ctx context.Context) (T, error) {
	defer func(begin time.Time) {
		mw.logger.Printf("method ResetSettings took: %s", time.Since(begin))
	}(time.Now())

	mw.logger.Printf("ResetSettings method called for module: %s", mw.next.Module())

	return mw.next.ResetSettings(ctx)
}

// SettingValue logs the time it takes to execute the next middleware.
func (mw *LoggingMiddleware[T]) SettingValue(ctx context.Context, key string) (any, error) {
	defer func(begin time.Time) {
		mw.logger.Printf("method SettingValue took: %s", time.Since(begin))
	}(time.Now())

	mw.logger.Printf("SettingValue method called with key: %s", key)

	return mw.next.SettingValue(ctx, key)
}

// UpdateSettingValue logs the time it takes to execute the next middleware.
func (mw *LoggingMiddleware[T]) UpdateSettingValue(ctx context.Context, key string, value any) error {
	defer func(begin time.Time) {
		mw.logger.Printf("method UpdateSettingValue took: %s", time.Since(begin))
	}(time.Now())

	mw.logger.Printf("UpdateSettingValue method called with key: %s", key)

	return mw.next.UpdateSettingValue(ctx, key, value)
}

// SyncWithRemote logs the time it takes to execute the next middleware.
func (mw *LoggingMiddleware[T]) SyncWithRemote(ctx context.Context) (bool, error) {
	defer func(begin time.Time) {
		mw.logger.Printf("method SyncWithRemote took: %s", time.Since(begin))
	}(time.Now())

	mw.logger.Printf("SyncWithRemote method called for module: %s", mw.next.Module())

	return mw.next.SyncWithRemote(ctx)
}

// Module returns the module name of the next middleware.
func (mw *LoggingMiddleware[T]) Module() string {
	return mw.next.Module()
}

// Metadata returns the metadata of the next middleware.
func (mw *LoggingMiddleware[T]) Metadata() settingsync.Metadata {
	return mw.next.Metadata()
}

// Close logs the time it takes to execute the next middleware.
func (mw *LoggingMiddleware[T]) Close() error {
	defer func(begin time.Time) {
		mw.logger.Printf("method Close took: %s", time.Since(begin))
	}(time.Now())

	mw.logger.Printf("Close method called for module: %s", mw.next.Module())

	return mw.next.Close()
}
