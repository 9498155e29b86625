// Package sentinel provides standardized error definitions for the settingsync system.
// This package centralizes all error types used across the settingsync components,
// ensuring consistent error handling and messaging throughout the application.
//
// The errors defined here cover various scenarios including:
// - Invalid configuration parameters (module names, defaults, stores)
// - Durable storage failures (the one class surfaced to callers on save)
// - Remote synchronization failures (timeouts, missing data, throttling)
// - Component initialization errors (nil clients, missing serializers)
//
// All errors are created using the ewrap package to provide enhanced error
// wrapping and context capabilities.
package sentinel

import (
	"github.com/hyp3rd/ewrap"
)

var (
	// ErrInvalidModule is returned when a module name is empty or consists only
	// of whitespace characters.
	ErrInvalidModule = ewrap.New("invalid module name")

	// ErrModuleNotFound is returned when a module has no data in the queried layer.
	ErrModuleNotFound = ewrap.New("module not found")

	// ErrSettingNotFound is returned when a setting key does not exist in a module.
	ErrSettingNotFound = ewrap.New("setting not found")

	// ErrNilValue is returned when a nil settings value is attempted to be saved.
	ErrNilValue = ewrap.New("nil value")

	// ErrNilClient is returned when a nil client is passed to a store or remote.
	ErrNilClient = ewrap.New("nil client")

	// ErrNilStore is returned when a service is constructed without a durable store.
	ErrNilStore = ewrap.New("nil durable store")

	// ErrValidationFailed is returned when a settings value does not satisfy the
	// module validator. Services recover from it by substituting defaults.
	ErrValidationFailed = ewrap.New("settings validation failed")

	// ErrDurableWrite is returned when the durable store rejects a write.
	// This is the one failure class surfaced from SaveSettings.
	ErrDurableWrite = ewrap.New("durable store write failed")

	// ErrRemoteUnavailable is returned when the remote endpoint cannot be reached.
	ErrRemoteUnavailable = ewrap.New("remote endpoint unavailable")

	// ErrNoRemote is returned when a remote operation is requested on a service
	// configured without a remote client.
	ErrNoRemote = ewrap.New("no remote endpoint configured")

	// ErrOffline is returned when a remote operation is requested while the
	// network status provider reports offline.
	ErrOffline = ewrap.New("network offline")

	// ErrParamCannotBeEmpty is returned when a parameter cannot be empty.
	ErrParamCannotBeEmpty = ewrap.New("param cannot be empty")

	// ErrSerializerNotFound is returned when a serializer is not found.
	ErrSerializerNotFound = ewrap.New("serializer not found")

	// ErrInvalidSize is returned when an entry size cannot be computed.
	ErrInvalidSize = ewrap.New("invalid size")

	// ErrPreloaderRunning is returned when a preloader is started twice.
	ErrPreloaderRunning = ewrap.New("preloader already running")

	// ErrTimeout is returned when an operation exceeds its deadline.
	ErrTimeout = ewrap.New("operation timed out")
)
