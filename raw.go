package settingsync

import (
	"context"

	"github.com/hyp3rd/ewrap"
)

// ModuleHandle is the type-erased view of a settings service. The registry,
// preloader, and HTTP surface work through it so they can operate on modules
// of mixed value types.
type ModuleHandle interface {
	// Module returns the settings domain this handle owns.
	Module() string
	// Warm loads the module's settings, populating the cache as a side effect.
	Warm(ctx context.Context) error
	// RawSettings returns the current settings value as a serialized record.
	RawSettings(ctx context.Context) ([]byte, error)
	// SaveRaw decodes a serialized record and saves it as the settings value.
	SaveRaw(ctx context.Context, data []byte) error
	// RawSetting returns one field as a serialized record.
	RawSetting(ctx context.Context, key string) ([]byte, error)
	// SaveRawSetting decodes a serialized field value and persists it.
	SaveRawSetting(ctx context.Context, key string, data []byte) error
	// Close tears the underlying service down.
	Close() error
}

// RawSettings returns the current settings value as a serialized record.
func (m *Manager[T]) RawSettings(ctx context.Context) ([]byte, error) {
	result, err := m.Load(ctx)
	if err != nil {
		return nil, err
	}

	data, err := m.config.Serializer.Marshal(result.Value)
	if err != nil {
		return nil, ewrap.Wrap(err, "encode settings value")
	}

	return data, nil
}

// SaveRaw decodes a serialized record and saves it as the settings value.
func (m *Manager[T]) SaveRaw(ctx context.Context, data []byte) error {
	var value T
	if err := m.config.Serializer.Unmarshal(data, &value); err != nil {
		return ewrap.Wrap(err, "decode settings record")
	}

	return m.SaveSettings(ctx, value)
}

// RawSetting returns one field as a serialized record.
func (m *Manager[T]) RawSetting(ctx context.Context, key string) ([]byte, error) {
	value, err := m.SettingValue(ctx, key)
	if err != nil {
		return nil, err
	}

	data, err := m.config.Serializer.Marshal(value)
	if err != nil {
		return nil, ewrap.Wrap(err, "encode setting value")
	}

	return data, nil
}

// SaveRawSetting decodes a serialized field value and persists it.
func (m *Manager[T]) SaveRawSetting(ctx context.Context, key string, data []byte) error {
	var value any
	if err := m.config.Serializer.Unmarshal(data, &value); err != nil {
		return ewrap.Wrap(err, "decode setting value")
	}

	return m.UpdateSettingValue(ctx, key, value)
}
