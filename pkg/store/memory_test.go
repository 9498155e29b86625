package store

import (
	"context"
	"testing"

	"github.com/longbridgeapp/assert"
)

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	memory := NewMemory()

	err := memory.Set(ctx, SlotKey("theme"), []byte(`{"mode":"dark"}`))
	assert.Nil(t, err)

	data, found, err := memory.Get(ctx, SlotKey("theme"))
	assert.Nil(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"mode":"dark"}`, string(data))

	_, found, err = memory.Get(ctx, SlotKey("receipt"))
	assert.Nil(t, err)
	assert.False(t, found)
}

func TestMemory_DefensiveCopies(t *testing.T) {
	ctx := context.Background()
	memory := NewMemory()

	original := []byte("original")

	err := memory.Set(ctx, "slot", original)
	assert.Nil(t, err)

	// Mutating the caller's slice must not affect the stored record.
	original[0] = 'X'

	data, found, err := memory.Get(ctx, "slot")
	assert.Nil(t, err)
	assert.True(t, found)
	assert.Equal(t, "original", string(data))

	// Mutating the returned slice must not affect a later read.
	data[0] = 'Y'

	data, _, err = memory.Get(ctx, "slot")
	assert.Nil(t, err)
	assert.Equal(t, "original", string(data))
}

func TestMemory_DeleteAndKeys(t *testing.T) {
	ctx := context.Background()
	memory := NewMemory()

	assert.Nil(t, memory.Set(ctx, "settings_theme", []byte("a")))
	assert.Nil(t, memory.Set(ctx, "settings_receipt", []byte("b")))

	keys, err := memory.Keys(ctx)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(keys))

	assert.Nil(t, memory.Delete(ctx, "settings_theme"))

	// Deleting a missing slot is not an error.
	assert.Nil(t, memory.Delete(ctx, "settings_theme"))

	_, found, err := memory.Get(ctx, "settings_theme")
	assert.Nil(t, err)
	assert.False(t, found)
}
