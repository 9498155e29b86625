package settingsync

import (
	"context"
	"testing"
	"time"

	"github.com/longbridgeapp/assert"

	"github.com/hyp3rd/settingsync/internal/sentinel"
	"github.com/hyp3rd/settingsync/pkg/cache"
	"github.com/hyp3rd/settingsync/pkg/store"
)

func newPreloaderFixture(t *testing.T, modules ...string) (*Registry, *cache.Cache) {
	t.Helper()

	settingsCache := cache.New(cache.WithSweepInterval(0))
	t.Cleanup(settingsCache.Stop)

	registry := NewRegistry(
		WithRegistryStore(store.NewMemory()),
		WithRegistryCache(settingsCache),
	)
	t.Cleanup(registry.ClearInstances)

	for _, module := range modules {
		_, err := GetService[themeSettings](registry, module,
			WithDefaults[themeSettings](themeDefaults))
		assert.Nil(t, err)
	}

	return registry, settingsCache
}

func TestPreloader_WarmsPriorityModules(t *testing.T) {
	registry, settingsCache := newPreloaderFixture(t, "theme", "receipt", "tax")

	preloader := NewPreloader(registry, settingsCache,
		WithPriorityModules("theme", "receipt"),
		WithInitialDelay(10*time.Millisecond),
		WithItemDelay(5*time.Millisecond),
	)

	err := preloader.Start(context.Background())
	assert.Nil(t, err)

	defer preloader.Stop()

	waitFor(t, 2*time.Second, func() bool {
		return settingsCache.Contains("theme") && settingsCache.Contains("receipt")
	}, "priority modules were not warmed")

	// Modules outside the priority list and the frequency ranking stay cold.
	assert.False(t, settingsCache.Contains("tax"))
}

func TestPreloader_IncludesFrequentlyAccessedModules(t *testing.T) {
	registry, settingsCache := newPreloaderFixture(t, "theme", "tax")

	// Build up read history for tax, then drop its entry so it needs warming.
	settingsCache.Set("tax", themeDefaults)

	for i := 0; i < 3; i++ {
		_, _ = settingsCache.Get("tax")
	}

	settingsCache.Invalidate("tax")

	preloader := NewPreloader(registry, settingsCache,
		WithPriorityModules("theme"),
		WithInitialDelay(10*time.Millisecond),
		WithItemDelay(5*time.Millisecond),
	)

	assert.Nil(t, preloader.Start(context.Background()))

	defer preloader.Stop()

	waitFor(t, 2*time.Second, func() bool {
		return settingsCache.Contains("theme") && settingsCache.Contains("tax")
	}, "frequently accessed module was not warmed")
}

func TestPreloader_SkipsAlreadyCachedModules(t *testing.T) {
	registry, settingsCache := newPreloaderFixture(t, "theme")

	settingsCache.Set("theme", themeSettings{Mode: "warm", FontScale: 90})

	preloader := NewPreloader(registry, settingsCache,
		WithPriorityModules("theme"),
		WithInitialDelay(10*time.Millisecond),
		WithItemDelay(5*time.Millisecond),
	)

	assert.Nil(t, preloader.Start(context.Background()))

	time.Sleep(100 * time.Millisecond)
	preloader.Stop()

	// The pre-seeded entry was not overwritten by the warm walk.
	value, ok := settingsCache.Get("theme")
	assert.True(t, ok)
	assert.Equal(t, themeSettings{Mode: "warm", FontScale: 90}, value)
}

func TestPreloader_StartTwiceRejected(t *testing.T) {
	registry, settingsCache := newPreloaderFixture(t, "theme")

	preloader := NewPreloader(registry, settingsCache,
		WithPriorityModules("theme"),
		WithInitialDelay(50*time.Millisecond),
	)

	assert.Nil(t, preloader.Start(context.Background()))

	err := preloader.Start(context.Background())
	assert.Equal(t, sentinel.ErrPreloaderRunning, err)

	preloader.Stop()
}

func TestPreloader_StopCancelsWalk(t *testing.T) {
	registry, settingsCache := newPreloaderFixture(t, "theme", "receipt")

	preloader := NewPreloader(registry, settingsCache,
		WithPriorityModules("theme", "receipt"),
		WithInitialDelay(time.Hour),
	)

	assert.Nil(t, preloader.Start(context.Background()))

	done := make(chan struct{})

	go func() {
		preloader.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not cancel the initial delay")
	}

	assert.False(t, settingsCache.Contains("theme"))
}
