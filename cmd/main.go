package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/hyp3rd/settingsync"
	"github.com/hyp3rd/settingsync/pkg/cache"
	"github.com/hyp3rd/settingsync/pkg/middleware"
	"github.com/hyp3rd/settingsync/pkg/store"
)

// sugaredPrintf adapts a zap sugared logger to the Printf interface the
// settingsync services and middlewares log through.
type sugaredPrintf struct {
	sugar *zap.SugaredLogger
}

func (l sugaredPrintf) Printf(format string, v ...any) {
	l.sugar.Infof(format, v...)
}

// ThemeSettings is the demo module for the UI theme.
type ThemeSettings struct {
	Mode      string `json:"mode"`
	FontScale int    `json:"fontScale"`
}

// ReceiptSettings is the demo module for receipt printing.
type ReceiptSettings struct {
	HeaderLine string `json:"headerLine"`
	Copies     int    `json:"copies"`
}

func main() {
	logger, _ := zap.NewProduction()

	sugar := logger.Sugar()
	defer sugar.Sync()
	defer logger.Sync()

	dir, err := os.MkdirTemp("", "settingsync")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer os.RemoveAll(dir)

	durable, err := store.NewFile(dir)
	if err != nil {
		fmt.Println(err)
		return
	}

	settingsCache := cache.New()
	defer settingsCache.Stop()

	notifier := settingsync.NewNotifier()
	unsubscribe := notifier.Subscribe(func(event settingsync.Event) {
		sugar.Infow("settings event", "type", event.Type, "module", event.Module, "key", event.Key)
	})
	defer unsubscribe()

	registry := settingsync.NewRegistry(
		settingsync.WithRegistryCache(settingsCache),
		settingsync.WithRegistryStore(durable),
		settingsync.WithRegistryLogger(sugaredPrintf{sugar: sugar}),
		settingsync.WithRegistryNotifier(notifier),
	)
	defer registry.ClearInstances()

	theme, err := settingsync.GetService[ThemeSettings](registry, "theme",
		settingsync.WithDefaults(ThemeSettings{Mode: "light", FontScale: 100}),
		settingsync.WithValidator(func(s ThemeSettings) error {
			if s.FontScale < 50 || s.FontScale > 200 {
				return fmt.Errorf("font scale out of range: %d", s.FontScale)
			}

			return nil
		}),
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	_, err = settingsync.GetService[ReceiptSettings](registry, "receipt",
		settingsync.WithDefaults(ReceiptSettings{HeaderLine: "Thank you!", Copies: 1}),
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	var svc settingsync.Service[ThemeSettings] = theme

	svc = settingsync.ApplyMiddleware(svc,
		func(next settingsync.Service[ThemeSettings]) settingsync.Service[ThemeSettings] {
			return middleware.NewLoggingMiddleware(next, sugaredPrintf{sugar: sugar})
		},
	)

	ctx := context.Background()

	// Cold read resolves the compiled-in defaults.
	res, err := svc.Load(ctx)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println("theme:", res.Value, "from", res.Source)

	// Persist a change, then read it back through the cache.
	err = svc.SaveSettings(ctx, ThemeSettings{Mode: "dark", FontScale: 120})
	if err != nil {
		fmt.Println(err)
		return
	}

	res, err = svc.Load(ctx)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println("theme:", res.Value, "from", res.Source)

	// Field-level access without knowing the struct.
	mode, err := svc.SettingValue(ctx, "mode")
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println("mode:", mode)

	// Warm the cache for the registered modules in the background.
	preloader := settingsync.NewPreloader(registry, settingsCache,
		settingsync.WithPriorityModules("theme", "receipt"),
		settingsync.WithInitialDelay(100*time.Millisecond),
		settingsync.WithItemDelay(50*time.Millisecond),
		settingsync.WithPreloaderLogger(sugaredPrintf{sugar: sugar}),
	)

	err = preloader.Start(ctx)
	if err != nil {
		fmt.Println(err)
		return
	}

	time.Sleep(500 * time.Millisecond)
	preloader.Stop()

	// Expose the registry over HTTP; another process can point a
	// remote.HTTPClient at this address to sync against it.
	server := settingsync.NewSettingsHTTPServer("127.0.0.1:0", registry)

	err = server.Start(ctx)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println("settings endpoint on", server.Address())

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err = server.Shutdown(shutdownCtx)
	if err != nil {
		fmt.Println(err)
	}

	fmt.Println("metadata:", theme.Metadata())
}
