package settingsync

import (
	"context"
	"sync"
	"time"

	"github.com/hyp3rd/settingsync/internal/constants"
	"github.com/hyp3rd/settingsync/internal/sentinel"
	"github.com/hyp3rd/settingsync/pkg/cache"
)

// Preloader opportunistically warms the cache for a prioritized set of
// modules without blocking the caller. Candidates are the fixed high-priority
// names plus whatever the cache ranks as frequently accessed, minus anything
// already cached. The walk is deliberately sequential with a delay between
// items so warming never competes with foreground work.
type Preloader struct {
	registry *Registry
	cache    *cache.Cache
	logger   Logger

	priority     []string
	initialDelay time.Duration
	itemDelay    time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// PreloaderOption configures a Preloader.
type PreloaderOption func(*Preloader)

// WithPriorityModules sets the fixed high-priority module names.
func WithPriorityModules(modules ...string) PreloaderOption {
	return func(p *Preloader) { p.priority = modules }
}

// WithInitialDelay sets the pause before the first module is warmed.
func WithInitialDelay(delay time.Duration) PreloaderOption {
	return func(p *Preloader) { p.initialDelay = delay }
}

// WithItemDelay sets the pause between consecutive warmed modules.
func WithItemDelay(delay time.Duration) PreloaderOption {
	return func(p *Preloader) { p.itemDelay = delay }
}

// WithPreloaderLogger sets the logger for warm successes and failures.
func WithPreloaderLogger(logger Logger) PreloaderOption {
	return func(p *Preloader) { p.logger = logger }
}

// NewPreloader creates a preloader over the given registry and cache.
func NewPreloader(registry *Registry, settingsCache *cache.Cache, opts ...PreloaderOption) *Preloader {
	preloader := &Preloader{
		registry:     registry,
		cache:        settingsCache,
		logger:       noopLogger{},
		initialDelay: constants.DefaultPreloadInitialDelay,
		itemDelay:    constants.DefaultPreloadItemDelay,
	}

	for _, opt := range opts {
		opt(preloader)
	}

	return preloader
}

// candidates computes the modules worth warming: the top fixed-priority names
// joined with the cache's frequently-accessed ranking, minus anything already
// cached and anything without a registered service.
func (p *Preloader) candidates() []string {
	seen := make(map[string]bool)
	ordered := make([]string, 0)

	appendModule := func(module string) {
		if seen[module] {
			return
		}
		seen[module] = true

		if p.cache != nil && p.cache.Contains(module) {
			return
		}

		ordered = append(ordered, module)
	}

	limit := constants.DefaultPreloadPriorityCount
	if limit > len(p.priority) {
		limit = len(p.priority)
	}
	for _, module := range p.priority[:limit] {
		appendModule(module)
	}

	if p.cache != nil {
		for _, module := range p.cache.FrequentlyAccessedModules(len(p.registry.Modules())) {
			appendModule(module)
		}
	}

	return ordered
}

// Start launches the warming walk. It returns immediately; the walk runs in
// the background until it finishes or Stop is called.
func (p *Preloader) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return sentinel.ErrPreloaderRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(runCtx)

	return nil
}

// run walks the candidate list sequentially with the configured delays.
func (p *Preloader) run(ctx context.Context) {
	defer close(p.done)

	if !sleepCtx(ctx, p.initialDelay) {
		return
	}

	for i, module := range p.candidates() {
		if i > 0 && !sleepCtx(ctx, p.itemDelay) {
			return
		}

		handle, found := p.registry.Handle(module)
		if !found {
			p.logger.Printf("settingsync: preload skipped %s: no registered service", module)

			continue
		}

		if err := handle.Warm(ctx); err != nil {
			p.logger.Printf("settingsync: preload of %s failed: %v", module, err)

			continue
		}

		p.logger.Printf("settingsync: preloaded %s", module)
	}
}

// Stop cancels the walk and waits for it to return. All scheduled work is
// released; no timers survive teardown.
func (p *Preloader) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

// sleepCtx pauses for d, returning false when the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
