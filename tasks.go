package settingsync

import (
	"context"
	"sync"
)

// taskRunner owns the background work a service schedules: remote refreshes,
// deferred pushes, reconnect syncs. Every task runs under the runner's
// context, so stopping the runner cancels in-flight network operations instead
// of leaking them past teardown.
type taskRunner struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// newTaskRunner creates a runner rooted in the given parent context.
func newTaskRunner(parent context.Context) *taskRunner {
	ctx, cancel := context.WithCancel(parent)

	return &taskRunner{
		ctx:    ctx,
		cancel: cancel,
	}
}

// submit schedules fn on a new goroutine under the runner's context. It is a
// no-op once the runner is stopped.
func (r *taskRunner) submit(fn func(ctx context.Context)) {
	select {
	case <-r.ctx.Done():
		return
	default:
	}

	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		fn(r.ctx)
	}()
}

// stop cancels all outstanding tasks and waits for them to return.
func (r *taskRunner) stop() {
	r.cancel()
	r.wg.Wait()
}
