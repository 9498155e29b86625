package settingsync

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/longbridgeapp/assert"
)

func TestTaskRunner_RunsSubmittedWork(t *testing.T) {
	runner := newTaskRunner(context.Background())

	done := make(chan struct{})

	runner.submit(func(context.Context) {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("submitted task never ran")
	}

	runner.stop()
}

func TestTaskRunner_StopCancelsTasks(t *testing.T) {
	runner := newTaskRunner(context.Background())

	var cancelled atomic.Bool

	started := make(chan struct{})

	runner.submit(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
	})

	<-started
	runner.stop()

	// stop waits, so the task observed the cancellation before returning.
	assert.True(t, cancelled.Load())
}

func TestTaskRunner_SubmitAfterStopIsNoop(t *testing.T) {
	runner := newTaskRunner(context.Background())
	runner.stop()

	var ran atomic.Bool

	runner.submit(func(context.Context) {
		ran.Store(true)
	})

	time.Sleep(50 * time.Millisecond)
	assert.False(t, ran.Load())
}
