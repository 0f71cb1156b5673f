package tasks

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/strandhq/strand/backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitializeForTests()
	m.Run()
}

func TestRunnerExecutesSubmittedTasks(t *testing.T) {
	r := NewRunner(16, 2)
	r.Start()
	defer r.Stop()

	done := make(chan struct{})
	ok := r.Submit("test", func(ctx context.Context) error {
		close(done)
		return nil
	})
	require.True(t, ok)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestRunnerDoesNotBlockCaller(t *testing.T) {
	r := NewRunner(16, 1)
	r.Start()
	defer r.Stop()

	release := make(chan struct{})
	r.Submit("slow", func(ctx context.Context) error {
		<-release
		return nil
	})

	// Submitting behind a stuck worker must return immediately
	start := time.Now()
	r.Submit("queued", func(ctx context.Context) error { return nil })
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(release)
}

func TestRunnerSwallowsErrorsAndPanics(t *testing.T) {
	r := NewRunner(16, 2)
	r.Start()

	var ran atomic.Int32
	r.Submit("fails", func(ctx context.Context) error {
		ran.Add(1)
		return fmt.Errorf("storage briefly unavailable")
	})
	r.Submit("panics", func(ctx context.Context) error {
		ran.Add(1)
		panic("boom")
	})
	r.Submit("after", func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})

	// Stop waits for workers; if a panic escaped the pool this would crash
	// the test process instead of returning.
	r.Stop()
	assert.Equal(t, int32(3), ran.Load())
}

func TestRunnerDropsWhenQueueFull(t *testing.T) {
	r := NewRunner(1, 1)
	r.Start()
	defer r.Stop()

	release := make(chan struct{})
	defer close(release)

	// Occupy the single worker, then fill the single queue slot.
	r.Submit("blocker", func(ctx context.Context) error {
		<-release
		return nil
	})

	// One of these fills the buffer; eventually Submit must report a drop
	// rather than block.
	dropped := false
	for i := 0; i < 10; i++ {
		if !r.Submit("filler", func(ctx context.Context) error { return nil }) {
			dropped = true
			break
		}
	}
	assert.True(t, dropped)
}
