package queue

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSubmitRunsJob(t *testing.T) {
	p := NewPool("test", 2, 4, testLogger())
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	var ran int32
	var wg sync.WaitGroup
	wg.Add(1)
	err := p.Submit(func(ctx context.Context) {
		atomic.AddInt32(&ran, 1)
		wg.Done()
	})
	require.NoError(t, err)
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestSubmitReturnsErrQueueFullWhenSaturated(t *testing.T) {
	// One worker blocked on a job, zero-capacity queue: the second
	// submission has nowhere to go and must be rejected immediately.
	p := NewPool("test", 1, 0, testLogger())
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	release := make(chan struct{})
	started := make(chan struct{})
	err := p.Submit(func(ctx context.Context) {
		close(started)
		<-release
	})
	require.NoError(t, err)
	<-started

	err = p.Submit(func(ctx context.Context) {})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
}

func TestShutdownWaitsForInFlightJobs(t *testing.T) {
	p := NewPool("test", 1, 1, testLogger())

	var completed int32
	done := make(chan struct{})
	err := p.Submit(func(ctx context.Context) {
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&completed, 1)
		close(done)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))

	select {
	case <-done:
	default:
		t.Fatal("job did not complete before Shutdown returned")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&completed))
}

func TestRunJobRecoversFromPanic(t *testing.T) {
	p := NewPool("test", 1, 1, testLogger())
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	var wg sync.WaitGroup
	wg.Add(1)
	err := p.Submit(func(ctx context.Context) {
		defer wg.Done()
		panic("boom")
	})
	require.NoError(t, err)
	wg.Wait()

	var ran int32
	wg.Add(1)
	err = p.Submit(func(ctx context.Context) {
		atomic.AddInt32(&ran, 1)
		wg.Done()
	})
	require.NoError(t, err)
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestLenReflectsQueuedJobs(t *testing.T) {
	p := NewPool("test", 1, 4, testLogger())
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(func(ctx context.Context) {
		close(started)
		<-release
	}))
	<-started

	require.NoError(t, p.Submit(func(ctx context.Context) {}))
	require.NoError(t, p.Submit(func(ctx context.Context) {}))
	assert.Equal(t, 2, p.Len())

	close(release)
}
