package scheduler

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/increff/noos-service/internal/queue"
	"github.com/increff/noos-service/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupScheduler(t *testing.T, fileWorkers, fileQueue int) (*Scheduler, *storage.Storage) {
	t.Helper()
	s, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	pools := queue.NewManager(testLogger(), fileWorkers, fileQueue, 1, 5)
	return New(s, pools, testLogger()), s
}

func TestSubmitRunsWorkToCompletion(t *testing.T) {
	sched, s := setupScheduler(t, 2, 4)

	var wg sync.WaitGroup
	wg.Add(1)
	task, err := sched.Submit(storage.KindStylesUpload, "styles.tsv", "", func(task *storage.Task) {
		defer wg.Done()
		task.Status = storage.TaskCompleted
		task.Progress = 100
		_ = s.UpdateTask(task)
	})
	require.NoError(t, err)
	assert.Equal(t, storage.TaskPending, task.Status)

	wg.Wait()
	time.Sleep(10 * time.Millisecond)

	reloaded, err := s.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.TaskCompleted, reloaded.Status)
}

func TestSubmitFailsTaskWhenQueueFull(t *testing.T) {
	sched, s := setupScheduler(t, 1, 0)

	release := make(chan struct{})
	started := make(chan struct{})
	_, err := sched.Submit(storage.KindStylesUpload, "a.tsv", "", func(task *storage.Task) {
		close(started)
		<-release
	})
	require.NoError(t, err)
	<-started

	task, err := sched.Submit(storage.KindStylesUpload, "b.tsv", "", func(task *storage.Task) {})
	require.ErrorIs(t, err, queue.ErrQueueFull)
	require.NotNil(t, task)
	assert.Equal(t, storage.TaskFailed, task.Status)
	assert.Equal(t, "System is busy; try again later", task.Message)
	assert.NotNil(t, task.EndedAt)

	close(release)

	reloaded, err := s.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.TaskFailed, reloaded.Status)
	assert.NotNil(t, reloaded.EndedAt)
}

func TestRunTransitionedRecoversFromPanic(t *testing.T) {
	sched, s := setupScheduler(t, 1, 1)

	var wg sync.WaitGroup
	wg.Add(1)
	task, err := sched.Submit(storage.KindStylesUpload, "a.tsv", "", func(task *storage.Task) {
		defer wg.Done()
		panic("boom")
	})
	require.NoError(t, err)
	wg.Wait()
	time.Sleep(10 * time.Millisecond)

	reloaded, err := s.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.TaskFailed, reloaded.Status)
	assert.Contains(t, reloaded.ErrorMessage, "internal error")
	assert.NotNil(t, reloaded.EndedAt)
}

func TestRecoverOnStartFailsStuckTasks(t *testing.T) {
	sched, s := setupScheduler(t, 1, 1)
	stuck := &storage.Task{Kind: storage.KindStylesUpload, Status: storage.TaskRunning}
	require.NoError(t, s.CreateTask(stuck))

	n, err := sched.RecoverOnStart()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	reloaded, err := s.GetTask(stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.TaskFailed, reloaded.Status)
}
