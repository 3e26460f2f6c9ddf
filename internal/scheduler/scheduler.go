// Package scheduler implements the single entrypoint every upload,
// download, and algorithm run goes through: create a PENDING task,
// hand a closure to the right worker pool, and translate a
// rejected/failed submission into the right terminal task state.
// Grounded on the teacher's internal/engine.Manager.StartDownload,
// which creates a download record before handing work to its queue,
// generalized from one workload kind to the three of §4.2/§4.3.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/increff/noos-service/internal/queue"
	"github.com/increff/noos-service/internal/storage"
)

// Scheduler is the entrypoint C3 exposes to the HTTP layer.
type Scheduler struct {
	storage *storage.Storage
	pools   *queue.Manager
	logger  *slog.Logger
}

func New(s *storage.Storage, pools *queue.Manager, logger *slog.Logger) *Scheduler {
	return &Scheduler{storage: s, pools: pools, logger: logger}
}

// Work is a unit of business logic the scheduler runs once a task
// transitions to RUNNING. It must drive task to a terminal state
// itself before returning (the pipelines in internal/ingest and the
// NOOS-run and download closures in internal/httpapi do this).
type Work func(task *storage.Task)

// Submit creates a PENDING task of kind and hands work to the pool
// responsible for that kind. If the pool's queue is full, the task is
// created anyway but immediately marked FAILED with the busy message
// (§4.3 steps 1-4), and ErrQueueFull is returned so the HTTP layer can
// answer with its 429-equivalent.
func (s *Scheduler) Submit(kind storage.TaskKind, fileName, parameters string, work Work) (*storage.Task, error) {
	task := &storage.Task{
		Kind:       kind,
		Status:     storage.TaskPending,
		FileName:   fileName,
		Parameters: parameters,
	}
	if err := s.storage.CreateTask(task); err != nil {
		return nil, fmt.Errorf("scheduler: create task: %w", err)
	}

	err := s.pools.Submit(kind, func(ctx context.Context) {
		s.runTransitioned(task, work)
	})
	if err == queue.ErrQueueFull {
		task.Message = "System is busy; try again later"
		task.ErrorMessage = task.Message
		if updateErr := s.storage.FinishTask(task, storage.TaskFailed); updateErr != nil {
			s.logger.Error("failed to mark busy task as failed", "taskId", task.ID, "error", updateErr)
		}
		return task, queue.ErrQueueFull
	}
	if err != nil {
		return nil, fmt.Errorf("scheduler: submit: %w", err)
	}

	return task, nil
}

// runTransitioned flips task to RUNNING, runs work, and guards against
// a panic in work crashing the pool worker (§7 "do not crash the
// worker").
func (s *Scheduler) runTransitioned(task *storage.Task, work Work) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panicked", "taskId", task.ID, "panic", r)
			fresh, err := s.storage.GetTask(task.ID)
			if err != nil {
				return
			}
			if fresh.Status.IsTerminal() {
				return
			}
			fresh.ErrorMessage = fmt.Sprintf("internal error: %v", r)
			fresh.Message = fresh.ErrorMessage
			_ = s.storage.FinishTask(fresh, storage.TaskFailed)
		}
	}()

	now := time.Now()
	task.Status = storage.TaskRunning
	task.StartedAt = &now
	if err := s.storage.UpdateTask(task); err != nil {
		s.logger.Error("failed to mark task running", "taskId", task.ID, "error", err)
		return
	}

	work(task)
}

// CancelTask requests cooperative cancellation of a non-terminal task.
func (s *Scheduler) CancelTask(id uint64) error {
	return s.storage.RequestCancellation(id)
}

// RecoverOnStart fails every PENDING/RUNNING task left over from a
// prior process (§4.3 "Recovery on process start").
func (s *Scheduler) RecoverOnStart() (int, error) {
	return s.storage.RecoverInterruptedTasks()
}
