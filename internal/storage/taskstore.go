package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrTaskNotFound is returned when a Task id has no matching row.
var ErrTaskNotFound = errors.New("storage: task not found")

// TaskStats summarizes outcomes for one kind over a trailing window.
type TaskStats struct {
	Total     int64
	Completed int64
	Failed    int64
}

// CreateTask inserts task in its own transaction, which commits before
// this call returns. This is the contract that lets a worker on
// another goroutine read the row immediately after TaskScheduler
// submits the work closure (§4.1, §4.3 step 2).
func (s *Storage) CreateTask(task *Task) error {
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	return s.DB.Session(&gorm.Session{NewDB: true}).Create(task).Error
}

// UpdateTask merges the full mutable state of task, last-writer-wins
// at the row level. Safe to call from any worker goroutine: a task is
// mutated by exactly one worker between RUNNING and terminal, and the
// cancellation flag is the only field a non-owning actor ever sets.
func (s *Storage) UpdateTask(task *Task) error {
	task.UpdatedAt = time.Now()
	return s.DB.Session(&gorm.Session{NewDB: true}).Save(task).Error
}

// FinishTask stamps task with a terminal status and endedAt, then
// persists it. Every call site that drives a task to COMPLETED,
// FAILED or CANCELLED must go through here so "endedAt is set iff
// status is terminal" (§3) can't drift per call site.
func (s *Storage) FinishTask(task *Task, status TaskStatus) error {
	now := time.Now()
	task.Status = status
	task.EndedAt = &now
	return s.UpdateTask(task)
}

// GetTask returns the task with id, or ErrTaskNotFound.
func (s *Storage) GetTask(id uint64) (*Task, error) {
	var task Task
	err := s.DB.First(&task, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ListRecentTasks returns up to limit tasks, newest first.
func (s *Storage) ListRecentTasks(limit int) ([]Task, error) {
	var tasks []Task
	err := s.DB.Order("id desc").Limit(limit).Find(&tasks).Error
	return tasks, err
}

// ListTasksByStatus returns up to limit tasks with the given status,
// newest first.
func (s *Storage) ListTasksByStatus(status TaskStatus, limit int) ([]Task, error) {
	var tasks []Task
	err := s.DB.Where("status = ?", status).Order("id desc").Limit(limit).Find(&tasks).Error
	return tasks, err
}

// CountByStatus returns the number of tasks currently in status.
func (s *Storage) CountByStatus(status TaskStatus) (int64, error) {
	var count int64
	err := s.DB.Model(&Task{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// RequestCancellation flips the cancellation flag. A no-op if the task
// is already terminal; returns ErrTaskNotFound for an unknown id.
func (s *Storage) RequestCancellation(id uint64) error {
	task, err := s.GetTask(id)
	if err != nil {
		return err
	}
	if task.Status.IsTerminal() {
		return nil
	}
	return s.DB.Model(&Task{}).Where("id = ?", id).Update("cancellation_requested", true).Error
}

// StatsByKindSince returns total/completed/failed counts for kind
// across tasks created within the last `days` days.
func (s *Storage) StatsByKindSince(kind TaskKind, days int) (TaskStats, error) {
	since := time.Now().AddDate(0, 0, -days)
	var stats TaskStats

	base := s.DB.Model(&Task{}).Where("kind = ? AND created_at >= ?", kind, since)
	if err := base.Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	if err := s.DB.Model(&Task{}).
		Where("kind = ? AND created_at >= ? AND status = ?", kind, since, TaskCompleted).
		Count(&stats.Completed).Error; err != nil {
		return stats, err
	}
	if err := s.DB.Model(&Task{}).
		Where("kind = ? AND created_at >= ? AND status = ?", kind, since, TaskFailed).
		Count(&stats.Failed).Error; err != nil {
		return stats, err
	}
	return stats, nil
}

// RecoverInterruptedTasks transitions every task still in PENDING or
// RUNNING to FAILED, called once at process start (§4.3 "Recovery on
// process start"). Prevents zombie tasks left by a prior crash.
func (s *Storage) RecoverInterruptedTasks() (int, error) {
	var stuck []Task
	if err := s.DB.Where("status IN ?", []TaskStatus{TaskPending, TaskRunning}).Find(&stuck).Error; err != nil {
		return 0, err
	}

	for i := range stuck {
		stuck[i].ErrorMessage = "Interrupted by restart"
		stuck[i].Message = "Interrupted by restart"
		if err := s.FinishTask(&stuck[i], TaskFailed); err != nil {
			return i, err
		}
	}
	return len(stuck), nil
}

// CountTaskStatuses returns the counts the /api/tasks/stats endpoint
// needs in one shot.
func (s *Storage) CountTaskStatuses() (total, running, completed, failed, cancelled int64, err error) {
	if err = s.DB.Model(&Task{}).Count(&total).Error; err != nil {
		return
	}
	if err = s.DB.Model(&Task{}).Where("status = ?", TaskRunning).Count(&running).Error; err != nil {
		return
	}
	if err = s.DB.Model(&Task{}).Where("status = ?", TaskCompleted).Count(&completed).Error; err != nil {
		return
	}
	if err = s.DB.Model(&Task{}).Where("status = ?", TaskFailed).Count(&failed).Error; err != nil {
		return
	}
	if err = s.DB.Model(&Task{}).Where("status = ?", TaskCancelled).Count(&cancelled).Error; err != nil {
		return
	}
	return
}
