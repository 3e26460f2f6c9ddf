package httpapi

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/increff/noos-service/internal/storage"
	"github.com/increff/noos-service/internal/sysmetrics"
)

// handleListTasks returns the most recent tasks, newest first, capped
// by the configured recent-tasks limit.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	limit := s.config.GetMaxRecentTasksLimit()
	if q := r.URL.Query().Get("limit"); q != "" {
		if parsed, err := strconv.Atoi(q); err == nil && parsed > 0 && parsed < limit {
			limit = parsed
		}
	}
	tasks, err := s.storage.ListRecentTasks(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// handleTaskStats reports the current count of tasks per status.
func (s *Server) handleTaskStats(w http.ResponseWriter, r *http.Request) {
	total, running, completed, failed, cancelled, err := s.storage.CountTaskStatuses()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	host := sysmetrics.SampleWithDisk(r.Context(), s.config.GetTempDir())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":     total,
		"running":   running,
		"completed": completed,
		"failed":    failed,
		"cancelled": cancelled,
		"host":      host,
	})
}

// handleTasksByStatus lists tasks in a given status, newest first.
func (s *Server) handleTasksByStatus(w http.ResponseWriter, r *http.Request) {
	status := storage.TaskStatus(chi.URLParam(r, "status"))
	limit := s.config.GetMaxStatusTasksLimit()
	if q := r.URL.Query().Get("limit"); q != "" {
		if parsed, err := strconv.Atoi(q); err == nil && parsed > 0 && parsed < limit {
			limit = parsed
		}
	}
	tasks, err := s.storage.ListTasksByStatus(status, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func parseTaskID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
}

// handleGetTask returns one task by id.
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseTaskID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	task, err := s.storage.GetTask(id)
	if errors.Is(err, storage.ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleCancelTask flags a task for cooperative cancellation (§4.7).
// A task already in a terminal state cannot be cancelled.
func (s *Server) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseTaskID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	task, err := s.storage.GetTask(id)
	if errors.Is(err, storage.ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if task.Status.IsTerminal() {
		writeError(w, http.StatusBadRequest, "task already in a terminal state: "+string(task.Status))
		return
	}
	if err := s.scheduler.CancelTask(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancellation requested"})
}

// handleTaskResult streams the result file of a completed task.
func (s *Server) handleTaskResult(w http.ResponseWriter, r *http.Request) {
	id, err := parseTaskID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	task, err := s.storage.GetTask(id)
	if errors.Is(err, storage.ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if task.Status != storage.TaskCompleted {
		writeError(w, http.StatusConflict, "task is not completed: "+string(task.Status))
		return
	}
	if task.ResultPath == "" {
		writeError(w, http.StatusNotFound, "task has no result file")
		return
	}
	if _, err := os.Stat(task.ResultPath); err != nil {
		writeError(w, http.StatusNotFound, "result file no longer exists")
		return
	}
	w.Header().Set("Content-Type", "text/tab-separated-values")
	w.Header().Set("X-Checksum-Sha256", task.ResultChecksum)
	http.ServeFile(w, r, task.ResultPath)
}
