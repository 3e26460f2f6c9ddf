package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/increff/noos-service/internal/noos"
	"github.com/increff/noos-service/internal/queue"
	"github.com/increff/noos-service/internal/storage"
)

// handleRunNoosAsync submits a NOOS classification run to the
// algorithm worker pool. The request body may supply a full
// AlgorithmParameters override; an omitted body falls back to the
// currently active parameter set.
func (s *Server) handleRunNoosAsync(w http.ResponseWriter, r *http.Request) {
	params, err := s.resolveParameters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := s.scheduler.Submit(storage.KindAlgorithmRun, "", params.ParameterSet, func(task *storage.Task) {
		onProgress := func(pct float64, phase, message string) error {
			task.Progress = pct
			task.Phase = phase
			task.Message = message
			return s.storage.UpdateTask(task)
		}
		isCancelled := func() (bool, error) {
			reloaded, err := s.storage.GetTask(task.ID)
			if err != nil {
				return false, err
			}
			return reloaded.CancellationRequested, nil
		}

		results, err := s.engine.Run(params, task.ID, onProgress, isCancelled)
		if err != nil {
			if errors.Is(err, noos.ErrCancelled) {
				task.Message = "cancelled"
				if err := s.storage.FinishTask(task, storage.TaskCancelled); err != nil {
					s.logger.Error("failed to mark noos run cancelled", "taskId", task.ID, "error", err)
				}
				return
			}
			s.failTask(task, err)
			return
		}

		task.Progress = 100
		task.ProcessedRecords = int64(len(results))
		if err := s.storage.FinishTask(task, storage.TaskCompleted); err != nil {
			s.logger.Error("failed to mark noos run complete", "taskId", task.ID, "error", err)
		}
	})
	if err == queue.ErrQueueFull {
		writeJSON(w, http.StatusTooManyRequests, task)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, task)
}

// resolveParameters reads an AlgorithmParameters override from the
// request body, falling back to the active parameter set when the
// body is empty.
func (s *Server) resolveParameters(r *http.Request) (storage.AlgorithmParameters, error) {
	if r.ContentLength == 0 {
		active, err := s.storage.ActiveParameterSet()
		if err != nil {
			return storage.AlgorithmParameters{}, err
		}
		return *active, nil
	}
	var params storage.AlgorithmParameters
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		return storage.AlgorithmParameters{}, err
	}
	return params, nil
}
