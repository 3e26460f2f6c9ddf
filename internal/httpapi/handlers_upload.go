package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/increff/noos-service/internal/ingest"
	"github.com/increff/noos-service/internal/queue"
	"github.com/increff/noos-service/internal/storage"
	"github.com/increff/noos-service/internal/tsv"
)

const maxUploadBytes = 64 << 20 // 64MB, generous for a 500k-row TSV

// runPipeline dispatches to the right entity-kind pipeline function.
func (s *Server) runPipeline(kind storage.TaskKind, task *storage.Task, data []byte) (*ingest.UploadResult, error) {
	switch kind {
	case storage.KindStylesUpload:
		return s.pipeline.RunStyles(task, data)
	case storage.KindStoresUpload:
		return s.pipeline.RunStores(task, data)
	case storage.KindSkusUpload:
		return s.pipeline.RunSkus(task, data)
	case storage.KindSalesUpload:
		return s.pipeline.RunSales(task, data)
	default:
		return nil, nil
	}
}

func (s *Server) readUploadFile(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "", err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}

// isParseError reports whether err is one of tsv.Parse's sentinel
// errors, which must surface as a 400 UploadResult rather than a 500
// (§7 HeaderMismatch/FileTooLarge/EmptyFile).
func isParseError(err error) bool {
	var mismatch *tsv.HeaderMismatchErr
	return errors.As(err, &mismatch) || errors.Is(err, tsv.ErrFileTooLarge) || errors.Is(err, tsv.ErrEmptyFile)
}

// handleUploadSync runs the pipeline inline and returns the
// UploadResponse directly (§6 "synchronous upload").
func (s *Server) handleUploadSync(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	kind, ok := entityUploadKind(entity)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown entity type: "+entity)
		return
	}

	data, fileName, err := s.readUploadFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task := &storage.Task{Kind: kind, Status: storage.TaskRunning, FileName: fileName}
	if err := s.storage.CreateTask(task); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.runPipeline(kind, task, data)
	if err != nil {
		if isParseError(err) {
			writeJSON(w, http.StatusBadRequest, &ingest.UploadResult{Success: false, Message: err.Error()})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, result)
}

// handleUploadAsync submits the pipeline run to the worker pool and
// returns the Task immediately (§6 "async variant").
func (s *Server) handleUploadAsync(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	kind, ok := entityUploadKind(entity)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown entity type: "+entity)
		return
	}

	data, fileName, err := s.readUploadFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := s.scheduler.Submit(kind, fileName, "", func(task *storage.Task) {
		if _, err := s.runPipeline(kind, task, data); err != nil {
			s.logger.Error("upload pipeline failed", "taskId", task.ID, "error", err)
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
