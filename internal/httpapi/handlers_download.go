package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/increff/noos-service/internal/download"
	"github.com/increff/noos-service/internal/queue"
	"github.com/increff/noos-service/internal/storage"
)

// buildDownload produces the requested entity's export file and
// returns the result. Shared by the sync and async handlers.
func (s *Server) buildDownload(ctx context.Context, kind storage.TaskKind, runID uint64) (download.Result, error) {
	switch kind {
	case storage.KindStylesDownload:
		rows, err := s.storage.AllStyles()
		if err != nil {
			return download.Result{}, err
		}
		return s.builder.Styles(ctx, rows)

	case storage.KindStoresDownload:
		rows, err := s.storage.AllStores()
		if err != nil {
			return download.Result{}, err
		}
		return s.builder.Stores(ctx, rows)

	case storage.KindSkusDownload:
		skus, err := s.storage.AllSkus()
		if err != nil {
			return download.Result{}, err
		}
		styles, err := s.storage.AllStyles()
		if err != nil {
			return download.Result{}, err
		}
		codeByID := make(map[uint64]string, len(styles))
		for _, st := range styles {
			codeByID[st.ID] = st.StyleCode
		}
		return s.builder.Skus(ctx, skus, codeByID)

	case storage.KindSalesDownload:
		sales, err := s.storage.SalesInRange(nil, nil)
		if err != nil {
			return download.Result{}, err
		}
		skus, err := s.storage.AllSkus()
		if err != nil {
			return download.Result{}, err
		}
		stores, err := s.storage.AllStores()
		if err != nil {
			return download.Result{}, err
		}
		skuByID := make(map[uint64]string, len(skus))
		for _, sk := range skus {
			skuByID[sk.ID] = sk.Sku
		}
		branchByID := make(map[uint64]string, len(stores))
		for _, st := range stores {
			branchByID[st.ID] = st.Branch
		}
		return s.builder.Sales(ctx, sales, skuByID, branchByID)

	case storage.KindNoosDownload:
		resolvedRunID := runID
		if resolvedRunID == 0 {
			latest, err := s.storage.LatestNoosRunID()
			if err != nil {
				return download.Result{}, err
			}
			resolvedRunID = latest
		}
		results, err := s.storage.NoosResultsByRun(resolvedRunID)
		if err != nil {
			return download.Result{}, err
		}
		return s.builder.Noos(ctx, results)

	default:
		return download.Result{}, fmt.Errorf("httpapi: unsupported download kind %s", kind)
	}
}

// handleDownloadSync streams the file directly in the response body.
func (s *Server) handleDownloadSync(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	kind, ok := entityDownloadKind(entity)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown entity type: "+entity)
		return
	}

	runID, _ := strconv.ParseUint(r.URL.Query().Get("runId"), 10, 64)
	result, err := s.buildDownload(r.Context(), kind, runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer os.Remove(result.Path)

	w.Header().Set("Content-Type", "text/tab-separated-values")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entity+".tsv"))
	w.Header().Set("X-Checksum-Sha256", result.Checksum)
	http.ServeFile(w, r, result.Path)
}

// handleDownloadAsync submits a download job to the worker pool and
// returns a Task the caller polls for resultPath (§6 "async download").
func (s *Server) handleDownloadAsync(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	kind, ok := entityDownloadKind(entity)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown entity type: "+entity)
		return
	}
	runID, _ := strconv.ParseUint(r.URL.Query().Get("runId"), 10, 64)

	task, err := s.scheduler.Submit(kind, entity+".tsv", "", func(task *storage.Task) {
		result, err := s.buildDownload(context.Background(), kind, runID)
		if err != nil {
			s.failTask(task, err)
			return
		}
		task.Progress = 100
		task.ResultPath = result.Path
		task.ResultChecksum = result.Checksum
		task.ProcessedRecords = result.RecordCount
		if err := s.storage.FinishTask(task, storage.TaskCompleted); err != nil {
			s.logger.Error("failed to mark download task complete", "taskId", task.ID, "error", err)
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

func (s *Server) failTask(task *storage.Task, err error) {
	task.ErrorMessage = err.Error()
	task.Message = err.Error()
	if updateErr := s.storage.FinishTask(task, storage.TaskFailed); updateErr != nil {
		s.logger.Error("failed to mark task failed", "taskId", task.ID, "error", updateErr)
	}
}
