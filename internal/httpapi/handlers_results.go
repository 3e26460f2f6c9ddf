package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/increff/noos-service/internal/storage"
)

// resolveRunID reads an explicit ?runId=, else the latest run on file.
func (s *Server) resolveRunID(r *http.Request) (uint64, error) {
	if q := r.URL.Query().Get("runId"); q != "" {
		return strconv.ParseUint(q, 10, 64)
	}
	return s.storage.LatestNoosRunID()
}

// handleNoosResults returns every classification row for one run.
func (s *Server) handleNoosResults(w http.ResponseWriter, r *http.Request) {
	runID, err := s.resolveRunID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	results, err := s.storage.NoosResultsByRun(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// handleNoosSummary returns the per-type count for one run.
func (s *Server) handleNoosSummary(w http.ResponseWriter, r *http.Request) {
	runID, err := s.resolveRunID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	results, err := s.storage.NoosResultsByRun(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	summary := map[storage.NoosType]int{}
	for _, row := range results {
		summary[row.Type]++
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runId":   runID,
		"total":   len(results),
		"byType":  summary,
	})
}

// handleNoosResultsByType filters one run's results to a single
// classification type (core/bestseller/fashion).
func (s *Server) handleNoosResultsByType(w http.ResponseWriter, r *http.Request) {
	noosType := storage.NoosType(chi.URLParam(r, "type"))
	runID, err := s.resolveRunID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	results, err := s.storage.NoosResultsByRun(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	filtered := make([]storage.NoosResult, 0, len(results))
	for _, row := range results {
		if row.Type == noosType {
			filtered = append(filtered, row)
		}
	}
	writeJSON(w, http.StatusOK, filtered)
}
