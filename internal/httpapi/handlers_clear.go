package httpapi

import (
	"net/http"
	"strconv"
)

// handleClearAll purges every master-data, sales and result table.
func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	if err := s.storage.ClearAll(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

const defaultAuditLimit = 100

// handleAuditLog returns the most recent entity-mutation audit rows,
// newest first.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		if parsed, err := strconv.Atoi(q); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	rows, err := s.audit.Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
