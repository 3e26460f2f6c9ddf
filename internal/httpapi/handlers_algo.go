package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/increff/noos-service/internal/storage"
)

// handleListParameterSets returns every saved AlgorithmParameters row.
func (s *Server) handleListParameterSets(w http.ResponseWriter, r *http.Request) {
	sets, err := s.storage.ListParameterSets()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

// handleCreateParameterSet saves a new named parameter set. It is
// created inactive; activation is a separate, explicit call.
func (s *Server) handleCreateParameterSet(w http.ResponseWriter, r *http.Request) {
	var params storage.AlgorithmParameters
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if params.ParameterSet == "" {
		writeError(w, http.StatusBadRequest, "parameterSet name is required")
		return
	}
	params.IsActive = false
	if err := s.storage.CreateParameterSet(params); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, params)
}

// handleActivateParameterSet marks name active, deactivating every
// other set so exactly zero-or-one rows stay active.
func (s *Server) handleActivateParameterSet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.storage.ActivateParameterSet(name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "parameter set not found: "+name)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "activated", "parameterSet": name})
}
