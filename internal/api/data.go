package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/topiclab/internal/audit"
	"github.com/nerrad567/topiclab/internal/profile"
)

func (s *Server) handleGetData(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.Load(r.Context())
	if err != nil {
		writeProfileError(w, err)
		return
	}
	if data.Connections == nil {
		data.Connections = []profile.Connection{}
	}
	writeJSON(w, http.StatusOK, data)
}

// handleSaveData replaces every stored profile with the request body.
func (s *Server) handleSaveData(w http.ResponseWriter, r *http.Request) {
	var data profile.AppData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "invalid app data: "+err.Error())
		return
	}
	if err := data.Validate(); err != nil {
		writeProfileError(w, err)
		return
	}
	if err := s.store.Save(r.Context(), data); err != nil {
		writeProfileError(w, err)
		return
	}
	s.auditLog(r, audit.ActionSave, audit.EntityProfiles, "", map[string]any{"connections": len(data.Connections)})
	if data.Connections == nil {
		data.Connections = []profile.Connection{}
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleDeleteData(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context()); err != nil {
		writeProfileError(w, err)
		return
	}
	s.auditLog(r, audit.ActionDelete, audit.EntityProfiles, "", nil)
	w.WriteHeader(http.StatusNoContent)
}
