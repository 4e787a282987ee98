package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/topiclab/internal/variables"
)

type substituteRequest struct {
	Template  string            `json:"template"`
	Variables map[string]string `json:"variables"`

	// ConnectionID, if set, supplies variables from a saved profile.
	// Entries in Variables take precedence.
	ConnectionID string `json:"connection_id"`
}

type substituteResponse struct {
	Result     string   `json:"result"`
	Unresolved []string `json:"unresolved"`
}

// handleSubstitute previews placeholder substitution.
func (s *Server) handleSubstitute(w http.ResponseWriter, r *http.Request) {
	var req substituteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	vars := map[string]string{}
	if req.ConnectionID != "" {
		data, err := s.store.Load(r.Context())
		if err != nil {
			writeProfileError(w, err)
			return
		}
		conn, err := data.Connection(req.ConnectionID)
		if err != nil {
			writeProfileError(w, err)
			return
		}
		for k, v := range conn.Variables {
			vars[k] = v
		}
	}
	for k, v := range req.Variables {
		vars[k] = v
	}

	result := variables.Substitute(req.Template, vars)
	unresolved := variables.Unresolved(result)
	if unresolved == nil {
		unresolved = []string{}
	}
	writeJSON(w, http.StatusOK, substituteResponse{Result: result, Unresolved: unresolved})
}
