package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/story-builder/internal/types"
)

// handleListPromptVersions lists stored prompt versions, newest first.
func (s *Server) handleListPromptVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.store.ListPromptVersions(r.Context())
	if err != nil {
		s.errResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"prompt_versions": versions,
		"count":           len(versions),
	})
}

// handleCreatePromptVersion stores a new prompt version.
func (s *Server) handleCreatePromptVersion(w http.ResponseWriter, r *http.Request) {
	var req types.CreatePromptVersionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.errResponse(w, r, &ErrValidation{Field: "body", Message: "Invalid request body: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		s.errResponse(w, r, validationError(err))
		return
	}

	pv, err := s.store.CreatePromptVersion(r.Context(), &req)
	if err != nil {
		s.errResponse(w, r, err)
		return
	}
	s.logger.Info("created prompt version", "id", pv.ID, "name", pv.Name, "status", pv.Status)
	s.jsonResponse(w, http.StatusCreated, pv)
}

// handleActivatePromptVersion makes a version the active one.
func (s *Server) handleActivatePromptVersion(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "prompt version")
	if err != nil {
		s.errResponse(w, r, err)
		return
	}

	pv, err := s.store.ActivatePromptVersion(r.Context(), id)
	if err != nil {
		s.errResponse(w, r, err)
		return
	}
	if pv == nil {
		s.errResponse(w, r, &ErrNotFound{Resource: "prompt version", ID: id.String()})
		return
	}
	s.logger.Info("activated prompt version", "id", pv.ID, "name", pv.Name)
	s.jsonResponse(w, http.StatusOK, pv)
}
