package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/story-builder/internal/db"
	"github.com/jonathan/story-builder/internal/pipeline"
	"github.com/jonathan/story-builder/internal/types"
)

// maxBodyBytes bounds request bodies; file content rides in project settings.
const maxBodyBytes = 2 << 20

// decodeRunRequest parses and validates a run request body.
func decodeRunRequest(w http.ResponseWriter, r *http.Request) (*types.RunRequest, error) {
	var req types.RunRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return nil, &ErrValidation{Field: "body", Message: "Invalid request body: " + err.Error()}
	}
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	return &req, nil
}

// execute creates the session, runs the pipeline and persists the runs.
// The returned response carries a story_id on every run.
func (s *Server) execute(ctx context.Context, req *types.RunRequest, onProgress pipeline.ProgressCallback, onRun func(types.Run)) (*types.RunResponse, error) {
	requestID := uuid.NewString()
	mode := req.Mode()

	sessionID, err := s.store.CreateSession(ctx, req.RawInput, req.ProjectSettings)
	if err != nil {
		return nil, err
	}

	template, version := pipeline.ResolveTemplate(ctx, s.store, s.logger)
	s.logger.Info("resolved prompt template", "request_id", requestID, "prompt_version", version)

	runs, err := s.orchestrator.Execute(ctx, pipeline.Request{
		RequestID:     requestID,
		RawInput:      req.RawInput,
		Settings:      req.ProjectSettings,
		Mode:          mode,
		Models:        req.Models,
		Template:      template,
		PromptVersion: version,
		OnProgress:    onProgress,
	})
	if err != nil {
		return nil, &ErrCancelled{Cause: err}
	}

	var groupID *string
	if mode == types.RunModeCompare {
		id := uuid.NewString()
		groupID = &id
	}

	generatedAt := s.now()
	docs := make([]db.StoryDocument, len(runs))
	for i, run := range runs {
		docs[i] = db.NewStoryDocument(run, req.RawInput, req.ProjectSettings, groupID, generatedAt)
	}
	ids, err := s.store.InsertStories(ctx, sessionID, docs)
	if err != nil {
		return nil, err
	}
	for i := range runs {
		if i < len(ids) {
			id := ids[i].String()
			runs[i].StoryID = &id
		}
		if onRun != nil {
			onRun(runs[i])
		}
	}

	return &types.RunResponse{
		SessionID:         sessionID.String(),
		ComparisonGroupID: groupID,
		Runs:              runs,
	}, nil
}

// handleRun runs the story pipeline and returns every run once persisted.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(w, r)
	if err != nil {
		s.errResponse(w, r, err)
		return
	}

	resp, err := s.execute(r.Context(), req, nil, nil)
	if err != nil {
		s.errResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleRunStream runs the pipeline and streams progress via SSE
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(w, r)
	if err != nil {
		s.errResponse(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	onProgress := func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent(EventProgress, event); err != nil {
			s.logger.Warn("writing SSE progress event", "error", err)
		}
	}
	onRun := func(run types.Run) {
		if err := sse.WriteEvent(EventRun, run); err != nil {
			s.logger.Warn("writing SSE run event", "error", err)
		}
	}

	resp, err := s.execute(r.Context(), req, onProgress, onRun)
	if err != nil {
		if HTTPStatus(err) >= http.StatusInternalServerError {
			s.logger.Error("streaming run failed", "error", err)
		}
		sse.WriteError(publicMessage(err))
		return
	}

	if err := sse.WriteEvent(EventComplete, resp); err != nil {
		s.logger.Warn("writing SSE complete event", "error", err)
	}
}

// pathUUID parses the {id} path value.
func pathUUID(r *http.Request, resource string) (uuid.UUID, error) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: "id", Message: fmt.Sprintf("invalid %s ID", resource)}
	}
	return id, nil
}

// handleGetStory returns one persisted story as a run.
func (s *Server) handleGetStory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "story")
	if err != nil {
		s.errResponse(w, r, err)
		return
	}

	story, err := s.store.GetStory(r.Context(), id)
	if err != nil {
		s.errResponse(w, r, err)
		return
	}
	if story == nil {
		s.errResponse(w, r, &ErrNotFound{Resource: "story", ID: id.String()})
		return
	}
	s.jsonResponse(w, http.StatusOK, storyResponse(story))
}

// StoryResponse is a persisted story with its run view.
type StoryResponse struct {
	ID                string           `json:"id"`
	SessionID         string           `json:"session_id"`
	ComparisonGroupID *string          `json:"comparison_group_id"`
	RawInput          string           `json:"raw_input"`
	Run               types.Run        `json:"run"`
	Story             db.StoryDocument `json:"story"`
	CreatedAt         time.Time        `json:"created_at"`
}

func storyResponse(s *db.StoredStory) StoryResponse {
	return StoryResponse{
		ID:                s.ID.String(),
		SessionID:         s.SessionID.String(),
		ComparisonGroupID: s.Story.ComparisonGroupID,
		RawInput:          s.Story.RawInput,
		Run:               s.Run(),
		Story:             s.Story,
		CreatedAt:         s.CreatedAt,
	}
}

// handleListSessionStories returns the stories of one session.
func (s *Server) handleListSessionStories(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "session")
	if err != nil {
		s.errResponse(w, r, err)
		return
	}

	session, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		s.errResponse(w, r, err)
		return
	}
	if session == nil {
		s.errResponse(w, r, &ErrNotFound{Resource: "session", ID: id.String()})
		return
	}

	stories, err := s.store.ListSessionStories(r.Context(), id)
	if err != nil {
		s.errResponse(w, r, err)
		return
	}

	out := make([]StoryResponse, len(stories))
	for i := range stories {
		out[i] = storyResponse(&stories[i])
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"session": session,
		"stories": out,
		"count":   len(out),
	})
}
