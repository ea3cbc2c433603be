package db

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/story-builder/internal/types"
)

// Session statuses and story sources.
const (
	SessionStatusActive = "active"
	SourceLLM           = "llm"
	// DefaultSessionTitle is used when the raw input is blank.
	DefaultSessionTitle = "New Story"
	sessionTitleLimit   = 100
)

// Session represents an sb_sessions row
type Session struct {
	ID              uuid.UUID             `json:"id"`
	Title           string                `json:"title"`
	Status          string                `json:"status"`
	ContextDefaults types.ProjectSettings `json:"context_defaults"`
	CreatedAt       time.Time             `json:"created_at"`
}

// StoryDocument is the JSONB body of an sb_stories row.
type StoryDocument struct {
	Title              string                `json:"title"`
	Description        string                `json:"description"`
	AcceptanceCriteria []string              `json:"acceptance_criteria"`
	ModelID            string                `json:"model_id"`
	RunID              string                `json:"run_id"`
	RawInput           string                `json:"raw_input"`
	ProjectSettings    types.ProjectSettings `json:"project_settings"`
	DoR                types.DoRResult       `json:"dor"`
	Eval               types.EvalResult      `json:"eval"`
	Debug              types.RunDebug        `json:"debug"`
	ComparisonGroupID  *string               `json:"comparison_group_id"`
	GeneratedAt        time.Time             `json:"generated_at"`
}

// StoredStory represents an sb_stories row
type StoredStory struct {
	ID        uuid.UUID     `json:"id"`
	SessionID uuid.UUID     `json:"session_id"`
	Source    string        `json:"source"`
	Story     StoryDocument `json:"story"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewStoryDocument builds the stored form of a finished run.
func NewStoryDocument(run types.Run, rawInput string, settings types.ProjectSettings, groupID *string, generatedAt time.Time) StoryDocument {
	criteria := run.FinalStory.AcceptanceCriteria
	if criteria == nil {
		criteria = []string{}
	}
	return StoryDocument{
		Title:              run.FinalStory.Title,
		Description:        run.FinalStory.Description,
		AcceptanceCriteria: criteria,
		ModelID:            run.ModelID,
		RunID:              run.RunID,
		RawInput:           rawInput,
		ProjectSettings:    settings,
		DoR:                run.DoR,
		Eval:               run.Eval,
		Debug:              run.Debug,
		ComparisonGroupID:  groupID,
		GeneratedAt:        generatedAt.UTC(),
	}
}

// Run rebuilds the run view of a stored story.
func (s StoredStory) Run() types.Run {
	id := s.ID.String()
	runID := s.Story.RunID
	if runID == "" {
		runID = id
	}
	return types.Run{
		RunID:   runID,
		ModelID: s.Story.ModelID,
		FinalStory: types.Story{
			Title:              s.Story.Title,
			Description:        s.Story.Description,
			AcceptanceCriteria: s.Story.AcceptanceCriteria,
		},
		DoR:     s.Story.DoR,
		Eval:    s.Story.Eval,
		Debug:   s.Story.Debug,
		StoryID: &id,
	}
}

// SessionTitle derives a session title from the raw input.
func SessionTitle(rawInput string) string {
	title := strings.TrimSpace(rawInput)
	if title == "" {
		return DefaultSessionTitle
	}
	if r := []rune(title); len(r) > sessionTitleLimit {
		title = string(r[:sessionTitleLimit])
	}
	return title
}
