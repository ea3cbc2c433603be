package types

// Message is one role/content chat message sent to a model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMRequestDebug is the redacted record of what was sent to a model.
type LLMRequestDebug struct {
	Provider      string    `json:"provider"`
	Model         string    `json:"model"`
	PromptVersion string    `json:"prompt_version"`
	Messages      []Message `json:"messages"`
	Payload       any       `json:"payload"`
}

// RunDebug carries the audit trail of a run.
type RunDebug struct {
	LLMRequest     LLMRequestDebug    `json:"llm_request"`
	LLMError       string             `json:"llm_error,omitempty"`
	RequestedModel string             `json:"requested_model,omitempty"`
	Testability    *TestabilityReport `json:"testability,omitempty"`
}

// Run is the result of one model's generation, validation and scoring.
type Run struct {
	RunID      string     `json:"run_id"`
	ModelID    string     `json:"model_id"`
	FinalStory Story      `json:"final_story"`
	DoR        DoRResult  `json:"dor"`
	Eval       EvalResult `json:"eval"`
	Debug      RunDebug   `json:"debug"`
	StoryID    *string    `json:"story_id"`
}

// RunResponse is returned for a story run request.
type RunResponse struct {
	SessionID         string  `json:"session_id"`
	ComparisonGroupID *string `json:"comparison_group_id"`
	Runs              []Run   `json:"runs"`
}
