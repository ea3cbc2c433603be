package types

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RunMode selects single-model or side-by-side comparison runs.
type RunMode string

// Run modes.
const (
	RunModeSingle  RunMode = "single"
	RunModeCompare RunMode = "compare"
)

// RunRequest is the inbound body of a story run.
type RunRequest struct {
	RawInput        string          `json:"raw_input"`
	ProjectSettings ProjectSettings `json:"project_settings"`
	RunMode         RunMode         `json:"run_mode" validate:"omitempty,oneof=single compare"`
	Models          []string        `json:"models" validate:"omitempty,max=8,dive,required,modelid"`
}

// ProjectSettings carries the optional context used to fill prompt templates.
type ProjectSettings struct {
	ProjectName        string `json:"projectName,omitempty"`
	ProjectDescription string `json:"projectDescription,omitempty"`
	Persona            string `json:"persona,omitempty"`
	Tone               string `json:"tone,omitempty"`
	Format             string `json:"format,omitempty"`
	CustomPrompt       string `json:"customPrompt,omitempty"`
	FileContent        string `json:"fileContent,omitempty"`
	TechnicalContext   string `json:"technicalContext,omitempty"`
	ProjectContext     string `json:"project_context,omitempty"`
	AdditionalContext  string `json:"additionalContext,omitempty"`
	DesignGuidelines   string `json:"designGuidelines,omitempty"`
}

// UnmarshalJSON accepts both the camelCase keys sent by the UI and the
// snake_case keys used by older callers.
func (p *ProjectSettings) UnmarshalJSON(data []byte) error {
	type plain ProjectSettings
	var camel plain
	if err := json.Unmarshal(data, &camel); err != nil {
		return err
	}

	var snake struct {
		ProjectName        string `json:"project_name"`
		ProjectDescription string `json:"project_description"`
		CustomPrompt       string `json:"custom_prompt"`
		FileContent        string `json:"file_content"`
	}
	if err := json.Unmarshal(data, &snake); err != nil {
		return err
	}

	*p = ProjectSettings(camel)
	p.ProjectName = firstNonEmpty(p.ProjectName, snake.ProjectName)
	p.ProjectDescription = firstNonEmpty(p.ProjectDescription, snake.ProjectDescription)
	p.CustomPrompt = firstNonEmpty(p.CustomPrompt, snake.CustomPrompt)
	p.FileContent = firstNonEmpty(p.FileContent, snake.FileContent)
	return nil
}

// Context returns the project context in priority order: technical,
// explicit project context, then additional context.
func (p ProjectSettings) Context() string {
	return firstNonEmpty(p.TechnicalContext, p.ProjectContext, p.AdditionalContext)
}

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("modelid", func(fl validator.FieldLevel) bool {
		return IsModelID(fl.Field().String())
	})
	return v
}

// Validate validates the RunRequest using the validator.
func (r *RunRequest) Validate() error {
	return requestValidator.Struct(r)
}

// Mode returns the requested run mode, defaulting to single.
func (r *RunRequest) Mode() RunMode {
	if r.RunMode == "" {
		return RunModeSingle
	}
	return r.RunMode
}

// IsModelID reports whether id has the "provider:model" shape.
func IsModelID(id string) bool {
	provider, model, ok := strings.Cut(id, ":")
	return ok && provider != "" && model != "" && !strings.ContainsAny(id, " \t\n")
}

// ModelProvider returns the provider half of a model id, or "unknown".
func ModelProvider(id string) string {
	provider, _, ok := strings.Cut(id, ":")
	if !ok || provider == "" {
		return "unknown"
	}
	return provider
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
