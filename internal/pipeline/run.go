// Package pipeline runs the per-model story generation state machine and
// assembles the resulting runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/story-builder/internal/dor"
	"github.com/jonathan/story-builder/internal/generation"
	"github.com/jonathan/story-builder/internal/llm"
	"github.com/jonathan/story-builder/internal/pipeline/steps"
	"github.com/jonathan/story-builder/internal/prompts"
	"github.com/jonathan/story-builder/internal/redact"
	"github.com/jonathan/story-builder/internal/repair"
	"github.com/jonathan/story-builder/internal/scoring"
	"github.com/jonathan/story-builder/internal/types"
	"github.com/jonathan/story-builder/internal/validation"
)

// DefaultPromptVersion names the built-in instruction in debug output.
const DefaultPromptVersion = "default"

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Model    string `json:"model,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs. Calls are
// serialized even when runs execute in parallel.
type ProgressCallback func(event ProgressEvent)

// Request is one story request as seen by the orchestrator.
type Request struct {
	RequestID string
	RawInput  string
	Settings  types.ProjectSettings
	Mode      types.RunMode
	Models    []string
	// Template is the prompt template; empty means the built-in default.
	Template string
	// PromptVersion names Template in debug output.
	PromptVersion string
	OnProgress    ProgressCallback
}

// Orchestrator runs story requests.
type Orchestrator struct {
	generator *generation.Generator
	repairer  *repair.Repairer
	scorer    *scoring.Scorer
	cfg       Config
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithScorer replaces the default scorer.
func WithScorer(s *scoring.Scorer) Option {
	return func(o *Orchestrator) {
		o.scorer = s
	}
}

// New creates an Orchestrator that sends every model call through client.
func New(client llm.Client, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:    cfg.normalize(),
		logger: slog.Default(),
		scorer: scoring.NewScorer(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.generator = generation.New(client, generation.WithLogger(o.logger))
	o.repairer = repair.New(client, repair.WithLogger(o.logger))
	return o
}

// Config returns the orchestrator's effective configuration.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// Execute runs every requested model and returns one Run per model in
// request order. Failures inside a run are recorded in that run. The
// error is non-nil only when ctx ended before all runs finished; the runs
// are then incomplete and must not be persisted.
func (o *Orchestrator) Execute(ctx context.Context, req Request) ([]types.Run, error) {
	models := o.cfg.ResolveModels(req.Mode, req.Models)

	template := req.Template
	version := req.PromptVersion
	if template == "" {
		template = prompts.Story(prompts.KeyDefaultInstruction)
		version = DefaultPromptVersion
	}
	if version == "" {
		version = DefaultPromptVersion
	}

	preview := clip(strings.ReplaceAll(strings.TrimSpace(req.RawInput), "\n", " "), 120)
	o.logger.Info("executing story request",
		"request_id", req.RequestID,
		"run_mode", req.Mode,
		"models", strings.Join(models, ","),
		"prompt_version", version,
		"raw_preview", preview,
	)

	var mu sync.Mutex
	emit := func(e ProgressEvent) {
		if req.OnProgress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		req.OnProgress(e)
	}

	runs := make([]types.Run, len(models))
	g := new(errgroup.Group)
	g.SetLimit(o.cfg.MaxParallelRuns)
	for i, model := range models {
		g.Go(func() error {
			messages := BuildMessages(template, req.RawInput, req.Settings)
			runs[i] = o.runModel(ctx, req.RequestID, model, version, messages, emit)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return runs, fmt.Errorf("story request interrupted: %w", err)
	}
	return runs, nil
}

// machine tracks the state of one run and reports transitions.
type machine struct {
	state  steps.Step
	runID  string
	model  string
	emit   func(ProgressEvent)
	logger *slog.Logger
}

func (m *machine) enter(to steps.Step, message string, content any) {
	if steps.IsTerminal(m.state) {
		m.logger.Error("run already finished", "run_id", m.runID, "state", m.state, "next", to)
		return
	}
	if err := steps.ValidateTransition(m.state, to); err != nil {
		m.logger.Error("run state machine violated", "run_id", m.runID, "error", err)
	}
	m.state = to
	m.emit(ProgressEvent{
		Step:     string(to),
		Category: steps.Category(to),
		Message:  message,
		RunID:    m.runID,
		Model:    m.model,
		Content:  content,
	})
}

func (o *Orchestrator) runModel(ctx context.Context, requestID, requested, version string, messages []llm.Message, emit func(ProgressEvent)) types.Run {
	runID := uuid.NewString()
	model, fellBack := o.cfg.EffectiveModel(requested)
	logger := o.logger.With("request_id", requestID, "run_id", runID, "model", model)
	if fellBack {
		logger.Warn("requested model unavailable, using fallback", "requested_model", requested)
	}

	m := &machine{state: steps.Pending, runID: runID, model: model, emit: emit, logger: logger}

	story := types.EmptyStory()
	var upstreamErr string
	iterations := 1

	m.enter(steps.Generating, "Generating story", nil)
	out, err := o.generator.GenerateStory(ctx, model, messages)
	if err != nil {
		upstreamErr = err.Error()
		logger.Error("generation failed", "kind", llm.KindOf(err), "error", upstreamErr)
	} else {
		m.enter(steps.Validating, "Validating story", nil)
		res := validation.ValidateStory(out.Data)
		if len(res.SchemaIssues) > 0 {
			logger.Debug("story schema issues", "issues", res.SchemaIssues)
		}

		switch res.Kind {
		case validation.Valid:
			story = *res.Story

		case validation.Partial:
			iterations = 2
			logger.Info("story needs criteria repair", "issues", strings.Join(res.Issues, ", "))
			m.enter(steps.Repairing, "Repairing acceptance criteria", res.Issues)

			story = types.Story{Title: res.Story.Title, Description: res.Story.Description, AcceptanceCriteria: []string{}}
			criteria, rerr := o.repairer.RepairCriteria(ctx, model, res.Story.Title, res.Story.Description)
			if rerr != nil {
				upstreamErr = "AC repair failed: " + repairReason(rerr)
				logger.Warn("criteria repair failed", "error", rerr)
			} else {
				story.AcceptanceCriteria = criteria
			}

		default:
			upstreamErr = "Invalid LLM response: " + strings.Join(res.Issues, ", ")
			logger.Warn("invalid story response", "issues", res.Issues)
		}
	}

	m.enter(steps.Scoring, "Scoring story", nil)
	d := dor.Evaluate(story, upstreamErr)
	d.Iterations = iterations
	eval, report := o.scorer.Score(story, d, upstreamErr)
	if fellBack {
		eval.Flags = append(eval.Flags, types.FlagModelFallbackUsed)
		if eval.Explanations == nil {
			eval.Explanations = map[string][]string{}
		}
		eval.Explanations[types.FlagModelFallbackUsed] = []string{
			fmt.Sprintf("%s is unavailable; %s was used instead", requested, model),
		}
	}

	run := types.Run{
		RunID:      runID,
		ModelID:    model,
		FinalStory: story,
		DoR:        d,
		Eval:       eval,
		Debug:      o.debugBlock(logger, model, version, messages, out, upstreamErr, report),
	}
	if fellBack {
		run.Debug.RequestedModel = requested
	}

	title := story.Title
	if title == "" {
		title = "[empty]"
	}
	logger.Info("run complete",
		"dor_passed", d.Passed,
		"overall", eval.Overall,
		"needs_review", eval.NeedsReview,
		"title", clip(title, 50),
	)
	m.enter(steps.Done, "Run complete", run)
	return run
}

func (o *Orchestrator) debugBlock(logger *slog.Logger, model, version string, messages []llm.Message, out *generation.Outcome, upstreamErr string, report *types.TestabilityReport) types.RunDebug {
	var payload any
	if out != nil && len(out.Payload) > 0 {
		p, err := redact.JSON(out.Payload)
		if err != nil {
			logger.Warn("could not redact request payload", "error", err)
		} else {
			payload = p
		}
	}
	return types.RunDebug{
		LLMRequest: types.LLMRequestDebug{
			Provider:      types.ModelProvider(model),
			Model:         model,
			PromptVersion: version,
			Messages:      redactMessages(messages),
			Payload:       payload,
		},
		LLMError:    upstreamErr,
		Testability: report,
	}
}

func repairReason(err error) string {
	var re *repair.Error
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	if err == nil || err.Error() == "" {
		return "insufficient criteria"
	}
	return err.Error()
}
