package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/story-builder/internal/ingestion"
	"github.com/jonathan/story-builder/internal/llm"
	"github.com/jonathan/story-builder/internal/observability"
	"github.com/jonathan/story-builder/internal/pipeline"
	"github.com/jonathan/story-builder/internal/types"
)

// Output formats for generate.
const (
	formatJSON     = "json"
	formatMarkdown = "md"
	formatHTML     = "html"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate user stories without the database",
	Long: "Run the story pipeline once for raw requirements read from --input or stdin " +
		"and print the runs as JSON, a boxed summary (--verbose) or Markdown/HTML (--format).",
	RunE: runGenerate,
}

var (
	generateInput    string
	generateTemplate string
	generateSettings string
	generateMode     string
	generateModels   []string
	generateFormat   string
	generateVerbose  bool
)

func init() {
	generateCmd.Flags().StringVarP(&generateInput, "input", "i", "", "Path to raw requirements text (default: stdin)")
	generateCmd.Flags().StringVarP(&generateTemplate, "template", "t", "", "Path to a prompt template (default: built-in)")
	generateCmd.Flags().StringVarP(&generateSettings, "settings", "s", "", "Path to project settings JSON")
	generateCmd.Flags().StringVar(&generateMode, "mode", string(types.RunModeSingle), "Run mode: single or compare")
	generateCmd.Flags().StringSliceVarP(&generateModels, "model", "m", nil, "Model id(s) to run, provider:model (repeatable)")
	generateCmd.Flags().StringVarP(&generateFormat, "format", "f", formatJSON, "Output format: json, md or html")
	generateCmd.Flags().BoolVarP(&generateVerbose, "verbose", "v", false, "Print a human-readable summary of each run")
	rootCmd.AddCommand(generateCmd)
}

// newLLMClient is replaced in tests.
var newLLMClient = func(ctx context.Context) (llm.Client, error) {
	return llm.NewClient(ctx, appConfig.LLM(), logger)
}

// generateOptions is the parsed generate invocation.
type generateOptions struct {
	Request       types.RunRequest
	Template      string
	PromptVersion string
	Format        string
	Verbose       bool
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	opts, err := buildGenerateOptions(cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := newLLMClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close() //nolint:errcheck

	scorer, err := appConfig.Scorer()
	if err != nil {
		return err
	}
	logger.Debug("testability rules loaded", "version", scorer.RuleSetVersion())

	orch := pipeline.New(client, appConfig.Pipeline(),
		pipeline.WithLogger(logger),
		pipeline.WithScorer(scorer),
	)
	return generate(ctx, orch, opts, cmd.OutOrStdout())
}

// buildGenerateOptions reads the flag inputs. Raw input comes from stdin
// when --input is empty.
func buildGenerateOptions(stdin io.Reader) (*generateOptions, error) {
	var raw string
	var src *ingestion.Source
	var err error
	if generateInput != "" {
		raw, src, err = ingestion.ReadFile(generateInput)
	} else {
		raw, src, err = ingestion.Read(stdin)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("read requirements", "path", src.Path, "bytes", src.Bytes, "hash", src.Hash)

	opts := &generateOptions{
		Request: types.RunRequest{
			RawInput: raw,
			RunMode:  types.RunMode(generateMode),
			Models:   generateModels,
		},
		Format:  strings.ToLower(generateFormat),
		Verbose: generateVerbose,
	}

	if generateSettings != "" {
		data, err := os.ReadFile(generateSettings)
		if err != nil {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
		if err := json.Unmarshal(data, &opts.Request.ProjectSettings); err != nil {
			return nil, fmt.Errorf("failed to parse settings JSON: %w", err)
		}
	}

	if generateTemplate != "" {
		data, err := os.ReadFile(generateTemplate)
		if err != nil {
			return nil, fmt.Errorf("failed to read template: %w", err)
		}
		opts.Template = string(data)
		opts.PromptVersion = strings.TrimSuffix(filepath.Base(generateTemplate), filepath.Ext(generateTemplate))
	}

	if err := opts.Request.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	switch opts.Format {
	case formatJSON, formatMarkdown, formatHTML:
	default:
		return nil, fmt.Errorf("unknown format %q (want json, md or html)", generateFormat)
	}
	return opts, nil
}

// generate runs the pipeline and writes the runs in the requested format.
func generate(ctx context.Context, orch *pipeline.Orchestrator, opts *generateOptions, out io.Writer) error {
	runs, err := orch.Execute(ctx, pipeline.Request{
		RequestID:     uuid.NewString(),
		RawInput:      opts.Request.RawInput,
		Settings:      opts.Request.ProjectSettings,
		Mode:          opts.Request.Mode(),
		Models:        opts.Request.Models,
		Template:      opts.Template,
		PromptVersion: opts.PromptVersion,
	})
	if err != nil {
		return err
	}

	if opts.Verbose {
		observability.NewPrinter(out).PrintRuns(runs)
		if opts.Format == formatJSON {
			return nil
		}
	}

	switch opts.Format {
	case formatMarkdown:
		_, err = io.WriteString(out, observability.RenderMarkdown(runs))
		return err
	case formatHTML:
		html, err := observability.RenderHTML(runs)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, html)
		return err
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(types.RunResponse{Runs: runs})
	}
}
