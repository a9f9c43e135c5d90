// Package pipeline provides the high-level orchestration for resume
// generation: sequential stage execution in dependency order, assembly of
// the final document, and rendering.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/resume-pipeline/internal/cache"
	"github.com/jonathan/resume-pipeline/internal/crawl"
	"github.com/jonathan/resume-pipeline/internal/document"
	"github.com/jonathan/resume-pipeline/internal/extract"
	"github.com/jonathan/resume-pipeline/internal/schemas"
	"github.com/jonathan/resume-pipeline/internal/stages"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Stage    string `json:"stage"`
	Artifact string `json:"artifact"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	ResumePath          string
	AccomplishmentsPath string
	JobURL              string
	CompanyURL          string
	CompanyName         string
	OutputPath          string

	Force            bool
	UseAdvancedModel bool
	SemanticFilter   bool
	UseBrowser       bool
	FastCrawl        bool

	// Overrides inject upstream artifact values directly, keyed by
	// artifact key. Stage outputs are layered on top as the run advances.
	Overrides stages.Inputs

	OnProgress ProgressCallback
}

// Runner executes pipeline runs against a fixed set of collaborators.
type Runner struct {
	Env    *stages.Env
	Writer document.Writer
}

// Run executes every stage in dependency order, assembles the resume
// document, and renders it when an output path is configured. A stage
// failure aborts the run; no partial document is ever rendered.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*document.ResumeDocument, error) {
	runID := uuid.New().String()

	inputs := make(stages.Inputs, len(opts.Overrides))
	for key, value := range opts.Overrides {
		inputs[key] = value
	}

	generateStage := &stages.GenerateResumeStage{
		Env:              r.Env,
		UseAdvancedModel: opts.UseAdvancedModel,
		SemanticFilter:   opts.SemanticFilter,
	}
	ordered := []stages.Stage{
		&stages.AccomplishmentsStage{Env: r.Env, ResumePath: opts.ResumePath, AccomplishmentsPath: opts.AccomplishmentsPath},
		&stages.PersonalDetailsStage{Env: r.Env, ResumePath: opts.ResumePath},
		&stages.JobDescriptionStage{Env: r.Env, JobURL: opts.JobURL, UseBrowser: opts.UseBrowser},
		&stages.CompanySummaryStage{Env: r.Env, CompanyURL: opts.CompanyURL, CompanyName: opts.CompanyName, Crawler: r.siteCrawler(opts)},
		&stages.IndustryStage{Env: r.Env},
		generateStage,
	}

	if err := stages.ValidateOrder(ordered, opts.Overrides); err != nil {
		return nil, fmt.Errorf("pipeline run %s: %w", runID, err)
	}

	artifacts := make(map[string]string, len(ordered))
	for _, stage := range ordered {
		r.emit(opts, runID, stage.Name(), stage.ArtifactKey(), "running")

		output, err := stage.Run(ctx, opts.Force, inputs)
		if err != nil {
			r.emit(opts, runID, stage.Name(), stage.ArtifactKey(), "failed")
			return nil, fmt.Errorf("pipeline run %s: %w", runID, err)
		}

		artifacts[stage.ArtifactKey()] = output
		// Wire this output into downstream stage inputs unless the caller
		// explicitly overrode the artifact.
		if _, overridden := opts.Overrides[stage.ArtifactKey()]; !overridden {
			inputs[stage.ArtifactKey()] = output
		}
		r.emit(opts, runID, stage.Name(), stage.ArtifactKey(), "done")
	}

	doc, err := r.assemble(ctx, generateStage, inputs, artifacts)
	if err != nil {
		return nil, fmt.Errorf("pipeline run %s: %w", runID, err)
	}

	if opts.OutputPath != "" {
		if r.Writer == nil {
			return nil, fmt.Errorf("pipeline run %s: no document writer configured", runID)
		}
		if err := r.Writer.Write(doc, opts.OutputPath); err != nil {
			return nil, fmt.Errorf("pipeline run %s: %w", runID, err)
		}
		r.emit(opts, runID, "render", "", "done")
	}

	return doc, nil
}

// assemble parses the generated resume text, regenerating the source on
// parse failure within the extraction budget, schema-validates the parsed
// object, and builds the final document. Personal-details parsing has no
// retry; a failure there is terminal.
func (r *Runner) assemble(ctx context.Context, generateStage *stages.GenerateResumeStage, inputs stages.Inputs, artifacts map[string]string) (*document.ResumeDocument, error) {
	resumeJSON := artifacts[cache.KeyGeneratedResumeText]

	regen := func(ctx context.Context) (string, error) {
		text, err := generateStage.Run(ctx, true, inputs)
		if err != nil {
			return "", err
		}
		resumeJSON = text
		return text, nil
	}

	parsed, err := extract.ObjectWithRegen(ctx, cache.KeyGeneratedResumeText, resumeJSON, regen, extract.ResumeTextRetries)
	if err != nil {
		return nil, err
	}

	normalized, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("serializing parsed resume: %w", err)
	}
	if err := schemas.ValidateResume(string(normalized)); err != nil {
		return nil, fmt.Errorf("generated resume failed schema validation: %w", err)
	}

	return document.Assemble(resumeJSON, artifacts[cache.KeyPersonalDetails])
}

func (r *Runner) siteCrawler(opts RunOptions) stages.SiteCrawler {
	if opts.FastCrawl {
		return &crawl.FastCrawler{}
	}
	return crawl.NewCrawler(nil)
}

func (r *Runner) emit(opts RunOptions, runID, stage, artifact, message string) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{
			Stage:    stage,
			Artifact: artifact,
			Message:  message,
			RunID:    runID,
		})
	}
}
