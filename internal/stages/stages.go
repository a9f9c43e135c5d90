// Package stages implements the pipeline's units of work. Every stage
// produces one named artifact under a uniform policy: an existing non-empty
// cache entry short-circuits the run unless force is set, required inputs
// resolve from caller overrides first and cached upstream artifacts second,
// and freshly generated text is written through to the cache before being
// returned.
package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/resume-pipeline/internal/cache"
	"github.com/jonathan/resume-pipeline/internal/document"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/similarity"
)

// Inputs carries caller-supplied override values keyed by artifact key.
type Inputs map[string]string

// Stage is one step of the pipeline producing exactly one artifact.
type Stage interface {
	Name() string
	ArtifactKey() string
	Dependencies() []string
	Run(ctx context.Context, force bool, overrides Inputs) (string, error)
}

// Env holds the collaborators shared by all stages.
type Env struct {
	Cache     *cache.TextCache
	Summaries *cache.SummaryCache
	Client    llm.Client
	Searcher  similarity.Searcher
	Extractor document.TextExtractor
}

// MissingInputError reports a stage invoked with no override, no cached
// upstream artifact, and no way to derive the input. This is a
// configuration error, not a recoverable one.
type MissingInputError struct {
	Stage    string
	Artifact string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("stage %s: required input %s has no override and no cached value", e.Stage, e.Artifact)
}

// StageError wraps a failure with the stage and artifact it came from.
type StageError struct {
	Stage    string
	Artifact string
	Cause    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s (artifact %s) failed: %v", e.Stage, e.Artifact, e.Cause)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// cachedRun applies the uniform stage policy around a generate function:
// cache hit short-circuit unless forced, then generate, then write-through.
func (e *Env) cachedRun(key string, force bool, generate func() (string, error)) (string, error) {
	if !force {
		text, ok, err := e.Cache.Read(key)
		if err != nil {
			return "", err
		}
		if ok && strings.TrimSpace(text) != "" {
			return text, nil
		}
	}

	text, err := generate()
	if err != nil {
		return "", err
	}
	if err := e.Cache.Write(key, text); err != nil {
		return "", err
	}
	return text, nil
}

// resolveInput resolves one upstream artifact: caller override first, then
// the artifact's own cache entry.
func (e *Env) resolveInput(stage, key string, overrides Inputs, required bool) (string, error) {
	if value, ok := overrides[key]; ok && value != "" {
		return value, nil
	}
	text, ok, err := e.Cache.Read(key)
	if err != nil {
		return "", err
	}
	if ok && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if required {
		return "", &MissingInputError{Stage: stage, Artifact: key}
	}
	return "", nil
}

// resolveResumeText resolves the source resume text: override, then cache,
// then derivation from the resume file through the text extractor. Derived
// text is cached for the stages that share it.
func (e *Env) resolveResumeText(stage string, force bool, overrides Inputs, resumePath string) (string, error) {
	if value, ok := overrides[cache.KeyResumeText]; ok && value != "" {
		return value, nil
	}
	if !force {
		text, ok, err := e.Cache.Read(cache.KeyResumeText)
		if err != nil {
			return "", err
		}
		if ok && strings.TrimSpace(text) != "" {
			return text, nil
		}
	}
	if resumePath == "" || e.Extractor == nil {
		return "", &MissingInputError{Stage: stage, Artifact: cache.KeyResumeText}
	}

	text, err := e.Extractor.Extract(resumePath)
	if err != nil {
		return "", fmt.Errorf("extracting resume text from %s: %w", resumePath, err)
	}
	if err := e.Cache.Write(cache.KeyResumeText, text); err != nil {
		return "", err
	}
	return text, nil
}
