package stages

import (
	"context"
	"os"
	"strings"

	"github.com/jonathan/resume-pipeline/internal/cache"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/prompts"
)

// AccomplishmentsStage produces the consolidated accomplishments corpus.
// When an existing accomplishments document is available the stage merges
// newly extracted accomplishments into it; otherwise it builds a fresh
// categorized list. The branch is decided by whether existing
// accomplishments resolved to non-empty text, not by configuration.
type AccomplishmentsStage struct {
	Env *Env

	ResumePath          string
	AccomplishmentsPath string
}

func (s *AccomplishmentsStage) Name() string        { return "accomplishments" }
func (s *AccomplishmentsStage) ArtifactKey() string { return cache.KeyFullAccomplishments }
func (s *AccomplishmentsStage) Dependencies() []string {
	return []string{cache.KeyResumeText}
}

func (s *AccomplishmentsStage) Run(ctx context.Context, force bool, overrides Inputs) (string, error) {
	return s.Env.cachedRun(cache.KeyFullAccomplishments, force, func() (string, error) {
		resumeText, err := s.Env.resolveResumeText(s.Name(), force, overrides, s.ResumePath)
		if err != nil {
			return "", err
		}
		existing, err := s.existingAccomplishments()
		if err != nil {
			return "", err
		}

		var prompt string
		if strings.TrimSpace(existing) != "" {
			prompt = prompts.Format(prompts.MustGet("accomplishments-merge"), map[string]string{
				"ExistingAccomplishments": existing,
				"ResumeText":              resumeText,
			})
		} else {
			prompt = prompts.Format(prompts.MustGet("accomplishments-fresh"), map[string]string{
				"ResumeText": resumeText,
			})
		}

		text, err := llm.CompleteWithRetry(ctx, s.Env.Client, prompt, llm.TierStandard)
		if err != nil {
			return "", &StageError{Stage: s.Name(), Artifact: s.ArtifactKey(), Cause: err}
		}
		return strings.TrimSpace(text), nil
	})
}

func (s *AccomplishmentsStage) existingAccomplishments() (string, error) {
	if s.AccomplishmentsPath == "" {
		return "", nil
	}
	data, err := os.ReadFile(s.AccomplishmentsPath)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
