package stages

import (
	"context"
	"strings"

	"github.com/jonathan/resume-pipeline/internal/cache"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/prompts"
)

// PersonalDetailsStage extracts the contact-detail JSON blob from the
// source resume text. The extraction is single-shot: a blob that later
// fails to parse is a terminal error, never regenerated.
type PersonalDetailsStage struct {
	Env *Env

	ResumePath string
}

func (s *PersonalDetailsStage) Name() string        { return "personal_details" }
func (s *PersonalDetailsStage) ArtifactKey() string { return cache.KeyPersonalDetails }
func (s *PersonalDetailsStage) Dependencies() []string {
	return []string{cache.KeyResumeText}
}

func (s *PersonalDetailsStage) Run(ctx context.Context, force bool, overrides Inputs) (string, error) {
	return s.Env.cachedRun(cache.KeyPersonalDetails, force, func() (string, error) {
		resumeText, err := s.Env.resolveResumeText(s.Name(), force, overrides, s.ResumePath)
		if err != nil {
			return "", err
		}

		prompt := prompts.Format(prompts.MustGet("personal-details"), map[string]string{
			"ResumeText": resumeText,
		})
		// JSON mode: the blob feeds document assembly with no regen path.
		text, err := llm.CompleteJSONWithRetry(ctx, s.Env.Client, prompt, llm.TierLite)
		if err != nil {
			return "", &StageError{Stage: s.Name(), Artifact: s.ArtifactKey(), Cause: err}
		}
		return strings.TrimSpace(text), nil
	})
}
