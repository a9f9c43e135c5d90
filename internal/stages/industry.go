package stages

import (
	"context"
	"strings"

	"github.com/jonathan/resume-pipeline/internal/cache"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/prompts"
)

// IndustryStage derives a short industry label from the job description and
// company summary. The prompt asks the model to leave the word "industry"
// out of the label; the stage also strips it afterwards since the
// instruction alone is not reliable.
type IndustryStage struct {
	Env *Env
}

func (s *IndustryStage) Name() string        { return "industry" }
func (s *IndustryStage) ArtifactKey() string { return cache.KeyJobIndustry }
func (s *IndustryStage) Dependencies() []string {
	return []string{cache.KeyJobDescriptionText, cache.KeyCompanySummary}
}

func (s *IndustryStage) Run(ctx context.Context, force bool, overrides Inputs) (string, error) {
	return s.Env.cachedRun(cache.KeyJobIndustry, force, func() (string, error) {
		// Job description may legitimately be empty; the summary may not.
		jobDescription, err := s.Env.resolveInput(s.Name(), cache.KeyJobDescriptionText, overrides, false)
		if err != nil {
			return "", err
		}
		companySummary, err := s.Env.resolveInput(s.Name(), cache.KeyCompanySummary, overrides, true)
		if err != nil {
			return "", err
		}

		prompt := prompts.Format(prompts.MustGet("job-industry"), map[string]string{
			"JobDescription": jobDescription,
			"CompanySummary": companySummary,
		})
		label, err := llm.CompleteWithRetry(ctx, s.Env.Client, prompt, llm.TierLite)
		if err != nil {
			return "", &StageError{Stage: s.Name(), Artifact: s.ArtifactKey(), Cause: err}
		}
		return stripIndustryWord(label), nil
	})
}

// stripIndustryWord drops any case-insensitive "industry" token from the
// label and collapses the remaining whitespace.
func stripIndustryWord(label string) string {
	fields := strings.Fields(label)
	kept := make([]string, 0, len(fields))
	for _, field := range fields {
		if strings.EqualFold(strings.Trim(field, ".,;:!?\"'"), "industry") {
			continue
		}
		kept = append(kept, field)
	}
	return strings.Join(kept, " ")
}
