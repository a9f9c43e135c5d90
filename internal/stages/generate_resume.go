package stages

import (
	"context"
	"strings"

	"github.com/jonathan/resume-pipeline/internal/cache"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/prompts"
)

// TopKFragments is how many accomplishment fragments survive semantic
// filtering before resume generation.
const TopKFragments = 10

// GenerateResumeStage produces the tailored resume text containing the
// structured JSON object. It needs all four upstream artifacts. With
// semantic filtering enabled the accomplishments corpus is first narrowed
// to the fragments most relevant to the job description; otherwise the full
// corpus goes into a single-shot prompt.
type GenerateResumeStage struct {
	Env *Env

	UseAdvancedModel bool
	SemanticFilter   bool
}

func (s *GenerateResumeStage) Name() string        { return "generate_resume" }
func (s *GenerateResumeStage) ArtifactKey() string { return cache.KeyGeneratedResumeText }
func (s *GenerateResumeStage) Dependencies() []string {
	return []string{
		cache.KeyFullAccomplishments,
		cache.KeyJobDescriptionText,
		cache.KeyCompanySummary,
		cache.KeyJobIndustry,
	}
}

func (s *GenerateResumeStage) Run(ctx context.Context, force bool, overrides Inputs) (string, error) {
	return s.Env.cachedRun(cache.KeyGeneratedResumeText, force, func() (string, error) {
		accomplishments, err := s.Env.resolveInput(s.Name(), cache.KeyFullAccomplishments, overrides, true)
		if err != nil {
			return "", err
		}
		jobDescription, err := s.Env.resolveInput(s.Name(), cache.KeyJobDescriptionText, overrides, false)
		if err != nil {
			return "", err
		}
		companySummary, err := s.Env.resolveInput(s.Name(), cache.KeyCompanySummary, overrides, true)
		if err != nil {
			return "", err
		}
		jobIndustry, err := s.Env.resolveInput(s.Name(), cache.KeyJobIndustry, overrides, true)
		if err != nil {
			return "", err
		}

		if s.SemanticFilter {
			accomplishments = s.filterAccomplishments(accomplishments, jobDescription)
		}

		prompt := prompts.Format(prompts.MustGet("resume-generation"), map[string]string{
			"JobIndustry":     jobIndustry,
			"JobDescription":  jobDescription,
			"CompanySummary":  companySummary,
			"Accomplishments": accomplishments,
		})
		text, err := llm.CompleteWithRetry(ctx, s.Env.Client, prompt, llm.GenerationTier(s.UseAdvancedModel))
		if err != nil {
			return "", &StageError{Stage: s.Name(), Artifact: s.ArtifactKey(), Cause: err}
		}
		return strings.TrimSpace(text), nil
	})
}

// filterAccomplishments narrows the corpus to the top fragments by
// relevance to the job description. The full corpus is kept when filtering
// has nothing to work with or matches nothing.
func (s *GenerateResumeStage) filterAccomplishments(accomplishments, jobDescription string) string {
	if s.Env.Searcher == nil || accomplishments == "" || jobDescription == "" {
		return accomplishments
	}
	index, err := s.Env.Searcher.Index(accomplishments)
	if err != nil {
		return accomplishments
	}
	fragments := s.Env.Searcher.Search(index, jobDescription, TopKFragments)
	if len(fragments) == 0 {
		return accomplishments
	}
	return strings.Join(fragments, "\n\n")
}
