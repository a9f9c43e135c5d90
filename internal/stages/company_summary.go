package stages

import (
	"context"
	"strings"

	"github.com/jonathan/resume-pipeline/internal/cache"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/prompts"
)

// SiteCrawler gathers company-site text for research. Both the worklist
// crawler and the fast probe crawler satisfy it.
type SiteCrawler interface {
	Crawl(ctx context.Context, baseURL string) (string, error)
}

// CompanySummaryStage produces a multi-section free-text company profile.
// It layers two caches: the process-wide summary memo keyed by normalized
// company identity, checked first, then the on-disk artifact cache. The
// company name is inferred from site text when not supplied.
type CompanySummaryStage struct {
	Env *Env

	CompanyURL  string
	CompanyName string
	Crawler     SiteCrawler
}

func (s *CompanySummaryStage) Name() string        { return "company_summary" }
func (s *CompanySummaryStage) ArtifactKey() string { return cache.KeyCompanySummary }
func (s *CompanySummaryStage) Dependencies() []string {
	return []string{cache.KeyCompanySiteText}
}

func (s *CompanySummaryStage) Run(ctx context.Context, force bool, overrides Inputs) (string, error) {
	memoKey := cache.NormalizeCompanyKey(s.CompanyName, s.CompanyURL)

	if !force && memoKey != "" && s.Env.Summaries != nil {
		if summary, ok := s.Env.Summaries.Get(memoKey); ok {
			return summary, nil
		}
	}
	if !force {
		text, ok, err := s.Env.Cache.Read(cache.KeyCompanySummary)
		if err != nil {
			return "", err
		}
		if ok && strings.TrimSpace(text) != "" {
			s.memoize(memoKey, text)
			return text, nil
		}
	}

	siteText, err := s.siteText(ctx, force, overrides)
	if err != nil {
		return "", err
	}

	name := strings.TrimSpace(s.CompanyName)
	if name == "" {
		name, err = s.extractCompanyName(ctx, siteText)
		if err != nil {
			return "", err
		}
		memoKey = cache.NormalizeCompanyKey(name, s.CompanyURL)
	}

	prompt := prompts.Format(prompts.MustGet("company-summary-start"), map[string]string{"CompanyName": name}) +
		"\n\nStart of company details:\n" + siteText + "\nEnd of company details\n\n" +
		prompts.MustGet("company-summary-end")

	summary, err := llm.CompleteWithRetry(ctx, s.Env.Client, prompt, llm.TierStandard)
	if err != nil {
		return "", &StageError{Stage: s.Name(), Artifact: s.ArtifactKey(), Cause: err}
	}
	summary = strings.TrimSpace(summary)

	if err := s.Env.Cache.Write(cache.KeyCompanySummary, summary); err != nil {
		return "", err
	}
	s.memoize(memoKey, summary)
	return summary, nil
}

// siteText resolves the crawled company text: override, cached artifact,
// then a fresh crawl written through to the cache.
func (s *CompanySummaryStage) siteText(ctx context.Context, force bool, overrides Inputs) (string, error) {
	if value, ok := overrides[cache.KeyCompanySiteText]; ok && value != "" {
		return value, nil
	}
	if !force {
		text, ok, err := s.Env.Cache.Read(cache.KeyCompanySiteText)
		if err != nil {
			return "", err
		}
		if ok && strings.TrimSpace(text) != "" {
			return text, nil
		}
	}
	if s.CompanyURL == "" || s.Crawler == nil {
		return "", &MissingInputError{Stage: s.Name(), Artifact: cache.KeyCompanySiteText}
	}

	text, err := s.Crawler.Crawl(ctx, s.CompanyURL)
	if err != nil {
		return "", &StageError{Stage: s.Name(), Artifact: cache.KeyCompanySiteText, Cause: err}
	}
	if err := s.Env.Cache.Write(cache.KeyCompanySiteText, text); err != nil {
		return "", err
	}
	return text, nil
}

func (s *CompanySummaryStage) extractCompanyName(ctx context.Context, siteText string) (string, error) {
	prompt := prompts.Format(prompts.MustGet("company-name"), map[string]string{"CompanyText": siteText})
	name, err := llm.CompleteWithRetry(ctx, s.Env.Client, prompt, llm.TierLite)
	if err != nil {
		return "", &StageError{Stage: s.Name(), Artifact: s.ArtifactKey(), Cause: err}
	}
	return strings.TrimSpace(name), nil
}

func (s *CompanySummaryStage) memoize(key, summary string) {
	if key != "" && s.Env.Summaries != nil {
		s.Env.Summaries.Set(key, summary)
	}
}
