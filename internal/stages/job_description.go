package stages

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/resume-pipeline/internal/cache"
	"github.com/jonathan/resume-pipeline/internal/fetch"
)

const (
	// JobFetchAttempts bounds retries against HTTP 202 responses from job
	// boards that render postings asynchronously.
	JobFetchAttempts = 10
	// JobFetchRetryDelay is the fixed wait between those attempts.
	JobFetchRetryDelay = 5 * time.Second
)

// JobDescriptionStage fetches the job posting and strips it down to visible
// text. Unavailability is not an error here: exhausted 202 retries and
// request failures both yield an empty artifact that downstream stages
// consume as empty input.
type JobDescriptionStage struct {
	Env *Env

	JobURL     string
	UseBrowser bool

	// RetryDelay overrides JobFetchRetryDelay when positive (tests).
	RetryDelay time.Duration
	// Fetch overrides the per-request fetch options (tests).
	Fetch *fetch.Options
}

func (s *JobDescriptionStage) Name() string           { return "job_description" }
func (s *JobDescriptionStage) ArtifactKey() string    { return cache.KeyJobDescriptionText }
func (s *JobDescriptionStage) Dependencies() []string { return nil }

func (s *JobDescriptionStage) Run(ctx context.Context, force bool, overrides Inputs) (string, error) {
	if value, ok := overrides[cache.KeyJobDescriptionText]; ok && value != "" {
		return value, nil
	}
	if !force {
		text, ok, err := s.Env.Cache.Read(cache.KeyJobDescriptionText)
		if err != nil {
			return "", err
		}
		if ok && strings.TrimSpace(text) != "" {
			return text, nil
		}
	}

	html, ok := s.fetchPosting(ctx)
	if !ok {
		// The posting is unavailable; nothing is cached so a later run
		// can try again.
		return "", nil
	}

	text, err := fetch.VisibleText(html)
	if err != nil {
		return "", &StageError{Stage: s.Name(), Artifact: s.ArtifactKey(), Cause: err}
	}
	text = strings.TrimSpace(text)

	if s.UseBrowser && fetch.ShouldUseBrowser(text) {
		rendered, err := fetch.BrowserSimple(ctx, s.JobURL)
		if err == nil {
			if renderedText, err := fetch.VisibleText(rendered); err == nil && len(renderedText) > len(text) {
				text = strings.TrimSpace(renderedText)
			}
		}
	}

	if err := s.Env.Cache.Write(cache.KeyJobDescriptionText, text); err != nil {
		return "", err
	}
	return text, nil
}

// fetchPosting retries a 202 "still processing" response up to
// JobFetchAttempts times with a fixed delay. The second return is false
// when the posting could not be retrieved.
func (s *JobDescriptionStage) fetchPosting(ctx context.Context) (string, bool) {
	if s.JobURL == "" {
		return "", false
	}

	delay := s.RetryDelay
	if delay <= 0 {
		delay = JobFetchRetryDelay
	}

	for attempt := 0; attempt < JobFetchAttempts; attempt++ {
		result, err := fetch.URL(ctx, s.JobURL, s.Fetch)
		if err == nil {
			return result.HTML, true
		}
		if result == nil || result.StatusCode != http.StatusAccepted {
			return "", false
		}
		select {
		case <-ctx.Done():
			return "", false
		case <-time.After(delay):
		}
	}
	return "", false
}
