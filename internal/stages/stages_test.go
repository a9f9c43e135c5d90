package stages

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-pipeline/internal/cache"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/similarity"
)

type stubClient struct {
	respond func(prompt string) (string, error)
	calls   int
	prompts []string
}

func (c *stubClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	c.calls++
	c.prompts = append(c.prompts, prompt)
	if c.respond != nil {
		return c.respond(prompt)
	}
	return "stub response", nil
}

func (c *stubClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return c.GenerateContent(ctx, prompt, tier)
}

func (c *stubClient) GetModel(llm.ModelTier) string { return "stub-model" }
func (c *stubClient) Close() error                  { return nil }

type stubExtractor struct {
	text string
}

func (e stubExtractor) Extract(string) (string, error) {
	if e.text == "" {
		return "", errors.New("no fixture text")
	}
	return e.text, nil
}

func newTestEnv(t *testing.T, client *stubClient) *Env {
	t.Helper()
	textCache, err := cache.NewTextCache(t.TempDir())
	require.NoError(t, err)
	summaries, err := cache.NewSummaryCache(cache.DefaultSummaryCacheSize)
	require.NoError(t, err)
	return &Env{
		Cache:     textCache,
		Summaries: summaries,
		Client:    client,
		Searcher:  &similarity.LexicalSearcher{},
		Extractor: stubExtractor{text: "fixture resume text with accomplishments"},
	}
}

func TestAccomplishmentsCacheIdempotence(t *testing.T) {
	client := &stubClient{respond: func(string) (string, error) { return "ACCOMPLISHMENTS V1", nil }}
	env := newTestEnv(t, client)
	stage := &AccomplishmentsStage{Env: env, ResumePath: "resume.txt"}

	first, err := stage.Run(context.Background(), false, nil)
	require.NoError(t, err)
	assert.Equal(t, "ACCOMPLISHMENTS V1", first)
	assert.Equal(t, 1, client.calls)

	second, err := stage.Run(context.Background(), false, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.calls, "cache hit must not invoke the completion service")
}

func TestAccomplishmentsForceRecompute(t *testing.T) {
	client := &stubClient{}
	env := newTestEnv(t, client)
	stage := &AccomplishmentsStage{Env: env, ResumePath: "resume.txt"}

	_, err := stage.Run(context.Background(), false, nil)
	require.NoError(t, err)
	_, err = stage.Run(context.Background(), true, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls, "force must invoke the generation collaborator")
}

func TestAccomplishmentsMergeBranch(t *testing.T) {
	client := &stubClient{}
	env := newTestEnv(t, client)

	existing := filepath.Join(t.TempDir(), "accomplishments.txt")
	require.NoError(t, os.WriteFile(existing, []byte("- Shipped the billing service"), 0o600))

	stage := &AccomplishmentsStage{Env: env, ResumePath: "resume.txt", AccomplishmentsPath: existing}
	_, err := stage.Run(context.Background(), false, nil)
	require.NoError(t, err)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "existing accomplishments")
	assert.Contains(t, client.prompts[0], "Shipped the billing service")
}

func TestAccomplishmentsFreshBranch(t *testing.T) {
	client := &stubClient{}
	env := newTestEnv(t, client)
	stage := &AccomplishmentsStage{Env: env, ResumePath: "resume.txt"}

	_, err := stage.Run(context.Background(), false, nil)
	require.NoError(t, err)

	require.Len(t, client.prompts, 1)
	assert.NotContains(t, client.prompts[0], "existing accomplishments")
	assert.Contains(t, client.prompts[0], "fixture resume text")
}

func TestAccomplishmentsMissingResume(t *testing.T) {
	client := &stubClient{}
	env := newTestEnv(t, client)
	env.Extractor = nil
	stage := &AccomplishmentsStage{Env: env}

	_, err := stage.Run(context.Background(), false, nil)

	var missing *MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, cache.KeyResumeText, missing.Artifact)
}

func TestPersonalDetailsUsesResumeTextOverride(t *testing.T) {
	client := &stubClient{respond: func(string) (string, error) {
		return `{"name": "Jane Doe"}`, nil
	}}
	env := newTestEnv(t, client)
	stage := &PersonalDetailsStage{Env: env}

	details, err := stage.Run(context.Background(), false, Inputs{cache.KeyResumeText: "override resume text"})
	require.NoError(t, err)
	assert.Equal(t, `{"name": "Jane Doe"}`, details)
	assert.Contains(t, client.prompts[0], "override resume text")

	cached, ok, err := env.Cache.Read(cache.KeyPersonalDetails)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, details, cached)
}

type stubCrawler struct {
	text  string
	err   error
	calls int
}

func (c *stubCrawler) Crawl(context.Context, string) (string, error) {
	c.calls++
	return c.text, c.err
}

func TestCompanySummaryMemoBeforeDisk(t *testing.T) {
	client := &stubClient{}
	env := newTestEnv(t, client)
	env.Summaries.Set("microsoft", "memoized summary")

	stage := &CompanySummaryStage{Env: env, CompanyName: "  Microsoft  ", Crawler: &stubCrawler{}}
	summary, err := stage.Run(context.Background(), false, nil)
	require.NoError(t, err)
	assert.Equal(t, "memoized summary", summary)
	assert.Equal(t, 0, client.calls)
}

func TestCompanySummaryDiskFallbackMemoizes(t *testing.T) {
	client := &stubClient{}
	env := newTestEnv(t, client)
	require.NoError(t, env.Cache.Write(cache.KeyCompanySummary, "disk summary"))

	stage := &CompanySummaryStage{Env: env, CompanyName: "Acme", Crawler: &stubCrawler{}}
	summary, err := stage.Run(context.Background(), false, nil)
	require.NoError(t, err)
	assert.Equal(t, "disk summary", summary)

	memoized, ok := env.Summaries.Get("acme")
	require.True(t, ok)
	assert.Equal(t, "disk summary", memoized)
}

func TestCompanySummaryCrawlsAndInfersName(t *testing.T) {
	client := &stubClient{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "company name") {
			return "Acme Corp", nil
		}
		return "generated summary", nil
	}}
	env := newTestEnv(t, client)
	crawler := &stubCrawler{text: "Acme Corp builds rockets."}

	stage := &CompanySummaryStage{Env: env, CompanyURL: "https://www.acme.example", Crawler: crawler}
	summary, err := stage.Run(context.Background(), false, nil)
	require.NoError(t, err)
	assert.Equal(t, "generated summary", summary)
	assert.Equal(t, 1, crawler.calls)

	// Site text and summary are both written through.
	siteText, ok, err := env.Cache.Read(cache.KeyCompanySiteText)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Acme Corp builds rockets.", siteText)

	// The summary is memoized under the inferred name.
	memoized, ok := env.Summaries.Get("acme corp")
	require.True(t, ok)
	assert.Equal(t, "generated summary", memoized)
}

func TestCompanySummaryMissingSiteText(t *testing.T) {
	client := &stubClient{}
	env := newTestEnv(t, client)
	stage := &CompanySummaryStage{Env: env, CompanyName: "Acme"}

	_, err := stage.Run(context.Background(), false, nil)

	var missing *MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, cache.KeyCompanySiteText, missing.Artifact)
}

func TestJobDescriptionStripsBoilerplate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><script>var x = 1;</script></head><body><nav>Menu</nav><p>Senior Go Engineer opening</p></body></html>`)
	}))
	defer server.Close()

	env := newTestEnv(t, &stubClient{})
	stage := &JobDescriptionStage{Env: env, JobURL: server.URL}

	text, err := stage.Run(context.Background(), false, nil)
	require.NoError(t, err)
	assert.Contains(t, text, "Senior Go Engineer opening")
	assert.NotContains(t, text, "var x = 1")
	assert.NotContains(t, text, "Menu")
}

func TestJobDescriptionRetriesProcessing(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		fmt.Fprint(w, `<html><body><p>finally ready</p></body></html>`)
	}))
	defer server.Close()

	env := newTestEnv(t, &stubClient{})
	stage := &JobDescriptionStage{Env: env, JobURL: server.URL, RetryDelay: time.Millisecond}

	text, err := stage.Run(context.Background(), false, nil)
	require.NoError(t, err)
	assert.Contains(t, text, "finally ready")
	assert.Equal(t, int32(3), hits.Load())
}

func TestJobDescriptionExhaustionReturnsEmpty(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	env := newTestEnv(t, &stubClient{})
	stage := &JobDescriptionStage{Env: env, JobURL: server.URL, RetryDelay: time.Millisecond}

	text, err := stage.Run(context.Background(), false, nil)
	require.NoError(t, err, "unavailability is an explicit empty value, not a failure")
	assert.Empty(t, text)
	assert.Equal(t, int32(JobFetchAttempts), hits.Load())

	// Nothing is cached so a later run can retry.
	_, ok, err := env.Cache.Read(cache.KeyJobDescriptionText)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJobDescriptionFetchErrorReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	env := newTestEnv(t, &stubClient{})
	stage := &JobDescriptionStage{Env: env, JobURL: server.URL}

	text, err := stage.Run(context.Background(), false, nil)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestIndustryPostFilter(t *testing.T) {
	client := &stubClient{respond: func(string) (string, error) {
		return "Financial Technology industry", nil
	}}
	env := newTestEnv(t, client)
	require.NoError(t, env.Cache.Write(cache.KeyCompanySummary, "a fintech company"))

	stage := &IndustryStage{Env: env}
	label, err := stage.Run(context.Background(), false, nil)
	require.NoError(t, err)
	assert.Equal(t, "Financial Technology", label)
}

func TestIndustryMissingSummary(t *testing.T) {
	env := newTestEnv(t, &stubClient{})
	stage := &IndustryStage{Env: env}

	_, err := stage.Run(context.Background(), false, nil)

	var missing *MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, cache.KeyCompanySummary, missing.Artifact)
}

func TestIndustryToleratesEmptyJobDescription(t *testing.T) {
	client := &stubClient{respond: func(string) (string, error) { return "Aerospace", nil }}
	env := newTestEnv(t, client)
	require.NoError(t, env.Cache.Write(cache.KeyCompanySummary, "a rocket company"))

	label, err := (&IndustryStage{Env: env}).Run(context.Background(), false, nil)
	require.NoError(t, err)
	assert.Equal(t, "Aerospace", label)
}

func fillUpstreamArtifacts(t *testing.T, env *Env) {
	t.Helper()
	require.NoError(t, env.Cache.Write(cache.KeyFullAccomplishments, "Built Go services.\n\nRan a bakery."))
	require.NoError(t, env.Cache.Write(cache.KeyJobDescriptionText, "Go services engineer"))
	require.NoError(t, env.Cache.Write(cache.KeyCompanySummary, "A platform company."))
	require.NoError(t, env.Cache.Write(cache.KeyJobIndustry, "Software"))
}

func TestGenerateResumeRequiresUpstreams(t *testing.T) {
	env := newTestEnv(t, &stubClient{})
	stage := &GenerateResumeStage{Env: env}

	_, err := stage.Run(context.Background(), false, nil)

	var missing *MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, cache.KeyFullAccomplishments, missing.Artifact)
}

func TestGenerateResumeSingleShot(t *testing.T) {
	client := &stubClient{respond: func(string) (string, error) {
		return `{"Professional Summary": "x", "Work Experience": [], "Skills": []}`, nil
	}}
	env := newTestEnv(t, client)
	fillUpstreamArtifacts(t, env)

	stage := &GenerateResumeStage{Env: env}
	text, err := stage.Run(context.Background(), false, nil)
	require.NoError(t, err)
	assert.Contains(t, text, "Professional Summary")

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Software")
	assert.Contains(t, client.prompts[0], "Ran a bakery", "without filtering the full corpus is used")
}

func TestGenerateResumeSemanticFilter(t *testing.T) {
	client := &stubClient{respond: func(string) (string, error) {
		return `{"Professional Summary": "x"}`, nil
	}}
	env := newTestEnv(t, client)
	env.Searcher = &similarity.LexicalSearcher{ChunkSize: 20, ChunkOverlap: 0}
	fillUpstreamArtifacts(t, env)

	stage := &GenerateResumeStage{Env: env, SemanticFilter: true}
	_, err := stage.Run(context.Background(), false, nil)
	require.NoError(t, err)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Built Go services.")
	assert.NotContains(t, client.prompts[0], "Ran a bakery", "irrelevant fragments are filtered out")
}

func TestGenerateResumeForceBypassesCache(t *testing.T) {
	client := &stubClient{}
	env := newTestEnv(t, client)
	fillUpstreamArtifacts(t, env)
	require.NoError(t, env.Cache.Write(cache.KeyGeneratedResumeText, "cached generation"))

	stage := &GenerateResumeStage{Env: env}

	text, err := stage.Run(context.Background(), false, nil)
	require.NoError(t, err)
	assert.Equal(t, "cached generation", text)
	assert.Equal(t, 0, client.calls)

	_, err = stage.Run(context.Background(), true, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, client.calls)
}
