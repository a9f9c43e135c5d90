package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-pipeline/internal/cache"
	"github.com/jonathan/resume-pipeline/internal/document"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/similarity"
	"github.com/jonathan/resume-pipeline/internal/stages"
)

const cannedResumeJSON = `{
	"Professional Summary": "Seasoned Go engineer.",
	"Work Experience": [
		{"title": "Senior Engineer", "place": "Acme", "date": "2020-2024", "description": ["Built services"]}
	],
	"Personal Projects": [],
	"Education": [],
	"Skills": ["Go", "SQL"],
	"Languages": ["English"]
}`

const cannedDetailsJSON = `{"name": "Jane Doe", "phone_number": "+1 555 0100", "linkedin": "", "github": "", "email": "jane@example.com", "address": ""}`

// scriptedClient answers each prompt family with a canned response and
// counts resume-generation calls separately for retry assertions.
type scriptedClient struct {
	resumeResponses []string
	resumeCalls     int
}

func (c *scriptedClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	switch {
	case strings.Contains(prompt, "personal details mentioned"):
		return cannedDetailsJSON, nil
	case strings.Contains(prompt, "expert resume writer"):
		c.resumeCalls++
		if len(c.resumeResponses) > 0 {
			response := c.resumeResponses[0]
			if len(c.resumeResponses) > 1 {
				c.resumeResponses = c.resumeResponses[1:]
			}
			return response, nil
		}
		return cannedResumeJSON, nil
	case strings.Contains(prompt, "comprehensive summary"):
		return "Acme is a rocket company.", nil
	case strings.Contains(prompt, "company name mentioned"):
		return "Acme", nil
	case strings.Contains(prompt, "primary industry"):
		return "Aerospace industry", nil
	case strings.Contains(prompt, "accomplishments"):
		return "- Built Go services at scale", nil
	default:
		return "", fmt.Errorf("unexpected prompt: %.60s", prompt)
	}
}

func (c *scriptedClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return c.GenerateContent(ctx, prompt, tier)
}

func (c *scriptedClient) GetModel(llm.ModelTier) string { return "scripted" }
func (c *scriptedClient) Close() error                  { return nil }

type stubExtractor struct{}

func (stubExtractor) Extract(string) (string, error) {
	return "Jane Doe, jane@example.com. Senior Engineer at Acme 2020-2024.", nil
}

type recordingWriter struct {
	writes int
}

func (w *recordingWriter) Write(*document.ResumeDocument, string) error {
	w.writes++
	return nil
}

func newTestRunner(t *testing.T, client llm.Client) (*Runner, *recordingWriter) {
	t.Helper()
	textCache, err := cache.NewTextCache(t.TempDir())
	require.NoError(t, err)
	summaries, err := cache.NewSummaryCache(cache.DefaultSummaryCacheSize)
	require.NoError(t, err)
	writer := &recordingWriter{}
	runner := &Runner{
		Env: &stages.Env{
			Cache:     textCache,
			Summaries: summaries,
			Client:    client,
			Searcher:  &similarity.LexicalSearcher{},
			Extractor: stubExtractor{},
		},
		Writer: writer,
	}
	return runner, writer
}

func jobPostingServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>Senior Go Engineer at Acme. Build rockets with Go.</p></body></html>`)
	}))
	t.Cleanup(server.Close)
	return server
}

func baseOptions(jobURL string) RunOptions {
	return RunOptions{
		ResumePath:  "resume.txt",
		JobURL:      jobURL,
		CompanyName: "Acme",
		Overrides: stages.Inputs{
			cache.KeyCompanySiteText: "Acme builds rockets and ships them worldwide.",
		},
	}
}

func TestRunEndToEnd(t *testing.T) {
	client := &scriptedClient{}
	runner, _ := newTestRunner(t, client)
	server := jobPostingServer(t)

	doc, err := runner.Run(context.Background(), baseOptions(server.URL))
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", doc.PersonalInfo.Name)
	assert.Equal(t, []string{"Go", "SQL"}, doc.Skills)
	require.NotEmpty(t, doc.WorkExperience)
	assert.Equal(t, "Senior Engineer", doc.WorkExperience[0].Title)
	assert.Equal(t, "Seasoned Go engineer.", doc.ProfessionalSummary)
}

func TestRunEmitsProgress(t *testing.T) {
	client := &scriptedClient{}
	runner, writer := newTestRunner(t, client)
	server := jobPostingServer(t)

	var events []ProgressEvent
	opts := baseOptions(server.URL)
	opts.OutputPath = t.TempDir() + "/resume.docx"
	opts.OnProgress = func(event ProgressEvent) { events = append(events, event) }

	_, err := runner.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, writer.writes)

	var names []string
	for _, event := range events {
		if event.Message == "done" {
			names = append(names, event.Stage)
		}
	}
	assert.Equal(t, []string{"accomplishments", "personal_details", "job_description", "company_summary", "industry", "generate_resume", "render"}, names)
}

func TestRunRegeneratesUnparseableResume(t *testing.T) {
	client := &scriptedClient{resumeResponses: []string{
		"sorry, I cannot produce JSON",
		"still just prose",
		cannedResumeJSON,
	}}
	runner, _ := newTestRunner(t, client)
	server := jobPostingServer(t)

	doc, err := runner.Run(context.Background(), baseOptions(server.URL))
	require.NoError(t, err)
	assert.Equal(t, 3, client.resumeCalls, "two regenerations after the first unparseable output")
	assert.Equal(t, "Jane Doe", doc.PersonalInfo.Name)
}

func TestRunTerminalAfterExhaustedRegeneration(t *testing.T) {
	client := &scriptedClient{resumeResponses: []string{"never json"}}
	runner, writer := newTestRunner(t, client)
	server := jobPostingServer(t)

	opts := baseOptions(server.URL)
	opts.OutputPath = t.TempDir() + "/resume.docx"

	_, err := runner.Run(context.Background(), opts)
	require.Error(t, err)
	assert.Equal(t, 4, client.resumeCalls, "original call plus three regenerations")
	assert.Equal(t, 0, writer.writes, "no partial document is rendered")
}

func TestRunStageFailureAborts(t *testing.T) {
	client := &failingSummaryClient{}
	runner, writer := newTestRunner(t, client)
	server := jobPostingServer(t)

	_, err := runner.Run(context.Background(), baseOptions(server.URL))
	require.Error(t, err)

	var stageErr *stages.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "company_summary", stageErr.Stage)
	assert.Equal(t, 0, writer.writes)
}

// failingSummaryClient fails only company-summary generation so later
// stages are provably never reached.
type failingSummaryClient struct {
	scriptedClient
}

func (c *failingSummaryClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if strings.Contains(prompt, "comprehensive summary") {
		return "", errors.New("model unavailable")
	}
	return c.scriptedClient.GenerateContent(ctx, prompt, tier)
}

func (c *failingSummaryClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return c.GenerateContent(ctx, prompt, tier)
}

func TestRunSecondInvocationUsesCaches(t *testing.T) {
	client := &scriptedClient{}
	runner, _ := newTestRunner(t, client)
	server := jobPostingServer(t)

	first, err := runner.Run(context.Background(), baseOptions(server.URL))
	require.NoError(t, err)
	callsAfterFirst := client.resumeCalls

	second, err := runner.Run(context.Background(), baseOptions(server.URL))
	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst, client.resumeCalls, "cached artifacts satisfy the second run")
	assert.Equal(t, first.ProfessionalSummary, second.ProfessionalSummary)
}
