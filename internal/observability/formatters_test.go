package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-pipeline/internal/document"
)

func TestPrintArtifact(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintArtifact("job_industry", "Aerospace")
	output := buf.String()

	assert.Contains(t, output, "ARTIFACT: JOB_INDUSTRY")
	assert.Contains(t, output, "Aerospace")
}

func TestPrintArtifactTruncatesLongText(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintArtifact("company_summary", strings.Repeat("line\n", 30))
	assert.Contains(t, buf.String(), "more lines")
}

func TestPrintDocument(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	doc := &document.ResumeDocument{
		PersonalInfo: document.PersonalInfo{Name: "Jane Doe", Email: "jane@example.com"},
		WorkExperience: []document.WorkExperienceEntry{
			{Title: "Engineer"},
		},
		Skills: []string{"Go", "SQL"},
	}

	p.PrintDocument(doc)
	output := buf.String()

	assert.Contains(t, output, "ASSEMBLED RESUME")
	assert.Contains(t, output, "Jane Doe")
	assert.Contains(t, output, "Go, SQL")
}
