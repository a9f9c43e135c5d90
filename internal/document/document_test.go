package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resumeFixture = `Here is the tailored resume:
{
  "Professional Summary": "Backend engineer with eight years in payments.",
  "Work Experience": [
    {"title": "Senior Engineer", "place": "Acme", "date": "2020-2024", "description": ["Led the billing rewrite", ""]},
    {"title": "", "place": "", "date": "", "description": []},
    {"title": "Engineer", "place": "", "date": "", "description": null}
  ],
  "personal_projects": [
    {"title": "resume-pipeline", "date": "2024", "description": "Built a resume tool\nShipped it"}
  ],
  "education": [
    {"title": "BSc Computer Science", "place": "State University", "date": "2016"}
  ],
  "skills": ["Go", "PostgreSQL"],
  "languages": ["English", "Spanish"]
}`

const detailsFixture = `{"Name": "Jane Doe", "Phone Number": "+1 555 0100", "linkedin": "linkedin.com/in/janedoe", "github": "github.com/janedoe", "email": "jane@example.com", "address": "Lisbon"}`

func TestAssemble(t *testing.T) {
	doc, err := Assemble(resumeFixture, detailsFixture)
	require.NoError(t, err)

	assert.Equal(t, "Backend engineer with eight years in payments.", doc.ProfessionalSummary)
	assert.Equal(t, "Jane Doe", doc.PersonalInfo.Name)
	assert.Equal(t, "+1 555 0100", doc.PersonalInfo.Phone)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, doc.Skills)
	assert.Equal(t, []string{"English", "Spanish"}, doc.Languages)

	// The all-empty entry is pruned, the title-only one kept.
	require.Len(t, doc.WorkExperience, 2)
	assert.Equal(t, "Senior Engineer", doc.WorkExperience[0].Title)
	assert.Equal(t, []string{"Led the billing rewrite"}, doc.WorkExperience[0].Description)
	assert.Equal(t, "Engineer", doc.WorkExperience[1].Title)

	// A string description is split on newlines.
	require.Len(t, doc.PersonalProjects, 1)
	assert.Equal(t, []string{"Built a resume tool", "Shipped it"}, doc.PersonalProjects[0].Description)

	require.Len(t, doc.Education, 1)
	assert.Equal(t, "State University", doc.Education[0].Place)
}

func TestAssembleBadResumeJSON(t *testing.T) {
	_, err := Assemble("no structured content", detailsFixture)

	var asmErr *AssemblyError
	require.ErrorAs(t, err, &asmErr)
}

func TestAssembleBadDetailsJSON(t *testing.T) {
	_, err := Assemble(resumeFixture, "not json either")

	var asmErr *AssemblyError
	require.ErrorAs(t, err, &asmErr)
}

func TestEntryFactoriesRejectEmpty(t *testing.T) {
	_, ok := NewWorkExperienceEntry("", "  ", "", []string{"", "  "})
	assert.False(t, ok)

	entry, ok := NewWorkExperienceEntry("Engineer", "", "", nil)
	require.True(t, ok)
	assert.Equal(t, "Engineer", entry.Title)

	_, ok = NewProjectEntry("", "", "", nil)
	assert.False(t, ok)

	_, ok = NewEducationEntry("", "", "2016", nil)
	assert.True(t, ok)
}

func TestReplaceOperations(t *testing.T) {
	doc, err := Assemble(resumeFixture, detailsFixture)
	require.NoError(t, err)

	doc.ReplaceSkill(0, "Golang")
	assert.Equal(t, "Golang", doc.Skills[0])

	doc.ReplaceSkill(99, "ignored")
	assert.Len(t, doc.Skills, 2)

	ok := doc.ReplaceWorkExperience(1, WorkExperienceEntry{Title: "Platform Engineer"})
	require.True(t, ok)
	assert.Equal(t, "Platform Engineer", doc.WorkExperience[1].Title)

	ok = doc.ReplaceWorkExperience(1, WorkExperienceEntry{})
	assert.False(t, ok, "empty replacement entries are rejected")

	doc.ReplaceProfessionalSummary("  Distributed-systems engineer focused on ledger integrity.  ")
	assert.Equal(t, "Distributed-systems engineer focused on ledger integrity.", doc.ProfessionalSummary)

	doc.ReplaceLanguage(1, " Portuguese ")
	assert.Equal(t, []string{"English", "Portuguese"}, doc.Languages)

	doc.ReplaceLanguage(-1, "ignored")
	doc.ReplaceLanguage(99, "ignored")
	assert.Equal(t, []string{"English", "Portuguese"}, doc.Languages)
}

func TestMarkdownLayout(t *testing.T) {
	doc, err := Assemble(resumeFixture, detailsFixture)
	require.NoError(t, err)

	md := doc.Markdown()
	assert.Contains(t, md, "# Jane Doe")
	assert.Contains(t, md, "+1 555 0100 | jane@example.com | Lisbon")
	assert.Contains(t, md, "LinkedIn: linkedin.com/in/janedoe | GitHub: github.com/janedoe")
	assert.Contains(t, md, "## Work Experience")
	assert.Contains(t, md, "**Senior Engineer - Acme** | *2020-2024*")
	assert.Contains(t, md, "- Led the billing rewrite")
	assert.Contains(t, md, "Go | PostgreSQL | English | Spanish")
}

func TestMarkdownWriter(t *testing.T) {
	doc, err := Assemble(resumeFixture, detailsFixture)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "resume.md")
	require.NoError(t, MarkdownWriter{}.Write(doc, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Jane Doe")
}

func TestPandocExtractorPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain resume text"), 0o600))

	text, err := PandocExtractor{}.Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "plain resume text", text)
}

func TestPandocExtractorUnsupportedFormat(t *testing.T) {
	_, err := PandocExtractor{}.Extract("resume.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported resume format")
}
