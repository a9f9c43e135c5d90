package extract

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectFindsEmbeddedJSON(t *testing.T) {
	raw := "Here is the tailored resume:\n```json\n{\"Work Experience\": []}\n```\nLet me know if you want changes."

	parsed, err := Object("resume_text", raw)
	require.NoError(t, err)

	value, ok := parsed["work_experience"]
	require.True(t, ok, "key should be normalized to work_experience")
	assert.JSONEq(t, "[]", string(value))
	_, hasOriginal := parsed["Work Experience"]
	assert.False(t, hasOriginal)
}

func TestObjectSpansFirstBraceToLastBrace(t *testing.T) {
	raw := "prefix {\"summary\": \"built {nested} things\", \"skills\": [\"go\"]} suffix"

	parsed, err := Object("resume_text", raw)
	require.NoError(t, err)
	assert.Contains(t, parsed, "summary")
	assert.Contains(t, parsed, "skills")
}

func TestObjectNoJSON(t *testing.T) {
	_, err := Object("personal_details", "I could not produce a resume for this input.")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "personal_details", parseErr.Artifact)
}

func TestObjectMalformedJSON(t *testing.T) {
	_, err := Object("resume_text", "{\"work_experience\": [,]}")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Error(t, parseErr.Cause)
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "work_experience", NormalizeKey("Work Experience"))
	assert.Equal(t, "skills", NormalizeKey("SKILLS"))
	assert.Equal(t, "personal_projects", NormalizeKey("Personal Projects"))
}

func TestObjectWithRegenSucceedsOnThirdText(t *testing.T) {
	calls := 0
	regen := func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "still not json", nil
		}
		return "{\"work_experience\": []}", nil
	}

	parsed, err := ObjectWithRegen(context.Background(), "resume_text", "not json", regen, ResumeTextRetries)
	require.NoError(t, err)
	assert.Contains(t, parsed, "work_experience")
	assert.Equal(t, 2, calls, "two regenerations after the original text")
}

func TestObjectWithRegenExhaustsBudget(t *testing.T) {
	calls := 0
	regen := func(ctx context.Context) (string, error) {
		calls++
		return "no structured content here", nil
	}

	_, err := ObjectWithRegen(context.Background(), "resume_text", "not json", regen, ResumeTextRetries)
	require.Error(t, err)
	assert.Equal(t, ResumeTextRetries, calls, "all regenerations consumed")

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestObjectWithRegenPropagatesRegenFailure(t *testing.T) {
	boom := errors.New("model unavailable")
	regen := func(ctx context.Context) (string, error) {
		return "", boom
	}

	_, err := ObjectWithRegen(context.Background(), "resume_text", "not json", regen, ResumeTextRetries)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestObjectWithRegenFirstTextValid(t *testing.T) {
	regen := func(ctx context.Context) (string, error) {
		t.Fatal("regeneration should not run when the original text parses")
		return "", nil
	}

	parsed, err := ObjectWithRegen(context.Background(), "resume_text", "{\"skills\": [\"go\"]}", regen, ResumeTextRetries)
	require.NoError(t, err)

	var skills []string
	require.NoError(t, json.Unmarshal(parsed["skills"], &skills))
	assert.Equal(t, []string{"go"}, skills)
}
