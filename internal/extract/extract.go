// Package extract locates and parses JSON objects embedded in free-form
// generated text. The pure extraction function is separate from the
// retry-by-regeneration decorator so the retry policy stays unit-testable
// without network calls.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ResumeTextRetries is how many times the resume-text artifact may be
// regenerated after its original output fails extraction.
const ResumeTextRetries = 3

// ParseError reports that no parseable JSON object was found in generated
// text, naming the artifact whose extraction failed.
type ParseError struct {
	Artifact string
	Cause    error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("no JSON content found in %s: %v", e.Artifact, e.Cause)
	}
	return fmt.Sprintf("no JSON content found in %s", e.Artifact)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Object locates the first '{' through the last '}' in raw text and parses
// that span as a JSON object. Top-level keys are normalized: lowercased, with
// spaces replaced by underscores.
func Object(artifact, raw string) (map[string]json.RawMessage, error) {
	span, err := Span(artifact, raw)
	if err != nil {
		return nil, err
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(span), &parsed); err != nil {
		return nil, &ParseError{Artifact: artifact, Cause: err}
	}

	normalized := make(map[string]json.RawMessage, len(parsed))
	for key, value := range parsed {
		normalized[NormalizeKey(key)] = value
	}
	return normalized, nil
}

// Span returns the substring from the first '{' to the last '}' in raw
// text, without parsing it.
func Span(artifact, raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return "", &ParseError{Artifact: artifact}
	}
	return raw[start : end+1], nil
}

// NormalizeKey lowercases a JSON key and replaces spaces with underscores.
func NormalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), " ", "_")
}

// Regenerate produces a fresh candidate text for an artifact whose previous
// output failed extraction.
type Regenerate func(ctx context.Context) (string, error)

// ObjectWithRegen extracts a JSON object from raw text, regenerating the
// source text on parse failure up to retries additional times. Used for the
// resume-text artifact; deterministic single-shot artifacts such as personal
// details call Object directly and fail terminally.
func ObjectWithRegen(ctx context.Context, artifact, raw string, regen Regenerate, retries int) (map[string]json.RawMessage, error) {
	if retries < 0 {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			fresh, err := regen(ctx)
			if err != nil {
				return nil, fmt.Errorf("regenerating %s failed: %w", artifact, err)
			}
			raw = fresh
		}
		parsed, err := Object(artifact, raw)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("extraction failed after %d regeneration attempts: %w", retries, lastErr)
}
