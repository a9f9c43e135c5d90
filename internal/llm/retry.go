package llm

import (
	"context"
	"fmt"
	"time"
)

// CompletionAttempts is how many times a completion call is tried before the
// stage fails.
const CompletionAttempts = 3

// retryBaseDelay is the first backoff interval; each subsequent attempt doubles it.
var retryBaseDelay = 1 * time.Second

// CompleteWithRetry calls GenerateContent, retrying transient failures with
// increasing backoff before surfacing the last error.
func CompleteWithRetry(ctx context.Context, client Client, prompt string, tier ModelTier) (string, error) {
	return withRetry(ctx, func() (string, error) {
		return client.GenerateContent(ctx, prompt, tier)
	})
}

// CompleteJSONWithRetry is CompleteWithRetry for JSON-mode generation.
func CompleteJSONWithRetry(ctx context.Context, client Client, prompt string, tier ModelTier) (string, error) {
	return withRetry(ctx, func() (string, error) {
		return client.GenerateJSON(ctx, prompt, tier)
	})
}

func withRetry(ctx context.Context, generate func() (string, error)) (string, error) {
	var lastErr error
	delay := retryBaseDelay
	for attempt := 1; attempt <= CompletionAttempts; attempt++ {
		text, err := generate()
		if err == nil {
			return text, nil
		}
		lastErr = err
		if attempt == CompletionAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return "", fmt.Errorf("completion failed after %d attempts: %w", CompletionAttempts, lastErr)
}
