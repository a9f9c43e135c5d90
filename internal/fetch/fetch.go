// Package fetch provides URL fetching and HTML-to-text processing for the
// crawler and the job description stage.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ResumePipeline/1.0)"

// ProcessingRetryDelay is how long to wait before re-requesting a URL that
// answered 202 Accepted (the job board is still rendering the posting).
const ProcessingRetryDelay = 1 * time.Second

// Result holds the raw content from a URL fetch.
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// Error represents an error during URL fetching.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string

	// RetryProcessing makes a fetch block on 202 responses, re-requesting
	// after ProcessingRetryDelay until a different status is returned.
	RetryProcessing bool
	// ProcessingDelay overrides ProcessingRetryDelay when positive (tests).
	ProcessingDelay time.Duration
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// URL retrieves content from a URL. A non-2xx status returns both the result
// and an *Error so callers can inspect the status code.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	client := &http.Client{Timeout: opts.Timeout}

	for {
		result, err := doRequest(ctx, client, urlStr, opts)
		if err != nil {
			return nil, err
		}
		if result.StatusCode == http.StatusAccepted && opts.RetryProcessing {
			delay := opts.ProcessingDelay
			if delay <= 0 {
				delay = ProcessingRetryDelay
			}
			select {
			case <-ctx.Done():
				return nil, &Error{URL: urlStr, Message: "canceled while waiting for processing", Cause: ctx.Err()}
			case <-time.After(delay):
			}
			continue
		}
		if result.StatusCode != http.StatusOK {
			return result, &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", result.StatusCode)}
		}
		return result, nil
	}
}

func doRequest(ctx context.Context, client *http.Client, urlStr string, opts *Options) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}

	req.Header.Set("User-Agent", opts.UserAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	return &Result{
		URL:         urlStr,
		HTML:        string(bodyBytes),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}, nil
}
