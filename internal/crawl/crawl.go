package crawl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/resume-pipeline/internal/fetch"
)

const (
	// DefaultMaxDepth covers the seed page plus its direct same-host links.
	DefaultMaxDepth = 1
	// DefaultMaxTokens bounds accumulated page text for company research.
	DefaultMaxTokens = 5000
	// DefaultDelay is the politeness pause between sibling requests.
	DefaultDelay = 100 * time.Millisecond
)

// Options configure a crawl.
type Options struct {
	MaxDepth  int
	MaxTokens int
	Delay     time.Duration
	Counter   TokenCounter

	// Fetch overrides the per-request fetch options (tests shorten the
	// 202 retry delay through this).
	Fetch *fetch.Options
}

func (o *Options) withDefaults() Options {
	out := Options{MaxDepth: DefaultMaxDepth, MaxTokens: DefaultMaxTokens, Delay: DefaultDelay, Counter: WordTokenCounter{}}
	if o == nil {
		return out
	}
	if o.MaxDepth > 0 {
		out.MaxDepth = o.MaxDepth
	}
	if o.MaxTokens > 0 {
		out.MaxTokens = o.MaxTokens
	}
	if o.Delay > 0 {
		out.Delay = o.Delay
	}
	if o.Counter != nil {
		out.Counter = o.Counter
	}
	out.Fetch = o.Fetch
	return out
}

// Crawler accumulates same-host page text breadth-first from a seed URL.
// The visited set persists across Crawl calls on the same Crawler, so a
// re-invocation against the same site never re-fetches a page.
type Crawler struct {
	opts    Options
	visited map[string]bool
}

// NewCrawler builds a crawler with the given options (nil for defaults).
func NewCrawler(opts *Options) *Crawler {
	return &Crawler{
		opts:    opts.withDefaults(),
		visited: make(map[string]bool),
	}
}

type workItem struct {
	url   string
	depth int
}

// Crawl walks the site at baseURL breadth-first and returns the accumulated
// visible text. Pages at depth greater than MaxDepth are never queued, and
// the token budget is checked once per queue pop: the crawl stops adding
// pages after the running count first exceeds MaxTokens, without truncating
// pages already fetched. Transport failures abort the crawl, as does any
// failure fetching the seed. An HTTP error status on a followed link only
// contributes whatever text the server returned; dead nav links are common
// and must not sink a walk that already gathered content. HTTP 202 blocks
// and retries.
func (c *Crawler) Crawl(ctx context.Context, baseURL string) (string, error) {
	if baseURL == "" {
		return "", &Error{Message: "no base URL provided"}
	}

	fetchOpts := *fetch.DefaultOptions()
	if c.opts.Fetch != nil {
		fetchOpts = *c.opts.Fetch
	}
	fetchOpts.RetryProcessing = true

	var parts []string
	tokens := 0
	first := true

	queue := []workItem{{url: strings.TrimSuffix(baseURL, "/"), depth: 0}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if c.visited[item.url] {
			continue
		}
		if tokens > c.opts.MaxTokens {
			break
		}

		if !first {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.opts.Delay):
			}
		}
		first = false

		result, err := fetch.URL(ctx, item.url, &fetchOpts)
		if err != nil && (result == nil || item.depth == 0) {
			return "", &Error{Message: fmt.Sprintf("fetching %s", item.url), Cause: err}
		}
		c.visited[item.url] = true

		text, err := fetch.VisibleText(result.HTML)
		if err == nil && text != "" {
			parts = append(parts, fmt.Sprintf("%s:\n%s", item.url, text))
			tokens += c.opts.Counter.Count(text)
		}

		if item.depth >= c.opts.MaxDepth {
			continue
		}
		links, err := ExtractLinks(result.HTML, item.url)
		if err != nil {
			continue
		}
		for _, link := range links {
			if !c.visited[link] {
				queue = append(queue, workItem{url: link, depth: item.depth + 1})
			}
		}
	}

	return strings.Join(parts, "\n\n"), nil
}
