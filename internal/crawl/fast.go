package crawl

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-pipeline/internal/fetch"
)

// CandidatePaths are the site sections most likely to describe a company.
// The empty path is the homepage.
var CandidatePaths = []string{"", "/about", "/about-us", "/company", "/services", "/products"}

const (
	// DefaultProbeTimeout caps each individual path probe.
	DefaultProbeTimeout = 5 * time.Second
	// minFastContentLength is the threshold below which the gathered text
	// is considered insufficient and a fallback description is synthesized.
	minFastContentLength = 200
)

// FastCrawler probes a fixed set of candidate paths concurrently instead of
// following links. It favors availability over completeness: per-probe
// failures are skipped, and when too little content comes back it falls back
// to a minimal description derived from the domain name.
type FastCrawler struct {
	ProbeTimeout time.Duration

	// Fetch overrides the per-probe fetch options (tests).
	Fetch *fetch.Options
}

// Crawl probes the candidate paths under baseURL and returns the gathered
// text. It only fails on an unparseable base URL.
func (f *FastCrawler) Crawl(ctx context.Context, baseURL string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", &Error{Message: fmt.Sprintf("invalid base URL: %s", baseURL), Cause: err}
	}

	timeout := f.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	fetchOpts := *fetch.DefaultOptions()
	if f.Fetch != nil {
		fetchOpts = *f.Fetch
	}

	var mu sync.Mutex
	texts := make(map[string]string, len(CandidatePaths))

	g, gctx := errgroup.WithContext(ctx)
	for _, path := range CandidatePaths {
		probeURL := strings.TrimSuffix(baseURL, "/") + path
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()

			result, err := fetch.URL(probeCtx, probeURL, &fetchOpts)
			if err != nil {
				// Unreachable or slow sections are skipped, not fatal.
				return nil
			}
			// Pull the main content container rather than the whole body,
			// so shared chrome does not repeat across probes.
			text, err := fetch.ExtractMainText(result.HTML, fetch.CompanyPageSelectors())
			if err != nil || text == "" {
				return nil
			}

			mu.Lock()
			texts[path] = text
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	// Assemble in candidate order so output is deterministic.
	var parts []string
	for _, path := range CandidatePaths {
		if text, ok := texts[path]; ok {
			parts = append(parts, text)
		}
	}
	combined := strings.Join(parts, "\n\n")

	if len(combined) < minFastContentLength {
		return synthesizeDescription(base.Host), nil
	}
	return combined, nil
}

// synthesizeDescription builds a minimal company description from a domain
// name, for sites that could not be read in time.
func synthesizeDescription(host string) string {
	name := strings.TrimPrefix(host, "www.")
	if i := strings.Index(name, "."); i > 0 {
		name = name[:i]
	}
	name = strings.ReplaceAll(name, "-", " ")
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return fmt.Sprintf("%s is a company operating at %s. No further site content was retrievable.", name, host)
}
