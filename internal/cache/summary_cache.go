package cache

import (
	"fmt"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSummaryCacheSize bounds the number of company summaries kept in memory.
const DefaultSummaryCacheSize = 256

// SummaryCache memoizes company summaries for the lifetime of the process,
// keyed by normalized company identifier. It is distinct from the on-disk
// artifact cache: it exists to skip recomputation across calls within one
// process without touching disk.
type SummaryCache struct {
	entries *lru.Cache[string, string]
}

// SummaryCacheStats describes the current cache contents.
type SummaryCacheStats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

// NewSummaryCache creates a summary cache holding up to size entries.
// A non-positive size uses DefaultSummaryCacheSize.
func NewSummaryCache(size int) (*SummaryCache, error) {
	if size <= 0 {
		size = DefaultSummaryCacheSize
	}
	entries, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create summary cache: %w", err)
	}
	return &SummaryCache{entries: entries}, nil
}

// Get returns the cached summary for key, if any.
func (c *SummaryCache) Get(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	return c.entries.Get(key)
}

// Set stores summary under key. Last write wins for concurrent same-key use.
func (c *SummaryCache) Set(key, summary string) {
	if key == "" {
		return
	}
	c.entries.Add(key, summary)
}

// Clear removes all entries.
func (c *SummaryCache) Clear() {
	c.entries.Purge()
}

// Stats returns the cached keys and entry count.
func (c *SummaryCache) Stats() SummaryCacheStats {
	return SummaryCacheStats{
		Size: c.entries.Len(),
		Keys: c.entries.Keys(),
	}
}

// NormalizeCompanyKey derives the cache key for a company: the lowercased,
// trimmed company name when given, otherwise the lowercased host of the
// company URL. Returns empty when neither yields a usable key.
func NormalizeCompanyKey(companyName, companyURL string) string {
	if name := strings.ToLower(strings.TrimSpace(companyName)); name != "" {
		return name
	}
	if companyURL == "" {
		return ""
	}
	parsed, err := url.Parse(companyURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(parsed.Host))
}
