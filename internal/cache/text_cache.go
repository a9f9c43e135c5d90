// Package cache provides artifact persistence for pipeline stages: a
// file-backed text cache for per-run artifacts and an in-memory LRU cache
// for company summaries.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Artifact keys produced by the pipeline stages. Each key is written by
// exactly one stage and read by zero or more downstream stages.
const (
	KeyResumeText          = "resume_text"
	KeyFullAccomplishments = "full_accomplishments"
	KeyPersonalDetails     = "personal_details"
	KeyCompanySiteText     = "company_site_text"
	KeyCompanySummary      = "company_summary"
	KeyJobDescriptionText  = "job_description_text"
	KeyJobIndustry         = "job_industry"
	KeyGeneratedResumeText = "generated_resume_text"
)

// TextCache stores named text artifacts as files under a cache directory.
// Reads are by key; writes overwrite unconditionally. Single writer per key
// per run is assumed, so no locking is performed.
type TextCache struct {
	dir string
}

// NewTextCache creates a text cache rooted at dir, creating it if needed.
func NewTextCache(dir string) (*TextCache, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &TextCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *TextCache) Dir() string {
	return c.dir
}

// Read returns the cached text for key. The second return value reports
// whether an entry exists; a missing entry is not an error.
func (c *TextCache) Read(key string) (string, bool, error) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}
	return string(data), true, nil
}

// Write persists text under key, overwriting any prior entry. The write goes
// through a temp file and rename so consumers never observe a partial entry.
func (c *TextCache) Write(key, text string) error {
	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close cache entry %s: %w", key, err)
	}
	if err := os.Rename(tmpName, c.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to commit cache entry %s: %w", key, err)
	}
	return nil
}

// Delete removes the entry for key if present.
func (c *TextCache) Delete(key string) error {
	err := os.Remove(c.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache entry %s: %w", key, err)
	}
	return nil
}

func (c *TextCache) path(key string) string {
	// Keys are internal constants, but guard against path traversal anyway.
	key = strings.ReplaceAll(key, string(filepath.Separator), "_")
	return filepath.Join(c.dir, key+".txt")
}
