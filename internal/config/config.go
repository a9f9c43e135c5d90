// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	Resume          string `json:"resume,omitempty"`          // Path to the source resume (.docx, .txt or .md)
	Accomplishments string `json:"accomplishments,omitempty"` // Path to an existing accomplishments document
	Output          string `json:"output,omitempty"`          // Path for the rendered resume
	CacheDir        string `json:"cache_dir,omitempty"`       // Directory for per-run artifact caching

	// Targets
	JobURL      string `json:"job_url,omitempty"`      // URL of the job posting
	CompanyURL  string `json:"company_url,omitempty"`  // Company website base URL
	CompanyName string `json:"company_name,omitempty"` // Company name, inferred from site text when empty

	// Behavior
	APIKey           string `json:"api_key,omitempty"`           // Gemini API key
	Force            bool   `json:"force,omitempty"`             // Bypass cached artifacts
	UseAdvancedModel bool   `json:"use_advanced_model,omitempty"` // Use the advanced model tier for resume generation
	SemanticFilter   bool   `json:"semantic_filter,omitempty"`   // Narrow accomplishments by relevance before generation
	UseBrowser       bool   `json:"use_browser,omitempty"`       // Use headless browser fallback for SPA job pages
	FastCrawl        bool   `json:"fast_crawl,omitempty"`        // Probe fixed site sections instead of link crawling
	Verbose          bool   `json:"verbose,omitempty"`           // Print detailed stage output
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.Resume != "" {
		if _, err := os.Stat(c.Resume); os.IsNotExist(err) {
			return fmt.Errorf("config error: resume file not found: %s", c.Resume)
		}
	}
	if c.Accomplishments != "" {
		if _, err := os.Stat(c.Accomplishments); os.IsNotExist(err) {
			return fmt.Errorf("config error: accomplishments file not found: %s", c.Accomplishments)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty string fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Resume == "" {
		result.Resume = defaults.Resume
	}
	if result.Accomplishments == "" {
		result.Accomplishments = defaults.Accomplishments
	}
	if result.Output == "" {
		result.Output = defaults.Output
	}
	if result.CacheDir == "" {
		result.CacheDir = defaults.CacheDir
	}
	if result.JobURL == "" {
		result.JobURL = defaults.JobURL
	}
	if result.CompanyURL == "" {
		result.CompanyURL = defaults.CompanyURL
	}
	if result.CompanyName == "" {
		result.CompanyName = defaults.CompanyName
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}

	// Boolean fields: true wins, since flags can only turn behavior on.
	result.Force = result.Force || defaults.Force
	result.UseAdvancedModel = result.UseAdvancedModel || defaults.UseAdvancedModel
	result.SemanticFilter = result.SemanticFilter || defaults.SemanticFilter
	result.UseBrowser = result.UseBrowser || defaults.UseBrowser
	result.FastCrawl = result.FastCrawl || defaults.FastCrawl
	result.Verbose = result.Verbose || defaults.Verbose

	return result
}
