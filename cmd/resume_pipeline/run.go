package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-pipeline/internal/cache"
	"github.com/jonathan/resume-pipeline/internal/config"
	"github.com/jonathan/resume-pipeline/internal/document"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/observability"
	"github.com/jonathan/resume-pipeline/internal/pipeline"
	"github.com/jonathan/resume-pipeline/internal/similarity"
	"github.com/jonathan/resume-pipeline/internal/stages"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full resume tailoring pipeline end-to-end",
	Long: `Runs every pipeline stage in order: accomplishments -> personal details -> job description -> company summary -> industry -> resume generation -> render.

Stage outputs are cached on disk, so re-running after a failure resumes from the last completed stage. Configuration can be loaded from a JSON file using --config; command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath       string
	runResume           string
	runAccomplishments  string
	runOutput           string
	runCacheDir         string
	runJobURL           string
	runCompanyURL       string
	runCompanyName      string
	runAPIKey           string
	runForce            bool
	runUseAdvancedModel bool
	runSemanticFilter   bool
	runUseBrowser       bool
	runFastCrawl        bool
	runVerbose          bool
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runResume, "resume", "r", "", "Path to the source resume (.docx, .txt or .md)")
	runCommand.Flags().StringVarP(&runAccomplishments, "accomplishments", "a", "", "Path to an existing accomplishments document (optional)")
	runCommand.Flags().StringVarP(&runOutput, "output", "o", "", "Path for the rendered resume")
	runCommand.Flags().StringVar(&runCacheDir, "cache-dir", "", "Directory for stage artifact caching")
	runCommand.Flags().StringVarP(&runJobURL, "job-url", "j", "", "URL of the job posting")
	runCommand.Flags().StringVar(&runCompanyURL, "company-url", "", "Company website base URL (optional)")
	runCommand.Flags().StringVarP(&runCompanyName, "company-name", "c", "", "Company name (optional, inferred from site text when omitted)")
	runCommand.Flags().BoolVar(&runForce, "force", false, "Regenerate every artifact, ignoring caches")
	runCommand.Flags().BoolVar(&runUseAdvancedModel, "advanced-model", false, "Use the advanced model tier for resume generation")
	runCommand.Flags().BoolVar(&runSemanticFilter, "semantic-filter", false, "Narrow accomplishments to the most relevant fragments before generation")
	runCommand.Flags().BoolVar(&runUseBrowser, "use-browser", false, "Use headless browser fallback for SPA job pages (requires Chrome)")
	runCommand.Flags().BoolVar(&runFastCrawl, "fast-crawl", false, "Probe fixed site sections instead of following links")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print stage progress and artifact previews")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	var cfg config.Config
	if runConfigPath != "" {
		loadedCfg, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return err
		}
		cfg = *loadedCfg
		if runVerbose {
			fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", runConfigPath)
		}
	}

	// Command-line args take priority; only override when the flag was
	// explicitly set.
	if cmd.Flags().Changed("resume") {
		cfg.Resume = runResume
	}
	if cmd.Flags().Changed("accomplishments") {
		cfg.Accomplishments = runAccomplishments
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = runOutput
	}
	if cmd.Flags().Changed("cache-dir") {
		cfg.CacheDir = runCacheDir
	}
	if cmd.Flags().Changed("job-url") {
		cfg.JobURL = runJobURL
	}
	if cmd.Flags().Changed("company-url") {
		cfg.CompanyURL = runCompanyURL
	}
	if cmd.Flags().Changed("company-name") {
		cfg.CompanyName = runCompanyName
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("force") {
		cfg.Force = runForce
	}
	if cmd.Flags().Changed("advanced-model") {
		cfg.UseAdvancedModel = runUseAdvancedModel
	}
	if cmd.Flags().Changed("semantic-filter") {
		cfg.SemanticFilter = runSemanticFilter
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = runUseBrowser
	}
	if cmd.Flags().Changed("fast-crawl") {
		cfg.FastCrawl = runFastCrawl
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}

	cfg = cfg.MergeWithDefaults(config.Config{
		Output:   "resume.docx",
		CacheDir: "cache",
	})

	if err := validateRunConfig(&cfg); err != nil {
		return err
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	client, err := llm.NewClient(ctx, nil, cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close()

	runner, err := newRunner(&cfg, client)
	if err != nil {
		return err
	}

	opts := optionsFromConfig(&cfg)
	if cfg.Verbose {
		opts.OnProgress = func(event pipeline.ProgressEvent) {
			fmt.Fprintf(os.Stdout, "[%s] %s\n", event.Stage, event.Message)
		}
	}

	doc, err := runner.Run(ctx, opts)
	if err != nil {
		return err
	}

	if cfg.Verbose {
		printArtifacts(runner, os.Stdout)
		observability.NewPrinter(os.Stdout).PrintDocument(doc)
	}

	fmt.Fprintf(os.Stdout, "Tailored resume written to %s\n", cfg.Output)
	return nil
}

// validateRunConfig checks the required fields after config file and flag
// merging.
func validateRunConfig(cfg *config.Config) error {
	if cfg.Resume == "" {
		return fmt.Errorf("--resume is required (via flag or config)")
	}
	if cfg.JobURL == "" {
		return fmt.Errorf("--job-url is required (via flag or config)")
	}
	return nil
}

// optionsFromConfig maps the merged configuration onto pipeline options.
func optionsFromConfig(cfg *config.Config) pipeline.RunOptions {
	return pipeline.RunOptions{
		ResumePath:          cfg.Resume,
		AccomplishmentsPath: cfg.Accomplishments,
		JobURL:              cfg.JobURL,
		CompanyURL:          cfg.CompanyURL,
		CompanyName:         cfg.CompanyName,
		OutputPath:          cfg.Output,
		Force:               cfg.Force,
		UseAdvancedModel:    cfg.UseAdvancedModel,
		SemanticFilter:      cfg.SemanticFilter,
		UseBrowser:          cfg.UseBrowser,
		FastCrawl:           cfg.FastCrawl,
	}
}

func newRunner(cfg *config.Config, client llm.Client) (*pipeline.Runner, error) {
	textCache, err := cache.NewTextCache(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact cache: %w", err)
	}
	summaries, err := cache.NewSummaryCache(cache.DefaultSummaryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create summary cache: %w", err)
	}

	return &pipeline.Runner{
		Env: &stages.Env{
			Cache:     textCache,
			Summaries: summaries,
			Client:    client,
			Searcher:  &similarity.LexicalSearcher{},
			Extractor: &document.PandocExtractor{},
		},
		Writer: &document.PandocWriter{},
	}, nil
}

// printArtifacts previews every cached stage artifact in verbose mode.
func printArtifacts(runner *pipeline.Runner, out *os.File) {
	printer := observability.NewPrinter(out)
	keys := []string{
		cache.KeyResumeText,
		cache.KeyFullAccomplishments,
		cache.KeyPersonalDetails,
		cache.KeyJobDescriptionText,
		cache.KeyCompanySummary,
		cache.KeyJobIndustry,
		cache.KeyGeneratedResumeText,
	}
	for _, key := range keys {
		text, ok, err := runner.Env.Cache.Read(key)
		if err != nil || !ok {
			continue
		}
		printer.PrintArtifact(key, text)
	}
}
