package stages

import (
	"fmt"

	"github.com/jonathan/resume-pipeline/internal/cache"
)

// Stage categories.
const (
	CategoryExtraction = "extraction"
	CategoryResearch   = "research"
	CategoryGeneration = "generation"
)

// StageDefinition defines metadata for a pipeline stage.
type StageDefinition struct {
	Name     string
	Category string
	Artifact string
	// Dependencies are artifact keys that must exist before the stage runs.
	Dependencies []string
	// Optional artifact keys improve the output but may be absent. The job
	// description is the sanctioned empty value downstream of the fetch.
	Optional []string
}

// Registry holds all stage definitions.
var Registry = map[string]StageDefinition{
	"accomplishments": {
		Name:         "accomplishments",
		Category:     CategoryExtraction,
		Artifact:     cache.KeyFullAccomplishments,
		Dependencies: []string{},
		Optional:     []string{cache.KeyResumeText},
	},
	"personal_details": {
		Name:         "personal_details",
		Category:     CategoryExtraction,
		Artifact:     cache.KeyPersonalDetails,
		Dependencies: []string{},
		Optional:     []string{cache.KeyResumeText},
	},
	"job_description": {
		Name:         "job_description",
		Category:     CategoryResearch,
		Artifact:     cache.KeyJobDescriptionText,
		Dependencies: []string{},
		Optional:     []string{},
	},
	"company_summary": {
		Name:         "company_summary",
		Category:     CategoryResearch,
		Artifact:     cache.KeyCompanySummary,
		Dependencies: []string{},
		Optional:     []string{cache.KeyCompanySiteText},
	},
	"industry": {
		Name:         "industry",
		Category:     CategoryResearch,
		Artifact:     cache.KeyJobIndustry,
		Dependencies: []string{cache.KeyCompanySummary},
		Optional:     []string{cache.KeyJobDescriptionText},
	},
	"generate_resume": {
		Name:         "generate_resume",
		Category:     CategoryGeneration,
		Artifact:     cache.KeyGeneratedResumeText,
		Dependencies: []string{cache.KeyFullAccomplishments, cache.KeyCompanySummary, cache.KeyJobIndustry},
		Optional:     []string{cache.KeyJobDescriptionText},
	},
}

// DependencyError reports a stage scheduled before its required artifacts
// can exist.
type DependencyError struct {
	Stage               string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("stage %s: missing dependencies: %v", e.Stage, e.MissingDependencies)
}

// ValidateOrder checks that every stage in the execution order is
// registered and that each required dependency is either produced by an
// earlier stage or supplied as an override.
func ValidateOrder(ordered []Stage, overrides Inputs) error {
	available := make(map[string]bool, len(ordered)+len(overrides))
	for key := range overrides {
		available[key] = true
	}

	for _, stage := range ordered {
		def, ok := Registry[stage.Name()]
		if !ok {
			return fmt.Errorf("unknown stage: %s", stage.Name())
		}

		var missing []string
		for _, dep := range def.Dependencies {
			if !available[dep] {
				missing = append(missing, dep)
			}
		}
		if len(missing) > 0 {
			return &DependencyError{Stage: stage.Name(), MissingDependencies: missing}
		}

		available[def.Artifact] = true
	}

	return nil
}
