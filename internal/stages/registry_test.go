package stages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-pipeline/internal/cache"
)

func pipelineOrder(env *Env) []Stage {
	return []Stage{
		&AccomplishmentsStage{Env: env},
		&PersonalDetailsStage{Env: env},
		&JobDescriptionStage{Env: env},
		&CompanySummaryStage{Env: env},
		&IndustryStage{Env: env},
		&GenerateResumeStage{Env: env},
	}
}

func TestValidateOrderAcceptsPipelineOrder(t *testing.T) {
	assert.NoError(t, ValidateOrder(pipelineOrder(nil), nil))
}

func TestValidateOrderRejectsReordering(t *testing.T) {
	ordered := []Stage{
		&IndustryStage{},
		&CompanySummaryStage{},
	}

	err := ValidateOrder(ordered, nil)
	require.Error(t, err)

	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "industry", depErr.Stage)
	assert.Contains(t, depErr.MissingDependencies, cache.KeyCompanySummary)
}

func TestValidateOrderOverridesSatisfyDependencies(t *testing.T) {
	ordered := []Stage{
		&IndustryStage{},
		&GenerateResumeStage{},
	}

	err := ValidateOrder(ordered, Inputs{
		cache.KeyCompanySummary:      "Acme is a rocket company.",
		cache.KeyFullAccomplishments: "- Built Go services",
	})
	assert.NoError(t, err)
}

func TestValidateOrderRejectsUnknownStage(t *testing.T) {
	err := ValidateOrder([]Stage{unknownStage{}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage")
}

type unknownStage struct{}

func (unknownStage) Name() string           { return "mystery" }
func (unknownStage) ArtifactKey() string    { return "mystery" }
func (unknownStage) Dependencies() []string { return nil }
func (unknownStage) Run(context.Context, bool, Inputs) (string, error) {
	return "", nil
}
