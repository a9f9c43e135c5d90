package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/resume-pipeline/internal/stages"
)

// HTTPStatus returns the appropriate HTTP status code for a pipeline error.
// Missing inputs are the caller's fault; stage failures are upstream
// (crawler, job board, LLM) and map to a gateway error.
func HTTPStatus(err error) int {
	var missing *stages.MissingInputError
	if errors.As(err, &missing) {
		return http.StatusBadRequest
	}

	var stageErr *stages.StageError
	if errors.As(err, &stageErr) {
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}
