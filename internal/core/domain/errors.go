package domain

import "errors"

// ============================================================================
// Inspection Errors
// ============================================================================

var (
	ErrInspectionNotFound = errors.New("inspection not found")
	ErrMissingProjectID   = errors.New("project ID is required (Project-ID header)")
	ErrInvalidModelName   = errors.New("model name is required")
)

// Model artifact errors
var (
	ErrEmptyModel    = errors.New("model artifact is empty")
	ErrInvalidModel  = errors.New("model artifact is not a valid tflite model")
	ErrModelTooLarge = errors.New("model artifact exceeds the size limit")
	ErrNoSubgraphs   = errors.New("model has no subgraphs")
	ErrInvalidTensor = errors.New("tensor cannot be allocated")
)

// Fetch errors
var (
	ErrInvalidURI  = errors.New("model URI must be an absolute http or https URL")
	ErrFetchFailed = errors.New("fetching model artifact failed")
)
