package dto

import (
	"time"

	"github.com/google/uuid"

	"tflite-inspector/internal/core/domain"
)

// ============================================================================
// Request DTOs
// ============================================================================

// FetchInspectionRequest asks the service to download and inspect a model
type FetchInspectionRequest struct {
	URI  string `json:"uri" binding:"required"`
	Name string `json:"name" binding:"max=200"`
}

// ============================================================================
// Response DTOs
// ============================================================================

type InspectionResponse struct {
	ID         uuid.UUID                 `json:"id"`
	CreatedAt  time.Time                 `json:"created_at"`
	ProjectID  uuid.UUID                 `json:"project_id"`
	ModelName  string                    `json:"model_name"`
	Source     string                    `json:"source"`
	SHA256     string                    `json:"sha256"`
	SizeBytes  int64                     `json:"size_bytes"`
	ArenaBytes int64                     `json:"arena_bytes"`
	Summary    domain.ModelSummary       `json:"summary"`
	Inputs     []domain.TensorDetails    `json:"inputs"`
	Outputs    []domain.TensorDetails    `json:"outputs"`
	Signatures []domain.SignatureDetails `json:"signatures"`
}

// InspectionSummaryResponse is the list view of an inspection, without tensor details
type InspectionSummaryResponse struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	ModelName   string    `json:"model_name"`
	Source      string    `json:"source"`
	SHA256      string    `json:"sha256"`
	SizeBytes   int64     `json:"size_bytes"`
	InputCount  int       `json:"input_count"`
	OutputCount int       `json:"output_count"`
}

type ListInspectionsResponse struct {
	Items      []InspectionSummaryResponse `json:"items"`
	Total      int                         `json:"total"`
	PageSize   int                         `json:"page_size"`
	NextOffset int                         `json:"next_offset"`
}

func ToInspectionResponse(in *domain.Inspection) InspectionResponse {
	inputs := in.Inputs
	if inputs == nil {
		inputs = []domain.TensorDetails{}
	}
	outputs := in.Outputs
	if outputs == nil {
		outputs = []domain.TensorDetails{}
	}
	signatures := in.Signatures
	if signatures == nil {
		signatures = []domain.SignatureDetails{}
	}
	return InspectionResponse{
		ID:         in.ID,
		CreatedAt:  in.CreatedAt,
		ProjectID:  in.ProjectID,
		ModelName:  in.ModelName,
		Source:     in.Source,
		SHA256:     in.SHA256,
		SizeBytes:  in.SizeBytes,
		ArenaBytes: in.ArenaBytes,
		Summary:    in.Summary,
		Inputs:     inputs,
		Outputs:    outputs,
		Signatures: signatures,
	}
}

func ToInspectionSummaryResponse(in *domain.Inspection) InspectionSummaryResponse {
	return InspectionSummaryResponse{
		ID:          in.ID,
		CreatedAt:   in.CreatedAt,
		ModelName:   in.ModelName,
		Source:      in.Source,
		SHA256:      in.SHA256,
		SizeBytes:   in.SizeBytes,
		InputCount:  len(in.Inputs),
		OutputCount: len(in.Outputs),
	}
}
