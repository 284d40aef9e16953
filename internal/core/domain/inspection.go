package domain

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SourceUpload marks inspections of models posted directly to the API.
const SourceUpload = "upload"

// Inspection is a recorded load/allocate/details run over one model artifact.
type Inspection struct {
	ID         uuid.UUID          `json:"id"`
	CreatedAt  time.Time          `json:"created_at"`
	ProjectID  uuid.UUID          `json:"project_id"`
	ModelName  string             `json:"model_name"`
	Source     string             `json:"source"`
	SHA256     string             `json:"sha256"`
	SizeBytes  int64              `json:"size_bytes"`
	Summary    ModelSummary       `json:"summary"`
	Inputs     []TensorDetails    `json:"inputs"`
	Outputs    []TensorDetails    `json:"outputs"`
	Signatures []SignatureDetails `json:"signatures"`
	ArenaBytes int64              `json:"arena_bytes"`
}

// NewInspection creates an Inspection shell; details are filled in by the caller.
func NewInspection(projectID uuid.UUID, name, source string) (*Inspection, error) {
	if projectID == uuid.Nil {
		return nil, ErrMissingProjectID
	}
	if name == "" {
		name = ModelNameFromSource(source)
	}
	if name == "" {
		return nil, ErrInvalidModelName
	}

	return &Inspection{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		ProjectID: projectID,
		ModelName: name,
		Source:    source,
	}, nil
}

// ModelNameFromSource derives a model name from a file path or URI.
func ModelNameFromSource(source string) string {
	if source == "" || source == SourceUpload {
		return ""
	}
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}
	base := path.Base(strings.ReplaceAll(source, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return base
}
