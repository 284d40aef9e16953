package ports

import (
	"context"

	"github.com/google/uuid"

	"tflite-inspector/internal/core/domain"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type InspectionListFilter struct {
	ProjectID uuid.UUID
	Search    string
	Limit     int
	Offset    int
}

// Normalized returns f with Limit defaulted and capped and Offset non-negative.
func (f InspectionListFilter) Normalized() InspectionListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

type InspectionRepository interface {
	Create(ctx context.Context, inspection *domain.Inspection) error
	GetByID(ctx context.Context, projectID uuid.UUID, id uuid.UUID) (*domain.Inspection, error)
	List(ctx context.Context, filter InspectionListFilter) ([]*domain.Inspection, int, error)
	Delete(ctx context.Context, projectID uuid.UUID, id uuid.UUID) error
}
