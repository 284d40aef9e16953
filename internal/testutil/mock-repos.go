package testutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"tflite-inspector/internal/core/domain"
	"tflite-inspector/internal/core/ports/output"
)

// MockInspectionRepo is a mock of InspectionRepository.
type MockInspectionRepo struct {
	mock.Mock
}

func (m *MockInspectionRepo) Create(ctx context.Context, inspection *domain.Inspection) error {
	args := m.Called(ctx, inspection)
	return args.Error(0)
}

func (m *MockInspectionRepo) GetByID(ctx context.Context, projectID uuid.UUID, id uuid.UUID) (*domain.Inspection, error) {
	args := m.Called(ctx, projectID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Inspection), args.Error(1)
}

func (m *MockInspectionRepo) List(ctx context.Context, filter ports.InspectionListFilter) ([]*domain.Inspection, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.Inspection), args.Int(1), args.Error(2)
}

func (m *MockInspectionRepo) Delete(ctx context.Context, projectID uuid.UUID, id uuid.UUID) error {
	args := m.Called(ctx, projectID, id)
	return args.Error(0)
}

// MockModelFetcher is a mock of ModelFetcher.
type MockModelFetcher struct {
	mock.Mock
}

func (m *MockModelFetcher) Fetch(ctx context.Context, uri string, maxBytes int64) ([]byte, error) {
	args := m.Called(ctx, uri, maxBytes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
