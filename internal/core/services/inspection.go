package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"tflite-inspector/internal/core/domain"
	"tflite-inspector/internal/core/interpreter"
	"tflite-inspector/internal/core/ports/output"
)

type InspectionService struct {
	repo     ports.InspectionRepository
	fetcher  ports.ModelFetcher
	maxBytes int64
	opts     []interpreter.Option
}

// NewInspectionService builds the service. opts are applied to every model it
// loads, e.g. interpreter.WithSubgraph.
func NewInspectionService(repo ports.InspectionRepository, fetcher ports.ModelFetcher, maxBytes int64, opts ...interpreter.Option) *InspectionService {
	return &InspectionService{repo: repo, fetcher: fetcher, maxBytes: maxBytes, opts: opts}
}

// Inspect loads the model in data, allocates its tensors, and records the details.
func (s *InspectionService) Inspect(ctx context.Context, projectID uuid.UUID, name, source string, data []byte) (*domain.Inspection, error) {
	inspection, err := domain.NewInspection(projectID, name, source)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, domain.ErrEmptyModel
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", domain.ErrModelTooLarge, len(data), s.maxBytes)
	}

	it, err := interpreter.LoadBytes(data, s.opts...)
	if err != nil {
		return nil, err
	}
	plan, err := it.AllocateTensors()
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	inspection.SHA256 = hex.EncodeToString(sum[:])
	inspection.SizeBytes = int64(len(data))
	inspection.Summary = it.Summary()
	inspection.Inputs = it.InputDetails()
	inspection.Outputs = it.OutputDetails()
	inspection.Signatures = it.SignatureList()
	inspection.ArenaBytes = plan.ArenaBytes

	if err := s.repo.Create(ctx, inspection); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"inspection_id": inspection.ID,
		"model":         inspection.ModelName,
		"inputs":        len(inspection.Inputs),
		"outputs":       len(inspection.Outputs),
	}).Info("model inspected")

	return s.repo.GetByID(ctx, projectID, inspection.ID)
}

// InspectURI downloads the model at uri and inspects it.
func (s *InspectionService) InspectURI(ctx context.Context, projectID uuid.UUID, name, uri string) (*domain.Inspection, error) {
	if projectID == uuid.Nil {
		return nil, domain.ErrMissingProjectID
	}
	u, err := url.Parse(uri)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, domain.ErrInvalidURI
	}
	if s.fetcher == nil {
		return nil, fmt.Errorf("%w: no fetcher configured", domain.ErrFetchFailed)
	}

	data, err := s.fetcher.Fetch(ctx, uri, s.maxBytes)
	if err != nil {
		if errors.Is(err, domain.ErrModelTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	return s.Inspect(ctx, projectID, name, uri, data)
}

func (s *InspectionService) Get(ctx context.Context, projectID uuid.UUID, id uuid.UUID) (*domain.Inspection, error) {
	return s.repo.GetByID(ctx, projectID, id)
}

func (s *InspectionService) List(ctx context.Context, filter ports.InspectionListFilter) ([]*domain.Inspection, int, error) {
	if filter.ProjectID == uuid.Nil {
		return nil, 0, domain.ErrMissingProjectID
	}
	return s.repo.List(ctx, filter.Normalized())
}

func (s *InspectionService) Delete(ctx context.Context, projectID uuid.UUID, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, projectID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, projectID, id)
}
