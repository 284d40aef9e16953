package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tflite-inspector/internal/core/domain"
	"tflite-inspector/internal/core/interpreter"
	"tflite-inspector/internal/core/ports/output"
	"tflite-inspector/internal/testutil"
	"tflite-inspector/internal/tflite"
)

func TestInspectionService_Inspect(t *testing.T) {
	repo := new(testutil.MockInspectionRepo)
	svc := NewInspectionService(repo, nil, 0)

	projectID := uuid.New()
	saved := &domain.Inspection{}
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Inspection")).
		Run(func(args mock.Arguments) { *saved = *args.Get(1).(*domain.Inspection) }).
		Return(nil)
	repo.On("GetByID", mock.Anything, projectID, mock.AnythingOfType("uuid.UUID")).Return(saved, nil)

	result, err := svc.Inspect(context.Background(), projectID, "", "/models/okay_nabu.tflite", testutil.SimpleModel())
	require.NoError(t, err)

	assert.Equal(t, "okay_nabu.tflite", result.ModelName)
	assert.Equal(t, projectID, result.ProjectID)
	assert.Len(t, result.SHA256, 64)
	require.Len(t, result.Inputs, 1)
	assert.Equal(t, []int32{1, 16000}, result.Inputs[0].Shape)
	require.Len(t, result.Outputs, 1)
	assert.Equal(t, int64(64064), result.ArenaBytes)
	assert.Equal(t, 1, result.Summary.SubgraphCount)
	repo.AssertExpectations(t)
}

func TestInspectionService_Inspect_Subgraph(t *testing.T) {
	buf := testutil.BuildModel(testutil.ModelSpec{
		Tensors:        []testutil.TensorSpec{{Name: "x", Shape: []int32{1}, Type: tflite.TensorTypeFloat32}},
		Inputs:         []int32{0},
		Outputs:        []int32{0},
		ExtraSubgraphs: 1,
	})
	projectID := uuid.New()

	repo := new(testutil.MockInspectionRepo)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Inspection")).Return(nil)
	repo.On("GetByID", mock.Anything, projectID, mock.AnythingOfType("uuid.UUID")).Return(&domain.Inspection{}, nil)

	svc := NewInspectionService(repo, nil, 0, interpreter.WithSubgraph(1))
	_, err := svc.Inspect(context.Background(), projectID, "m", domain.SourceUpload, buf)
	require.NoError(t, err)

	created := repo.Calls[0].Arguments.Get(1).(*domain.Inspection)
	assert.Empty(t, created.Inputs)
	assert.Zero(t, created.Summary.TensorCount)
	assert.Equal(t, 2, created.Summary.SubgraphCount)

	svc = NewInspectionService(new(testutil.MockInspectionRepo), nil, 0, interpreter.WithSubgraph(4))
	_, err = svc.Inspect(context.Background(), projectID, "m", domain.SourceUpload, buf)
	assert.ErrorIs(t, err, domain.ErrInvalidModel)
}

func TestInspectionService_Inspect_Errors(t *testing.T) {
	tests := []struct {
		name      string
		projectID uuid.UUID
		modelName string
		data      []byte
		maxBytes  int64
		wantErr   error
	}{
		{"missing project", uuid.Nil, "m", testutil.SimpleModel(), 0, domain.ErrMissingProjectID},
		{"missing name", uuid.New(), "", testutil.SimpleModel(), 0, domain.ErrInvalidModelName},
		{"empty data", uuid.New(), "m", nil, 0, domain.ErrEmptyModel},
		{"too large", uuid.New(), "m", testutil.SimpleModel(), 10, domain.ErrModelTooLarge},
		{"not a model", uuid.New(), "m", []byte("0123456789abcdef"), 0, domain.ErrInvalidModel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(testutil.MockInspectionRepo)
			svc := NewInspectionService(repo, nil, tt.maxBytes)

			_, err := svc.Inspect(context.Background(), tt.projectID, tt.modelName, domain.SourceUpload, tt.data)
			assert.ErrorIs(t, err, tt.wantErr)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestInspectionService_InspectURI(t *testing.T) {
	repo := new(testutil.MockInspectionRepo)
	fetcher := new(testutil.MockModelFetcher)
	svc := NewInspectionService(repo, fetcher, 1<<20)

	projectID := uuid.New()
	uri := "https://models.example.com/audio/okay_nabu.tflite?rev=2"
	fetcher.On("Fetch", mock.Anything, uri, int64(1<<20)).Return(testutil.SimpleModel(), nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Inspection")).Return(nil)
	repo.On("GetByID", mock.Anything, projectID, mock.AnythingOfType("uuid.UUID")).
		Return(&domain.Inspection{ModelName: "okay_nabu.tflite", Source: uri}, nil)

	result, err := svc.InspectURI(context.Background(), projectID, "", uri)
	require.NoError(t, err)
	assert.Equal(t, "okay_nabu.tflite", result.ModelName)

	created := repo.Calls[0].Arguments.Get(1).(*domain.Inspection)
	assert.Equal(t, "okay_nabu.tflite", created.ModelName)
	assert.Equal(t, uri, created.Source)
	fetcher.AssertExpectations(t)
}

func TestInspectionService_InspectURI_Errors(t *testing.T) {
	projectID := uuid.New()

	svc := NewInspectionService(new(testutil.MockInspectionRepo), new(testutil.MockModelFetcher), 0)
	_, err := svc.InspectURI(context.Background(), projectID, "", "file:///etc/passwd")
	assert.ErrorIs(t, err, domain.ErrInvalidURI)

	fetcher := new(testutil.MockModelFetcher)
	fetcher.On("Fetch", mock.Anything, "http://host/m.tflite", int64(0)).Return(nil, errors.New("connection refused"))
	svc = NewInspectionService(new(testutil.MockInspectionRepo), fetcher, 0)
	_, err = svc.InspectURI(context.Background(), projectID, "", "http://host/m.tflite")
	assert.ErrorIs(t, err, domain.ErrFetchFailed)

	svc = NewInspectionService(new(testutil.MockInspectionRepo), nil, 0)
	_, err = svc.InspectURI(context.Background(), projectID, "", "http://host/m.tflite")
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
}

func TestInspectionService_List(t *testing.T) {
	repo := new(testutil.MockInspectionRepo)
	svc := NewInspectionService(repo, nil, 0)

	projectID := uuid.New()
	repo.On("List", mock.Anything, ports.InspectionListFilter{ProjectID: projectID, Limit: 100}).
		Return([]*domain.Inspection{{ID: uuid.New()}}, 1, nil)

	result, total, err := svc.List(context.Background(), ports.InspectionListFilter{ProjectID: projectID, Limit: 500, Offset: -4})
	assert.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, result, 1)

	repo.On("List", mock.Anything, ports.InspectionListFilter{ProjectID: projectID, Limit: ports.DefaultListLimit}).
		Return([]*domain.Inspection{}, 0, nil)
	_, _, err = svc.List(context.Background(), ports.InspectionListFilter{ProjectID: projectID})
	assert.NoError(t, err)

	_, _, err = svc.List(context.Background(), ports.InspectionListFilter{})
	assert.ErrorIs(t, err, domain.ErrMissingProjectID)
	repo.AssertExpectations(t)
}

func TestInspectionService_Delete(t *testing.T) {
	repo := new(testutil.MockInspectionRepo)
	svc := NewInspectionService(repo, nil, 0)

	projectID := uuid.New()
	id := uuid.New()
	missing := uuid.New()
	repo.On("GetByID", mock.Anything, projectID, id).Return(&domain.Inspection{ID: id}, nil)
	repo.On("GetByID", mock.Anything, projectID, missing).Return(nil, domain.ErrInspectionNotFound)
	repo.On("Delete", mock.Anything, projectID, id).Return(nil)

	assert.NoError(t, svc.Delete(context.Background(), projectID, id))
	assert.ErrorIs(t, svc.Delete(context.Background(), projectID, missing), domain.ErrInspectionNotFound)
	repo.AssertNumberOfCalls(t, "Delete", 1)
}
