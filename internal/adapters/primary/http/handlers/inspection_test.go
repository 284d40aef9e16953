package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tflite-inspector/internal/adapters/primary/http/dto"
	"tflite-inspector/internal/core/domain"
	"tflite-inspector/internal/core/ports/output"
	"tflite-inspector/internal/core/services"
	"tflite-inspector/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const basePath = "/api/v1/model-inspector"

func setupInspectionRouter(maxBytes int64) (*testutil.MockInspectionRepo, *testutil.MockModelFetcher, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	repo := new(testutil.MockInspectionRepo)
	fetcher := new(testutil.MockModelFetcher)

	svc := services.NewInspectionService(repo, fetcher, maxBytes)
	h := New(svc, maxBytes)
	r := gin.New()
	api := r.Group(basePath)
	h.RegisterRoutes(api)

	return repo, fetcher, r
}

func multipartModel(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("model", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestCreateInspection(t *testing.T) {
	repo, _, r := setupInspectionRouter(0)

	projectID := uuid.New()
	saved := &domain.Inspection{}
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Inspection")).
		Run(func(args mock.Arguments) { *saved = *args.Get(1).(*domain.Inspection) }).
		Return(nil)
	repo.On("GetByID", mock.Anything, projectID, mock.AnythingOfType("uuid.UUID")).Return(saved, nil)

	body, contentType := multipartModel(t, "okay_nabu.tflite", testutil.SimpleModel())
	req, _ := http.NewRequest("POST", basePath+"/inspections", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Project-ID", projectID.String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp dto.InspectionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "okay_nabu.tflite", resp.ModelName)
	assert.Equal(t, domain.SourceUpload, resp.Source)
	require.Len(t, resp.Inputs, 1)
	assert.Equal(t, []int32{-1, 16000}, resp.Inputs[0].ShapeSignature)
	assert.Equal(t, "float32", resp.Outputs[0].DType)
}

func TestCreateInspection_InvalidModel(t *testing.T) {
	_, _, r := setupInspectionRouter(0)

	body, contentType := multipartModel(t, "broken.tflite", []byte("this is not a model"))
	req, _ := http.NewRequest("POST", basePath+"/inspections", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Project-ID", uuid.New().String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateInspection_TooLarge(t *testing.T) {
	_, _, r := setupInspectionRouter(32)

	body, contentType := multipartModel(t, "big.tflite", testutil.SimpleModel())
	req, _ := http.NewRequest("POST", basePath+"/inspections", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Project-ID", uuid.New().String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestCreateInspection_MissingFile(t *testing.T) {
	_, _, r := setupInspectionRouter(0)

	req, _ := http.NewRequest("POST", basePath+"/inspections", nil)
	req.Header.Set("Project-ID", uuid.New().String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFetchInspection(t *testing.T) {
	repo, fetcher, r := setupInspectionRouter(0)

	projectID := uuid.New()
	uri := "https://models.example.com/okay_nabu.tflite"
	fetcher.On("Fetch", mock.Anything, uri, int64(0)).Return(testutil.SimpleModel(), nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Inspection")).Return(nil)
	repo.On("GetByID", mock.Anything, projectID, mock.AnythingOfType("uuid.UUID")).
		Return(&domain.Inspection{ID: uuid.New(), ModelName: "kws", Source: uri, CreatedAt: time.Now()}, nil)

	body, _ := json.Marshal(map[string]interface{}{"uri": uri, "name": "kws"})
	req, _ := http.NewRequest("POST", basePath+"/inspections/fetch", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Project-ID", projectID.String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	fetcher.AssertExpectations(t)
}

func TestFetchInspection_Upstream(t *testing.T) {
	_, fetcher, r := setupInspectionRouter(0)

	uri := "https://models.example.com/gone.tflite"
	fetcher.On("Fetch", mock.Anything, uri, int64(0)).Return(nil, assert.AnError)

	body, _ := json.Marshal(map[string]interface{}{"uri": uri})
	req, _ := http.NewRequest("POST", basePath+"/inspections/fetch", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Project-ID", uuid.New().String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGetInspection(t *testing.T) {
	repo, _, r := setupInspectionRouter(0)

	projectID := uuid.New()
	id := uuid.New()
	repo.On("GetByID", mock.Anything, projectID, id).
		Return(&domain.Inspection{ID: id, ModelName: "m", CreatedAt: time.Now()}, nil)

	req, _ := http.NewRequest("GET", basePath+"/inspections/"+id.String(), nil)
	req.Header.Set("Project-ID", projectID.String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.InspectionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.ID)
	assert.NotNil(t, resp.Inputs)
}

func TestGetInspection_NotFound(t *testing.T) {
	repo, _, r := setupInspectionRouter(0)

	projectID := uuid.New()
	id := uuid.New()
	repo.On("GetByID", mock.Anything, projectID, id).Return(nil, domain.ErrInspectionNotFound)

	req, _ := http.NewRequest("GET", basePath+"/inspections/"+id.String(), nil)
	req.Header.Set("Project-ID", projectID.String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetInspection_BadRequests(t *testing.T) {
	_, _, r := setupInspectionRouter(0)

	req, _ := http.NewRequest("GET", basePath+"/inspections/"+uuid.New().String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing Project-ID")

	req, _ = http.NewRequest("GET", basePath+"/inspections/not-a-uuid", nil)
	req.Header.Set("Project-ID", uuid.New().String())
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code, "invalid id")
}

func TestListInspections(t *testing.T) {
	repo, _, r := setupInspectionRouter(0)

	projectID := uuid.New()
	inspections := []*domain.Inspection{
		{ID: uuid.New(), ModelName: "okay_nabu.tflite", CreatedAt: time.Now(), Inputs: []domain.TensorDetails{{Name: "in"}}},
	}
	repo.On("List", mock.Anything, mock.AnythingOfType("ports.InspectionListFilter")).Return(inspections, 1, nil)

	req, _ := http.NewRequest("GET", basePath+"/inspections?search=nabu&limit=5", nil)
	req.Header.Set("Project-ID", projectID.String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.ListInspectionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, 5, resp.PageSize)
	assert.Equal(t, 1, resp.NextOffset)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 1, resp.Items[0].InputCount)
}

func TestListInspections_PageSize(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantLimit    int
		wantOffset   int
		wantPageSize int
	}{
		{"default", "", ports.DefaultListLimit, 0, 20},
		{"capped", "?limit=500&offset=10", ports.MaxListLimit, 10, 100},
		{"garbage", "?limit=abc&offset=-3", ports.DefaultListLimit, 0, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _, r := setupInspectionRouter(0)

			projectID := uuid.New()
			repo.On("List", mock.Anything, ports.InspectionListFilter{ProjectID: projectID, Limit: tt.wantLimit, Offset: tt.wantOffset}).
				Return([]*domain.Inspection{{ID: uuid.New()}}, 1, nil)

			req, _ := http.NewRequest("GET", basePath+"/inspections"+tt.query, nil)
			req.Header.Set("Project-ID", projectID.String())
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			var resp dto.ListInspectionsResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantPageSize, resp.PageSize)
			assert.Equal(t, tt.wantOffset+1, resp.NextOffset)
			repo.AssertExpectations(t)
		})
	}
}

func TestDeleteInspection(t *testing.T) {
	repo, _, r := setupInspectionRouter(0)

	projectID := uuid.New()
	id := uuid.New()
	repo.On("GetByID", mock.Anything, projectID, id).Return(&domain.Inspection{ID: id}, nil)
	repo.On("Delete", mock.Anything, projectID, id).Return(nil)

	req, _ := http.NewRequest("DELETE", basePath+"/inspections/"+id.String(), nil)
	req.Header.Set("Project-ID", projectID.String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	repo.AssertExpectations(t)
}
