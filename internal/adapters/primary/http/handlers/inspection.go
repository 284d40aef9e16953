package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"tflite-inspector/internal/adapters/primary/http/dto"
	"tflite-inspector/internal/core/domain"
	"tflite-inspector/internal/core/ports/output"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) ListInspections(c *gin.Context) {
	projectID, err := getProjectID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrMissingProjectID.Error()})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := ports.InspectionListFilter{
		ProjectID: projectID,
		Search:    c.Query("search"),
		Limit:     limit,
		Offset:    offset,
	}.Normalized()

	inspections, total, err := h.inspectionSvc.List(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("list inspections failed")
		mapDomainError(c, err)
		return
	}

	items := make([]dto.InspectionSummaryResponse, 0, len(inspections))
	for _, in := range inspections {
		items = append(items, dto.ToInspectionSummaryResponse(in))
	}

	c.JSON(http.StatusOK, dto.ListInspectionsResponse{
		Items:      items,
		Total:      total,
		PageSize:   filter.Limit,
		NextOffset: filter.Offset + len(items),
	})
}

func (h *Handler) GetInspection(c *gin.Context) {
	projectID, err := getProjectID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrMissingProjectID.Error()})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid inspection id"})
		return
	}

	inspection, err := h.inspectionSvc.Get(c.Request.Context(), projectID, id)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInspectionResponse(inspection))
}

// CreateInspection inspects a model uploaded as the multipart field "model".
func (h *Handler) CreateInspection(c *gin.Context) {
	projectID, err := getProjectID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrMissingProjectID.Error()})
		return
	}

	fh, err := c.FormFile("model")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'model' is required"})
		return
	}
	if h.maxModelBytes > 0 && fh.Size > h.maxModelBytes {
		mapDomainError(c, fmt.Errorf("%w: %d bytes, limit %d", domain.ErrModelTooLarge, fh.Size, h.maxModelBytes))
		return
	}

	f, err := fh.Open()
	if err != nil {
		log.WithError(err).Error("open uploaded model failed")
		mapDomainError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		log.WithError(err).Error("read uploaded model failed")
		mapDomainError(c, err)
		return
	}

	name := c.PostForm("name")
	if name == "" {
		name = domain.ModelNameFromSource(fh.Filename)
	}

	inspection, err := h.inspectionSvc.Inspect(c.Request.Context(), projectID, name, domain.SourceUpload, data)
	if err != nil {
		log.WithError(err).Error("inspect uploaded model failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToInspectionResponse(inspection))
}

func (h *Handler) FetchInspection(c *gin.Context) {
	projectID, err := getProjectID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrMissingProjectID.Error()})
		return
	}

	var req dto.FetchInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inspection, err := h.inspectionSvc.InspectURI(c.Request.Context(), projectID, req.Name, req.URI)
	if err != nil {
		log.WithError(err).WithField("uri", req.URI).Error("inspect remote model failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToInspectionResponse(inspection))
}

func (h *Handler) DeleteInspection(c *gin.Context) {
	projectID, err := getProjectID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrMissingProjectID.Error()})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid inspection id"})
		return
	}

	if err := h.inspectionSvc.Delete(c.Request.Context(), projectID, id); err != nil {
		mapDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func getProjectID(c *gin.Context) (uuid.UUID, error) {
	header := c.GetHeader("Project-ID")
	if header == "" {
		return uuid.Nil, domain.ErrMissingProjectID
	}
	return uuid.Parse(header)
}
