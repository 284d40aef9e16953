package handlers

import (
	"tflite-inspector/internal/core/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	inspectionSvc *services.InspectionService
	maxModelBytes int64
}

func New(inspectionSvc *services.InspectionService, maxModelBytes int64) *Handler {
	return &Handler{
		inspectionSvc: inspectionSvc,
		maxModelBytes: maxModelBytes,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// Inspections
	r.GET("/inspections", h.ListInspections)
	r.GET("/inspections/:id", h.GetInspection)
	r.POST("/inspections", h.CreateInspection)
	r.POST("/inspections/fetch", h.FetchInspection)
	r.DELETE("/inspections/:id", h.DeleteInspection)
}
