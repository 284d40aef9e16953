package handlers

import (
	"errors"
	"net/http"

	"tflite-inspector/internal/core/domain"

	"github.com/gin-gonic/gin"
)

func mapDomainError(c *gin.Context, err error) {
	switch {
	// Not found errors
	case errors.Is(err, domain.ErrInspectionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	// Payload too large
	case errors.Is(err, domain.ErrModelTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})

	// Bad request / validation errors
	case errors.Is(err, domain.ErrMissingProjectID),
		errors.Is(err, domain.ErrInvalidModelName),
		errors.Is(err, domain.ErrEmptyModel),
		errors.Is(err, domain.ErrInvalidModel),
		errors.Is(err, domain.ErrNoSubgraphs),
		errors.Is(err, domain.ErrInvalidTensor),
		errors.Is(err, domain.ErrInvalidURI):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	// Upstream errors
	case errors.Is(err, domain.ErrFetchFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
