package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/facegate/internal/approval"
	"github.com/your-org/facegate/internal/models"
	"github.com/your-org/facegate/pkg/dto"
)

type SubmissionHandler struct {
	engine *approval.Engine
}

func NewSubmissionHandler(engine *approval.Engine) *SubmissionHandler {
	return &SubmissionHandler{engine: engine}
}

// Submit accepts a photo and blocks until a decision exists: auto-accept,
// pending request created, or a structured rejection reason.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read image failed"})
		return
	}

	result, err := h.engine.Submit(c.Request.Context(), imageData, header.Header.Get("Content-Type"))
	if err != nil {
		status, reason := submissionError(err)
		c.JSON(status, gin.H{"matched": false, "error": reason})
		return
	}

	if result.Matched {
		c.JSON(http.StatusOK, dto.SubmissionResponse{
			Matched:    true,
			Label:      result.Label,
			Confidence: result.Confidence,
		})
		return
	}

	c.JSON(http.StatusOK, dto.SubmissionResponse{
		Matched:     false,
		Pending:     true,
		RequestID:   result.RequestID,
		PollAfterMS: result.PollAfter.Milliseconds(),
	})
}

// submissionError maps domain errors to a status code and a
// user-displayable reason.
func submissionError(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrNoFaceDetected):
		return http.StatusUnprocessableEntity, "no_face_detected"
	case errors.Is(err, models.ErrMultipleFacesDetected):
		return http.StatusUnprocessableEntity, "multiple_faces_detected"
	case errors.Is(err, models.ErrDimensionMismatch):
		return http.StatusUnprocessableEntity, "dimension_mismatch"
	case errors.Is(err, models.ErrExtractionFailed):
		return http.StatusUnprocessableEntity, "extraction_failed"
	case errors.Is(err, models.ErrExtractorUnavailable):
		return http.StatusServiceUnavailable, "extractor_unavailable"
	default:
		return http.StatusInternalServerError, "storage_failure"
	}
}
