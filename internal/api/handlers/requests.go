package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/facegate/internal/approval"
	"github.com/your-org/facegate/internal/models"
	"github.com/your-org/facegate/pkg/dto"
)

type RequestHandler struct {
	engine *approval.Engine
}

func NewRequestHandler(engine *approval.Engine) *RequestHandler {
	return &RequestHandler{engine: engine}
}

// Status reports the current request state. Unknown ids are a 404, never
// conflated with a denied state.
func (h *RequestHandler) Status(c *gin.Context) {
	id := c.Param("id")

	status, err := h.engine.Status(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.RequestStatusResponse{RequestID: id, Status: string(status)})
}

// Approve resolves the request as approved. Registered for both GET (the
// clickable link in the reviewer notification) and POST.
func (h *RequestHandler) Approve(c *gin.Context) {
	h.resolve(c, models.StatusApproved)
}

// Deny resolves the request as denied.
func (h *RequestHandler) Deny(c *gin.Context) {
	h.resolve(c, models.StatusDenied)
}

func (h *RequestHandler) resolve(c *gin.Context, outcome models.Status) {
	id := c.Param("id")

	status, err := h.engine.Resolve(c.Request.Context(), id, outcome)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Idempotent: a second click or a retried webhook gets the settled
	// status back with the same 200.
	c.JSON(http.StatusOK, dto.RequestStatusResponse{RequestID: id, Status: string(status)})
}

// Preview serves the submitted photo while the request is pending, for the
// reviewer's notification link.
func (h *RequestHandler) Preview(c *gin.Context) {
	id := c.Param("id")

	data, err := h.engine.PendingImage(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		case errors.Is(err, models.ErrNotPending):
			c.JSON(http.StatusGone, gin.H{"error": "request already resolved"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}
