package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/facegate/internal/gallery"
	"github.com/your-org/facegate/internal/models"
	"github.com/your-org/facegate/pkg/dto"
)

type GalleryHandler struct {
	manager *gallery.Manager
}

func NewGalleryHandler(manager *gallery.Manager) *GalleryHandler {
	return &GalleryHandler{manager: manager}
}

// Enroll accepts a multipart image with a label and adds it to the gallery.
// The label defaults to the uploaded filename, matching how labels derive
// from storage keys.
func (h *GalleryHandler) Enroll(c *gin.Context) {
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

	label := c.PostForm("label")
	if label == "" {
		label = header.Filename
	}

	entry, err := h.manager.Enroll(c.Request.Context(), imageData, label, header.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrExtractionFailed):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "failed to extract face: " + err.Error()})
		case errors.Is(err, models.ErrExtractorUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "extractor unavailable"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.GalleryEntryResponse{
		Label:    entry.Label,
		Key:      entry.SourceKey,
		Enrolled: true,
	})
}

func (h *GalleryHandler) List(c *gin.Context) {
	infos, err := h.manager.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.GalleryEntryResponse, 0, len(infos))
	for _, info := range infos {
		resp = append(resp, dto.GalleryEntryResponse{
			Label:    info.Label,
			Key:      info.Key,
			Enrolled: info.Enrolled,
		})
	}

	c.JSON(http.StatusOK, dto.GalleryListResponse{Entries: resp, Total: len(resp)})
}

func (h *GalleryHandler) Unenroll(c *gin.Context) {
	label := c.Param("label")

	if err := h.manager.Unenroll(c.Request.Context(), label); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "gallery entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
