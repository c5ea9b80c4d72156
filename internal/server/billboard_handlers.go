package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adspot-dev/adspot/internal/catalog"
	"github.com/adspot-dev/adspot/internal/media"
)

// @Summary List billboards
// @Description Lists billboards that are not paused
// @Tags billboards
// @Produce json
// @Success 200 {array} catalog.View
// @Router /api/billboards [get]
func (s *Server) listPublicBillboards(c *gin.Context) {
	views, err := s.catalog.ListActive(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list billboards")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list billboards"})
		return
	}
	c.JSON(http.StatusOK, views)
}

// @Summary Get billboard
// @Description Gets one billboard. Paused billboards are not public.
// @Tags billboards
// @Produce json
// @Param id path string true "Billboard ID"
// @Success 200 {object} catalog.View
// @Failure 404 {object} map[string]interface{}
// @Router /api/billboards/{id} [get]
func (s *Server) getPublicBillboard(c *gin.Context) {
	view, err := s.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondCatalogError(c, err, "Failed to get billboard")
		return
	}
	if view.IsPaused {
		c.JSON(http.StatusNotFound, gin.H{"error": "Billboard not found"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary List all billboards
// @Description Lists every billboard, paused ones included
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} catalog.View
// @Router /api/admin/billboards [get]
func (s *Server) listBillboards(c *gin.Context) {
	views, err := s.catalog.List(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list billboards")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list billboards"})
		return
	}
	c.JSON(http.StatusOK, views)
}

// @Summary Get billboard (admin)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Billboard ID"
// @Success 200 {object} catalog.View
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/billboards/{id} [get]
func (s *Server) getBillboard(c *gin.Context) {
	view, err := s.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondCatalogError(c, err, "Failed to get billboard")
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Create billboard
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body catalog.Input true "Billboard"
// @Success 201 {object} catalog.View
// @Failure 400 {object} map[string]interface{}
// @Router /api/admin/billboards [post]
func (s *Server) createBillboard(c *gin.Context) {
	var req catalog.Input
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	view, err := s.catalog.Create(c.Request.Context(), req)
	if err != nil {
		s.respondCatalogError(c, err, "Failed to create billboard")
		return
	}
	c.JSON(http.StatusCreated, view)
}

// @Summary Update billboard
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Billboard ID"
// @Param request body catalog.Input true "Billboard"
// @Success 200 {object} catalog.View
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/billboards/{id} [put]
func (s *Server) updateBillboard(c *gin.Context) {
	var req catalog.Input
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	view, err := s.catalog.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		s.respondCatalogError(c, err, "Failed to update billboard")
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Delete billboard
// @Tags admin
// @Security BearerAuth
// @Param id path string true "Billboard ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/billboards/{id} [delete]
func (s *Server) deleteBillboard(c *gin.Context) {
	if err := s.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondCatalogError(c, err, "Failed to delete billboard")
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Pause or resume billboard
// @Description Flips whether the billboard appears in the public listing
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Billboard ID"
// @Success 200 {object} catalog.View
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/billboards/{id}/pause [post]
func (s *Server) toggleBillboardPause(c *gin.Context) {
	view, err := s.catalog.TogglePause(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondCatalogError(c, err, "Failed to toggle billboard")
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Upload billboard image
// @Description Stores an image and appends it to the billboard. The first image becomes the cover.
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Billboard ID"
// @Param image formData file true "Image file"
// @Success 201 {object} catalog.View
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 413 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/admin/billboards/{id}/images [post]
func (s *Server) uploadBillboardImage(c *gin.Context) {
	if s.images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image uploads are not configured"})
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := s.catalog.Get(ctx, id); err != nil {
		s.respondCatalogError(c, err, "Failed to get billboard")
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing image file", "details": err.Error()})
		return
	}
	if header.Size > media.MaxImageSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image is too large"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	key, err := media.ImageKey(id, contentType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported image type", "details": contentType})
		return
	}

	file, err := header.Open()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to open uploaded image")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read image"})
		return
	}
	defer file.Close()

	url, err := s.images.Put(ctx, key, contentType, file)
	if err != nil {
		if errors.Is(err, media.ErrImageTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image is too large"})
			return
		}
		s.logger.Error().Err(err).Str("billboard_id", id).Msg("Failed to store image")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to store image"})
		return
	}

	view, err := s.catalog.AddImage(ctx, id, url)
	if err != nil {
		s.respondCatalogError(c, err, "Failed to attach image")
		return
	}

	s.logger.Info().Str("billboard_id", id).Str("key", key).Msg("Billboard image uploaded")
	c.JSON(http.StatusCreated, view)
}

func (s *Server) respondCatalogError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Billboard not found"})
	case isValidationError(err):
		respondValidation(c, err)
	default:
		s.logger.Error().Err(err).Msg(message)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
