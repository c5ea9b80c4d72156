package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adspot-dev/adspot/internal/content"
)

// @Summary Get about info
// @Tags content
// @Produce json
// @Success 200 {object} models.AboutInfo
// @Router /api/about [get]
func (s *Server) getAbout(c *gin.Context) {
	info, err := s.about.Get(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to get about info")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// @Summary Update about info
// @Description Merges the given fields into the about block. Empty fields keep their stored value.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body content.AboutInput true "About info"
// @Success 200 {object} models.AboutInfo
// @Failure 400 {object} map[string]interface{}
// @Router /api/admin/about [put]
func (s *Server) updateAbout(c *gin.Context) {
	var req content.AboutInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	info, err := s.about.Save(c.Request.Context(), req)
	if err != nil {
		if isValidationError(err) {
			respondValidation(c, err)
			return
		}
		s.logger.Error().Err(err).Msg("Failed to save about info")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.logger.Info().Msg("About info updated")
	c.JSON(http.StatusOK, info)
}
