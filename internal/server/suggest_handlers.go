package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adspot-dev/adspot/internal/suggest"
)

// @Summary Suggest locations
// @Description Asks the language model for billboard locations matching a campaign
// @Tags suggestions
// @Accept json
// @Produce json
// @Param request body suggest.Input true "Campaign"
// @Success 200 {object} suggest.Output
// @Failure 400 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/suggestions [post]
func (s *Server) suggestLocations(c *gin.Context) {
	if !s.suggest.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Location suggestions are not available"})
		return
	}

	var req suggest.Input
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	out, err := s.suggest.Suggest(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, out)
	case errors.Is(err, suggest.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Location suggestions are not available"})
	case isValidationError(err):
		respondValidation(c, err)
	default:
		s.logger.Error().Err(err).Msg("Failed to generate location suggestions")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to get AI suggestions"})
	}
}
