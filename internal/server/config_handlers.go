package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/adspot-dev/adspot/internal/models"
	"github.com/adspot-dev/adspot/internal/workers"
)

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	ID              string     `json:"id"`
	ForwardSchedule string     `json:"forward_schedule"`
	RelayConfigured bool       `json:"relay_configured"`
	LastForwardAt   *time.Time `json:"last_forward_at"`
	NextForwardAt   *time.Time `json:"next_forward_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

// UpdateConfigRequest represents the request to update configuration
type UpdateConfigRequest struct {
	ForwardSchedule *string `json:"forwardSchedule"`
}

func (s *Server) configResponse(config *models.Config) ConfigResponse {
	return ConfigResponse{
		ID:              config.ID,
		ForwardSchedule: config.ForwardSchedule,
		RelayConfigured: s.config.Relay.URL != "",
		LastForwardAt:   config.LastForwardAt,
		NextForwardAt:   config.NextForwardAt,
		CreatedAt:       config.CreatedAt,
	}
}

// @Summary Get configuration
// @Description Get the current global configuration
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ConfigResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/config [get]
func (s *Server) getConfig(c *gin.Context) {
	var config models.Config
	if err := s.db.First(&config).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Configuration not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to get config")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, s.configResponse(&config))
}

// @Summary Update configuration
// @Description Update the inquiry forward sweep schedule. An empty schedule disables sweeps.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateConfigRequest true "Configuration updates"
// @Success 200 {object} ConfigResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/config [patch]
func (s *Server) updateConfig(c *gin.Context) {
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	var config models.Config
	if err := s.db.First(&config).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Configuration not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to get config")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if req.ForwardSchedule != nil {
		schedule := strings.TrimSpace(*req.ForwardSchedule)
		config.ForwardSchedule = schedule
		if schedule == "" {
			// Clear next sweep time when schedule is empty
			config.NextForwardAt = nil
		} else {
			next, err := workers.NextRun(schedule, time.Now())
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":   "Invalid forward schedule",
					"details": err.Error(),
				})
				return
			}
			config.NextForwardAt = &next
		}
	}

	if err := s.db.Save(&config).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update config")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update configuration"})
		return
	}

	s.logger.Info().Str("config_id", config.ID).Str("forward_schedule", config.ForwardSchedule).Msg("Configuration updated")

	c.JSON(http.StatusOK, s.configResponse(&config))
}
