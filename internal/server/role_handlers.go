package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adspot-dev/adspot/internal/roles"
)

// RoleResponse is one administrator marker
type RoleResponse struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	GrantedByID string    `json:"granted_by_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// @Summary List administrators
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} RoleResponse
// @Router /api/admin/roles [get]
func (s *Server) listRoles(c *gin.Context) {
	list, err := s.roles.List(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list admin roles")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	out := make([]RoleResponse, 0, len(list))
	for _, role := range list {
		r := RoleResponse{
			UserID:      role.UserID,
			GrantedByID: role.GrantedByID,
			CreatedAt:   role.CreatedAt,
		}
		if role.User != nil {
			r.Email = role.User.Email
			r.Name = role.User.Name
		}
		out = append(out, r)
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Grant admin role
// @Tags admin
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/roles/{userId} [put]
func (s *Server) grantRole(c *gin.Context) {
	actor, _ := GetSessionData(c)
	userID := c.Param("userId")

	if err := s.roles.Grant(c.Request.Context(), userID, actor.UserID); err != nil {
		if errors.Is(err, roles.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to grant admin role")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Revoke admin role
// @Description Removes the admin marker. The last administrator cannot be removed.
// @Tags admin
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/admin/roles/{userId} [delete]
func (s *Server) revokeRole(c *gin.Context) {
	actor, _ := GetSessionData(c)
	userID := c.Param("userId")

	err := s.roles.Revoke(c.Request.Context(), userID, actor.UserID)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, roles.ErrNotAdmin):
		c.JSON(http.StatusNotFound, gin.H{"error": "User is not an administrator"})
	case errors.Is(err, roles.ErrLastAdmin):
		c.JSON(http.StatusConflict, gin.H{"error": "Cannot remove the last administrator"})
	default:
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to revoke admin role")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
