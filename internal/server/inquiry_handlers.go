package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adspot-dev/adspot/internal/inquiries"
	"github.com/adspot-dev/adspot/internal/models"
)

// InquiryResponse is an inquiry as shown to administrators
type InquiryResponse struct {
	models.Inquiry
	Submitted string `json:"submitted"`
}

// @Summary Submit inquiry
// @Description Stores a contact form submission and schedules it for the form relay
// @Tags contact
// @Accept json
// @Produce json
// @Param request body inquiries.Input true "Inquiry"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/inquiries [post]
func (s *Server) submitInquiry(c *gin.Context) {
	var req inquiries.Input
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	inq, err := s.inquiries.Submit(c.Request.Context(), req)
	if err != nil {
		if isValidationError(err) {
			respondValidation(c, err)
			return
		}
		s.logger.Error().Err(err).Msg("Failed to store inquiry")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":          inq.ID,
		"submittedAt": inq.SubmittedAt.Format(time.RFC3339),
		"message":     "Thank you! Your inquiry has been received.",
	})
}

// @Summary List inquiries
// @Description Lists contact form submissions, newest first
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} InquiryResponse
// @Router /api/admin/inquiries [get]
func (s *Server) listInquiries(c *gin.Context) {
	list, err := s.inquiries.List(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list inquiries")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	out := make([]InquiryResponse, 0, len(list))
	for _, inq := range list {
		out = append(out, InquiryResponse{
			Inquiry:   inq,
			Submitted: inquiries.FormatSubmitted(inq.SubmittedAt),
		})
	}
	c.JSON(http.StatusOK, out)
}
