package handlers

import (
	"net/http"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/internal/services"
	"github.com/gin-gonic/gin"
)

// ReputationHandler serves mentor ratings
type ReputationHandler struct {
	service services.ReputationServiceInterface
}

// NewReputationHandler creates a new reputation handler
func NewReputationHandler(service services.ReputationServiceInterface) *ReputationHandler {
	return &ReputationHandler{service: service}
}

// RateMentor handles POST /api/v1/mentors/:address/ratings
func (h *ReputationHandler) RateMentor(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	mentorAddr, ok := addressParam(c, "address")
	if !ok {
		return
	}

	var req models.RateMentorRequest
	if !bindJSON(c, &req) {
		return
	}

	mentor, err := h.service.RateMentor(c.Request.Context(), caller, mentorAddr, *req.Rating)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, mentor.ToResponse())
}
