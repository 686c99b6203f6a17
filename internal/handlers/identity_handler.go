package handlers

import (
	"net/http"
	"strconv"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/internal/services"
	apperrors "github.com/getmentor/getmentor-escrow/pkg/errors"
	"github.com/gin-gonic/gin"
)

// IdentityHandler serves mentor and student registration and profile reads
type IdentityHandler struct {
	service services.IdentityServiceInterface
}

// NewIdentityHandler creates a new identity handler
func NewIdentityHandler(service services.IdentityServiceInterface) *IdentityHandler {
	return &IdentityHandler{service: service}
}

// RegisterMentor handles POST /api/v1/mentors
func (h *IdentityHandler) RegisterMentor(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req models.RegisterMentorRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.HourlyRate.IsZero() {
		respondLedgerError(c, apperrors.InvalidInputError("hourlyRate", "must be greater than zero"))
		return
	}

	mentor, err := h.service.RegisterMentor(c.Request.Context(), caller, req.Name, req.Expertise, req.HourlyRate)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, mentor.ToResponse())
}

// RegisterStudent handles POST /api/v1/students
func (h *IdentityHandler) RegisterStudent(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req models.RegisterStudentRequest
	if !bindJSON(c, &req) {
		return
	}

	student, err := h.service.RegisterStudent(c.Request.Context(), caller, req.Name)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, student)
}

// GetMentor handles GET /api/v1/mentors/:address
func (h *IdentityHandler) GetMentor(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}

	mentor, err := h.service.GetMentor(c.Request.Context(), addr)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, mentor.ToResponse())
}

// ListMentors handles GET /api/v1/mentors?available=true&expertise=go
func (h *IdentityHandler) ListMentors(c *gin.Context) {
	filter := models.MentorFilter{Expertise: c.Query("expertise")}
	if raw := c.Query("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid available flag", err)
			return
		}
		filter.AvailableOnly = available
	}

	mentors, err := h.service.ListMentors(c.Request.Context(), filter)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	resp := make([]models.MentorResponse, 0, len(mentors))
	for _, m := range mentors {
		resp = append(resp, m.ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"mentors": resp})
}

// GetStudent handles GET /api/v1/students/:address
func (h *IdentityHandler) GetStudent(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}

	student, err := h.service.GetStudent(c.Request.Context(), addr)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, student)
}
