package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/internal/services"
	"github.com/gin-gonic/gin"
)

// SessionHandler serves the escrowed mentorship session lifecycle
type SessionHandler struct {
	service services.EscrowServiceInterface
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(service services.EscrowServiceInterface) *SessionHandler {
	return &SessionHandler{service: service}
}

// StartSession handles POST /api/v1/sessions. The caller is the student.
func (h *SessionHandler) StartSession(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req models.StartSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	mentor, ok := parseAddress(c, req.MentorAddress)
	if !ok {
		return
	}

	session, err := h.service.StartSession(c.Request.Context(), caller, mentor)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// EndSession handles POST /api/v1/sessions/end. The caller is the mentor.
func (h *SessionHandler) EndSession(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req models.EndSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	student, ok := parseAddress(c, req.StudentAddress)
	if !ok {
		return
	}

	session, err := h.service.EndSession(c.Request.Context(), caller, student)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetSession handles GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid session ID", err)
		return
	}

	session, err := h.service.GetSession(c.Request.Context(), id)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// ListMentorSessions handles GET /api/v1/mentors/:address/sessions
func (h *SessionHandler) ListMentorSessions(c *gin.Context) {
	h.listSessions(c, h.service.ListMentorSessions)
}

// ListStudentSessions handles GET /api/v1/students/:address/sessions
func (h *SessionHandler) ListStudentSessions(c *gin.Context) {
	h.listSessions(c, h.service.ListStudentSessions)
}

func (h *SessionHandler) listSessions(c *gin.Context, list func(ctx context.Context, addr models.Address) ([]uint64, error)) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}

	ids, err := list(c.Request.Context(), addr)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}

	c.JSON(http.StatusOK, models.SessionIDsResponse{Address: addr, SessionIDs: ids})
}
