package handlers

import (
	"net/http"
	"strconv"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/internal/services"
	"github.com/gin-gonic/gin"
)

// AchievementHandler serves achievement NFT minting, lookup and minter management
type AchievementHandler struct {
	service services.AchievementServiceInterface
}

// NewAchievementHandler creates a new achievement handler
func NewAchievementHandler(service services.AchievementServiceInterface) *AchievementHandler {
	return &AchievementHandler{service: service}
}

// MintAchievement handles POST /api/v1/achievements. The caller must hold the minter role.
func (h *AchievementHandler) MintAchievement(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req models.MintAchievementRequest
	if !bindJSON(c, &req) {
		return
	}

	achievement, err := h.service.MintAchievement(c.Request.Context(), caller, req.SessionID, req.Title, req.Description)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, achievement)
}

// SetMinterRole handles PUT /api/v1/minters
func (h *AchievementHandler) SetMinterRole(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req models.SetMinterRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	minter, ok := parseAddress(c, req.Address)
	if !ok {
		return
	}

	if err := h.service.SetMinterRole(c.Request.Context(), caller, minter, req.Enabled); err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": minter, "enabled": req.Enabled})
}

// IsMinter handles GET /api/v1/minters/:address
func (h *AchievementHandler) IsMinter(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}

	enabled, err := h.service.IsMinter(c.Request.Context(), addr)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": addr, "enabled": enabled})
}

// GetAchievement handles GET /api/v1/achievements/:tokenId
func (h *AchievementHandler) GetAchievement(c *gin.Context) {
	tokenID, err := strconv.ParseUint(c.Param("tokenId"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid token ID", err)
		return
	}

	achievement, err := h.service.GetAchievement(c.Request.Context(), tokenID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, achievement)
}

// ListStudentAchievements handles GET /api/v1/students/:address/achievements
func (h *AchievementHandler) ListStudentAchievements(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}

	achievements, err := h.service.ListStudentAchievements(c.Request.Context(), addr)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	if achievements == nil {
		achievements = []*models.Achievement{}
	}

	c.JSON(http.StatusOK, gin.H{"achievements": achievements})
}
