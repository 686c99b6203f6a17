package handlers

import (
	"net/http"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/internal/services"
	"github.com/gin-gonic/gin"
)

// PlatformHandler serves platform configuration and owner-only settings
type PlatformHandler struct {
	service services.PlatformServiceInterface
}

// NewPlatformHandler creates a new platform handler
func NewPlatformHandler(service services.PlatformServiceInterface) *PlatformHandler {
	return &PlatformHandler{service: service}
}

// GetPlatformConfig handles GET /api/v1/platform
func (h *PlatformHandler) GetPlatformConfig(c *gin.Context) {
	status, err := h.service.GetPlatformConfig(c.Request.Context())
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// UpdatePlatformFee handles PUT /api/v1/platform/fee
func (h *PlatformHandler) UpdatePlatformFee(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req models.UpdatePlatformFeeRequest
	if !bindJSON(c, &req) {
		return
	}

	cfg, err := h.service.UpdatePlatformFee(c.Request.Context(), caller, *req.PlatformFee)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// SetNFTContract handles PUT /api/v1/platform/nft-contract
func (h *PlatformHandler) SetNFTContract(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req models.SetNFTContractRequest
	if !bindJSON(c, &req) {
		return
	}
	registry, ok := parseAddress(c, req.Address)
	if !ok {
		return
	}

	cfg, err := h.service.SetNFTContract(c.Request.Context(), caller, registry)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// WithdrawEmergency handles POST /api/v1/platform/emergency-withdrawal
func (h *PlatformHandler) WithdrawEmergency(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	resp, err := h.service.WithdrawEmergency(c.Request.Context(), caller)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
