package handlers

import (
	"net/http"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/internal/services"
	"github.com/gin-gonic/gin"
)

// WalletSessionHandler issues wallet session tokens
type WalletSessionHandler struct {
	service services.WalletAuthServiceInterface
}

// NewWalletSessionHandler creates a new wallet session handler
func NewWalletSessionHandler(service services.WalletAuthServiceInterface) *WalletSessionHandler {
	return &WalletSessionHandler{service: service}
}

// IssueSession handles POST /api/internal/wallet-sessions.
// The internal caller has already verified that the requester controls the address.
func (h *WalletSessionHandler) IssueSession(c *gin.Context) {
	var req models.IssueWalletSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	addr, ok := parseAddress(c, req.Address)
	if !ok {
		return
	}

	resp, err := h.service.IssueSession(c.Request.Context(), addr)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
