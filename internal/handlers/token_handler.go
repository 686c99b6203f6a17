package handlers

import (
	"net/http"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/internal/services"
	"github.com/gin-gonic/gin"
)

// TokenHandler serves EDU token balances, transfers and allowances
type TokenHandler struct {
	service services.TokenServiceInterface
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(service services.TokenServiceInterface) *TokenHandler {
	return &TokenHandler{service: service}
}

// Info handles GET /api/v1/token
func (h *TokenHandler) Info(c *gin.Context) {
	meta, err := h.service.Info(c.Request.Context())
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, meta)
}

// BalanceOf handles GET /api/v1/token/balances/:address
func (h *TokenHandler) BalanceOf(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}

	balance, err := h.service.BalanceOf(c.Request.Context(), addr)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.BalanceResponse{Address: addr, Balance: balance})
}

// Allowance handles GET /api/v1/token/allowances/:owner/:spender
func (h *TokenHandler) Allowance(c *gin.Context) {
	owner, ok := addressParam(c, "owner")
	if !ok {
		return
	}
	spender, ok := addressParam(c, "spender")
	if !ok {
		return
	}

	allowance, err := h.service.Allowance(c.Request.Context(), owner, spender)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AllowanceResponse{Owner: owner, Spender: spender, Allowance: allowance})
}

// Approve handles POST /api/v1/token/approvals
func (h *TokenHandler) Approve(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req models.ApproveRequest
	if !bindJSON(c, &req) {
		return
	}
	spender, ok := parseAddress(c, req.Spender)
	if !ok {
		return
	}

	if err := h.service.Approve(c.Request.Context(), caller, spender, req.Amount); err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AllowanceResponse{Owner: caller, Spender: spender, Allowance: req.Amount})
}

// Transfer handles POST /api/v1/token/transfers
func (h *TokenHandler) Transfer(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req models.TransferRequest
	if !bindJSON(c, &req) {
		return
	}
	to, ok := parseAddress(c, req.To)
	if !ok {
		return
	}

	if err := h.service.Transfer(c.Request.Context(), caller, to, req.Amount); err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"from": caller, "to": to, "amount": req.Amount})
}

// Mint handles POST /api/v1/token/mints. Only the token owner may mint.
func (h *TokenHandler) Mint(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req models.TransferRequest
	if !bindJSON(c, &req) {
		return
	}
	to, ok := parseAddress(c, req.To)
	if !ok {
		return
	}

	if err := h.service.Mint(c.Request.Context(), caller, to, req.Amount); err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"to": to, "amount": req.Amount})
}
