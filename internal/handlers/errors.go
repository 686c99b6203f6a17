package handlers

import (
	"errors"
	"net/http"

	"github.com/getmentor/getmentor-escrow/internal/middleware"
	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/internal/services"
	apperrors "github.com/getmentor/getmentor-escrow/pkg/errors"
	"github.com/gin-gonic/gin"
)

// kindStatus maps ledger failure kinds to HTTP status codes
var kindStatus = map[apperrors.Kind]int{
	apperrors.KindAlreadyRegistered:        http.StatusConflict,
	apperrors.KindNotRegistered:            http.StatusNotFound,
	apperrors.KindNotFound:                 http.StatusNotFound,
	apperrors.KindMentorUnavailable:        http.StatusConflict,
	apperrors.KindSessionAlreadyActive:     http.StatusConflict,
	apperrors.KindSessionNotActive:         http.StatusConflict,
	apperrors.KindSessionNotCompleted:      http.StatusConflict,
	apperrors.KindAchievementAlreadyMinted: http.StatusConflict,
	apperrors.KindNFTContractNotSet:        http.StatusConflict,
	apperrors.KindInsufficientBalance:      http.StatusUnprocessableEntity,
	apperrors.KindInsufficientAllowance:    http.StatusUnprocessableEntity,
	apperrors.KindFeeExceedsCap:            http.StatusBadRequest,
	apperrors.KindInvalidRating:            http.StatusBadRequest,
	apperrors.KindInvalidInput:             http.StatusBadRequest,
	apperrors.KindUnauthorized:             http.StatusForbidden,
}

// attachError attaches err to the gin context so the observability middleware
// can include the reason in the request log. c.Error() returns *gin.Error (not
// the error interface), so we suppress errcheck here intentionally.
func attachError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err) //nolint:errcheck
	}
}

// respondError sends an error JSON response and attaches the error to the gin context
// so the observability middleware can include the reason in the request log.
func respondError(c *gin.Context, status int, message string, err error) {
	attachError(c, err)
	c.JSON(status, gin.H{"error": message})
}

// respondErrorWithDetails sends an error response with an additional details field.
func respondErrorWithDetails(c *gin.Context, status int, message string, details any, err error) {
	attachError(c, err)
	c.JSON(status, gin.H{"error": message, "details": details})
}

// respondLedgerError reports a failed ledger operation. Kinded errors carry the kind in "code".
func respondLedgerError(c *gin.Context, err error) {
	attachError(c, err)

	if kind := apperrors.KindOf(err); kind != "" {
		status, ok := kindStatus[kind]
		if !ok {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error(), "code": kind})
		return
	}

	switch {
	case errors.Is(err, services.ErrLedgerNotInitialized):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Ledger not initialized"})
	case errors.Is(err, services.ErrJWTSecretNotSet):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Wallet sessions are not configured"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// bindJSON binds the request body and reports validation failures
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if details := ParseValidationErrors(err); len(details) > 0 {
			respondErrorWithDetails(c, http.StatusBadRequest, "Validation failed", details, err)
		} else {
			respondError(c, http.StatusBadRequest, "Invalid request body", err)
		}
		return false
	}
	return true
}

// callerAddress returns the authenticated wallet or responds 401
func callerAddress(c *gin.Context) (models.Address, bool) {
	caller, err := middleware.CallerAddress(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return "", false
	}
	return caller, true
}

// addressParam parses the named path parameter as an address or responds 400
func addressParam(c *gin.Context, name string) (models.Address, bool) {
	addr, err := models.ParseAddress(c.Param(name))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid address", err)
		return "", false
	}
	return addr, true
}

// parseAddress parses a validated body field
func parseAddress(c *gin.Context, raw string) (models.Address, bool) {
	addr, err := models.ParseAddress(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid address", err)
		return "", false
	}
	return addr, true
}
