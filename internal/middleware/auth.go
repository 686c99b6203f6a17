package middleware

import (
	"net/http"

	"github.com/getmentor/getmentor-escrow/pkg/jwt"
	"github.com/getmentor/getmentor-escrow/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InternalAPITokenHeader carries the token of trusted internal callers such as the wallet gateway
const InternalAPITokenHeader = "x-internal-api-auth-token"

// InternalAPIAuthMiddleware admits only callers presenting the shared internal token.
// An empty configured token rejects every request.
func InternalAPIAuthMiddleware(validToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader(InternalAPITokenHeader)
		if validToken != "" && presented != "" && jwt.TimingSafeCompare(presented, validToken) {
			c.Next()
			return
		}

		logger.Warn("Rejected internal API call",
			zap.String("route", c.FullPath()),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", RequestID(c)),
			zap.Bool("token_present", presented != ""),
		)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing internal API token"})
	}
}
