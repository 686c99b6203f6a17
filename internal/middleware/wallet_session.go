package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// WalletSessionContextKey is the key used to store session in context
const WalletSessionContextKey = "wallet_session"

var (
	ErrSessionNotFound = errors.New("session not found in context")
	ErrInvalidSession  = errors.New("invalid session type")
)

// WalletSessionMiddleware validates the bearer wallet session and adds it to context.
// The address in the session is the caller of every state-changing ledger operation.
func WalletSessionMiddleware(tokenManager *jwt.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			_ = c.Error(fmt.Errorf("missing bearer token")) //nolint:errcheck
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		claims, err := tokenManager.ValidateToken(token)
		if err != nil {
			_ = c.Error(fmt.Errorf("invalid wallet session: %w", err)) //nolint:errcheck

			if errors.Is(err, jwt.ErrExpiredToken) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			}
			c.Abort()
			return
		}

		address, err := models.ParseAddress(claims.Address)
		if err != nil {
			_ = c.Error(err) //nolint:errcheck
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		session := &models.WalletSession{
			Address:   address,
			ExpiresAt: claims.ExpiresAt.Unix(),
			IssuedAt:  claims.IssuedAt.Unix(),
		}

		c.Set(WalletSessionContextKey, session)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// GetWalletSession extracts session from context
func GetWalletSession(c *gin.Context) (*models.WalletSession, error) {
	val, exists := c.Get(WalletSessionContextKey)
	if !exists {
		return nil, ErrSessionNotFound
	}

	session, ok := val.(*models.WalletSession)
	if !ok {
		return nil, ErrInvalidSession
	}

	return session, nil
}

// CallerAddress returns the authenticated wallet address
func CallerAddress(c *gin.Context) (models.Address, error) {
	session, err := GetWalletSession(c)
	if err != nil {
		return "", err
	}
	return session.Address, nil
}
