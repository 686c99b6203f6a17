// Package jwt issues and verifies wallet session tokens.
package jwt

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Audience is the only audience wallet session tokens are valid for
const Audience = "getmentor-escrow-api"

// clockSkew tolerates small drift between the gateway and this service
const clockSkew = 30 * time.Second

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidClaim = errors.New("invalid token claims")
)

// WalletClaims binds a session to one wallet. Address and Subject always match.
type WalletClaims struct {
	Address string `json:"address"` // lower-cased 0x wallet address
	jwt.RegisteredClaims
}

// TokenManager signs HS256 wallet session tokens
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, issuer string, ttlHours int) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    time.Duration(ttlHours) * time.Hour,
		now:    time.Now,
	}
}

// GenerateToken signs a session for address, which must already be normalized
func (tm *TokenManager) GenerateToken(address string) (string, *WalletClaims, error) {
	now := tm.now()

	claims := &WalletClaims{
		Address: address,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tm.issuer,
			Subject:   address,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

// ValidateToken verifies signature, issuer, audience and lifetime
func (tm *TokenManager) ValidateToken(tokenString string) (*WalletClaims, error) {
	claims := &WalletClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return tm.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Address == "" || claims.Address != claims.Subject || claims.ID == "" {
		return nil, ErrInvalidClaim
	}
	return claims, nil
}

// TTL is the lifetime of newly issued tokens
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// TimingSafeCompare compares secrets in constant time
func TimingSafeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
