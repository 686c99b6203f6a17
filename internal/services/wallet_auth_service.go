package services

import (
	"context"
	"errors"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/pkg/jwt"
	"github.com/getmentor/getmentor-escrow/pkg/logger"
	"github.com/getmentor/getmentor-escrow/pkg/metrics"
	"go.uber.org/zap"
)

var (
	ErrJWTSecretNotSet       = errors.New("JWT secret not configured")
	ErrInvalidWalletSession  = errors.New("invalid or expired wallet session")
	ErrWalletSessionIssuance = errors.New("failed to issue wallet session")
)

// SystemAddressChecker reports whether an address is held by the ledger itself
type SystemAddressChecker interface {
	IsSystemAddress(ctx context.Context, addr models.Address) (bool, error)
}

// WalletAuthService issues and verifies wallet sessions. Wallet ownership itself is proven
// by the external gateway before it asks for a session.
type WalletAuthService struct {
	tokenManager *jwt.TokenManager
	system       SystemAddressChecker
}

// WalletAuthOption configures a WalletAuthService
type WalletAuthOption func(*WalletAuthService)

// WithSystemAddresses refuses sessions for addresses the checker reports as ledger-held
func WithSystemAddresses(checker SystemAddressChecker) WalletAuthOption {
	return func(s *WalletAuthService) { s.system = checker }
}

// NewWalletAuthService creates a new WalletAuthService. tm may be nil when no secret is configured.
func NewWalletAuthService(tm *jwt.TokenManager, opts ...WalletAuthOption) *WalletAuthService {
	s := &WalletAuthService{tokenManager: tm}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueSession creates a bearer token for addr
func (s *WalletAuthService) IssueSession(ctx context.Context, addr models.Address) (*models.IssueWalletSessionResponse, error) {
	if s.tokenManager == nil {
		metrics.WalletSessionsIssued.WithLabelValues("not_configured").Inc()
		return nil, ErrJWTSecretNotSet
	}

	if s.system != nil {
		system, err := s.system.IsSystemAddress(ctx, addr)
		if err != nil {
			metrics.WalletSessionsIssued.WithLabelValues("error").Inc()
			logger.Error("Failed to check wallet session address", zap.String("address", addr.String()), zap.Error(err))
			return nil, err
		}
		if system {
			metrics.WalletSessionsIssued.WithLabelValues("rejected").Inc()
			logger.Warn("Wallet session refused for ledger-held address", zap.String("address", addr.String()))
			return nil, ErrSystemCaller
		}
	}

	signed, claims, err := s.tokenManager.GenerateToken(addr.String())
	if err != nil {
		metrics.WalletSessionsIssued.WithLabelValues("error").Inc()
		logger.Error("Failed to issue wallet session", zap.String("address", addr.String()), zap.Error(err))
		return nil, ErrWalletSessionIssuance
	}

	metrics.WalletSessionsIssued.WithLabelValues("success").Inc()
	logger.Info("Wallet session issued", zap.String("address", addr.String()))

	return &models.IssueWalletSessionResponse{
		Token:     signed,
		Address:   addr,
		ExpiresAt: claims.ExpiresAt.Unix(),
	}, nil
}

// VerifySession returns the wallet session carried by a bearer token
func (s *WalletAuthService) VerifySession(token string) (*models.WalletSession, error) {
	if s.tokenManager == nil {
		return nil, ErrJWTSecretNotSet
	}

	claims, err := s.tokenManager.ValidateToken(token)
	if err != nil {
		return nil, ErrInvalidWalletSession
	}
	addr, err := models.ParseAddress(claims.Address)
	if err != nil {
		return nil, ErrInvalidWalletSession
	}

	return &models.WalletSession{
		Address:   addr,
		ExpiresAt: claims.ExpiresAt.Unix(),
		IssuedAt:  claims.IssuedAt.Unix(),
	}, nil
}
