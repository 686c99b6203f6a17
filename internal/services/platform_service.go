package services

import (
	"context"
	"errors"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/internal/token"
	"github.com/getmentor/getmentor-escrow/pkg/amount"
	apperrors "github.com/getmentor/getmentor-escrow/pkg/errors"
	"github.com/getmentor/getmentor-escrow/pkg/logger"
	"github.com/getmentor/getmentor-escrow/pkg/metrics"
	"go.uber.org/zap"
)

// BootstrapParams describes the initial deployment of the ledger and its collaborators
type BootstrapParams struct {
	PlatformWallet   models.Address
	LedgerAddress    models.Address
	TokenAddress     models.Address
	RegistryAddress  models.Address
	InitialFee       uint64
	WireAchievements bool
}

// PlatformService owns the platform configuration and owner-only operations
type PlatformService struct {
	ledger *Ledger
}

// NewPlatformService creates a new platform service instance
func NewPlatformService(ledger *Ledger) *PlatformService {
	return &PlatformService{ledger: ledger}
}

// Bootstrap deploys the ledger on first start. On later starts the stored configuration wins
// and is returned unchanged.
func (s *PlatformService) Bootstrap(ctx context.Context, p BootstrapParams) (*models.PlatformConfig, error) {
	var cfg *models.PlatformConfig
	var active int
	fields := []zap.Field{zap.String("platform_wallet", p.PlatformWallet.String()), zap.String("ledger", p.LedgerAddress.String())}

	err := s.ledger.execute(ctx, "bootstrap", fields, func(u *unit) error {
		existing, err := u.config()
		if err == nil {
			if existing.Owner != p.PlatformWallet {
				logger.Warn("Configured platform wallet differs from the deployed owner, keeping the deployed owner",
					zap.String("deployed_owner", existing.Owner.String()),
					zap.String("configured", p.PlatformWallet.String()))
			}
			cfg = existing
			active, err = u.repo.CountActiveSessions()
			return err
		}
		if !errors.Is(err, ErrLedgerNotInitialized) {
			return err
		}

		if p.PlatformWallet.IsZero() || p.LedgerAddress.IsZero() || p.TokenAddress.IsZero() || p.RegistryAddress.IsZero() {
			return apperrors.InvalidInputError("bootstrap", "platform wallet, ledger, token and registry addresses are required")
		}
		if p.InitialFee > models.MaxPlatformFee {
			return apperrors.ErrFeeExceedsCap
		}

		cfg = &models.PlatformConfig{
			Owner:         p.PlatformWallet,
			PlatformFee:   p.InitialFee,
			LedgerAddress: p.LedgerAddress,
			TokenAddress:  p.TokenAddress,
		}
		u.cfg = cfg
		if _, err := token.Deploy(u.repo.Tx(), p.TokenAddress, p.PlatformWallet); err != nil {
			return err
		}
		reg, err := u.registries.Deploy(u.repo.Tx(), p.RegistryAddress, p.PlatformWallet)
		if err != nil {
			return err
		}

		if p.WireAchievements {
			if err := reg.SetMinterRole(p.PlatformWallet, p.LedgerAddress, true); err != nil {
				return err
			}
			cfg.NFTContract = reg.Address()
			if err := u.emit(models.EventNFTContractUpdated, models.NFTContractUpdatedPayload{Current: reg.Address()}); err != nil {
				return err
			}
		}
		return u.repo.SaveConfig(cfg)
	})
	if err != nil {
		return nil, err
	}

	metrics.ActiveSessions.Set(float64(active))
	return cfg, nil
}

// GetPlatformConfig returns the configuration with the current custody balance
func (s *PlatformService) GetPlatformConfig(ctx context.Context) (*models.PlatformStatus, error) {
	var status *models.PlatformStatus
	err := s.ledger.view(ctx, func(u *unit) error {
		cfg, err := u.config()
		if err != nil {
			return err
		}
		tok, err := u.token()
		if err != nil {
			return err
		}
		custody, err := tok.BalanceOf(cfg.LedgerAddress)
		if err != nil {
			return err
		}
		status = &models.PlatformStatus{PlatformConfig: cfg, CustodyBalance: custody}
		return nil
	})
	return status, err
}

// UpdatePlatformFee replaces the platform fee percent
func (s *PlatformService) UpdatePlatformFee(ctx context.Context, caller models.Address, fee uint64) (*models.PlatformConfig, error) {
	var cfg *models.PlatformConfig
	fields := []zap.Field{zap.String("caller", caller.String()), zap.Uint64("fee", fee)}

	err := s.ledger.execute(ctx, "update_platform_fee", fields, func(u *unit) error {
		c, err := ownerConfig(u, caller)
		if err != nil {
			return err
		}
		if fee > models.MaxPlatformFee {
			return apperrors.ErrFeeExceedsCap
		}

		old := c.PlatformFee
		c.PlatformFee = fee
		if err := u.repo.SaveConfig(c); err != nil {
			return err
		}
		cfg = c
		return u.emit(models.EventPlatformFeeUpdated, models.PlatformFeeUpdatedPayload{OldFee: old, NewFee: fee})
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetNFTContract wires the achievement registry. Setting the same address again is allowed.
func (s *PlatformService) SetNFTContract(ctx context.Context, caller, registry models.Address) (*models.PlatformConfig, error) {
	var cfg *models.PlatformConfig
	fields := []zap.Field{zap.String("caller", caller.String()), zap.String("registry", registry.String())}

	err := s.ledger.execute(ctx, "set_nft_contract", fields, func(u *unit) error {
		c, err := ownerConfig(u, caller)
		if err != nil {
			return err
		}
		if registry.IsZero() {
			return apperrors.InvalidInputError("address", "must not be empty")
		}

		previous := c.NFTContract
		c.NFTContract = registry
		if err := u.repo.SaveConfig(c); err != nil {
			return err
		}
		cfg = c
		return u.emit(models.EventNFTContractUpdated, models.NFTContractUpdatedPayload{Previous: previous, Current: registry})
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// WithdrawEmergency sweeps the whole custody balance to the owner, including funds of active sessions
func (s *PlatformService) WithdrawEmergency(ctx context.Context, caller models.Address) (*models.EmergencyWithdrawalResponse, error) {
	var resp *models.EmergencyWithdrawalResponse

	err := s.ledger.execute(ctx, "withdraw_emergency", []zap.Field{zap.String("caller", caller.String())}, func(u *unit) error {
		cfg, err := ownerConfig(u, caller)
		if err != nil {
			return err
		}
		tok, err := u.token()
		if err != nil {
			return err
		}
		custody, err := tok.BalanceOf(cfg.LedgerAddress)
		if err != nil {
			return err
		}
		if err := tok.Transfer(cfg.LedgerAddress, cfg.Owner, custody); err != nil {
			return err
		}

		resp = &models.EmergencyWithdrawalResponse{Recipient: cfg.Owner, Amount: custody}
		return u.emit(models.EventEmergencyWithdrawal, models.EmergencyWithdrawalPayload{Recipient: cfg.Owner, Amount: custody})
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// CustodyBalance returns the tokens currently held by the ledger
func (s *PlatformService) CustodyBalance(ctx context.Context) (amount.Amount, error) {
	status, err := s.GetPlatformConfig(ctx)
	if err != nil {
		return amount.Zero, err
	}
	return status.CustodyBalance, nil
}

func ownerConfig(u *unit, caller models.Address) (*models.PlatformConfig, error) {
	cfg, err := u.config()
	if err != nil {
		return nil, err
	}
	if caller != cfg.Owner {
		return nil, apperrors.New(apperrors.KindUnauthorized, "only the platform owner can do this")
	}
	return cfg, nil
}
