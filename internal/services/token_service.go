package services

import (
	"context"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/internal/token"
	"github.com/getmentor/getmentor-escrow/pkg/amount"
	"go.uber.org/zap"
)

// TokenService exposes the EDU token wallet operations
type TokenService struct {
	ledger *Ledger
}

// NewTokenService creates a new token service instance
func NewTokenService(ledger *Ledger) *TokenService {
	return &TokenService{ledger: ledger}
}

// Info returns the token metadata
func (s *TokenService) Info(ctx context.Context) (*token.Metadata, error) {
	var meta token.Metadata
	err := s.ledger.view(ctx, func(u *unit) error {
		tok, err := u.token()
		if err != nil {
			return err
		}
		meta = tok.Metadata()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// BalanceOf returns the balance of addr
func (s *TokenService) BalanceOf(ctx context.Context, addr models.Address) (amount.Amount, error) {
	balance := amount.Zero
	err := s.ledger.view(ctx, func(u *unit) error {
		tok, err := u.token()
		if err != nil {
			return err
		}
		balance, err = tok.BalanceOf(addr)
		return err
	})
	return balance, err
}

// Allowance returns how much spender may move from owner
func (s *TokenService) Allowance(ctx context.Context, owner, spender models.Address) (amount.Amount, error) {
	allowance := amount.Zero
	err := s.ledger.view(ctx, func(u *unit) error {
		tok, err := u.token()
		if err != nil {
			return err
		}
		allowance, err = tok.Allowance(owner, spender)
		return err
	})
	return allowance, err
}

// Approve sets spender's allowance over caller's balance
func (s *TokenService) Approve(ctx context.Context, caller, spender models.Address, value amount.Amount) error {
	fields := []zap.Field{zap.String("owner", caller.String()), zap.String("spender", spender.String()), zap.String("amount", value.String())}
	return s.ledger.execute(ctx, "token_approve", fields, func(u *unit) error {
		if err := u.ensureExternal(caller); err != nil {
			return err
		}
		tok, err := u.token()
		if err != nil {
			return err
		}
		return tok.Approve(caller, spender, value)
	})
}

// Transfer moves value from caller to recipient
func (s *TokenService) Transfer(ctx context.Context, caller, recipient models.Address, value amount.Amount) error {
	fields := []zap.Field{zap.String("from", caller.String()), zap.String("to", recipient.String()), zap.String("amount", value.String())}
	return s.ledger.execute(ctx, "token_transfer", fields, func(u *unit) error {
		if err := u.ensureExternal(caller); err != nil {
			return err
		}
		tok, err := u.token()
		if err != nil {
			return err
		}
		return tok.Transfer(caller, recipient, value)
	})
}

// Mint creates new tokens. Only the token owner may mint.
func (s *TokenService) Mint(ctx context.Context, caller, recipient models.Address, value amount.Amount) error {
	fields := []zap.Field{zap.String("caller", caller.String()), zap.String("to", recipient.String()), zap.String("amount", value.String())}
	return s.ledger.execute(ctx, "token_mint", fields, func(u *unit) error {
		if err := u.ensureExternal(caller); err != nil {
			return err
		}
		tok, err := u.token()
		if err != nil {
			return err
		}
		return tok.Mint(caller, recipient, value)
	})
}
