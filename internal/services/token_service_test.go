package services_test

import (
	"context"
	"testing"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/internal/services"
	"github.com/getmentor/getmentor-escrow/pkg/amount"
	apperrors "github.com/getmentor/getmentor-escrow/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_Info(t *testing.T) {
	f := newFixture(t, true)
	f.withPair(t)

	meta, err := f.tokens.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tokenAddr, meta.Address)
	assert.Equal(t, platformWallet, meta.Owner)
	assert.Equal(t, "EDU", meta.Symbol)
	assert.Equal(t, uint8(18), meta.Decimals)
	assert.Equal(t, initialBalance.String(), meta.TotalSupply.String())
}

func TestTokenService_Transfer(t *testing.T) {
	f := newFixture(t, true)
	f.withPair(t)
	ctx := context.Background()

	require.NoError(t, f.tokens.Transfer(ctx, studentAddr, otherAddr, amount.New(250)))

	assert.Equal(t, "250", f.balance(t, otherAddr))
	assert.Equal(t, "999999999999999999750", f.balance(t, studentAddr))
	require.NotNil(t, f.lastEvent(models.EventTransfer))
}

func TestTokenService_TransferInsufficientBalance(t *testing.T) {
	f := newFixture(t, true)
	f.withPair(t)

	err := f.tokens.Transfer(context.Background(), otherAddr, studentAddr, amount.New(1))
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	assert.Equal(t, initialBalance.String(), f.balance(t, studentAddr))
}

func TestTokenService_MintRequiresOwner(t *testing.T) {
	f := newFixture(t, true)

	err := f.tokens.Mint(context.Background(), studentAddr, studentAddr, amount.New(1))
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
	assert.Equal(t, "0", f.balance(t, studentAddr))
}

func TestTokenService_ApproveAndAllowance(t *testing.T) {
	f := newFixture(t, true)
	f.withPair(t)
	ctx := context.Background()

	f.approve(t, studentAddr, amount.New(42))

	allowance, err := f.tokens.Allowance(ctx, studentAddr, ledgerAddr)
	require.NoError(t, err)
	assert.Equal(t, "42", allowance.String())

	none, err := f.tokens.Allowance(ctx, studentAddr, otherAddr)
	require.NoError(t, err)
	assert.True(t, none.IsZero())
	require.NotNil(t, f.lastEvent(models.EventApproval))
}

func TestTokenService_RejectsLedgerHeldCallers(t *testing.T) {
	f := newFixture(t, true)
	f.withPair(t)
	ctx := context.Background()

	for _, caller := range []models.Address{ledgerAddr, tokenAddr, registryAddr} {
		err := f.tokens.Transfer(ctx, caller, otherAddr, amount.New(1))
		assert.ErrorIs(t, err, services.ErrSystemCaller, "transfer as %s", caller)

		err = f.tokens.Approve(ctx, caller, otherAddr, amount.New(1))
		assert.ErrorIs(t, err, services.ErrSystemCaller, "approve as %s", caller)

		err = f.tokens.Mint(ctx, caller, otherAddr, amount.New(1))
		assert.ErrorIs(t, err, services.ErrSystemCaller, "mint as %s", caller)
		assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
	}
	assert.Equal(t, "0", f.balance(t, otherAddr))
}

func TestTokenService_CustodyCannotBeMovedDirectly(t *testing.T) {
	f := newFixture(t, true)
	f.withPair(t)
	f.approve(t, studentAddr, hourlyRate)
	ctx := context.Background()

	_, err := f.escrow.StartSession(ctx, studentAddr, mentorAddr)
	require.NoError(t, err)

	err = f.tokens.Transfer(ctx, ledgerAddr, otherAddr, hourlyRate)
	assert.ErrorIs(t, err, services.ErrSystemCaller)
	err = f.tokens.Approve(ctx, ledgerAddr, otherAddr, hourlyRate)
	assert.ErrorIs(t, err, services.ErrSystemCaller)

	allowance, err := f.tokens.Allowance(ctx, ledgerAddr, otherAddr)
	require.NoError(t, err)
	assert.True(t, allowance.IsZero())
	assert.Equal(t, hourlyRate.String(), f.balance(t, ledgerAddr))
	assert.Equal(t, "0", f.balance(t, otherAddr))

	_, err = f.escrow.EndSession(ctx, mentorAddr, studentAddr)
	require.NoError(t, err)
	assert.Equal(t, "0", f.balance(t, ledgerAddr))
}
