package services_test

import (
	"context"
	"testing"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/internal/services"
	apperrors "github.com/getmentor/getmentor-escrow/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completedSession runs one full session without an achievement registry wired
func completedSession(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t, false)
	f.withPair(t)
	f.approve(t, studentAddr, hourlyRate)
	ctx := context.Background()

	_, err := f.escrow.StartSession(ctx, studentAddr, mentorAddr)
	require.NoError(t, err)
	_, err = f.escrow.EndSession(ctx, mentorAddr, studentAddr)
	require.NoError(t, err)
	return f
}

func TestMintAchievement_NFTContractNotSet(t *testing.T) {
	f := completedSession(t)

	_, err := f.achievements.MintAchievement(context.Background(), otherAddr, 1, "Title", "")
	assert.ErrorIs(t, err, apperrors.ErrNFTContractNotSet)
}

func TestMintAchievement_ByGrantedMinter(t *testing.T) {
	f := completedSession(t)
	ctx := context.Background()

	_, err := f.platform.SetNFTContract(ctx, platformWallet, registryAddr)
	require.NoError(t, err)

	_, err = f.achievements.MintAchievement(ctx, otherAddr, 1, "Title", "")
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	require.NoError(t, f.achievements.SetMinterRole(ctx, platformWallet, otherAddr, true))
	ok, err := f.achievements.IsMinter(ctx, otherAddr)
	require.NoError(t, err)
	assert.True(t, ok)

	minted, err := f.achievements.MintAchievement(ctx, otherAddr, 1, " Go basics ", "First session")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), minted.TokenID)
	assert.Equal(t, studentAddr, minted.Owner)
	assert.Equal(t, "Go basics", minted.Title)

	session, err := f.escrow.GetSession(ctx, 1)
	require.NoError(t, err)
	assert.True(t, session.NFTMinted)
	assert.Equal(t, uint64(1), session.AchievementID)

	_, err = f.achievements.MintAchievement(ctx, otherAddr, 1, "Again", "")
	assert.ErrorIs(t, err, apperrors.ErrAchievementAlreadyMinted)

	got, err := f.achievements.GetAchievement(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.SessionID)
}

func TestMintAchievement_ExactlyOnePerSessionAfterAutoMint(t *testing.T) {
	f := newFixture(t, true)
	f.withPair(t)
	f.approve(t, studentAddr, hourlyRate)
	ctx := context.Background()

	_, err := f.escrow.StartSession(ctx, studentAddr, mentorAddr)
	require.NoError(t, err)
	_, err = f.escrow.EndSession(ctx, mentorAddr, studentAddr)
	require.NoError(t, err)

	require.NoError(t, f.achievements.SetMinterRole(ctx, platformWallet, otherAddr, true))
	_, err = f.achievements.MintAchievement(ctx, otherAddr, 1, "Second", "")
	assert.ErrorIs(t, err, apperrors.ErrAchievementAlreadyMinted)

	achievements, err := f.achievements.ListStudentAchievements(ctx, studentAddr)
	require.NoError(t, err)
	assert.Len(t, achievements, 1)
}

func TestMintAchievement_SessionNotCompleted(t *testing.T) {
	f := newFixture(t, true)
	f.withPair(t)
	f.approve(t, studentAddr, hourlyRate)
	ctx := context.Background()

	_, err := f.escrow.StartSession(ctx, studentAddr, mentorAddr)
	require.NoError(t, err)
	require.NoError(t, f.achievements.SetMinterRole(ctx, platformWallet, otherAddr, true))

	_, err = f.achievements.MintAchievement(ctx, otherAddr, 1, "Early", "")
	assert.ErrorIs(t, err, apperrors.ErrSessionNotCompleted)

	_, err = f.achievements.MintAchievement(ctx, otherAddr, 99, "Missing", "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMintAchievement_RejectsLedgerHeldCallers(t *testing.T) {
	f := completedSession(t)
	ctx := context.Background()

	_, err := f.platform.SetNFTContract(ctx, platformWallet, registryAddr)
	require.NoError(t, err)

	for _, caller := range []models.Address{ledgerAddr, tokenAddr, registryAddr} {
		_, err := f.achievements.MintAchievement(ctx, caller, 1, "Title", "")
		assert.ErrorIs(t, err, services.ErrSystemCaller, caller.String())
		assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
	}

	session, err := f.escrow.GetSession(ctx, 1)
	require.NoError(t, err)
	assert.False(t, session.NFTMinted)
}

func TestSetMinterRole_OnlyRegistryOwner(t *testing.T) {
	f := newFixture(t, true)

	err := f.achievements.SetMinterRole(context.Background(), otherAddr, otherAddr, true)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestListStudentAchievements_Empty(t *testing.T) {
	f := newFixture(t, false)
	f.withPair(t)

	achievements, err := f.achievements.ListStudentAchievements(context.Background(), studentAddr)
	require.NoError(t, err)
	assert.Empty(t, achievements)

	_, err = f.achievements.ListStudentAchievements(context.Background(), otherAddr)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
