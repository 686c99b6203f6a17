package services

import (
	"context"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/internal/token"
	"github.com/getmentor/getmentor-escrow/pkg/amount"
)

// IdentityServiceInterface defines the interface for mentor and student registration
type IdentityServiceInterface interface {
	RegisterMentor(ctx context.Context, caller models.Address, name, expertise string, hourlyRate amount.Amount) (*models.Mentor, error)
	RegisterStudent(ctx context.Context, caller models.Address, name string) (*models.Student, error)
	GetMentor(ctx context.Context, addr models.Address) (*models.Mentor, error)
	GetStudent(ctx context.Context, addr models.Address) (*models.Student, error)
	ListMentors(ctx context.Context, filter models.MentorFilter) ([]*models.Mentor, error)
}

// EscrowServiceInterface defines the interface for session custody and settlement
type EscrowServiceInterface interface {
	StartSession(ctx context.Context, caller, mentorAddr models.Address) (*models.Session, error)
	EndSession(ctx context.Context, caller, studentAddr models.Address) (*models.Session, error)
	GetSession(ctx context.Context, id uint64) (*models.Session, error)
	ListMentorSessions(ctx context.Context, addr models.Address) ([]uint64, error)
	ListStudentSessions(ctx context.Context, addr models.Address) ([]uint64, error)
}

// ReputationServiceInterface defines the interface for mentor ratings
type ReputationServiceInterface interface {
	RateMentor(ctx context.Context, caller, mentorAddr models.Address, rating int) (*models.Mentor, error)
}

// AchievementServiceInterface defines the interface for achievement issuance and lookup
type AchievementServiceInterface interface {
	MintAchievement(ctx context.Context, caller models.Address, sessionID uint64, title, description string) (*models.Achievement, error)
	SetMinterRole(ctx context.Context, caller, minter models.Address, enabled bool) error
	IsMinter(ctx context.Context, account models.Address) (bool, error)
	GetAchievement(ctx context.Context, tokenID uint64) (*models.Achievement, error)
	ListStudentAchievements(ctx context.Context, addr models.Address) ([]*models.Achievement, error)
}

// PlatformServiceInterface defines the interface for owner configuration
type PlatformServiceInterface interface {
	GetPlatformConfig(ctx context.Context) (*models.PlatformStatus, error)
	UpdatePlatformFee(ctx context.Context, caller models.Address, fee uint64) (*models.PlatformConfig, error)
	SetNFTContract(ctx context.Context, caller, registry models.Address) (*models.PlatformConfig, error)
	WithdrawEmergency(ctx context.Context, caller models.Address) (*models.EmergencyWithdrawalResponse, error)
}

// TokenServiceInterface defines the interface for EDU token wallet operations
type TokenServiceInterface interface {
	Info(ctx context.Context) (*token.Metadata, error)
	BalanceOf(ctx context.Context, addr models.Address) (amount.Amount, error)
	Allowance(ctx context.Context, owner, spender models.Address) (amount.Amount, error)
	Approve(ctx context.Context, caller, spender models.Address, value amount.Amount) error
	Transfer(ctx context.Context, caller, recipient models.Address, value amount.Amount) error
	Mint(ctx context.Context, caller, recipient models.Address, value amount.Amount) error
}

// WalletAuthServiceInterface defines the interface for wallet sessions
type WalletAuthServiceInterface interface {
	IssueSession(ctx context.Context, addr models.Address) (*models.IssueWalletSessionResponse, error)
	VerifySession(token string) (*models.WalletSession, error)
}

var (
	_ IdentityServiceInterface    = (*IdentityService)(nil)
	_ EscrowServiceInterface      = (*EscrowService)(nil)
	_ ReputationServiceInterface  = (*ReputationService)(nil)
	_ AchievementServiceInterface = (*AchievementService)(nil)
	_ PlatformServiceInterface    = (*PlatformService)(nil)
	_ TokenServiceInterface       = (*TokenService)(nil)
	_ WalletAuthServiceInterface  = (*WalletAuthService)(nil)
	_ SystemAddressChecker        = (*Ledger)(nil)
)
