package handlers

import (
	"context"

	"github.com/getmentor/getmentor-escrow/internal/database/postgres"
	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/internal/token"
	"github.com/getmentor/getmentor-escrow/pkg/amount"
	"github.com/stretchr/testify/mock"
)

// MockIdentityService is a mock implementation of IdentityServiceInterface
type MockIdentityService struct {
	mock.Mock
}

func (m *MockIdentityService) RegisterMentor(ctx context.Context, caller models.Address, name, expertise string, hourlyRate amount.Amount) (*models.Mentor, error) {
	args := m.Called(ctx, caller, name, expertise, hourlyRate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mentor), args.Error(1)
}

func (m *MockIdentityService) RegisterStudent(ctx context.Context, caller models.Address, name string) (*models.Student, error) {
	args := m.Called(ctx, caller, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockIdentityService) GetMentor(ctx context.Context, addr models.Address) (*models.Mentor, error) {
	args := m.Called(ctx, addr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mentor), args.Error(1)
}

func (m *MockIdentityService) GetStudent(ctx context.Context, addr models.Address) (*models.Student, error) {
	args := m.Called(ctx, addr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockIdentityService) ListMentors(ctx context.Context, filter models.MentorFilter) ([]*models.Mentor, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Mentor), args.Error(1)
}

// MockEscrowService is a mock implementation of EscrowServiceInterface
type MockEscrowService struct {
	mock.Mock
}

func (m *MockEscrowService) StartSession(ctx context.Context, caller, mentorAddr models.Address) (*models.Session, error) {
	args := m.Called(ctx, caller, mentorAddr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockEscrowService) EndSession(ctx context.Context, caller, studentAddr models.Address) (*models.Session, error) {
	args := m.Called(ctx, caller, studentAddr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockEscrowService) GetSession(ctx context.Context, id uint64) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockEscrowService) ListMentorSessions(ctx context.Context, addr models.Address) ([]uint64, error) {
	args := m.Called(ctx, addr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint64), args.Error(1)
}

func (m *MockEscrowService) ListStudentSessions(ctx context.Context, addr models.Address) ([]uint64, error) {
	args := m.Called(ctx, addr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint64), args.Error(1)
}

// MockReputationService is a mock implementation of ReputationServiceInterface
type MockReputationService struct {
	mock.Mock
}

func (m *MockReputationService) RateMentor(ctx context.Context, caller, mentorAddr models.Address, rating int) (*models.Mentor, error) {
	args := m.Called(ctx, caller, mentorAddr, rating)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mentor), args.Error(1)
}

// MockAchievementService is a mock implementation of AchievementServiceInterface
type MockAchievementService struct {
	mock.Mock
}

func (m *MockAchievementService) MintAchievement(ctx context.Context, caller models.Address, sessionID uint64, title, description string) (*models.Achievement, error) {
	args := m.Called(ctx, caller, sessionID, title, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Achievement), args.Error(1)
}

func (m *MockAchievementService) SetMinterRole(ctx context.Context, caller, minter models.Address, enabled bool) error {
	args := m.Called(ctx, caller, minter, enabled)
	return args.Error(0)
}

func (m *MockAchievementService) IsMinter(ctx context.Context, account models.Address) (bool, error) {
	args := m.Called(ctx, account)
	return args.Bool(0), args.Error(1)
}

func (m *MockAchievementService) GetAchievement(ctx context.Context, tokenID uint64) (*models.Achievement, error) {
	args := m.Called(ctx, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Achievement), args.Error(1)
}

func (m *MockAchievementService) ListStudentAchievements(ctx context.Context, addr models.Address) ([]*models.Achievement, error) {
	args := m.Called(ctx, addr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Achievement), args.Error(1)
}

// MockPlatformService is a mock implementation of PlatformServiceInterface
type MockPlatformService struct {
	mock.Mock
}

func (m *MockPlatformService) GetPlatformConfig(ctx context.Context) (*models.PlatformStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlatformStatus), args.Error(1)
}

func (m *MockPlatformService) UpdatePlatformFee(ctx context.Context, caller models.Address, fee uint64) (*models.PlatformConfig, error) {
	args := m.Called(ctx, caller, fee)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlatformConfig), args.Error(1)
}

func (m *MockPlatformService) SetNFTContract(ctx context.Context, caller, registry models.Address) (*models.PlatformConfig, error) {
	args := m.Called(ctx, caller, registry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlatformConfig), args.Error(1)
}

func (m *MockPlatformService) WithdrawEmergency(ctx context.Context, caller models.Address) (*models.EmergencyWithdrawalResponse, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmergencyWithdrawalResponse), args.Error(1)
}

// MockTokenService is a mock implementation of TokenServiceInterface
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Info(ctx context.Context) (*token.Metadata, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.Metadata), args.Error(1)
}

func (m *MockTokenService) BalanceOf(ctx context.Context, addr models.Address) (amount.Amount, error) {
	args := m.Called(ctx, addr)
	return args.Get(0).(amount.Amount), args.Error(1)
}

func (m *MockTokenService) Allowance(ctx context.Context, owner, spender models.Address) (amount.Amount, error) {
	args := m.Called(ctx, owner, spender)
	return args.Get(0).(amount.Amount), args.Error(1)
}

func (m *MockTokenService) Approve(ctx context.Context, caller, spender models.Address, value amount.Amount) error {
	args := m.Called(ctx, caller, spender, value)
	return args.Error(0)
}

func (m *MockTokenService) Transfer(ctx context.Context, caller, recipient models.Address, value amount.Amount) error {
	args := m.Called(ctx, caller, recipient, value)
	return args.Error(0)
}

func (m *MockTokenService) Mint(ctx context.Context, caller, recipient models.Address, value amount.Amount) error {
	args := m.Called(ctx, caller, recipient, value)
	return args.Error(0)
}

// MockWalletAuthService is a mock implementation of WalletAuthServiceInterface
type MockWalletAuthService struct {
	mock.Mock
}

func (m *MockWalletAuthService) IssueSession(ctx context.Context, addr models.Address) (*models.IssueWalletSessionResponse, error) {
	args := m.Called(ctx, addr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.IssueWalletSessionResponse), args.Error(1)
}

func (m *MockWalletAuthService) VerifySession(token string) (*models.WalletSession, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WalletSession), args.Error(1)
}

// MockEventLog is a mock implementation of EventLogReader
type MockEventLog struct {
	mock.Mock
}

func (m *MockEventLog) ListEvents(ctx context.Context, f postgres.EventFilter) ([]postgres.EventRecord, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]postgres.EventRecord), args.Error(1)
}
