package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/getmentor/getmentor-escrow/internal/achievement"
	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/internal/services"
	"github.com/getmentor/getmentor-escrow/pkg/amount"
	"github.com/getmentor/getmentor-escrow/pkg/logger"
	"github.com/getmentor/getmentor-escrow/pkg/statedb"
	"github.com/stretchr/testify/require"
)

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

var (
	platformWallet = models.MustParseAddress("0x1000000000000000000000000000000000000001")
	ledgerAddr     = models.MustParseAddress("0x5fbdb2315678afecb367f032d93f642f64180aa3")
	tokenAddr      = models.MustParseAddress("0x104a0f99728d5a79dbebb4a0a58eccb456e82411")
	registryAddr   = models.MustParseAddress("0xe7f1725e7734ce288f8367e1bb143e90bb3f0512")
	mentorAddr     = models.MustParseAddress("0x2000000000000000000000000000000000000002")
	studentAddr    = models.MustParseAddress("0x3000000000000000000000000000000000000003")
	otherAddr      = models.MustParseAddress("0x4000000000000000000000000000000000000004")
)

// 100 and 1000 EDU in the smallest unit
var (
	hourlyRate     = amount.MustParse("100000000000000000000")
	initialBalance = amount.MustParse("1000000000000000000000")
)

type fixture struct {
	db           *statedb.DB
	ledger       *services.Ledger
	identity     *services.IdentityService
	escrow       *services.EscrowService
	reputation   *services.ReputationService
	achievements *services.AchievementService
	platform     *services.PlatformService
	tokens       *services.TokenService
	now          time.Time
	events       []models.Event
}

func newFixture(t *testing.T, wireAchievements bool) *fixture {
	t.Helper()
	db, err := statedb.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{db: db, now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	f.ledger = services.NewLedger(db, achievement.NewDirectory(), services.WithClock(func() time.Time { return f.now }))
	f.identity = services.NewIdentityService(f.ledger)
	f.achievements = services.NewAchievementService(f.ledger)
	f.escrow = services.NewEscrowService(f.ledger, f.achievements)
	f.reputation = services.NewReputationService(f.ledger)
	f.platform = services.NewPlatformService(f.ledger)
	f.tokens = services.NewTokenService(f.ledger)

	db.OnCommit(func(_ uint64, events []statedb.Event) {
		for _, e := range events {
			f.events = append(f.events, e.(models.Event))
		}
	})

	_, err = f.platform.Bootstrap(context.Background(), services.BootstrapParams{
		PlatformWallet:   platformWallet,
		LedgerAddress:    ledgerAddr,
		TokenAddress:     tokenAddr,
		RegistryAddress:  registryAddr,
		InitialFee:       5,
		WireAchievements: wireAchievements,
	})
	require.NoError(t, err)
	return f
}

// withPair registers the default mentor and a funded student
func (f *fixture) withPair(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.identity.RegisterMentor(ctx, mentorAddr, "John Doe", "Blockchain", hourlyRate)
	require.NoError(t, err)
	_, err = f.identity.RegisterStudent(ctx, studentAddr, "Jane Doe")
	require.NoError(t, err)
	require.NoError(t, f.tokens.Mint(ctx, platformWallet, studentAddr, initialBalance))
}

func (f *fixture) approve(t *testing.T, owner models.Address, value amount.Amount) {
	t.Helper()
	require.NoError(t, f.tokens.Approve(context.Background(), owner, ledgerAddr, value))
}

func (f *fixture) balance(t *testing.T, addr models.Address) string {
	t.Helper()
	b, err := f.tokens.BalanceOf(context.Background(), addr)
	require.NoError(t, err)
	return b.String()
}

func (f *fixture) lastEvent(name models.EventName) *models.Event {
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].Name == name {
			return &f.events[i]
		}
	}
	return nil
}
