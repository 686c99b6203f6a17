package services

import (
	"context"
	"strings"

	"github.com/getmentor/getmentor-escrow/internal/achievement"
	"github.com/getmentor/getmentor-escrow/internal/models"
	apperrors "github.com/getmentor/getmentor-escrow/pkg/errors"
	"go.uber.org/zap"
)

// AchievementService issues one achievement per completed session through the wired registry
type AchievementService struct {
	ledger *Ledger
}

// NewAchievementService creates a new achievement service instance
func NewAchievementService(ledger *Ledger) *AchievementService {
	return &AchievementService{ledger: ledger}
}

// MintAchievement issues the achievement of a completed session on behalf of a registry minter
func (s *AchievementService) MintAchievement(ctx context.Context, caller models.Address, sessionID uint64, title, description string) (*models.Achievement, error) {
	var minted *models.Achievement
	fields := []zap.Field{zap.String("caller", caller.String()), zap.Uint64("session_id", sessionID)}

	err := s.ledger.execute(ctx, "mint_achievement", fields, func(u *unit) error {
		if err := u.ensureExternal(caller); err != nil {
			return err
		}
		session, err := u.session(sessionID)
		if err != nil {
			return err
		}
		minted, err = s.issue(u, caller, session, strings.TrimSpace(title), strings.TrimSpace(description))
		return err
	})
	if err != nil {
		return nil, err
	}
	return minted, nil
}

// issue mints through the registry as caller and records it against the session and student.
// It runs inside the caller's unit so a failure aborts the surrounding operation.
func (s *AchievementService) issue(u *unit, caller models.Address, session *models.Session, title, description string) (*models.Achievement, error) {
	reg, err := u.registry()
	if err != nil {
		return nil, err
	}
	ok, err := reg.IsMinter(caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.New(apperrors.KindUnauthorized, "caller is not allowed to mint achievements")
	}
	if !session.IsCompleted {
		return nil, apperrors.ErrSessionNotCompleted
	}
	if session.NFTMinted {
		return nil, apperrors.ErrAchievementAlreadyMinted
	}

	student, err := u.repo.GetStudent(session.Student)
	if err != nil {
		return nil, err
	}

	minted, err := reg.Mint(caller, achievement.MintParams{
		Student:     session.Student,
		Title:       title,
		Description: description,
		SessionID:   session.ID,
		Mentor:      session.Mentor,
		Timestamp:   u.now,
	})
	if err != nil {
		return nil, err
	}

	session.NFTMinted = true
	session.AchievementID = minted.TokenID
	student.AchievementIDs = append(student.AchievementIDs, minted.TokenID)
	if err := u.repo.SaveSession(session); err != nil {
		return nil, err
	}
	if err := u.repo.SaveStudent(student); err != nil {
		return nil, err
	}

	err = u.emit(models.EventAchievementMinted, models.AchievementMintedPayload{
		Student:     session.Student,
		TokenID:     minted.TokenID,
		Registry:    reg.Address(),
		SessionID:   session.ID,
		Mentor:      session.Mentor,
		Title:       title,
		Description: description,
		Timestamp:   minted.Timestamp,
	})
	return minted, err
}

// SetMinterRole grants or revokes minter permission on the wired registry
func (s *AchievementService) SetMinterRole(ctx context.Context, caller, minter models.Address, enabled bool) error {
	fields := []zap.Field{zap.String("caller", caller.String()), zap.String("minter", minter.String()), zap.Bool("enabled", enabled)}

	return s.ledger.execute(ctx, "set_minter_role", fields, func(u *unit) error {
		reg, err := u.registry()
		if err != nil {
			return err
		}
		return reg.SetMinterRole(caller, minter, enabled)
	})
}

// IsMinter reports whether account may mint on the wired registry
func (s *AchievementService) IsMinter(ctx context.Context, account models.Address) (bool, error) {
	var ok bool
	err := s.ledger.view(ctx, func(u *unit) error {
		reg, err := u.registry()
		if err != nil {
			return err
		}
		ok, err = reg.IsMinter(account)
		return err
	})
	return ok, err
}

// GetAchievement returns tokenID from the wired registry
func (s *AchievementService) GetAchievement(ctx context.Context, tokenID uint64) (*models.Achievement, error) {
	var a *models.Achievement
	err := s.ledger.view(ctx, func(u *unit) error {
		reg, err := u.registry()
		if err != nil {
			return err
		}
		a, err = reg.GetAchievement(tokenID)
		return err
	})
	return a, err
}

// ListStudentAchievements returns the achievements credited to a student, in mint order
func (s *AchievementService) ListStudentAchievements(ctx context.Context, addr models.Address) ([]*models.Achievement, error) {
	achievements := make([]*models.Achievement, 0)
	err := s.ledger.view(ctx, func(u *unit) error {
		st, err := u.repo.GetStudent(addr)
		if err != nil {
			if isNotFound(err) {
				return apperrors.NotFoundError("student")
			}
			return err
		}
		if len(st.AchievementIDs) == 0 {
			return nil
		}
		reg, err := u.registry()
		if err != nil {
			return err
		}
		// Ids restart per registry, so only tokens held in the wired registry are listed
		ids, err := reg.TokensOf(addr)
		if err != nil {
			return err
		}
		for _, id := range ids {
			a, err := reg.GetAchievement(id)
			if err != nil {
				return err
			}
			achievements = append(achievements, a)
		}
		return nil
	})
	return achievements, err
}
