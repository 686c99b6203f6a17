package services

import (
	"context"
	"fmt"

	"github.com/getmentor/getmentor-escrow/internal/models"
	apperrors "github.com/getmentor/getmentor-escrow/pkg/errors"
	"github.com/getmentor/getmentor-escrow/pkg/metrics"
	"go.uber.org/zap"
)

const (
	autoAchievementTitle = "Mentorship Session Completed"
)

// EscrowService starts sessions into custody and settles them
type EscrowService struct {
	ledger       *Ledger
	achievements *AchievementService
}

// NewEscrowService creates a new escrow service instance
func NewEscrowService(ledger *Ledger, achievements *AchievementService) *EscrowService {
	return &EscrowService{ledger: ledger, achievements: achievements}
}

// StartSession books mentorAddr for caller and pulls the mentor's hourly rate into custody
func (s *EscrowService) StartSession(ctx context.Context, caller, mentorAddr models.Address) (*models.Session, error) {
	var session *models.Session
	fields := []zap.Field{zap.String("student", caller.String()), zap.String("mentor", mentorAddr.String())}

	err := s.ledger.execute(ctx, "start_session", fields, func(u *unit) error {
		student, err := u.student(caller)
		if err != nil {
			return err
		}
		mentor, err := u.mentor(mentorAddr)
		if err != nil {
			return err
		}
		if !mentor.IsAvailable {
			return apperrors.ErrMentorUnavailable
		}
		if student.InSession() {
			return apperrors.ErrSessionAlreadyActive
		}

		cfg, err := u.config()
		if err != nil {
			return err
		}
		tok, err := u.token()
		if err != nil {
			return err
		}
		rate := mentor.HourlyRate

		balance, err := tok.BalanceOf(caller)
		if err != nil {
			return err
		}
		if balance.LessThan(rate) {
			return apperrors.ErrInsufficientBalance
		}
		allowance, err := tok.Allowance(caller, cfg.LedgerAddress)
		if err != nil {
			return err
		}
		if allowance.LessThan(rate) {
			return apperrors.ErrInsufficientAllowance
		}

		id, err := u.repo.NextSessionID()
		if err != nil {
			return err
		}
		session = &models.Session{
			ID:        id,
			Mentor:    mentorAddr,
			Student:   caller,
			StartTime: u.now,
			Amount:    rate,
			IsActive:  true,
		}

		// state flips before the token pull
		mentor.IsAvailable = false
		mentor.SessionIDs = append(mentor.SessionIDs, id)
		student.CurrentMentor = mentorAddr
		student.SessionIDs = append(student.SessionIDs, id)
		if err := u.repo.SaveSession(session); err != nil {
			return err
		}
		if err := u.repo.SaveMentor(mentor); err != nil {
			return err
		}
		if err := u.repo.SaveStudent(student); err != nil {
			return err
		}

		if err := tok.TransferFrom(cfg.LedgerAddress, caller, cfg.LedgerAddress, rate); err != nil {
			return err
		}

		return u.emit(models.EventSessionStarted, models.SessionStartedPayload{
			SessionID: id,
			Mentor:    mentorAddr,
			Student:   caller,
			Amount:    rate,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.ActiveSessions.Inc()
	return session, nil
}

// EndSession settles the active session between caller (the mentor) and studentAddr
func (s *EscrowService) EndSession(ctx context.Context, caller, studentAddr models.Address) (*models.Session, error) {
	var session *models.Session
	var split Split
	fields := []zap.Field{zap.String("mentor", caller.String()), zap.String("student", studentAddr.String())}

	err := s.ledger.execute(ctx, "end_session", fields, func(u *unit) error {
		student, mentor, active, err := activeSession(u, caller, studentAddr)
		if err != nil {
			return err
		}

		cfg, err := u.config()
		if err != nil {
			return err
		}
		tok, err := u.token()
		if err != nil {
			return err
		}

		split = SplitPayment(active.Amount, cfg.PlatformFee)
		end := u.now
		active.EndTime = &end
		active.Duration = int64(end.Sub(active.StartTime).Seconds())
		active.PlatformFee = split.PlatformFee
		active.MentorPayment = split.MentorPayment
		active.IsActive = false
		active.IsPaid = true
		active.IsCompleted = true
		mentor.IsAvailable = true
		student.CurrentMentor = ""

		if err := u.repo.SaveSession(active); err != nil {
			return err
		}
		if err := u.repo.SaveMentor(mentor); err != nil {
			return err
		}
		if err := u.repo.SaveStudent(student); err != nil {
			return err
		}

		if err := tok.Transfer(cfg.LedgerAddress, cfg.Owner, split.PlatformFee); err != nil {
			return err
		}
		if err := tok.Transfer(cfg.LedgerAddress, mentor.WalletAddress, split.MentorPayment); err != nil {
			return err
		}

		if !cfg.NFTContract.IsZero() {
			description := fmt.Sprintf("Completed a %s mentorship session with %s", mentor.Expertise, mentor.Name)
			if _, err := s.achievements.issue(u, cfg.LedgerAddress, active, autoAchievementTitle, description); err != nil {
				return err
			}
		}

		session = active
		return u.emit(models.EventSessionEnded, models.SessionEndedPayload{
			SessionID:     active.ID,
			Mentor:        caller,
			Student:       studentAddr,
			PlatformFee:   split.PlatformFee,
			MentorPayment: split.MentorPayment,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.ActiveSessions.Dec()
	metrics.SettledVolume.WithLabelValues("platform").Add(split.PlatformFee.Units(18))
	metrics.SettledVolume.WithLabelValues("mentor").Add(split.MentorPayment.Units(18))
	return session, nil
}

// activeSession locates the student's active session and checks it belongs to mentorAddr
func activeSession(u *unit, mentorAddr, studentAddr models.Address) (*models.Student, *models.Mentor, *models.Session, error) {
	student, err := u.repo.GetStudent(studentAddr)
	if err != nil || !student.InSession() || student.CurrentMentor != mentorAddr || len(student.SessionIDs) == 0 {
		if err != nil && !isNotFound(err) {
			return nil, nil, nil, err
		}
		return nil, nil, nil, apperrors.ErrSessionNotActive
	}

	session, err := u.repo.GetSession(student.SessionIDs[len(student.SessionIDs)-1])
	if err != nil {
		return nil, nil, nil, err
	}
	if !session.IsActive || session.Mentor != mentorAddr {
		return nil, nil, nil, apperrors.ErrSessionNotActive
	}

	mentor, err := u.mentor(mentorAddr)
	if err != nil {
		return nil, nil, nil, err
	}
	return student, mentor, session, nil
}

// GetSession returns session id
func (s *EscrowService) GetSession(ctx context.Context, id uint64) (*models.Session, error) {
	var session *models.Session
	err := s.ledger.view(ctx, func(u *unit) error {
		var err error
		session, err = u.session(id)
		return err
	})
	return session, err
}

// ListMentorSessions returns the session ids of a mentor in start order
func (s *EscrowService) ListMentorSessions(ctx context.Context, addr models.Address) ([]uint64, error) {
	var ids []uint64
	err := s.ledger.view(ctx, func(u *unit) error {
		m, err := u.repo.GetMentor(addr)
		if err != nil {
			if isNotFound(err) {
				return apperrors.NotFoundError("mentor")
			}
			return err
		}
		ids = m.SessionIDs
		return nil
	})
	return ids, err
}

// ListStudentSessions returns the session ids of a student in start order
func (s *EscrowService) ListStudentSessions(ctx context.Context, addr models.Address) ([]uint64, error) {
	var ids []uint64
	err := s.ledger.view(ctx, func(u *unit) error {
		st, err := u.repo.GetStudent(addr)
		if err != nil {
			if isNotFound(err) {
				return apperrors.NotFoundError("student")
			}
			return err
		}
		ids = st.SessionIDs
		return nil
	})
	return ids, err
}
