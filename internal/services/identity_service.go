package services

import (
	"context"
	"errors"
	"strings"

	"github.com/getmentor/getmentor-escrow/internal/cache"
	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/internal/repository"
	"github.com/getmentor/getmentor-escrow/pkg/amount"
	apperrors "github.com/getmentor/getmentor-escrow/pkg/errors"
	"go.uber.org/zap"
)

// IdentityService registers mentors and students and serves their records
type IdentityService struct {
	ledger    *Ledger
	directory cache.MentorDirectoryInterface
}

// NewIdentityService creates a new identity service instance. Until a directory is attached
// listings are read straight from the ledger.
func NewIdentityService(ledger *Ledger) *IdentityService {
	return &IdentityService{ledger: ledger}
}

// UseDirectory serves ListMentors from a directory cache fed by AllMentors
func (s *IdentityService) UseDirectory(directory cache.MentorDirectoryInterface) {
	s.directory = directory
}

// RegisterMentor creates a mentor record for caller
func (s *IdentityService) RegisterMentor(ctx context.Context, caller models.Address, name, expertise string, hourlyRate amount.Amount) (*models.Mentor, error) {
	var mentor *models.Mentor
	fields := []zap.Field{zap.String("mentor", caller.String()), zap.String("hourly_rate", hourlyRate.String())}

	err := s.ledger.execute(ctx, "register_mentor", fields, func(u *unit) error {
		if err := u.ensureExternal(caller); err != nil {
			return err
		}
		exists, err := u.repo.HasMentor(caller)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.New(apperrors.KindAlreadyRegistered, "mentor already registered")
		}

		mentor = &models.Mentor{
			WalletAddress: caller,
			Name:          strings.TrimSpace(name),
			Expertise:     strings.TrimSpace(expertise),
			HourlyRate:    hourlyRate,
			IsAvailable:   true,
			SessionIDs:    []uint64{},
			RegisteredAt:  u.now,
		}
		if err := u.repo.SaveMentor(mentor); err != nil {
			return err
		}
		return u.emit(models.EventMentorRegistered, models.MentorRegisteredPayload{
			Mentor:     caller,
			Name:       mentor.Name,
			Expertise:  mentor.Expertise,
			HourlyRate: hourlyRate,
		})
	})
	if err != nil {
		return nil, err
	}
	return mentor, nil
}

// RegisterStudent creates a student record for caller
func (s *IdentityService) RegisterStudent(ctx context.Context, caller models.Address, name string) (*models.Student, error) {
	var student *models.Student

	err := s.ledger.execute(ctx, "register_student", []zap.Field{zap.String("student", caller.String())}, func(u *unit) error {
		if err := u.ensureExternal(caller); err != nil {
			return err
		}
		exists, err := u.repo.HasStudent(caller)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.New(apperrors.KindAlreadyRegistered, "student already registered")
		}

		student = &models.Student{
			WalletAddress:  caller,
			Name:           strings.TrimSpace(name),
			IsRegistered:   true,
			SessionIDs:     []uint64{},
			AchievementIDs: []uint64{},
			RegisteredAt:   u.now,
		}
		if err := u.repo.SaveStudent(student); err != nil {
			return err
		}
		return u.emit(models.EventStudentRegistered, models.StudentRegisteredPayload{
			Student: caller,
			Name:    student.Name,
		})
	})
	if err != nil {
		return nil, err
	}
	return student, nil
}

// GetMentor returns the mentor registered at addr
func (s *IdentityService) GetMentor(ctx context.Context, addr models.Address) (*models.Mentor, error) {
	var mentor *models.Mentor
	err := s.ledger.view(ctx, func(u *unit) error {
		m, err := u.repo.GetMentor(addr)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFoundError("mentor")
			}
			return err
		}
		mentor = m
		return nil
	})
	return mentor, err
}

// GetStudent returns the student registered at addr
func (s *IdentityService) GetStudent(ctx context.Context, addr models.Address) (*models.Student, error) {
	var student *models.Student
	err := s.ledger.view(ctx, func(u *unit) error {
		st, err := u.repo.GetStudent(addr)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFoundError("student")
			}
			return err
		}
		student = st
		return nil
	})
	return student, err
}

// ListMentors returns the mentor directory
func (s *IdentityService) ListMentors(ctx context.Context, filter models.MentorFilter) ([]*models.Mentor, error) {
	if s.directory != nil {
		return s.directory.List(ctx, filter)
	}
	return s.listFromLedger(ctx, filter)
}

// AllMentors implements cache.MentorSource
func (s *IdentityService) AllMentors(ctx context.Context) ([]*models.Mentor, error) {
	return s.listFromLedger(ctx, models.MentorFilter{})
}

func (s *IdentityService) listFromLedger(ctx context.Context, filter models.MentorFilter) ([]*models.Mentor, error) {
	var mentors []*models.Mentor
	err := s.ledger.view(ctx, func(u *unit) error {
		var err error
		mentors, err = u.repo.ListMentors(filter)
		return err
	})
	return mentors, err
}
