package services

import (
	"context"

	"github.com/getmentor/getmentor-escrow/internal/models"
	apperrors "github.com/getmentor/getmentor-escrow/pkg/errors"
	"go.uber.org/zap"
)

const (
	minRating = 1
	maxRating = 5
)

// ReputationService aggregates student ratings of mentors
type ReputationService struct {
	ledger *Ledger
}

// NewReputationService creates a new reputation service instance
func NewReputationService(ledger *Ledger) *ReputationService {
	return &ReputationService{ledger: ledger}
}

// RateMentor adds one rating by a registered student. Any student may rate any mentor.
func (s *ReputationService) RateMentor(ctx context.Context, caller, mentorAddr models.Address, rating int) (*models.Mentor, error) {
	var mentor *models.Mentor
	fields := []zap.Field{zap.String("student", caller.String()), zap.String("mentor", mentorAddr.String()), zap.Int("rating", rating)}

	err := s.ledger.execute(ctx, "rate_mentor", fields, func(u *unit) error {
		if rating < minRating || rating > maxRating {
			return apperrors.ErrInvalidRating
		}
		if _, err := u.student(caller); err != nil {
			return err
		}
		m, err := u.mentor(mentorAddr)
		if err != nil {
			return err
		}

		m.RatingSum += uint64(rating)
		m.RatingCount++
		if err := u.repo.SaveMentor(m); err != nil {
			return err
		}
		mentor = m

		return u.emit(models.EventMentorRated, models.MentorRatedPayload{
			Mentor: mentorAddr,
			Rater:  caller,
			Rating: uint64(rating),
		})
	})
	if err != nil {
		return nil, err
	}
	return mentor, nil
}
