package models

import (
	"time"

	"github.com/getmentor/getmentor-escrow/pkg/amount"
)

// Mentor is a registered mentor profile keyed by wallet address
type Mentor struct {
	WalletAddress Address       `json:"walletAddress"`
	Name          string        `json:"name"`
	Expertise     string        `json:"expertise"`
	HourlyRate    amount.Amount `json:"hourlyRate"`
	IsAvailable   bool          `json:"isAvailable"`
	RatingSum     uint64        `json:"ratingSum"`
	RatingCount   uint64        `json:"totalRatings"`
	SessionIDs    []uint64      `json:"sessionIds"`
	RegisteredAt  time.Time     `json:"registeredAt"`
}

// RatingHundredths returns floor(sum*100/count), 0 when unrated
func (m *Mentor) RatingHundredths() uint64 {
	if m.RatingCount == 0 {
		return 0
	}
	return m.RatingSum * 100 / m.RatingCount
}

// Rating returns the displayed average rating with two fixed decimals
func (m *Mentor) Rating() float64 {
	return float64(m.RatingHundredths()) / 100
}

// MentorResponse is the API representation of a mentor
type MentorResponse struct {
	*Mentor
	Rating float64 `json:"rating"`
}

// ToResponse attaches the derived rating
func (m *Mentor) ToResponse() MentorResponse {
	return MentorResponse{Mentor: m, Rating: m.Rating()}
}

// MentorFilter narrows directory listings
type MentorFilter struct {
	AvailableOnly bool
	Expertise     string
}

// Matches reports whether m passes the filter
func (f MentorFilter) Matches(m *Mentor) bool {
	if f.AvailableOnly && !m.IsAvailable {
		return false
	}
	if f.Expertise != "" && !equalFoldTrim(f.Expertise, m.Expertise) {
		return false
	}
	return true
}

// RegisterMentorRequest is the payload for POST /api/v1/mentors
type RegisterMentorRequest struct {
	Name       string        `json:"name" binding:"required,min=1,max=100"`
	Expertise  string        `json:"expertise" binding:"required,min=1,max=100"`
	HourlyRate amount.Amount `json:"hourlyRate"`
}

// RateMentorRequest is the payload for POST /api/v1/mentors/:address/ratings
type RateMentorRequest struct {
	Rating *int `json:"rating" binding:"required"`
}
