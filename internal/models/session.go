package models

import (
	"time"

	"github.com/getmentor/getmentor-escrow/pkg/amount"
)

// Session is one escrowed mentorship session
type Session struct {
	ID            uint64        `json:"sessionId"`
	Mentor        Address       `json:"mentor"`
	Student       Address       `json:"student"`
	StartTime     time.Time     `json:"startTime"`
	EndTime       *time.Time    `json:"endTime,omitempty"`
	Duration      int64         `json:"duration"`
	Amount        amount.Amount `json:"amount"`
	PlatformFee   amount.Amount `json:"platformFee"`
	MentorPayment amount.Amount `json:"mentorPayment"`
	IsActive      bool          `json:"isActive"`
	IsPaid        bool          `json:"isPaid"`
	IsCompleted   bool          `json:"isCompleted"`
	NFTMinted     bool          `json:"nftMinted"`
	AchievementID uint64        `json:"achievementId,omitempty"`
}

// StartSessionRequest is the payload for POST /api/v1/sessions
type StartSessionRequest struct {
	MentorAddress string `json:"mentorAddress" binding:"required,eth_addr"`
}

// EndSessionRequest is the payload for POST /api/v1/sessions/end
type EndSessionRequest struct {
	StudentAddress string `json:"studentAddress" binding:"required,eth_addr"`
}

// SessionIDsResponse lists session identifiers of one party
type SessionIDsResponse struct {
	Address    Address  `json:"address"`
	SessionIDs []uint64 `json:"sessionIds"`
}
