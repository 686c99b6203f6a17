package models

import "time"

// Student is a registered student profile keyed by wallet address
type Student struct {
	WalletAddress  Address   `json:"walletAddress"`
	Name           string    `json:"name"`
	IsRegistered   bool      `json:"isRegistered"`
	CurrentMentor  Address   `json:"currentMentor"`
	SessionIDs     []uint64  `json:"sessionIds"`
	AchievementIDs []uint64  `json:"achievementIds"`
	RegisteredAt   time.Time `json:"registeredAt"`
}

// InSession reports whether the student is bound to an active session
func (s *Student) InSession() bool {
	return !s.CurrentMentor.IsZero()
}

// RegisterStudentRequest is the payload for POST /api/v1/students
type RegisterStudentRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}
