package models

import "time"

// Achievement is a non-fungible record issued once per completed session
type Achievement struct {
	TokenID     uint64    `json:"tokenId"`
	Owner       Address   `json:"owner"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	SessionID   uint64    `json:"sessionId"`
	Mentor      Address   `json:"mentor"`
	Timestamp   time.Time `json:"timestamp"`
}

// MintAchievementRequest is the payload for POST /api/v1/achievements
type MintAchievementRequest struct {
	SessionID   uint64 `json:"sessionId" binding:"required"`
	Title       string `json:"title" binding:"required,min=1,max=120"`
	Description string `json:"description" binding:"max=1000"`
}

// SetMinterRoleRequest is the payload for PUT /api/v1/achievements/minters
type SetMinterRoleRequest struct {
	Address string `json:"address" binding:"required,eth_addr"`
	Enabled bool   `json:"enabled"`
}
