package models

import (
	"time"

	"github.com/getmentor/getmentor-escrow/pkg/amount"
)

// EventName identifies a ledger event
type EventName string

const (
	EventMentorRegistered    EventName = "MentorRegistered"
	EventStudentRegistered   EventName = "StudentRegistered"
	EventSessionStarted      EventName = "SessionStarted"
	EventSessionEnded        EventName = "SessionEnded"
	EventMentorRated         EventName = "MentorRated"
	EventAchievementMinted   EventName = "AchievementMinted"
	EventPlatformFeeUpdated  EventName = "PlatformFeeUpdated"
	EventNFTContractUpdated  EventName = "NFTContractUpdated"
	EventEmergencyWithdrawal EventName = "EmergencyWithdrawal"
	EventTransfer            EventName = "Transfer"
	EventApproval            EventName = "Approval"
	EventMinterRoleUpdated   EventName = "MinterRoleUpdated"
)

// Event is an observable side effect emitted by a committed operation.
// Contract is the address of the component that emitted it.
type Event struct {
	Name     EventName `json:"name"`
	Contract Address   `json:"contract"`
	Payload  any       `json:"payload"`
}

// EventName implements statedb.Event
func (e Event) EventName() string {
	return string(e.Name)
}

type MentorRegisteredPayload struct {
	Mentor     Address       `json:"mentor"`
	Name       string        `json:"name"`
	Expertise  string        `json:"expertise"`
	HourlyRate amount.Amount `json:"hourlyRate"`
}

type StudentRegisteredPayload struct {
	Student Address `json:"student"`
	Name    string  `json:"name"`
}

type SessionStartedPayload struct {
	SessionID uint64        `json:"sessionId"`
	Mentor    Address       `json:"mentor"`
	Student   Address       `json:"student"`
	Amount    amount.Amount `json:"amount"`
}

type SessionEndedPayload struct {
	SessionID     uint64        `json:"sessionId"`
	Mentor        Address       `json:"mentor"`
	Student       Address       `json:"student"`
	PlatformFee   amount.Amount `json:"platformFee"`
	MentorPayment amount.Amount `json:"mentorPayment"`
}

type MentorRatedPayload struct {
	Mentor Address `json:"mentor"`
	Rater  Address `json:"rater"`
	Rating uint64  `json:"rating"`
}

type AchievementMintedPayload struct {
	Student     Address   `json:"student"`
	TokenID     uint64    `json:"tokenId"`
	Registry    Address   `json:"registry"`
	SessionID   uint64    `json:"sessionId"`
	Mentor      Address   `json:"mentor"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

type PlatformFeeUpdatedPayload struct {
	OldFee uint64 `json:"oldFee"`
	NewFee uint64 `json:"newFee"`
}

type NFTContractUpdatedPayload struct {
	Previous Address `json:"previous"`
	Current  Address `json:"current"`
}

type EmergencyWithdrawalPayload struct {
	Recipient Address       `json:"recipient"`
	Amount    amount.Amount `json:"amount"`
}

type TransferPayload struct {
	From   Address       `json:"from"`
	To     Address       `json:"to"`
	Amount amount.Amount `json:"amount"`
}

type ApprovalPayload struct {
	Owner   Address       `json:"owner"`
	Spender Address       `json:"spender"`
	Amount  amount.Amount `json:"amount"`
}

type MinterRoleUpdatedPayload struct {
	Minter  Address `json:"minter"`
	Enabled bool    `json:"enabled"`
}
