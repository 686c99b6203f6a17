package models

import (
	"github.com/getmentor/getmentor-escrow/pkg/amount"
)

// MaxPlatformFee is the platform fee cap in percent
const MaxPlatformFee uint64 = 20

// PlatformConfig is the ledger's wiring and fee configuration
type PlatformConfig struct {
	Owner         Address `json:"platformWallet"`
	PlatformFee   uint64  `json:"platformFee"`
	LedgerAddress Address `json:"ledgerAddress"`
	TokenAddress  Address `json:"eduToken"`
	NFTContract   Address `json:"nftContract"`
}

// PlatformStatus is GET /api/v1/platform
type PlatformStatus struct {
	*PlatformConfig
	CustodyBalance amount.Amount `json:"custodyBalance"`
}

// UpdatePlatformFeeRequest is the payload for PUT /api/v1/platform/fee
type UpdatePlatformFeeRequest struct {
	PlatformFee *uint64 `json:"platformFee" binding:"required"`
}

// SetNFTContractRequest is the payload for PUT /api/v1/platform/nft-contract
type SetNFTContractRequest struct {
	Address string `json:"address" binding:"required,eth_addr"`
}

// EmergencyWithdrawalResponse reports the swept custody amount
type EmergencyWithdrawalResponse struct {
	Recipient Address       `json:"recipient"`
	Amount    amount.Amount `json:"amount"`
}
