package models

import "github.com/getmentor/getmentor-escrow/pkg/amount"

// BalanceResponse is GET /api/v1/token/balances/:address
type BalanceResponse struct {
	Address Address       `json:"address"`
	Balance amount.Amount `json:"balance"`
}

// AllowanceResponse is GET /api/v1/token/allowances/:owner/:spender
type AllowanceResponse struct {
	Owner     Address       `json:"owner"`
	Spender   Address       `json:"spender"`
	Allowance amount.Amount `json:"allowance"`
}

// ApproveRequest is the payload for POST /api/v1/token/approvals
type ApproveRequest struct {
	Spender string        `json:"spender" binding:"required,eth_addr"`
	Amount  amount.Amount `json:"amount"`
}

// TransferRequest is the payload for POST /api/v1/token/transfers and /token/mints
type TransferRequest struct {
	To     string        `json:"to" binding:"required,eth_addr"`
	Amount amount.Amount `json:"amount"`
}
