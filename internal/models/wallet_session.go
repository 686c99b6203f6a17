package models

// WalletSession is the authenticated caller of a state-changing request
type WalletSession struct {
	Address   Address `json:"address"`
	ExpiresAt int64   `json:"exp"`
	IssuedAt  int64   `json:"iat"`
}

// IssueWalletSessionRequest is sent by the wallet gateway once it has verified address ownership
type IssueWalletSessionRequest struct {
	Address string `json:"address" binding:"required,eth_addr"`
}

// IssueWalletSessionResponse carries the bearer token for the wallet
type IssueWalletSessionResponse struct {
	Token     string  `json:"token"`
	Address   Address `json:"address"`
	ExpiresAt int64   `json:"expiresAt"`
}
