// Package token implements the EDU fungible token the ledger settles in.
//
// The token keeps its balances in the same state store as the ledger, so a transfer
// made during a ledger operation commits or rolls back together with it.
package token

import (
	"errors"
	"fmt"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/pkg/amount"
	apperrors "github.com/getmentor/getmentor-escrow/pkg/errors"
	"github.com/getmentor/getmentor-escrow/pkg/statedb"
)

const (
	metadataKey     = "token:meta"
	balancePrefix   = "token:balance:"
	allowancePrefix = "token:allowance:"
)

// ErrNotDeployed is returned when no token has been deployed yet
var ErrNotDeployed = errors.New("token is not deployed")

// Metadata describes the deployed token
type Metadata struct {
	Address     models.Address `json:"address"`
	Owner       models.Address `json:"owner"`
	Name        string         `json:"name"`
	Symbol      string         `json:"symbol"`
	Decimals    uint8          `json:"decimals"`
	TotalSupply amount.Amount  `json:"totalSupply"`
}

// Token is the EDU token bound to one operation's transaction
type Token struct {
	tx   *statedb.Tx
	meta Metadata
}

// Deploy creates the token with zero supply. Deploying twice returns the existing token.
func Deploy(tx *statedb.Tx, address, owner models.Address) (*Token, error) {
	existing, err := Load(tx)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotDeployed) {
		return nil, err
	}

	t := &Token{
		tx: tx,
		meta: Metadata{
			Address:  address,
			Owner:    owner,
			Name:     "EDU Token",
			Symbol:   "EDU",
			Decimals: 18,
		},
	}
	if err := t.saveMetadata(); err != nil {
		return nil, err
	}
	return t, nil
}

// Load binds the deployed token to tx
func Load(tx *statedb.Tx) (*Token, error) {
	var meta Metadata
	if err := tx.Get(metadataKey, &meta); err != nil {
		if errors.Is(err, statedb.ErrNotFound) {
			return nil, ErrNotDeployed
		}
		return nil, err
	}
	return &Token{tx: tx, meta: meta}, nil
}

// Metadata returns the token description
func (t *Token) Metadata() Metadata {
	return t.meta
}

// Address returns the token contract address
func (t *Token) Address() models.Address {
	return t.meta.Address
}

// TotalSupply returns the amount minted so far
func (t *Token) TotalSupply() amount.Amount {
	return t.meta.TotalSupply
}

// BalanceOf returns the balance of account
func (t *Token) BalanceOf(account models.Address) (amount.Amount, error) {
	return t.readAmount(balancePrefix + account.String())
}

// Allowance returns how much spender may move on behalf of owner
func (t *Token) Allowance(owner, spender models.Address) (amount.Amount, error) {
	return t.readAmount(allowanceKey(owner, spender))
}

// Approve sets spender's allowance over caller's balance
func (t *Token) Approve(caller, spender models.Address, value amount.Amount) error {
	if spender.IsZero() {
		return apperrors.InvalidInputError("spender", "must not be empty")
	}
	if err := t.tx.Put(allowanceKey(caller, spender), value); err != nil {
		return err
	}
	t.emit(models.EventApproval, models.ApprovalPayload{Owner: caller, Spender: spender, Amount: value})
	return nil
}

// Transfer moves value from caller to recipient
func (t *Token) Transfer(caller, recipient models.Address, value amount.Amount) error {
	return t.move(caller, recipient, value)
}

// TransferFrom moves value from owner to recipient using spender's allowance
func (t *Token) TransferFrom(spender, owner, recipient models.Address, value amount.Amount) error {
	allowance, err := t.Allowance(owner, spender)
	if err != nil {
		return err
	}
	remaining, err := allowance.Sub(value)
	if err != nil {
		return apperrors.ErrInsufficientAllowance
	}
	if err := t.move(owner, recipient, value); err != nil {
		return err
	}
	return t.tx.Put(allowanceKey(owner, spender), remaining)
}

// Mint creates value new tokens for recipient. Only the token owner may mint.
func (t *Token) Mint(caller, recipient models.Address, value amount.Amount) error {
	if caller != t.meta.Owner {
		return apperrors.New(apperrors.KindUnauthorized, "only the token owner can mint")
	}
	if recipient.IsZero() {
		return apperrors.InvalidInputError("to", "must not be empty")
	}

	balance, err := t.BalanceOf(recipient)
	if err != nil {
		return err
	}
	if err := t.tx.Put(balancePrefix+recipient.String(), balance.Add(value)); err != nil {
		return err
	}
	t.meta.TotalSupply = t.meta.TotalSupply.Add(value)
	if err := t.saveMetadata(); err != nil {
		return err
	}
	t.emit(models.EventTransfer, models.TransferPayload{To: recipient, Amount: value})
	return nil
}

func (t *Token) move(from, to models.Address, value amount.Amount) error {
	if to.IsZero() {
		return apperrors.InvalidInputError("to", "must not be empty")
	}

	fromBalance, err := t.BalanceOf(from)
	if err != nil {
		return err
	}
	newFrom, err := fromBalance.Sub(value)
	if err != nil {
		return apperrors.ErrInsufficientBalance
	}
	if err := t.tx.Put(balancePrefix+from.String(), newFrom); err != nil {
		return err
	}

	// read after the debit so self-transfers keep the balance unchanged
	toBalance, err := t.BalanceOf(to)
	if err != nil {
		return err
	}
	if err := t.tx.Put(balancePrefix+to.String(), toBalance.Add(value)); err != nil {
		return err
	}

	t.emit(models.EventTransfer, models.TransferPayload{From: from, To: to, Amount: value})
	return nil
}

func (t *Token) readAmount(key string) (amount.Amount, error) {
	var v amount.Amount
	if err := t.tx.Get(key, &v); err != nil {
		if errors.Is(err, statedb.ErrNotFound) {
			return amount.Zero, nil
		}
		return amount.Zero, fmt.Errorf("failed to read token state: %w", err)
	}
	return v, nil
}

func (t *Token) saveMetadata() error {
	return t.tx.Put(metadataKey, t.meta)
}

func (t *Token) emit(name models.EventName, payload any) {
	t.tx.Emit(models.Event{Name: name, Contract: t.meta.Address, Payload: payload})
}

func allowanceKey(owner, spender models.Address) string {
	return allowancePrefix + owner.String() + ":" + spender.String()
}
