// Package achievement implements the non-fungible achievement registry.
//
// Several registries may be deployed side by side; the ledger reaches the one it is
// wired to through Directory. Registry state lives in the shared state store.
package achievement

import (
	"errors"
	"fmt"
	"time"

	"github.com/getmentor/getmentor-escrow/internal/models"
	apperrors "github.com/getmentor/getmentor-escrow/pkg/errors"
	"github.com/getmentor/getmentor-escrow/pkg/statedb"
)

// ErrUnknownRegistry is returned when no registry is deployed at an address
var ErrUnknownRegistry = errors.New("no achievement registry at address")

// Metadata describes a deployed registry
type Metadata struct {
	Address models.Address `json:"address"`
	Owner   models.Address `json:"owner"`
	Name    string         `json:"name"`
	Symbol  string         `json:"symbol"`
}

// MintParams is what a minter supplies for one achievement
type MintParams struct {
	Student     models.Address
	Title       string
	Description string
	SessionID   uint64
	Mentor      models.Address
	Timestamp   time.Time
}

// Registry is one deployed registry bound to an operation's transaction
type Registry struct {
	tx   *statedb.Tx
	meta Metadata
}

// Directory resolves registries by address
type Directory struct{}

// NewDirectory creates a registry directory
func NewDirectory() *Directory {
	return &Directory{}
}

// Deploy creates a registry at address owned by owner. Deploying to an occupied address
// returns the registry already there.
func (d *Directory) Deploy(tx *statedb.Tx, address, owner models.Address) (*Registry, error) {
	existing, err := d.Open(tx, address)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrUnknownRegistry) {
		return nil, err
	}

	r := &Registry{
		tx: tx,
		meta: Metadata{
			Address: address,
			Owner:   owner,
			Name:    "Mentorship Achievement",
			Symbol:  "MEDU",
		},
	}
	if err := tx.Put(r.key("meta"), r.meta); err != nil {
		return nil, err
	}
	return r, nil
}

// Open binds the registry at address to tx
func (d *Directory) Open(tx *statedb.Tx, address models.Address) (*Registry, error) {
	r := &Registry{tx: tx}
	if err := tx.Get(registryKey(address, "meta"), &r.meta); err != nil {
		if errors.Is(err, statedb.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRegistry, address)
		}
		return nil, err
	}
	return r, nil
}

// Metadata returns the registry description
func (r *Registry) Metadata() Metadata {
	return r.meta
}

// Address returns the registry address
func (r *Registry) Address() models.Address {
	return r.meta.Address
}

// SetMinterRole grants or revokes minting permission. Only the registry owner may do it.
func (r *Registry) SetMinterRole(caller, minter models.Address, enabled bool) error {
	if caller != r.meta.Owner {
		return apperrors.New(apperrors.KindUnauthorized, "only the registry owner can manage minters")
	}
	if err := r.tx.Put(r.key("minter:"+minter.String()), enabled); err != nil {
		return err
	}
	r.tx.Emit(models.Event{
		Name:     models.EventMinterRoleUpdated,
		Contract: r.meta.Address,
		Payload:  models.MinterRoleUpdatedPayload{Minter: minter, Enabled: enabled},
	})
	return nil
}

// IsMinter reports whether account may mint
func (r *Registry) IsMinter(account models.Address) (bool, error) {
	var enabled bool
	if err := r.tx.Get(r.key("minter:"+account.String()), &enabled); err != nil {
		if errors.Is(err, statedb.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return enabled, nil
}

// Mint issues a new achievement to p.Student and returns it
func (r *Registry) Mint(caller models.Address, p MintParams) (*models.Achievement, error) {
	ok, err := r.IsMinter(caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.New(apperrors.KindUnauthorized, "caller is not a minter")
	}
	if p.Student.IsZero() {
		return nil, apperrors.InvalidInputError("student", "must not be empty")
	}

	tokenID, err := r.tx.NextSequence(r.key("token"))
	if err != nil {
		return nil, err
	}

	a := &models.Achievement{
		TokenID:     tokenID,
		Owner:       p.Student,
		Title:       p.Title,
		Description: p.Description,
		SessionID:   p.SessionID,
		Mentor:      p.Mentor,
		Timestamp:   p.Timestamp.UTC(),
	}
	if err := r.tx.Put(r.tokenKey(tokenID), a); err != nil {
		return nil, err
	}

	owned, err := r.TokensOf(p.Student)
	if err != nil {
		return nil, err
	}
	if err := r.tx.Put(r.key("owned:"+p.Student.String()), append(owned, tokenID)); err != nil {
		return nil, err
	}

	r.tx.Emit(models.Event{
		Name:     models.EventTransfer,
		Contract: r.meta.Address,
		Payload:  models.TransferPayload{To: p.Student},
	})
	return a, nil
}

// GetAchievement returns the achievement with tokenID
func (r *Registry) GetAchievement(tokenID uint64) (*models.Achievement, error) {
	var a models.Achievement
	if err := r.tx.Get(r.tokenKey(tokenID), &a); err != nil {
		if errors.Is(err, statedb.ErrNotFound) {
			return nil, apperrors.NotFoundError("achievement")
		}
		return nil, err
	}
	return &a, nil
}

// OwnerOf returns the holder of tokenID
func (r *Registry) OwnerOf(tokenID uint64) (models.Address, error) {
	a, err := r.GetAchievement(tokenID)
	if err != nil {
		return "", err
	}
	return a.Owner, nil
}

// TokensOf lists the token ids held by owner in mint order
func (r *Registry) TokensOf(owner models.Address) ([]uint64, error) {
	var ids []uint64
	if err := r.tx.Get(r.key("owned:"+owner.String()), &ids); err != nil {
		if errors.Is(err, statedb.ErrNotFound) {
			return []uint64{}, nil
		}
		return nil, err
	}
	return ids, nil
}

func (r *Registry) key(suffix string) string {
	return registryKey(r.meta.Address, suffix)
}

func (r *Registry) tokenKey(id uint64) string {
	return r.key(fmt.Sprintf("token:%020d", id))
}

func registryKey(address models.Address, suffix string) string {
	return "nft:" + address.String() + ":" + suffix
}
