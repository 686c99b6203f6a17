package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/pkg/statedb"
)

const (
	configKey     = "ledger:config"
	mentorPrefix  = "ledger:mentor:"
	studentPrefix = "ledger:student:"
	sessionPrefix = "ledger:session:"
	sessionSeq    = "ledger:session"
)

// ErrNotFound is returned when a ledger record does not exist
var ErrNotFound = statedb.ErrNotFound

// LedgerRepository is typed access to the ledger tables within one operation
type LedgerRepository struct {
	tx *statedb.Tx
}

// NewLedgerRepository binds the ledger tables to tx
func NewLedgerRepository(tx *statedb.Tx) *LedgerRepository {
	return &LedgerRepository{tx: tx}
}

// Tx returns the underlying transaction so collaborators can join the same unit
func (r *LedgerRepository) Tx() *statedb.Tx {
	return r.tx
}

// GetConfig returns the platform configuration
func (r *LedgerRepository) GetConfig() (*models.PlatformConfig, error) {
	var cfg models.PlatformConfig
	if err := r.tx.Get(configKey, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig stores the platform configuration
func (r *LedgerRepository) SaveConfig(cfg *models.PlatformConfig) error {
	return r.tx.Put(configKey, cfg)
}

// GetMentor returns the mentor registered at addr
func (r *LedgerRepository) GetMentor(addr models.Address) (*models.Mentor, error) {
	var m models.Mentor
	if err := r.tx.Get(mentorPrefix+addr.String(), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// HasMentor reports whether a mentor is registered at addr
func (r *LedgerRepository) HasMentor(addr models.Address) (bool, error) {
	return r.tx.Has(mentorPrefix + addr.String())
}

// SaveMentor inserts or replaces a mentor record
func (r *LedgerRepository) SaveMentor(m *models.Mentor) error {
	return r.tx.Put(mentorPrefix+m.WalletAddress.String(), m)
}

// ListMentors returns every mentor passing filter, ordered by address
func (r *LedgerRepository) ListMentors(filter models.MentorFilter) ([]*models.Mentor, error) {
	mentors := make([]*models.Mentor, 0)
	err := r.tx.Iterate(mentorPrefix, func(key string, raw []byte) error {
		var m models.Mentor
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("failed to decode %s: %w", key, err)
		}
		if filter.Matches(&m) {
			mentors = append(mentors, &m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mentors, nil
}

// GetStudent returns the student registered at addr
func (r *LedgerRepository) GetStudent(addr models.Address) (*models.Student, error) {
	var s models.Student
	if err := r.tx.Get(studentPrefix+addr.String(), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// HasStudent reports whether a student is registered at addr
func (r *LedgerRepository) HasStudent(addr models.Address) (bool, error) {
	s, err := r.GetStudent(addr)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.IsRegistered, nil
}

// SaveStudent inserts or replaces a student record
func (r *LedgerRepository) SaveStudent(s *models.Student) error {
	return r.tx.Put(studentPrefix+s.WalletAddress.String(), s)
}

// NextSessionID allocates the next session id, starting at 1
func (r *LedgerRepository) NextSessionID() (uint64, error) {
	return r.tx.NextSequence(sessionSeq)
}

// GetSession returns session id
func (r *LedgerRepository) GetSession(id uint64) (*models.Session, error) {
	var s models.Session
	if err := r.tx.Get(sessionKey(id), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSession inserts or replaces a session record
func (r *LedgerRepository) SaveSession(s *models.Session) error {
	return r.tx.Put(sessionKey(s.ID), s)
}

// Emit buffers a ledger event emitted by the ledger at address
func (r *LedgerRepository) Emit(ledger models.Address, name models.EventName, payload any) {
	r.tx.Emit(models.Event{Name: name, Contract: ledger, Payload: payload})
}

func sessionKey(id uint64) string {
	return fmt.Sprintf("%s%020d", sessionPrefix, id)
}

// CountActiveSessions returns how many sessions currently hold custody
func (r *LedgerRepository) CountActiveSessions() (int, error) {
	count := 0
	err := r.tx.Iterate(sessionPrefix, func(key string, raw []byte) error {
		var s models.Session
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("failed to decode %s: %w", key, err)
		}
		if s.IsActive {
			count++
		}
		return nil
	})
	return count, err
}
