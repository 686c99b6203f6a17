// Package events fans committed ledger events out to external sinks.
//
// Delivery happens strictly after commit. The ledger never waits on a sink, and a sink
// failure never affects ledger state.
package events

import (
	"time"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/google/uuid"
)

// Envelope is one committed event as delivered to sinks
type Envelope struct {
	ID        uuid.UUID        `json:"id"`
	Height    uint64           `json:"height"`
	Seq       int              `json:"seq"`
	Name      models.EventName `json:"name"`
	Contract  models.Address   `json:"contract"`
	Payload   any              `json:"payload"`
	EmittedAt time.Time        `json:"emittedAt"`
}

func newEnvelope(height uint64, seq int, e models.Event, at time.Time) Envelope {
	return Envelope{
		ID:        uuid.New(),
		Height:    height,
		Seq:       seq,
		Name:      e.Name,
		Contract:  e.Contract,
		Payload:   e.Payload,
		EmittedAt: at,
	}
}
