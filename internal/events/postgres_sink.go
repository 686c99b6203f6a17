package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getmentor/getmentor-escrow/internal/database/postgres"
	"github.com/getmentor/getmentor-escrow/internal/models"
)

// EventLog stores committed events
type EventLog interface {
	InsertEvent(ctx context.Context, rec postgres.EventRecord) error
}

// PostgresSink appends every event to the ledger_events table
type PostgresSink struct {
	log EventLog
}

func NewPostgresSink(log EventLog) *PostgresSink {
	return &PostgresSink{log: log}
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Accepts(models.EventName) bool { return true }

func (s *PostgresSink) Deliver(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode event payload: %w", err)
	}
	return s.log.InsertEvent(ctx, postgres.EventRecord{
		EventID:   env.ID,
		Height:    env.Height,
		Seq:       env.Seq,
		Name:      string(env.Name),
		Contract:  env.Contract.String(),
		Payload:   payload,
		EmittedAt: env.EmittedAt,
	})
}
