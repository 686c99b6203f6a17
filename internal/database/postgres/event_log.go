package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/getmentor/getmentor-escrow/pkg/logger"
	"github.com/getmentor/getmentor-escrow/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventRecord is one row of ledger_events
type EventRecord struct {
	EventID   uuid.UUID       `json:"id"`
	Height    uint64          `json:"height"`
	Seq       int             `json:"seq"`
	Name      string          `json:"name"`
	Contract  string          `json:"contract"`
	Payload   json.RawMessage `json:"payload"`
	EmittedAt time.Time       `json:"emittedAt"`
}

// EventFilter narrows ListEvents
type EventFilter struct {
	Name        string
	Contract    string
	AfterHeight uint64
	Limit       int
}

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

const insertEventSQL = `INSERT INTO ledger_events (event_id, height, seq, name, contract, payload, emitted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (height, seq) DO NOTHING`

// InsertEvent appends a committed event. Re-inserting the same (height, seq) is a no-op.
func (c *Client) InsertEvent(ctx context.Context, rec EventRecord) error {
	start := time.Now()
	operation := "insertEvent"

	tag, err := c.q.Exec(ctx, insertEventSQL,
		rec.EventID, int64(rec.Height), rec.Seq, rec.Name, rec.Contract, []byte(rec.Payload), rec.EmittedAt) //nolint:gosec // heights fit in int64
	duration := metrics.MeasureDuration(start)
	if err != nil {
		recordMetrics(operation, "error", duration)
		return fmt.Errorf("failed to insert ledger event: %w", err)
	}
	recordMetrics(operation, "success", duration)

	if tag.RowsAffected() == 0 {
		logger.Debug("Ledger event already recorded",
			zap.Uint64("height", rec.Height),
			zap.Int("seq", rec.Seq))
	}
	return nil
}

// buildListEventsQuery returns the SELECT for f and its arguments
func buildListEventsQuery(f EventFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.Name != "" {
		args = append(args, f.Name)
		where = append(where, fmt.Sprintf("name = $%d", len(args)))
	}
	if f.Contract != "" {
		args = append(args, strings.ToLower(f.Contract))
		where = append(where, fmt.Sprintf("contract = $%d", len(args)))
	}
	if f.AfterHeight > 0 {
		args = append(args, int64(f.AfterHeight)) //nolint:gosec // heights fit in int64
		where = append(where, fmt.Sprintf("height > $%d", len(args)))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}
	args = append(args, limit)

	var sb strings.Builder
	sb.WriteString("SELECT event_id, height, seq, name, contract, payload, emitted_at FROM ledger_events")
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	fmt.Fprintf(&sb, " ORDER BY height, seq LIMIT $%d", len(args))
	return sb.String(), args
}

// ListEvents returns recorded events in ledger order
func (c *Client) ListEvents(ctx context.Context, f EventFilter) ([]EventRecord, error) {
	start := time.Now()
	operation := "listEvents"

	sql, args := buildListEventsQuery(f)
	rows, err := c.q.Query(ctx, sql, args...)
	if err != nil {
		recordMetrics(operation, "error", metrics.MeasureDuration(start))
		return nil, fmt.Errorf("failed to query ledger events: %w", err)
	}
	defer rows.Close()

	records := []EventRecord{}
	for rows.Next() {
		var (
			rec     EventRecord
			height  int64
			payload []byte
		)
		if err := rows.Scan(&rec.EventID, &height, &rec.Seq, &rec.Name, &rec.Contract, &payload, &rec.EmittedAt); err != nil {
			recordMetrics(operation, "error", metrics.MeasureDuration(start))
			return nil, fmt.Errorf("failed to scan ledger event: %w", err)
		}
		rec.Height = uint64(height) //nolint:gosec // heights are never negative
		rec.Payload = payload
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		recordMetrics(operation, "error", metrics.MeasureDuration(start))
		return nil, fmt.Errorf("failed to iterate ledger events: %w", err)
	}

	recordMetrics(operation, "success", metrics.MeasureDuration(start))
	return records, nil
}
