package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/getmentor/getmentor-escrow/internal/database/postgres"
	"github.com/gin-gonic/gin"
)

// EventLogReader reads the projected event log
type EventLogReader interface {
	ListEvents(ctx context.Context, f postgres.EventFilter) ([]postgres.EventRecord, error)
}

// EventsHandler serves the persisted ledger event log
type EventsHandler struct {
	log EventLogReader
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(log EventLogReader) *EventsHandler {
	return &EventsHandler{log: log}
}

// ListEvents handles GET /api/internal/events?name=&contract=&after=&limit=
func (h *EventsHandler) ListEvents(c *gin.Context) {
	filter := postgres.EventFilter{
		Name:     c.Query("name"),
		Contract: c.Query("contract"),
	}
	if raw := c.Query("after"); raw != "" {
		after, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid after height", err)
			return
		}
		filter.AfterHeight = after
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondError(c, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		filter.Limit = limit
	}

	records, err := h.log.ListEvents(c.Request.Context(), filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch events", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": records})
}
