package events

import (
	"context"
	"errors"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/pkg/httpclient"
	"github.com/getmentor/getmentor-escrow/pkg/retry"
	"github.com/getmentor/getmentor-escrow/pkg/trigger"
)

// TriggerSink posts selected events to per-event webhook URLs
type TriggerSink struct {
	client httpclient.Client
	urls   map[models.EventName]string
}

// NewTriggerSink ignores entries with an empty URL
func NewTriggerSink(client httpclient.Client, urls map[models.EventName]string) *TriggerSink {
	filtered := make(map[models.EventName]string, len(urls))
	for name, url := range urls {
		if url != "" {
			filtered[name] = url
		}
	}
	return &TriggerSink{client: client, urls: filtered}
}

// Empty reports whether no trigger is configured
func (s *TriggerSink) Empty() bool {
	return len(s.urls) == 0
}

func (s *TriggerSink) Name() string { return "trigger" }

func (s *TriggerSink) Accepts(name models.EventName) bool {
	_, ok := s.urls[name]
	return ok
}

func (s *TriggerSink) Deliver(ctx context.Context, env Envelope) error {
	err := trigger.Call(ctx, s.client, s.urls[env.Name], env)
	var statusErr *trigger.StatusError
	if errors.As(err, &statusErr) && !statusErr.Temporary() {
		return retry.Permanent(err)
	}
	return err
}
