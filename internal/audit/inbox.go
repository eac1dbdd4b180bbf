package audit

import (
	"context"
	"log/slog"

	"lingap/pkg/platform/sentinel"
)

// Inbox is a Store whose Append only enqueues the event for a Worker to
// persist. A full inbox drops the event with a warning: audit capture never
// applies backpressure to the operation that produced it.
type Inbox struct {
	ch     chan Event
	logger *slog.Logger
}

func NewInbox(size int, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{ch: make(chan Event, size), logger: logger}
}

func (i *Inbox) Append(ctx context.Context, event Event) error {
	select {
	case i.ch <- event:
		return nil
	default:
		i.logger.WarnContext(ctx, "audit inbox full, event dropped",
			"action", string(event.Action))
		return nil
	}
}

// ListRecent is unsupported: the inbox holds events only in transit.
func (i *Inbox) ListRecent(context.Context, int) ([]Event, error) {
	return nil, sentinel.ErrUnavailable
}

// Events exposes the receive side for a Worker.
func (i *Inbox) Events() <-chan Event {
	return i.ch
}
