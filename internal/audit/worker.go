package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from a channel and persists them. Domain
// services stay non-blocking: they drop events into the inbox and move on,
// and a failed append is logged rather than propagated - the registry has
// no compensating transaction for a lost audit entry.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", string(event.Action), "error", err)
			}
		}
	}
}
