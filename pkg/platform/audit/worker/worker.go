package worker

import (
	"context"
	"log/slog"

	audit "registrar/pkg/platform/audit"
)

// Worker drains an event channel into a store until the channel is closed.
// A failed append is logged and the worker moves on; audit never blocks the
// registration flow.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run returns once inbox is closed and empty.
func (w *Worker) Run(ctx context.Context) {
	for event := range w.inbox {
		if err := w.store.Append(ctx, event); err != nil {
			w.logger.ErrorContext(ctx, "audit append failed",
				"action", event.Action,
				"attempt_id", event.AttemptID,
				"error", err,
			)
		}
	}
}
