package audit

import (
	"context"
	"log/slog"
)

// Worker drains forwarded events into a sink. A failed delivery is logged
// and skipped so one unreachable broker cannot stall the portal.
type Worker struct {
	sink   Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run blocks until ctx is cancelled or the inbox is closed.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.sink.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to forward audit event",
					"action", event.Action,
					"error", err,
					"request_id", event.RequestID,
				)
			}
		}
	}
}
