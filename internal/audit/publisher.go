package audit

import (
	"context"
	"log/slog"
	"time"

	"collegeportal/pkg/requestcontext"
)

// Publisher captures structured audit events. It is append-only: events go to
// the local store synchronously and, when a forwarding inbox is attached, are
// handed to a Worker for delivery to an external sink.
type Publisher struct {
	store  Store
	inbox  chan<- Event
	logger *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithForwarding attaches the inbox drained by a Worker. Sends never block;
// events that do not fit are dropped and logged.
func WithForwarding(inbox chan<- Event) PublisherOption {
	return func(p *Publisher) { p.inbox = inbox }
}

// WithLogger sets the logger used for dropped or failed events.
func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = logger }
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit records an event. Client id and request id are filled from ctx when
// the caller left them empty. Emit never fails the caller's flow;
// store errors are logged.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.ClientID == "" {
		event.ClientID = requestcontext.ClientID(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if err := p.store.Append(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "failed to append audit event",
			"action", event.Action,
			"error", err,
			"request_id", event.RequestID,
		)
	}

	if p.inbox == nil {
		return
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit forwarding inbox full, dropping event",
			"action", event.Action,
			"request_id", event.RequestID,
		)
	}
}
