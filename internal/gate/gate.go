// Package gate controls when a visitor may see a project's restricted
// content.
//
// Each (client, project) view owns one Gate:
//
//	locked ──submit──▶ verifying ──granted──▶ granted
//	   ▲                   │
//	   │                   └──denied──▶ denied ──submit──▶ verifying
//	   └── verifier error returns to the state before the attempt
//
// Re-entering a view replaces its Gate with a fresh locked one. A verdict
// that arrives for a replaced Gate lands on that Gate and is never shown.
package gate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"collegeportal/internal/audit"
	"collegeportal/internal/catalog"
	catalogmodels "collegeportal/internal/catalog/models"
	"collegeportal/internal/platform/metrics"
	"collegeportal/internal/verification"
	dErrors "collegeportal/pkg/domain-errors"
	"collegeportal/pkg/requestcontext"
)

// State is the gate's position in the verification flow.
type State string

const (
	StateLocked    State = "locked"
	StateVerifying State = "verifying"
	StateGranted   State = "granted"
	StateDenied    State = "denied"
)

// Verifier checks affiliation. See verification.Service.
type Verifier interface {
	Verify(ctx context.Context, institutionName string, artifact verification.Artifact, identityID string) (verification.Result, error)
}

// AuditPublisher records gate events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Snapshot is a point-in-time view of a Gate.
type Snapshot struct {
	ProjectID string               `json:"project_id"`
	State     State                `json:"state"`
	Result    *verification.Result `json:"result,omitempty"`
	Attempts  int                  `json:"attempts"`
}

type Option func(*deps)

type deps struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor AuditPublisher
	tracer  trace.Tracer
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *deps) { d.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *deps) { d.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(d *deps) { d.auditor = p }
}

func newDeps(opts []Option) deps {
	d := deps{
		logger: slog.Default(),
		tracer: otel.Tracer("collegeportal/gate"),
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Gate is the verification state machine for one project view. It is safe
// for concurrent use; only one verification runs at a time.
type Gate struct {
	project    catalogmodels.Project
	identityID string
	verifier   Verifier
	deps

	mu       sync.Mutex
	state    State
	result   *verification.Result
	attempts int
}

// New returns a locked gate for project, verifying on behalf of identityID.
func New(project catalogmodels.Project, identityID string, verifier Verifier, opts ...Option) (*Gate, error) {
	if verifier == nil {
		return nil, errors.New("verifier is required")
	}
	return &Gate{
		project:    project,
		identityID: identityID,
		verifier:   verifier,
		deps:       newDeps(opts),
		state:      StateLocked,
	}, nil
}

func (g *Gate) IdentityID() string { return g.identityID }

// Submit runs one verification attempt with artifact.
//
// Errors:
//   - CodeBadRequest: no artifact
//   - CodeConflict: an attempt is already running
//   - CodeInvalidState: access was already granted
//   - CodeVerificationUnavailable: the verifier failed; the gate is back in
//     the state it had before the attempt and the caller may retry
func (g *Gate) Submit(ctx context.Context, artifact verification.Artifact) (Snapshot, error) {
	if artifact.Empty() {
		return g.Snapshot(), dErrors.New(dErrors.CodeBadRequest, "an ID card image is required")
	}

	g.mu.Lock()
	switch g.state {
	case StateVerifying:
		g.mu.Unlock()
		return g.Snapshot(), dErrors.New(dErrors.CodeConflict, "verification already in progress")
	case StateGranted:
		g.mu.Unlock()
		return g.Snapshot(), dErrors.New(dErrors.CodeInvalidState, "access already granted")
	}
	previous := g.state
	g.transitionLocked(StateVerifying)
	g.attempts++
	g.mu.Unlock()

	ctx, span := g.tracer.Start(ctx, "gate.Submit", trace.WithAttributes(
		attribute.String("project.id", g.project.ID),
		attribute.String("gate.previous_state", string(previous)),
	))
	defer span.End()

	start := time.Now()
	result, err := g.verifier.Verify(ctx, g.project.InstitutionName, artifact, g.identityID)
	elapsed := time.Since(start)

	g.mu.Lock()
	defer g.mu.Unlock()

	if err != nil {
		g.transitionLocked(previous)
		g.metrics.ObserveVerification("error", elapsed)
		span.RecordError(err)
		g.logger.ErrorContext(ctx, "verification call failed",
			"project_id", g.project.ID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		g.emit(ctx, audit.ActionVerificationFailed, "error", err.Error())
		return g.snapshotLocked(), dErrors.Wrap(err, dErrors.CodeVerificationUnavailable,
			"An error occurred during verification. Please try again.")
	}

	g.result = &result
	g.metrics.ObserveVerification(string(result.Status), elapsed)
	span.SetAttributes(attribute.String("verification.status", string(result.Status)))

	switch result.Status {
	case verification.StatusGranted:
		g.transitionLocked(StateGranted)
		g.emit(ctx, audit.ActionVerificationGrant, string(result.Status), "")
	case verification.StatusDenied:
		g.transitionLocked(StateDenied)
		g.emit(ctx, audit.ActionVerificationDeny, string(result.Status), result.Message)
	default:
		// Undecided: nothing to reveal yet, let the visitor try again.
		g.transitionLocked(previous)
	}
	return g.snapshotLocked(), nil
}

// Snapshot returns the current state and last result.
func (g *Gate) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

// Content returns the restricted project detail, only once granted.
func (g *Gate) Content() (catalogmodels.ProjectDetail, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateGranted {
		return catalogmodels.ProjectDetail{}, false
	}
	return catalog.DetailFor(g.project), true
}

func (g *Gate) snapshotLocked() Snapshot {
	s := Snapshot{ProjectID: g.project.ID, State: g.state, Attempts: g.attempts}
	if g.result != nil {
		r := *g.result
		s.Result = &r
	}
	return s
}

func (g *Gate) transitionLocked(to State) {
	if g.state == to {
		return
	}
	g.state = to
	g.metrics.IncrementGateTransition(string(to))
}

func (g *Gate) emit(ctx context.Context, action audit.Action, decision, reason string) {
	if g.auditor == nil {
		return
	}
	g.auditor.Emit(ctx, audit.Event{
		UserID:   g.identityID,
		Action:   action,
		Subject:  g.project.ID,
		Decision: decision,
		Reason:   reason,
	})
}
