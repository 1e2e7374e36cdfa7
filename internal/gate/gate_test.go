package gate

//go:generate mockgen -source=gate.go -destination=mocks/mocks.go -package=mocks Verifier,AuditPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"collegeportal/internal/audit"
	catalogmodels "collegeportal/internal/catalog/models"
	"collegeportal/internal/catalog/store"
	"collegeportal/internal/gate/mocks"
	"collegeportal/internal/platform/metrics"
	"collegeportal/internal/verification"
	dErrors "collegeportal/pkg/domain-errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var idCard = verification.Artifact{Filename: "id.png", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}

// =============================================================================
// Gate Test Suite
// =============================================================================
// The verdict paths run against the real mock verifier with zero latency;
// in-flight and failure paths use a gomock Verifier to hold or fail calls.

type GateSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	project  catalogmodels.Project
	verifier *verification.MockVerifier
	logger   *slog.Logger
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.project = store.FixtureProjects()[2] // Virtual Reality Biology Lab, Harvard
	s.verifier = verification.NewMockVerifier(0)
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *GateSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *GateSuite) newGate(identityID string, v Verifier, opts ...Option) *Gate {
	g, err := New(s.project, identityID, v, append([]Option{WithLogger(s.logger)}, opts...)...)
	s.Require().NoError(err)
	return g
}

// blockingVerifier returns a mock whose next Verify call signals entered and
// waits for release before answering.
func (s *GateSuite) blockingVerifier(result verification.Result, err error) (Verifier, chan struct{}, chan struct{}) {
	entered := make(chan struct{})
	release := make(chan struct{})
	v := mocks.NewMockVerifier(s.ctrl)
	v.EXPECT().Verify(gomock.Any(), s.project.InstitutionName, gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, verification.Artifact, string) (verification.Result, error) {
			close(entered)
			<-release
			return result, err
		})
	return v, entered, release
}

func (s *GateSuite) TestNewRequiresVerifier() {
	_, err := New(s.project, "1", nil)
	s.ErrorContains(err, "verifier is required")
}

func (s *GateSuite) TestStartsLocked() {
	g := s.newGate("2", s.verifier)
	snap := g.Snapshot()
	s.Equal(StateLocked, snap.State)
	s.Nil(snap.Result)
	s.Equal(s.project.ID, snap.ProjectID)

	_, visible := g.Content()
	s.False(visible)
}

func (s *GateSuite) TestNonSentinelIsDeniedAndMayResubmit() {
	ctx := context.Background()
	g := s.newGate("2", s.verifier)

	snap, err := g.Submit(ctx, idCard)
	s.Require().NoError(err)
	s.Equal(StateDenied, snap.State)
	s.Require().NotNil(snap.Result)
	s.Equal(verification.StatusDenied, snap.Result.Status)
	_, visible := g.Content()
	s.False(visible)

	snap, err = g.Submit(ctx, idCard)
	s.Require().NoError(err)
	s.Equal(StateDenied, snap.State)
	s.Equal(2, snap.Attempts)
}

func (s *GateSuite) TestVerifyingIsObservableWhileInFlight() {
	v, entered, release := s.blockingVerifier(verification.Result{Status: verification.StatusDenied, Message: "no"}, nil)
	g := s.newGate("2", v)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = g.Submit(context.Background(), idCard)
	}()

	<-entered
	s.Equal(StateVerifying, g.Snapshot().State)

	_, err := g.Submit(context.Background(), idCard)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "second submit while verifying")

	close(release)
	wg.Wait()
	s.Equal(StateDenied, g.Snapshot().State)
}

func (s *GateSuite) TestResubmitFromDeniedPassesThroughVerifying() {
	ctx := context.Background()
	v := mocks.NewMockVerifier(s.ctrl)
	entered := make(chan struct{})
	release := make(chan struct{})
	gomock.InOrder(
		v.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any(), "2").
			Return(verification.Result{Status: verification.StatusDenied}, nil),
		v.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any(), "2").
			DoAndReturn(func(context.Context, string, verification.Artifact, string) (verification.Result, error) {
				close(entered)
				<-release
				return verification.Result{Status: verification.StatusDenied}, nil
			}),
	)
	g := s.newGate("2", v)

	snap, err := g.Submit(ctx, idCard)
	s.Require().NoError(err)
	s.Require().Equal(StateDenied, snap.State)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = g.Submit(ctx, idCard)
	}()
	<-entered
	s.Equal(StateVerifying, g.Snapshot().State)
	close(release)
	<-done
	s.Equal(StateDenied, g.Snapshot().State)
}

func (s *GateSuite) TestSentinelIsGrantedAndSeesContent() {
	g := s.newGate(verification.SentinelIdentityID, s.verifier)

	snap, err := g.Submit(context.Background(), idCard)
	s.Require().NoError(err)
	s.Equal(StateGranted, snap.State)
	s.Equal(verification.StatusGranted, snap.Result.Status)

	detail, visible := g.Content()
	s.Require().True(visible)
	s.Equal("j.wilson@harvard.edu", detail.Contact.Email)
	s.Equal("VR Research", detail.Department)

	_, err = g.Submit(context.Background(), idCard)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	s.Equal(StateGranted, g.Snapshot().State)
}

func (s *GateSuite) TestMissingArtifactIsRejected() {
	g := s.newGate("1", s.verifier)
	_, err := g.Submit(context.Background(), verification.Artifact{Filename: "empty.png"})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	s.Equal(StateLocked, g.Snapshot().State)
	s.Zero(g.Snapshot().Attempts)
}

func (s *GateSuite) TestVerifierFailureRestoresPriorState() {
	ctx := context.Background()
	failure := errors.New("verification backend unreachable")

	s.Run("from locked", func() {
		v := mocks.NewMockVerifier(s.ctrl)
		v.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(verification.Result{}, failure)
		g := s.newGate("1", v)

		snap, err := g.Submit(ctx, idCard)
		s.True(dErrors.HasCode(err, dErrors.CodeVerificationUnavailable))
		s.ErrorIs(err, failure)
		s.Equal(StateLocked, snap.State)
	})

	s.Run("from denied", func() {
		v := mocks.NewMockVerifier(s.ctrl)
		gomock.InOrder(
			v.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				Return(verification.Result{Status: verification.StatusDenied, Message: "denied"}, nil),
			v.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				Return(verification.Result{}, failure),
		)
		g := s.newGate("2", v)
		_, err := g.Submit(ctx, idCard)
		s.Require().NoError(err)

		snap, err := g.Submit(ctx, idCard)
		s.True(dErrors.HasCode(err, dErrors.CodeVerificationUnavailable))
		s.Equal(StateDenied, snap.State)
		s.Equal("denied", snap.Result.Message, "last verdict is kept")
	})
}

func (s *GateSuite) TestPendingVerdictReturnsToPriorState() {
	v := mocks.NewMockVerifier(s.ctrl)
	v.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(verification.Result{Status: verification.StatusPending, Message: "queued"}, nil)
	g := s.newGate("1", v)

	snap, err := g.Submit(context.Background(), idCard)
	s.Require().NoError(err)
	s.Equal(StateLocked, snap.State)
	s.Equal(verification.StatusPending, snap.Result.Status)
}

func (s *GateSuite) TestMetricsAndAudit() {
	mx := metrics.New(prometheus.NewRegistry())
	auditor := mocks.NewMockAuditPublisher(s.ctrl)
	var events []audit.Event
	auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, e audit.Event) { events = append(events, e) }).AnyTimes()

	g := s.newGate("1", s.verifier, WithMetrics(mx), WithAuditPublisher(auditor))
	_, err := g.Submit(context.Background(), idCard)
	s.Require().NoError(err)

	s.Equal(float64(1), testutil.ToFloat64(mx.GateTransitions.WithLabelValues(string(StateVerifying))))
	s.Equal(float64(1), testutil.ToFloat64(mx.GateTransitions.WithLabelValues(string(StateGranted))))
	s.Equal(float64(1), testutil.ToFloat64(mx.VerificationOutcomes.WithLabelValues("granted")))
	s.Require().Len(events, 1)
	s.Equal(audit.ActionVerificationGrant, events[0].Action)
	s.Equal(s.project.ID, events[0].Subject)
}

// =============================================================================
// Views
// =============================================================================

func (s *GateSuite) TestViewsReenterResetsToLocked() {
	ctx := context.Background()
	views, err := NewViews(s.verifier, WithLogger(s.logger))
	s.Require().NoError(err)

	g := views.Enter(ctx, "client", s.project, "1")
	_, err = g.Submit(ctx, idCard)
	s.Require().NoError(err)
	s.Require().Equal(StateGranted, g.Snapshot().State)

	current, ok := views.Current("client", s.project.ID, "1")
	s.Require().True(ok)
	s.Same(g, current)

	fresh := views.Enter(ctx, "client", s.project, "1")
	s.Equal(StateLocked, fresh.Snapshot().State)
	current, _ = views.Current("client", s.project.ID, "1")
	s.Same(fresh, current)
}

func (s *GateSuite) TestLateVerdictOnReplacedViewIsNotObserved() {
	ctx := context.Background()
	v, entered, release := s.blockingVerifier(verification.Result{Status: verification.StatusGranted}, nil)
	views, err := NewViews(v)
	s.Require().NoError(err)

	old := views.Enter(ctx, "client", s.project, "1")
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = old.Submit(ctx, idCard)
	}()
	<-entered

	views.Enter(ctx, "client", s.project, "1")
	close(release)
	<-done

	current, ok := views.Current("client", s.project.ID, "1")
	s.Require().True(ok)
	s.Equal(StateLocked, current.Snapshot().State)
	_, visible := current.Content()
	s.False(visible)
}

func (s *GateSuite) TestViewsIsolation() {
	ctx := context.Background()
	views, err := NewViews(s.verifier)
	s.Require().NoError(err)

	views.Enter(ctx, "a", s.project, "1")

	_, ok := views.Current("b", s.project.ID, "1")
	s.False(ok, "other client")
	_, ok = views.Current("a", s.project.ID, "2")
	s.False(ok, "other identity on the same client")
	_, ok = views.Current("a", "999", "1")
	s.False(ok, "other project")

	g := views.CurrentOrEnter(ctx, "a", s.project, "2")
	s.Equal("2", g.IdentityID())

	views.Forget("a")
	_, ok = views.Current("a", s.project.ID, "2")
	s.False(ok)
}

func (s *GateSuite) TestViewsAuditGateEntered() {
	auditor := mocks.NewMockAuditPublisher(s.ctrl)
	auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e audit.Event) {
		s.Equal(audit.ActionGateEntered, e.Action)
		s.Equal("client", e.ClientID)
		s.Equal(s.project.ID, e.Subject)
	})
	views, err := NewViews(s.verifier, WithAuditPublisher(auditor))
	s.Require().NoError(err)
	views.Enter(context.Background(), "client", s.project, "1")
}
