package session

//go:generate mockgen -source=manager.go -destination=mocks/mocks.go -package=mocks SlotStore,AuditPublisher
//go:generate mockgen -source=auth.go -destination=mocks/auth_mocks.go -package=mocks AuthService

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"collegeportal/internal/audit"
	"collegeportal/internal/session/mocks"
	"collegeportal/internal/session/models"
	"collegeportal/internal/session/store"
	dErrors "collegeportal/pkg/domain-errors"
	"collegeportal/pkg/platform/sentinel"
)

// =============================================================================
// Session Manager Test Suite
// =============================================================================
// Round trips run against the in-memory slot store and the real registry;
// failure paths use mocks to force store and auth errors.

type ManagerSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	registry *Registry
	auth     *MockAuthService
	slots    *store.InMemory
	logger   *slog.Logger
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupSuite() {
	s.registry = testRegistry(s.T())
	s.auth = NewMockAuthService(s.registry, 0)
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *ManagerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.slots = store.NewInMemory()
}

func (s *ManagerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ManagerSuite) newManager(clientID string, slots SlotStore, auth AuthService, opts ...Option) *Manager {
	m, err := NewManager(clientID, slots, auth, append([]Option{WithLogger(s.logger)}, opts...)...)
	s.Require().NoError(err)
	return m
}

func (s *ManagerSuite) restored(clientID string) *Manager {
	m := s.newManager(clientID, s.slots, s.auth)
	s.Require().NoError(m.Restore(context.Background()))
	return m
}

// =============================================================================
// Constructor
// =============================================================================

func (s *ManagerSuite) TestNewManager() {
	s.Run("requires client id", func() {
		_, err := NewManager("", s.slots, s.auth)
		s.ErrorContains(err, "client id is required")
	})
	s.Run("requires slot store", func() {
		_, err := NewManager("c", nil, s.auth)
		s.ErrorContains(err, "slot store is required")
	})
	s.Run("requires auth service", func() {
		_, err := NewManager("c", s.slots, nil)
		s.ErrorContains(err, "auth service is required")
	})
	s.Run("starts loading and unauthenticated", func() {
		m := s.newManager("c", s.slots, s.auth)
		s.True(m.Loading())
		s.False(m.Authenticated())
	})
}

// =============================================================================
// Restore
// =============================================================================

func (s *ManagerSuite) TestRestore() {
	ctx := context.Background()

	s.Run("empty slot leaves identity absent", func() {
		m := s.restored("empty")
		s.False(m.Loading())
		s.False(m.Authenticated())
	})

	s.Run("valid record sets identity", func() {
		s.Require().NoError(s.slots.Put(ctx, SlotKey("valid"),
			[]byte(`{"id":"2","name":"Jane Smith","email":"jane@example.com","collegeName":"Stanford University"}`)))

		m := s.restored("valid")
		identity, ok := m.Identity()
		s.Require().True(ok)
		s.Equal(models.Identity{ID: "2", Name: "Jane Smith", Email: "jane@example.com", InstitutionName: "Stanford University"}, identity)
	})

	s.Run("malformed records are treated as no session", func() {
		for i, raw := range []string{`not json`, `{"id":"1"}`, `{"name":"x","email":"y"}`, `[]`, ``} {
			clientID := "malformed-" + string(rune('a'+i))
			s.Require().NoError(s.slots.Put(ctx, SlotKey(clientID), []byte(raw)))
			m := s.restored(clientID)
			s.False(m.Authenticated(), "record %q", raw)
			s.False(m.Loading())
		}
	})

	s.Run("store failure is reported and loading still ends", func() {
		slots := mocks.NewMockSlotStore(s.ctrl)
		slots.EXPECT().Get(gomock.Any(), SlotKey("broken")).Return(nil, errors.New("disk on fire"))

		m := s.newManager("broken", slots, s.auth)
		err := m.Restore(ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.False(m.Loading())
		s.False(m.Authenticated())
	})

	s.Run("store failure is retried on the next call", func() {
		slots := mocks.NewMockSlotStore(s.ctrl)
		gomock.InOrder(
			slots.EXPECT().Get(gomock.Any(), SlotKey("flaky")).Return(nil, errors.New("connection reset")),
			slots.EXPECT().Get(gomock.Any(), SlotKey("flaky")).
				Return([]byte(`{"id":"1","name":"John Doe","email":"john@example.com"}`), nil),
		)

		m := s.newManager("flaky", slots, s.auth)
		s.Error(m.Restore(ctx))
		s.False(m.Authenticated())

		s.NoError(m.Restore(ctx))
		identity, ok := m.Identity()
		s.Require().True(ok)
		s.Equal("1", identity.ID)
		s.NoError(m.Restore(ctx), "a successful read is final")
	})

	s.Run("login after a failed restore is not overwritten by a retry", func() {
		slots := mocks.NewMockSlotStore(s.ctrl)
		slots.EXPECT().Get(gomock.Any(), SlotKey("decided")).Return(nil, errors.New("connection reset")).Times(1)
		slots.EXPECT().Put(gomock.Any(), SlotKey("decided"), gomock.Any()).Return(nil)

		m := s.newManager("decided", slots, s.auth)
		s.Error(m.Restore(ctx))
		_, err := m.Login(ctx, "jane@example.com", DemoPassword)
		s.Require().NoError(err)

		s.NoError(m.Restore(ctx))
		identity, _ := m.Identity()
		s.Equal("2", identity.ID)
	})

	s.Run("only the first call reads the slot", func() {
		slots := mocks.NewMockSlotStore(s.ctrl)
		slots.EXPECT().Get(gomock.Any(), SlotKey("once")).Return(nil, sentinel.ErrNotFound).Times(1)

		m := s.newManager("once", slots, s.auth)
		s.NoError(m.Restore(ctx))
		s.NoError(m.Restore(ctx))
	})
}

// =============================================================================
// Login / Logout
// =============================================================================

func (s *ManagerSuite) TestLoginThenRestoreYieldsSameIdentity() {
	ctx := context.Background()
	for _, email := range []string{"john@example.com", "jane@example.com", "alex@example.com"} {
		s.Run(email, func() {
			clientID := "round-trip-" + email
			m := s.restored(clientID)

			identity, err := m.Login(ctx, email, DemoPassword)
			s.Require().NoError(err)
			s.Equal(email, identity.Email)
			s.False(m.Loading())

			// A fresh manager over the same slots models a process restart.
			fresh := s.restored(clientID)
			got, ok := fresh.Identity()
			s.Require().True(ok)
			s.Equal(identity, got)
		})
	}
}

func (s *ManagerSuite) TestLoginSuccessNotifies() {
	m := s.restored("notify")
	_, err := m.Login(context.Background(), "john@example.com", DemoPassword)
	s.Require().NoError(err)

	notes := m.DrainNotifications()
	s.Require().Len(notes, 1)
	s.Equal("Login Successful", notes[0].Title)
	s.Equal("Welcome back, John Doe!", notes[0].Description)
	s.Equal(models.VariantDefault, notes[0].Variant)
	s.Empty(m.DrainNotifications(), "drain clears the queue")
}

func (s *ManagerSuite) TestLoginInvalidCredentials() {
	ctx := context.Background()
	cases := []struct{ email, password string }{
		{"john@example.com", "wrong"},
		{"unknown@example.com", DemoPassword},
		{"", ""},
		{"JOHN@EXAMPLE.COM", DemoPassword},
	}
	for _, tc := range cases {
		s.Run(tc.email+"/"+tc.password, func() {
			clientID := "invalid-" + tc.email + tc.password
			m := s.restored(clientID)

			_, err := m.Login(ctx, tc.email, tc.password)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredentials))
			s.False(m.Authenticated())
			s.False(m.Loading())

			_, getErr := s.slots.Get(ctx, SlotKey(clientID))
			s.ErrorIs(getErr, sentinel.ErrNotFound)

			notes := m.DrainNotifications()
			s.Require().Len(notes, 1)
			s.Equal("Login Failed", notes[0].Title)
			s.Equal("Invalid email or password. Please try again.", notes[0].Description)
			s.Equal(models.VariantDestructive, notes[0].Variant)
		})
	}
}

func (s *ManagerSuite) TestLogoutThenRestoreIsAbsent() {
	ctx := context.Background()
	m := s.restored("logout")
	_, err := m.Login(ctx, "alex@example.com", DemoPassword)
	s.Require().NoError(err)
	m.DrainNotifications()

	m.Logout(ctx)
	s.False(m.Authenticated())

	notes := m.DrainNotifications()
	s.Require().Len(notes, 1)
	s.Equal("Logged Out", notes[0].Title)

	fresh := s.restored("logout")
	s.False(fresh.Authenticated())
}

func (s *ManagerSuite) TestLogoutSucceedsWhenSlotDeleteFails() {
	slots := mocks.NewMockSlotStore(s.ctrl)
	slots.EXPECT().Get(gomock.Any(), gomock.Any()).Return([]byte(`{"id":"1","name":"John Doe","email":"john@example.com"}`), nil)
	slots.EXPECT().Delete(gomock.Any(), SlotKey("del")).Return(errors.New("redis down"))

	m := s.newManager("del", slots, s.auth)
	s.Require().NoError(m.Restore(context.Background()))
	s.Require().True(m.Authenticated())

	m.Logout(context.Background())
	s.False(m.Authenticated())
}

func (s *ManagerSuite) TestLoginSlotWriteFailureKeepsIdentityAbsent() {
	slots := mocks.NewMockSlotStore(s.ctrl)
	slots.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
	slots.EXPECT().Put(gomock.Any(), SlotKey("put"), gomock.Any()).Return(errors.New("read-only filesystem"))

	m := s.newManager("put", slots, s.auth)
	s.Require().NoError(m.Restore(context.Background()))

	_, err := m.Login(context.Background(), "john@example.com", DemoPassword)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.False(m.Authenticated())
}

func (s *ManagerSuite) TestLoginAuthBackendFailure() {
	auth := mocks.NewMockAuthService(s.ctrl)
	auth.EXPECT().Authenticate(gomock.Any(), "john@example.com", DemoPassword).
		Return(models.Identity{}, errors.New("connection reset"))

	m := s.newManager("backend", s.slots, auth)
	s.Require().NoError(m.Restore(context.Background()))

	_, err := m.Login(context.Background(), "john@example.com", DemoPassword)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.False(m.Loading())
	s.Empty(m.DrainNotifications())
}

func (s *ManagerSuite) TestSecondLoginWhileInFlightConflicts() {
	release := make(chan struct{})
	entered := make(chan struct{})
	auth := mocks.NewMockAuthService(s.ctrl)
	auth.EXPECT().Authenticate(gomock.Any(), "jane@example.com", DemoPassword).
		DoAndReturn(func(context.Context, string, string) (models.Identity, error) {
			close(entered)
			<-release
			return models.Identity{ID: "2", Name: "Jane Smith", Email: "jane@example.com"}, nil
		}).Times(1)

	m := s.newManager("inflight", s.slots, auth)
	s.Require().NoError(m.Restore(context.Background()))

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = m.Login(context.Background(), "jane@example.com", DemoPassword)
	}()

	<-entered
	s.True(m.Loading())
	_, err := m.Login(context.Background(), "jane@example.com", DemoPassword)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	close(release)
	wg.Wait()
	s.NoError(firstErr)
	s.True(m.Authenticated())
	s.False(m.Loading())
}

func (s *ManagerSuite) TestLogoutDuringLoginWins() {
	release := make(chan struct{})
	entered := make(chan struct{})
	auth := mocks.NewMockAuthService(s.ctrl)
	auth.EXPECT().Authenticate(gomock.Any(), "jane@example.com", DemoPassword).
		DoAndReturn(func(context.Context, string, string) (models.Identity, error) {
			close(entered)
			<-release
			return models.Identity{ID: "2", Name: "Jane Smith", Email: "jane@example.com"}, nil
		}).Times(1)

	m := s.newManager("raced", s.slots, auth)
	s.Require().NoError(m.Restore(context.Background()))

	var wg sync.WaitGroup
	var loginErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, loginErr = m.Login(context.Background(), "jane@example.com", DemoPassword)
	}()

	<-entered
	m.Logout(context.Background())
	close(release)
	wg.Wait()

	s.True(dErrors.HasCode(loginErr, dErrors.CodeConflict))
	s.False(m.Authenticated())
	_, err := s.slots.Get(context.Background(), SlotKey("raced"))
	s.ErrorIs(err, sentinel.ErrNotFound, "slot stays empty")

	s.Run("next login goes through", func() {
		auth.EXPECT().Authenticate(gomock.Any(), "jane@example.com", DemoPassword).
			Return(models.Identity{ID: "2", Name: "Jane Smith", Email: "jane@example.com"}, nil)
		_, err := m.Login(context.Background(), "jane@example.com", DemoPassword)
		s.NoError(err)
		s.True(m.Authenticated())
	})
}

func (s *ManagerSuite) TestAuditEvents() {
	auditor := mocks.NewMockAuditPublisher(s.ctrl)
	var actions []audit.Action
	auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, e audit.Event) { actions = append(actions, e.Action) }).
		AnyTimes()

	m := s.newManager("audited", s.slots, s.auth, WithAuditPublisher(auditor))
	s.Require().NoError(m.Restore(context.Background()))
	_, _ = m.Login(context.Background(), "john@example.com", "bad")
	_, _ = m.Login(context.Background(), "john@example.com", DemoPassword)
	m.Logout(context.Background())

	s.Equal([]audit.Action{audit.ActionLoginFailed, audit.ActionLoginSucceeded, audit.ActionLoggedOut}, actions)
}

func (s *ManagerSuite) TestNotificationQueueIsBounded() {
	m := s.restored("bounded")
	for range maxPendingNotifications + 5 {
		m.Logout(context.Background())
	}
	s.Len(m.DrainNotifications(), maxPendingNotifications)
}

func (s *ManagerSuite) TestRealLatencyIsObserved() {
	auth := NewMockAuthService(s.registry, 20*time.Millisecond)
	m := s.newManager("latency", s.slots, auth)
	s.Require().NoError(m.Restore(context.Background()))

	start := time.Now()
	_, err := m.Login(context.Background(), "john@example.com", DemoPassword)
	s.Require().NoError(err)
	s.GreaterOrEqual(time.Since(start), 20*time.Millisecond)
}
