// Package session owns the signed-in identity of each browser client.
//
// Every client gets one Manager, created and restored through Contexts. The
// Manager is the only writer of the client's durable slot, which keeps the
// identity and the slot in step: an identity is present exactly when the slot
// holds a valid record.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"collegeportal/internal/audit"
	"collegeportal/internal/platform/metrics"
	"collegeportal/internal/session/models"
	dErrors "collegeportal/pkg/domain-errors"
	"collegeportal/pkg/platform/sentinel"
	"collegeportal/pkg/requestcontext"
)

// SlotName is the fixed name of the durable session slot.
const SlotName = "collegeUser"

// SlotKey namespaces the slot by client so each browser has its own.
func SlotKey(clientID string) string {
	return SlotName + ":" + clientID
}

// maxPendingNotifications bounds the undelivered notification queue.
const maxPendingNotifications = 10

// SlotStore is the durable key-value store holding session records.
// Get returns sentinel.ErrNotFound for a missing key.
type SlotStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// AuditPublisher records session events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(m *Manager) { m.auditor = p }
}

func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mx }
}

// Manager holds one client's identity. It is safe for concurrent use; at
// most one Login may be in flight at a time.
type Manager struct {
	clientID string
	slots    SlotStore
	auth     AuthService
	notifier Notifier
	auditor  AuditPublisher
	metrics  *metrics.Metrics
	logger   *slog.Logger

	// restoreMu serializes restore attempts; restored is guarded by mu.
	restoreMu sync.Mutex
	// inFlight counts pending Restore and Login calls without taking mu.
	inFlight atomic.Int32

	mu         sync.Mutex
	identity   *models.Identity
	restored   bool
	restoring  bool
	loggingIn  bool
	generation uint64
	pending    []models.Notification
}

func NewManager(clientID string, slots SlotStore, auth AuthService, opts ...Option) (*Manager, error) {
	if clientID == "" {
		return nil, errors.New("client id is required")
	}
	if slots == nil {
		return nil, errors.New("slot store is required")
	}
	if auth == nil {
		return nil, errors.New("auth service is required")
	}
	m := &Manager{
		clientID:  clientID,
		slots:     slots,
		auth:      auth,
		logger:    slog.Default(),
		restoring: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Manager) ClientID() string { return m.clientID }

// Restore loads the identity from the durable slot. A missing or malformed
// record leaves the identity absent. Loading reports true until the attempt
// finishes, whatever the outcome. Once a slot read succeeds, or a Login or
// Logout has decided the identity, later calls do nothing; a store error
// leaves the next call to try again.
func (m *Manager) Restore(ctx context.Context) error {
	m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	m.restoreMu.Lock()
	defer m.restoreMu.Unlock()

	m.mu.Lock()
	if m.restored {
		m.mu.Unlock()
		return nil
	}
	m.restoring = true
	m.mu.Unlock()

	return m.restore(ctx)
}

func (m *Manager) restore(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.restoring = false }()
	if m.restored {
		return nil
	}

	raw, err := m.slots.Get(ctx, SlotKey(m.clientID))
	if errors.Is(err, sentinel.ErrNotFound) {
		m.restored = true
		return nil
	}
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to read session slot",
			"client_id", m.clientID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to restore session")
	}
	m.restored = true

	var record models.Record
	if err := json.Unmarshal(raw, &record); err != nil || !record.Valid() {
		m.logger.WarnContext(ctx, "ignoring malformed session slot",
			"client_id", m.clientID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil
	}

	identity := record.Identity()
	m.identity = &identity
	m.emit(ctx, audit.Event{ClientID: m.clientID, UserID: identity.ID, Action: audit.ActionSessionRestored})
	return nil
}

// Login authenticates against the AuthService and, on success, persists the
// identity to the slot. A second Login while one is pending fails with
// CodeConflict. Bad credentials fail with CodeInvalidCredentials and leave
// the current identity untouched. A Logout that lands while the call is
// pending wins: the result is dropped with CodeConflict.
func (m *Manager) Login(ctx context.Context, email, password string) (models.Identity, error) {
	m.inFlight.Add(1)
	defer m.inFlight.Add(-1)

	m.mu.Lock()
	if m.loggingIn {
		m.mu.Unlock()
		m.metrics.IncrementLogin("conflict")
		return models.Identity{}, dErrors.New(dErrors.CodeConflict, "a login is already in progress")
	}
	m.loggingIn = true
	gen := m.generation
	m.mu.Unlock()

	identity, authErr := m.auth.Authenticate(ctx, email, password)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loggingIn = false

	if m.generation != gen {
		m.metrics.IncrementLogin("superseded")
		m.logger.InfoContext(ctx, "dropping login result after logout",
			"client_id", m.clientID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return models.Identity{}, dErrors.New(dErrors.CodeConflict, "login was cancelled by a logout")
	}

	if authErr != nil {
		if dErrors.HasCode(authErr, dErrors.CodeInvalidCredentials) {
			m.metrics.IncrementLogin("invalid_credentials")
			m.notifyLocked(ctx, loginFailed())
			m.emit(ctx, audit.Event{ClientID: m.clientID, Action: audit.ActionLoginFailed, Reason: "invalid_credentials"})
			return models.Identity{}, authErr
		}
		m.metrics.IncrementLogin("error")
		m.logger.ErrorContext(ctx, "authentication failed",
			"client_id", m.clientID,
			"error", authErr,
			"request_id", requestcontext.RequestID(ctx),
		)
		return models.Identity{}, dErrors.Wrap(authErr, dErrors.CodeInternal, "authentication failed")
	}

	raw, err := json.Marshal(models.RecordFromIdentity(identity))
	if err != nil {
		return models.Identity{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode session")
	}
	if err := m.slots.Put(ctx, SlotKey(m.clientID), raw); err != nil {
		m.logger.ErrorContext(ctx, "failed to write session slot",
			"client_id", m.clientID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return models.Identity{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist session")
	}

	m.identity = &identity
	m.restored = true
	m.metrics.IncrementLogin("success")
	m.notifyLocked(ctx, loginSucceeded(identity.Name))
	m.emit(ctx, audit.Event{ClientID: m.clientID, UserID: identity.ID, Action: audit.ActionLoginSucceeded})
	return identity, nil
}

// Logout clears the identity and the slot. It always succeeds; a slot
// delete failure is logged.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	userID := ""
	if m.identity != nil {
		userID = m.identity.ID
	}
	m.identity = nil
	m.restored = true
	m.generation++
	if err := m.slots.Delete(ctx, SlotKey(m.clientID)); err != nil {
		m.logger.ErrorContext(ctx, "failed to delete session slot",
			"client_id", m.clientID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	m.metrics.IncrementLogout()
	m.notifyLocked(ctx, loggedOut())
	m.emit(ctx, audit.Event{ClientID: m.clientID, UserID: userID, Action: audit.ActionLoggedOut})
}

// Identity returns a copy of the current identity.
func (m *Manager) Identity() (models.Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return models.Identity{}, false
	}
	return *m.identity, true
}

func (m *Manager) Authenticated() bool {
	_, ok := m.Identity()
	return ok
}

// idle reports whether no Restore or Login is running.
func (m *Manager) idle() bool {
	return m.inFlight.Load() == 0
}

// Loading reports whether a restore or login is still pending.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.restoring || m.loggingIn
}

// DrainNotifications returns and clears notifications not yet shown to the
// client.
func (m *Manager) DrainNotifications() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.pending
	m.pending = nil
	return out
}

func (m *Manager) notifyLocked(ctx context.Context, n models.Notification) {
	m.pending = append(m.pending, n)
	if over := len(m.pending) - maxPendingNotifications; over > 0 {
		m.pending = m.pending[over:]
	}
	if m.notifier != nil {
		m.notifier.Notify(ctx, m.clientID, n)
	}
}

func (m *Manager) emit(ctx context.Context, event audit.Event) {
	if m.auditor != nil {
		m.auditor.Emit(ctx, event)
	}
}
