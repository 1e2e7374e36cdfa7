// Package httptransport exposes the portal as a JSON HTTP API. Handlers stay
// thin: they read the client's session, call the domain packages and map
// coded errors onto the response envelope.
package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	catalogmodels "collegeportal/internal/catalog/models"
	"collegeportal/internal/gate"
	"collegeportal/internal/platform/metrics"
	ratelimitmodels "collegeportal/internal/ratelimit/models"
	"collegeportal/internal/session"
	sessionmodels "collegeportal/internal/session/models"
	dErrors "collegeportal/pkg/domain-errors"
	"collegeportal/pkg/platform/httputil"
	"collegeportal/pkg/requestcontext"
)

// Catalog is the read-only project and institution store.
type Catalog interface {
	ListProjects() []catalogmodels.Project
	ListInstitutions() []catalogmodels.Institution
	ProjectByID(id string) (catalogmodels.Project, error)
	ProjectsByInstitution(name string) []catalogmodels.Project
	DistinctTags() []string
	Featured(n int) []catalogmodels.Project
}

// Sessions hands out the session Manager of a client.
type Sessions interface {
	Get(ctx context.Context, clientID string) (*session.Manager, error)
}

// Views tracks the gate of every open project view.
type Views interface {
	Enter(ctx context.Context, clientID string, project catalogmodels.Project, identityID string) *gate.Gate
	CurrentOrEnter(ctx context.Context, clientID string, project catalogmodels.Project, identityID string) *gate.Gate
	Forget(clientID string)
}

// RateLimiter throttles a class of routes. Reset clears a client address's
// spent budget.
type RateLimiter interface {
	Limit(class ratelimitmodels.Class) func(http.Handler) http.Handler
	Reset(ctx context.Context, class ratelimitmodels.Class, clientIP string) error
}

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

const (
	featuredCount        = 3
	collegePreviewCount  = 2
	defaultArtifactLimit = 5 << 20
)

// Handler serves every portal route.
type Handler struct {
	catalog  Catalog
	sessions Sessions
	views    Views
	logger   *slog.Logger
	metrics  *metrics.Metrics

	maxArtifactBytes int64
	health           map[string]HealthCheck
	limiter          RateLimiter
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithMaxArtifactBytes caps the size of an uploaded ID card image.
func WithMaxArtifactBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxArtifactBytes = n
		}
	}
}

// WithRateLimiter throttles credential and ID card submission.
func WithRateLimiter(l RateLimiter) Option {
	return func(h *Handler) { h.limiter = l }
}

// WithHealthCheck adds a named dependency to /healthz.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(h *Handler) { h.health[name] = check }
}

func New(catalog Catalog, sessions Sessions, views Views, opts ...Option) (*Handler, error) {
	if catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if sessions == nil {
		return nil, errors.New("sessions are required")
	}
	if views == nil {
		return nil, errors.New("views are required")
	}
	h := &Handler{
		catalog:          catalog,
		sessions:         sessions,
		views:            views,
		logger:           slog.Default(),
		maxArtifactBytes: defaultArtifactLimit,
		health:           make(map[string]HealthCheck),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Register mounts the portal routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.handleHome)
	r.With(h.limit(ratelimitmodels.ClassAuth)).Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/session", h.handleSession)

	r.Get("/projects", h.handleListProjects)
	r.Route("/projects/{id}", func(r chi.Router) {
		r.Get("/", h.handleProjectDetail)
		r.Get("/access", h.handleAccessStatus)
		r.With(h.limit(ratelimitmodels.ClassVerification)).Post("/access", h.handleSubmitAccess)
	})
	r.Get("/colleges", h.handleColleges)
}

func (h *Handler) limit(class ratelimitmodels.Class) func(http.Handler) http.Handler {
	if h.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return h.limiter.Limit(class)
}

// manager returns the session Manager of the calling client. A failed
// restore is logged and the client continues signed out.
func (h *Handler) manager(w http.ResponseWriter, r *http.Request) (*session.Manager, bool) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	clientID := requestcontext.ClientID(ctx)
	if clientID == "" {
		h.logger.ErrorContext(ctx, "client id missing from context", "request_id", requestID)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "client context error"))
		return nil, false
	}

	m, err := h.sessions.Get(ctx, clientID)
	if m == nil {
		h.logger.ErrorContext(ctx, "failed to open session context",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "session unavailable"))
		return nil, false
	}
	if err != nil {
		h.logger.WarnContext(ctx, "session restore failed, continuing signed out",
			"request_id", requestID,
			"error", err,
		)
	}
	return m, true
}

// requireIdentity is manager plus the login check guarding project detail
// routes.
func (h *Handler) requireIdentity(w http.ResponseWriter, r *http.Request) (sessionmodels.Identity, bool) {
	m, ok := h.manager(w, r)
	if !ok {
		return sessionmodels.Identity{}, false
	}
	identity, ok := m.Identity()
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
			Error:       "login_required",
			Description: "sign in to view project details",
			Links:       map[string]string{"login": "/login"},
		})
		return sessionmodels.Identity{}, false
	}
	return identity, true
}

func (h *Handler) project(w http.ResponseWriter, r *http.Request) (catalogmodels.Project, bool) {
	p, err := h.catalog.ProjectByID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return catalogmodels.Project{}, false
	}
	return p, true
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(h.health))}
	status := http.StatusOK
	for name, check := range h.health {
		if err := check(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed",
				"check", name,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	httputil.WriteJSON(w, status, resp)
}
