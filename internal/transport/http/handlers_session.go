package httptransport

import (
	"context"
	"net/http"

	"github.com/asaskevich/govalidator"

	ratelimitmodels "collegeportal/internal/ratelimit/models"
	"collegeportal/internal/session"
	sessionmodels "collegeportal/internal/session/models"
	dErrors "collegeportal/pkg/domain-errors"
	"collegeportal/pkg/platform/httputil"
	"collegeportal/pkg/requestcontext"
)

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, err := httputil.DecodeJSON[loginRequest](r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid login request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if err := validateLoginRequest(req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	m, ok := h.manager(w, r)
	if !ok {
		return
	}

	if _, err := m.Login(ctx, req.Email, req.Password); err != nil {
		if !dErrors.HasCode(err, dErrors.CodeInvalidCredentials) && !dErrors.HasCode(err, dErrors.CodeConflict) {
			h.logger.ErrorContext(ctx, "login failed",
				"request_id", requestID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	h.resetLoginBudget(ctx)

	httputil.WriteJSON(w, http.StatusOK, sessionView(m))
}

// resetLoginBudget clears the login throttle for the caller's address once
// it has proven its credentials.
func (h *Handler) resetLoginBudget(ctx context.Context) {
	if h.limiter == nil {
		return
	}
	if err := h.limiter.Reset(ctx, ratelimitmodels.ClassAuth, requestcontext.ClientIP(ctx)); err != nil {
		h.logger.WarnContext(ctx, "failed to reset login rate limit",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r)
	if !ok {
		return
	}
	m.Logout(r.Context())
	h.views.Forget(m.ClientID())
	httputil.WriteJSON(w, http.StatusOK, sessionView(m))
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sessionView(m))
}

// sessionView snapshots the Manager and drains its pending notifications.
func sessionView(m *session.Manager) sessionResponse {
	resp := sessionResponse{
		Loading:       m.Loading(),
		Notifications: m.DrainNotifications(),
	}
	if identity, ok := m.Identity(); ok {
		resp.Authenticated = true
		resp.User = &identity
	}
	if resp.Notifications == nil {
		resp.Notifications = []sessionmodels.Notification{}
	}
	return resp
}

func validateLoginRequest(req *loginRequest) error {
	if !govalidator.StringLength(req.Email, "3", "254") || !govalidator.IsEmail(req.Email) {
		return dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	if req.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	return nil
}
