package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"collegeportal/pkg/requestcontext"
)

// ClientCookieName holds the signed client token.
const ClientCookieName = "portal_client"

// ClientTokens issues and validates client tokens.
type ClientTokens interface {
	IssueClientToken(clientID string) (string, error)
	ValidateClientToken(token string) (string, error)
}

// ClientCookieOptions controls the cookie written for new clients.
type ClientCookieOptions struct {
	TTL    time.Duration
	Secure bool
}

// ClientSession identifies the browser client behind a request. A valid token
// from the cookie or a Bearer header is reused; otherwise a fresh client id is
// minted and returned as a cookie. The client id namespaces the durable
// session slot, the way each browser owns its own local storage.
func ClientSession(tokens ClientTokens, opts ClientCookieOptions, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if token := clientTokenFromRequest(r); token != "" {
				clientID, err := tokens.ValidateClientToken(token)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(requestcontext.WithClientID(ctx, clientID)))
					return
				}
				logger.WarnContext(ctx, "discarding invalid client token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
			}

			clientID := uuid.NewString()
			token, err := tokens.IssueClientToken(clientID)
			if err != nil {
				logger.ErrorContext(ctx, "failed to issue client token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
			} else {
				http.SetCookie(w, &http.Cookie{
					Name:     ClientCookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(opts.TTL.Seconds()),
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
				w.Header().Set("X-Client-Token", token)
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithClientID(ctx, clientID)))
		})
	}
}

func clientTokenFromRequest(r *http.Request) string {
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	if c, err := r.Cookie(ClientCookieName); err == nil {
		return c.Value
	}
	return ""
}
