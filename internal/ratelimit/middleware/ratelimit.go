// Package middleware throttles expensive portal routes per client address.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"collegeportal/internal/ratelimit/models"
	"collegeportal/pkg/platform/httputil"
	"collegeportal/pkg/requestcontext"
)

// BucketStore counts requests in a sliding window.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (models.Result, error)
	Reset(ctx context.Context, key string) error
}

type Middleware struct {
	store    BucketStore
	policies map[models.Class]models.Policy
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns every limit into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithPolicy sets the budget of a class. Classes without a policy are not
// limited.
func WithPolicy(class models.Class, p models.Policy) Option {
	return func(m *Middleware) {
		m.policies[class] = p
	}
}

func New(store BucketStore, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:    store,
		logger:   logger,
		policies: make(map[models.Class]models.Policy),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Limit admits requests of class while the client address has budget left.
// A store failure lets the request through.
func (m *Middleware) Limit(class models.Class) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			policy, ok := m.policies[class]
			if m.disabled || !ok || policy.Limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)

			result, err := m.store.Allow(ctx, models.Key(class, ip), policy.Limit, policy.Window)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"class", class,
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if !result.Allowed {
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"class", class,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeRateLimitExceeded(w, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Reset clears the budget spent by clientIP on class.
func (m *Middleware) Reset(ctx context.Context, class models.Class, clientIP string) error {
	if m.disabled {
		return nil
	}
	if _, ok := m.policies[class]; !ok {
		return nil
	}
	return m.store.Reset(ctx, models.Key(class, clientIP))
}

func addRateLimitHeaders(w http.ResponseWriter, result models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result models.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
