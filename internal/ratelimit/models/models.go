package models

import (
	"strings"
	"time"
)

// Class groups routes that share a request budget.
type Class string

const (
	// ClassAuth covers credential submission (POST /login).
	ClassAuth Class = "auth"
	// ClassVerification covers ID card submission, which calls the verifier.
	ClassVerification Class = "verification"
)

// Policy is the request budget of a Class: at most Limit requests per
// sliding Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Result is the outcome of a rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, set when denied
}

// ExceededResponse is the 429 body.
type ExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"error_description"`
	RetryAfter int    `json:"retry_after"`
}

// SanitizeKeySegment replaces the key delimiter so a caller-controlled
// segment cannot spill into a neighbouring bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// Key builds the bucket key for a class and client address.
func Key(class Class, clientIP string) string {
	return "ratelimit:" + string(class) + ":" + SanitizeKeySegment(clientIP)
}
