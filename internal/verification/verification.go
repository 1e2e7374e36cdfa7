// Package verification checks whether an identity may see an institution's
// restricted project content.
package verification

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Status is the verdict of one verification attempt.
type Status string

const (
	StatusGranted Status = "granted"
	StatusDenied  Status = "denied"
	StatusPending Status = "pending"
)

// Result is the outcome of one attempt.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

const (
	grantedMessage = "College ID verification successful. Access granted to view project details."
	deniedMessage  = "College ID verification failed. You must be affiliated with this college to access project details."
)

// Artifact is the submitted proof of affiliation, typically an ID card
// image. Verifiers treat it as opaque and never modify or keep it.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Empty reports whether nothing was submitted.
func (a Artifact) Empty() bool {
	return len(a.Data) == 0
}

// Service verifies an identity's affiliation with an institution. An error
// means the check could not be carried out, not that access was refused.
type Service interface {
	Verify(ctx context.Context, institutionName string, artifact Artifact, identityID string) (Result, error)
}

// SentinelIdentityID is the demo account the mock verifier always approves.
const SentinelIdentityID = "1"

// MockVerifier stands in for a remote credential check. After a fixed delay
// it grants the sentinel identity and denies everyone else. The artifact is
// not inspected and the delay ignores ctx.
type MockVerifier struct {
	latency time.Duration
	sleep   func(time.Duration)
	tracer  trace.Tracer
}

func NewMockVerifier(latency time.Duration) *MockVerifier {
	return &MockVerifier{
		latency: latency,
		sleep:   time.Sleep,
		tracer:  otel.Tracer("collegeportal/verification"),
	}
}

func (v *MockVerifier) Verify(ctx context.Context, institutionName string, artifact Artifact, identityID string) (Result, error) {
	_, span := v.tracer.Start(ctx, "verification.Verify",
		trace.WithAttributes(
			attribute.String("institution", institutionName),
			attribute.String("artifact.content_type", artifact.ContentType),
			attribute.Int("artifact.size", len(artifact.Data)),
		),
	)
	defer span.End()

	if v.latency > 0 {
		v.sleep(v.latency)
	}

	result := Result{Status: StatusDenied, Message: deniedMessage}
	if identityID == SentinelIdentityID {
		result = Result{Status: StatusGranted, Message: grantedMessage}
	}
	span.SetAttributes(attribute.String("verification.status", string(result.Status)))
	span.SetStatus(codes.Ok, "")
	return result, nil
}
