package session

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"collegeportal/internal/session/models"
	dErrors "collegeportal/pkg/domain-errors"
)

// DemoPassword is shared by every demo account.
const DemoPassword = "password123"

// Registry is a fixed set of known credentials keyed by exact email.
type Registry struct {
	byEmail map[string]models.Credential
}

func NewRegistry(creds ...models.Credential) *Registry {
	r := &Registry{byEmail: make(map[string]models.Credential, len(creds))}
	for _, c := range creds {
		r.byEmail[c.Identity.Email] = c
	}
	return r
}

// DemoRegistry hashes DemoPassword with cost for the three demo accounts.
func DemoRegistry(cost int) (*Registry, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	identities := []models.Identity{
		{ID: "1", Name: "John Doe", Email: "john@example.com", InstitutionName: "MIT University"},
		{ID: "2", Name: "Jane Smith", Email: "jane@example.com", InstitutionName: "Stanford University"},
		{ID: "3", Name: "Alex Johnson", Email: "alex@example.com", InstitutionName: "Harvard University"},
	}
	creds := make([]models.Credential, len(identities))
	for i, id := range identities {
		creds[i] = models.Credential{Identity: id, PasswordHash: hash}
	}
	return NewRegistry(creds...), nil
}

// Lookup returns the identity whose email matches exactly and whose
// password hash accepts password.
func (r *Registry) Lookup(email, password string) (models.Identity, bool) {
	cred, ok := r.byEmail[email]
	if !ok {
		return models.Identity{}, false
	}
	if err := bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(password)); err != nil {
		return models.Identity{}, false
	}
	return cred.Identity, true
}

// AuthService checks credentials. Implementations may be slow; callers must
// not hold locks across Authenticate.
type AuthService interface {
	Authenticate(ctx context.Context, email, password string) (models.Identity, error)
}

// MockAuthService answers from a Registry after a fixed delay that models a
// network round trip. The delay ignores ctx: a login, once started, always
// resolves.
type MockAuthService struct {
	registry *Registry
	latency  time.Duration
	sleep    func(time.Duration)
}

func NewMockAuthService(registry *Registry, latency time.Duration) *MockAuthService {
	return &MockAuthService{registry: registry, latency: latency, sleep: time.Sleep}
}

func (s *MockAuthService) Authenticate(_ context.Context, email, password string) (models.Identity, error) {
	if s.latency > 0 {
		s.sleep(s.latency)
	}
	identity, ok := s.registry.Lookup(email, password)
	if !ok {
		return models.Identity{}, dErrors.New(dErrors.CodeInvalidCredentials, "invalid email or password")
	}
	return identity, nil
}
