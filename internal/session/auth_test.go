package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	dErrors "collegeportal/pkg/domain-errors"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := DemoRegistry(bcrypt.MinCost)
	require.NoError(t, err)
	return r
}

func TestRegistryLookup(t *testing.T) {
	r := testRegistry(t)

	tests := []struct {
		name     string
		email    string
		password string
		wantID   string
		wantOK   bool
	}{
		{"john", "john@example.com", DemoPassword, "1", true},
		{"jane", "jane@example.com", DemoPassword, "2", true},
		{"alex", "alex@example.com", DemoPassword, "3", true},
		{"wrong password", "john@example.com", "password124", "", false},
		{"unknown email", "nobody@example.com", DemoPassword, "", false},
		{"email match is exact", "John@example.com", DemoPassword, "", false},
		{"empty password", "john@example.com", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, ok := r.Lookup(tt.email, tt.password)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, identity.ID)
		})
	}
}

func TestMockAuthService(t *testing.T) {
	var slept []time.Duration
	svc := NewMockAuthService(testRegistry(t), time.Second)
	svc.sleep = func(d time.Duration) { slept = append(slept, d) }

	t.Run("waits the simulated latency before answering", func(t *testing.T) {
		identity, err := svc.Authenticate(context.Background(), "jane@example.com", DemoPassword)
		require.NoError(t, err)
		assert.Equal(t, "Jane Smith", identity.Name)
		assert.Equal(t, "Stanford University", identity.InstitutionName)
		assert.Equal(t, []time.Duration{time.Second}, slept)
	})

	t.Run("ignores cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := svc.Authenticate(ctx, "john@example.com", DemoPassword)
		assert.NoError(t, err)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "jane@example.com", "nope")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidCredentials))
	})
}
