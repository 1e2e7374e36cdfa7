package httptransport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collegeportal/internal/catalog"
	"collegeportal/internal/gate"
	"collegeportal/internal/session"
	"collegeportal/internal/verification"
	"collegeportal/pkg/testutil"
)

type failingSessions struct{}

func (failingSessions) Get(context.Context, string) (*session.Manager, error) {
	return nil, errors.New("session registry closed")
}

func TestNewRequiresDependencies(t *testing.T) {
	cat, err := catalog.NewFixture()
	require.NoError(t, err)
	views, err := gate.NewViews(verification.NewMockVerifier(0))
	require.NoError(t, err)

	_, err = New(nil, failingSessions{}, views)
	assert.ErrorContains(t, err, "catalog is required")
	_, err = New(cat, nil, views)
	assert.ErrorContains(t, err, "sessions are required")
	_, err = New(cat, failingSessions{}, nil)
	assert.ErrorContains(t, err, "views are required")
}

func TestSessionFailuresAreInternal(t *testing.T) {
	cat, err := catalog.NewFixture()
	require.NoError(t, err)
	views, err := gate.NewViews(verification.NewMockVerifier(0))
	require.NoError(t, err)
	h, err := New(cat, failingSessions{}, views)
	require.NoError(t, err)

	t.Run("no client id in context", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.handleSession(rr, httptest.NewRequest(http.MethodGet, "/session", nil))
		testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "internal_error")
	})

	t.Run("registry failure", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := testutil.WithClientID(httptest.NewRequest(http.MethodGet, "/session", nil), "client-1")
		h.handleSession(rr, req)
		testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "internal_error")
	})
}
