package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"collegeportal/internal/platform/config"
)

func TestNewDerivesWriteTimeout(t *testing.T) {
	srv := New(config.Server{Addr: ":0", RequestTimeout: 30 * time.Second}, http.NotFoundHandler())

	assert.Equal(t, ":0", srv.Addr)
	assert.Equal(t, 40*time.Second, srv.WriteTimeout)
	assert.Greater(t, srv.WriteTimeout, 30*time.Second)
	assert.NotZero(t, srv.ReadHeaderTimeout)
}
