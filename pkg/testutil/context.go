package testutil

import (
	"net/http"

	"collegeportal/pkg/requestcontext"
)

// WithClientID attaches a browser client id to the request context,
// as the client session middleware would.
func WithClientID(req *http.Request, clientID string) *http.Request {
	return req.WithContext(requestcontext.WithClientID(req.Context(), clientID))
}
