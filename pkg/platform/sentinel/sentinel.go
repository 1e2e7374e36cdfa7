package sentinel

import "errors"

// Infrastructure facts returned by stores and adapters, optionally wrapped.
// Services translate them into coded domain errors; they are not validation
// failures.
//
//   - ErrNotFound: the key or record does not exist
//   - ErrMalformed: stored bytes could not be decoded into a record
//   - ErrInvalidState: the entity is in the wrong state for the operation
//   - ErrUnavailable: a backing service is unreachable
var (
	ErrNotFound     = errors.New("not found")
	ErrMalformed    = errors.New("malformed record")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
