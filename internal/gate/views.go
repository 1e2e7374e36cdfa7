package gate

import (
	"context"
	"errors"
	"sync"

	"collegeportal/internal/audit"
	catalogmodels "collegeportal/internal/catalog/models"
)

type viewKey struct {
	clientID  string
	projectID string
}

// Views tracks the live Gate of every open project view.
type Views struct {
	verifier Verifier
	opts     []Option
	deps     deps

	mu    sync.Mutex
	gates map[viewKey]*Gate
}

func NewViews(verifier Verifier, opts ...Option) (*Views, error) {
	if verifier == nil {
		return nil, errors.New("verifier is required")
	}
	return &Views{
		verifier: verifier,
		opts:     opts,
		deps:     newDeps(opts),
		gates:    make(map[viewKey]*Gate),
	}, nil
}

// Enter opens the project view for a client, replacing any earlier Gate
// with a fresh locked one.
func (v *Views) Enter(ctx context.Context, clientID string, project catalogmodels.Project, identityID string) *Gate {
	g, _ := New(project, identityID, v.verifier, v.opts...)

	v.mu.Lock()
	v.gates[viewKey{clientID, project.ID}] = g
	v.mu.Unlock()

	if v.deps.auditor != nil {
		v.deps.auditor.Emit(ctx, audit.Event{ClientID: clientID, UserID: identityID, Action: audit.ActionGateEntered, Subject: project.ID})
	}
	return g
}

// Current returns the live Gate for the view if it was opened by
// identityID.
func (v *Views) Current(clientID, projectID, identityID string) (*Gate, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	g, ok := v.gates[viewKey{clientID, projectID}]
	if !ok || g.identityID != identityID {
		return nil, false
	}
	return g, true
}

// CurrentOrEnter returns the live Gate, opening the view when there is none.
func (v *Views) CurrentOrEnter(ctx context.Context, clientID string, project catalogmodels.Project, identityID string) *Gate {
	if g, ok := v.Current(clientID, project.ID, identityID); ok {
		return g
	}
	return v.Enter(ctx, clientID, project, identityID)
}

// Forget closes every view of clientID, for example on logout.
func (v *Views) Forget(clientID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for k := range v.gates {
		if k.clientID == clientID {
			delete(v.gates, k)
		}
	}
}
