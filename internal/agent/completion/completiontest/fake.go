// Package completiontest provides a scripted completion.Client for tests.
package completiontest

import (
	"context"
	"sync"

	"github.com/Chative-multiagent/server/internal/agent/completion"
)

// FailureText is what Failing returns for every call.
const FailureText = completion.ErrorMarker + " completion service failed: connection refused"

// Fake records every request and answers through Respond.
// When Respond is nil every call returns "ok".
type Fake struct {
	Respond func(req completion.Request) string

	mu    sync.Mutex
	calls []completion.Request
}

// New returns a Fake answering through respond.
func New(respond func(req completion.Request) string) *Fake {
	return &Fake{Respond: respond}
}

// Failing returns a Fake whose every call is a soft failure.
func Failing() *Fake {
	return New(func(completion.Request) string { return FailureText })
}

// Complete implements completion.Client.
func (f *Fake) Complete(_ context.Context, req completion.Request) string {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	respond := f.Respond
	f.mu.Unlock()

	if respond == nil {
		return "ok"
	}
	return respond(req)
}

// Calls returns a copy of the recorded requests in call order.
func (f *Fake) Calls() []completion.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]completion.Request, len(f.calls))
	copy(out, f.calls)
	return out
}

var _ completion.Client = (*Fake)(nil)
