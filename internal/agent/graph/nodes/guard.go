package nodes

import (
	"context"
	"errors"
	"fmt"

	"github.com/Chative-multiagent/server/internal/agent/model"
	logx "github.com/Chative-multiagent/server/pkg/logger"
)

// Step is the signature shared by every graph node. Nodes mutate the state in
// place and hand the same pointer to the next node.
type Step func(ctx context.Context, s *model.RequestState) (*model.RequestState, error)

// Fault is an unexpected internal failure of one node. Completion failures are
// never faults: they arrive as text.
type Fault struct {
	Node  string
	Cause string
	err   error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("node %s: %s", f.Node, f.Cause)
}

func (f *Fault) Unwrap() error {
	return f.err
}

// FaultMessage returns the text to record on the state for err.
func FaultMessage(err error) string {
	var f *Fault
	if errors.As(err, &f) {
		return f.Cause
	}
	if err == nil {
		return "unknown failure"
	}
	return err.Error()
}

// Guard converts errors and panics raised by step into a *Fault.
func Guard(node string, step Step) Step {
	return func(ctx context.Context, s *model.RequestState) (out *model.RequestState, err error) {
		defer func() {
			if r := recover(); r != nil {
				logx.Ctx(ctx).Error().Str("node", node).Interface("panic", r).Msg("Node panicked")
				out, err = s, &Fault{Node: node, Cause: fmt.Sprint(r)}
			}
		}()

		if s == nil {
			return nil, &Fault{Node: node, Cause: "request state is nil"}
		}

		out, err = step(ctx, s)
		if err != nil {
			var f *Fault
			if errors.As(err, &f) {
				return s, err
			}
			logx.Ctx(ctx).Error().Err(err).Str("node", node).Msg("Node failed")
			return s, &Fault{Node: node, Cause: err.Error(), err: err}
		}
		if out == nil {
			out = s
		}
		return out, nil
	}
}
