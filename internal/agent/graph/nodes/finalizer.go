package nodes

import (
	"context"

	"github.com/Chative-multiagent/server/internal/agent/model"
	logx "github.com/Chative-multiagent/server/pkg/logger"
)

const (
	// FaultApologyPrefix precedes the recorded error in the response.
	FaultApologyPrefix = "I apologize, but I encountered an issue: "
	// EmptyResponseApology replaces an empty response.
	EmptyResponseApology = "I apologize, but I couldn't generate a response. Please try again."
)

// Finalize establishes the non-empty response guarantee. It is idempotent.
func Finalize(s *model.RequestState) {
	switch {
	case s.Error != "":
		s.Response = FaultApologyPrefix + s.Error
	case s.Response == "":
		s.Response = EmptyResponseApology
	}
}

// FinalizeNode is the graph step wrapping Finalize.
func FinalizeNode(ctx context.Context, s *model.RequestState) (*model.RequestState, error) {
	empty := s.Response == ""
	Finalize(s)
	logx.Ctx(ctx).Debug().
		Bool("fault", s.Error != "").
		Bool("empty_response", empty).
		Int("response_len", len(s.Response)).
		Msg("Response finalized")
	return s, nil
}
