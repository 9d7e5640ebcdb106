package nodes

import (
	"context"

	"github.com/Chative-multiagent/server/internal/agent/model"
	logx "github.com/Chative-multiagent/server/pkg/logger"
)

// HandlerNode maps a selected handler to its graph node. Unknown values fall
// back to the general handler.
func HandlerNode(c model.Category) string {
	switch c {
	case model.CategoryGeneral:
		return NodeGeneralHandler
	case model.CategoryCoding:
		return NodeCodingHandler
	case model.CategoryGrammar:
		return NodeGrammarHandler
	case model.CategoryResearch:
		return NodeResearchHandler
	case model.CategoryPlanning:
		return NodePlanningHandler
	case model.CategoryCreative:
		return NodeCreativeHandler
	case model.CategoryMath:
		return NodeMathHandler
	case model.CategoryConversation:
		return NodeConversationHandler
	default:
		return NodeGeneralHandler
	}
}

// HandlerNodes returns the branch targets of the dispatcher.
func HandlerNodes() map[string]bool {
	out := make(map[string]bool, len(model.Categories()))
	for _, c := range model.Categories() {
		out[HandlerNode(c)] = true
	}
	return out
}

// Dispatch is the branch condition following the classifier.
func Dispatch(ctx context.Context, s *model.RequestState) (string, error) {
	if s == nil {
		logx.Ctx(ctx).Warn().Msg("Dispatching nil state to general handler")
		return NodeGeneralHandler, nil
	}
	node := HandlerNode(s.SelectedHandler)
	logx.Ctx(ctx).Debug().
		Str("selected_handler", s.SelectedHandler.String()).
		Str("node", node).
		Msg("Dispatching")
	return node, nil
}
