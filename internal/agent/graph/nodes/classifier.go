package nodes

import (
	"context"

	"github.com/Chative-multiagent/server/internal/agent/graph/prompts"
	"github.com/Chative-multiagent/server/internal/agent/model"
	logx "github.com/Chative-multiagent/server/pkg/logger"
)

// Classifier labels a query with one of the eight categories.
type Classifier struct {
	call    CallConfig
	profile prompts.Profile
}

func NewClassifier(call CallConfig, profile prompts.Profile) *Classifier {
	return &Classifier{call: call, profile: profile}
}

// Classify writes Category and SelectedHandler. Output outside the closed set,
// including completion failure text, resolves to the general category.
func (c *Classifier) Classify(ctx context.Context, s *model.RequestState) (*model.RequestState, error) {
	raw := c.call.complete(ctx, c.profile, s.Query)

	category, ok := model.ParseCategory(raw)
	if !ok {
		logx.Ctx(ctx).Warn().
			Str("raw_category", truncate(raw, 80)).
			Str("fallback", category.String()).
			Msg("Unrecognised classification")
	}

	s.Category = category
	s.SelectedHandler = category

	logx.Ctx(ctx).Debug().Str("category", category.String()).Msg("Query classified")
	return s, nil
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
