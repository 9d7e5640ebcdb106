package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Chative-multiagent/server/internal/agent/completion"
	"github.com/Chative-multiagent/server/internal/agent/graph/prompts"
	"github.com/Chative-multiagent/server/internal/agent/model"
	logx "github.com/Chative-multiagent/server/pkg/logger"
)

// CallConfig binds a completion client to the model used for a group of calls.
type CallConfig struct {
	Client    completion.Client
	Model     string
	MaxTokens int
}

func (c CallConfig) complete(ctx context.Context, p prompts.Profile, user string) string {
	return c.Client.Complete(ctx, completion.Request{
		System:      p.System,
		User:        user,
		Model:       c.Model,
		Temperature: p.Temp(),
		MaxTokens:   c.MaxTokens,
	})
}

// Handler produces the response for one category. Handlers write Response
// and, for research and planning, their own intermediate field. They never
// set Error and never inspect completion failure text.
type Handler interface {
	Handle(ctx context.Context, s *model.RequestState) error
}

// Handlers is the routing table from category to handler.
type Handlers map[model.Category]Handler

// NewHandlers builds the handler for every category from the profile table.
func NewHandlers(call CallConfig, profiles *prompts.Profiles) (Handlers, error) {
	if call.Client == nil {
		return nil, fmt.Errorf("completion client is nil")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profiles are nil")
	}

	plain := func(c model.Category) Handler {
		return &singleCallHandler{call: call, profile: profiles.Handler(c)}
	}

	h := Handlers{
		model.CategoryGeneral: &singleCallHandler{
			call:    call,
			profile: profiles.Handler(model.CategoryGeneral),
			user: func(ctx context.Context, s *model.RequestState) (string, error) {
				return prompts.RenderGeneralQuestion(ctx, s.ResearchContext, s.Query)
			},
		},
		model.CategoryCoding:       plain(model.CategoryCoding),
		model.CategoryGrammar:      plain(model.CategoryGrammar),
		model.CategoryCreative:     plain(model.CategoryCreative),
		model.CategoryMath:         plain(model.CategoryMath),
		model.CategoryConversation: plain(model.CategoryConversation),
	}

	research := profiles.Handler(model.CategoryResearch)
	if research.Analysis == nil {
		return nil, fmt.Errorf("research profile has no analysis phase")
	}
	h[model.CategoryResearch] = &researchHandler{call: call, analysis: *research.Analysis, answer: research}

	planning := profiles.Handler(model.CategoryPlanning)
	if planning.Analysis == nil {
		return nil, fmt.Errorf("planning profile has no analysis phase")
	}
	h[model.CategoryPlanning] = &planningHandler{call: call, analysis: *planning.Analysis, answer: planning}

	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Validate checks the table covers every category and nothing else.
func (h Handlers) Validate() error {
	var errs []error
	for _, c := range model.Categories() {
		if h[c] == nil {
			errs = append(errs, fmt.Errorf("no handler for category %q", c))
		}
	}
	for c := range h {
		if !c.Valid() {
			errs = append(errs, fmt.Errorf("handler registered for unknown category %q", c))
		}
	}
	return errors.Join(errs...)
}

// HandlerStep adapts h to a graph step.
func HandlerStep(c model.Category, h Handler) Step {
	return func(ctx context.Context, s *model.RequestState) (*model.RequestState, error) {
		logx.Ctx(ctx).Debug().Str("handler", c.String()).Msg("Handling query")
		if err := h.Handle(ctx, s); err != nil {
			return s, err
		}
		return s, nil
	}
}

// singleCallHandler answers with one completion call. user defaults to the raw query.
type singleCallHandler struct {
	call    CallConfig
	profile prompts.Profile
	user    func(ctx context.Context, s *model.RequestState) (string, error)
}

func (h *singleCallHandler) Handle(ctx context.Context, s *model.RequestState) error {
	user := s.Query
	if h.user != nil {
		var err error
		if user, err = h.user(ctx, s); err != nil {
			return err
		}
	}
	s.Response = h.call.complete(ctx, h.profile, user)
	return nil
}

// researchHandler gathers the aspects to cover, then answers with them in the prompt.
type researchHandler struct {
	call     CallConfig
	analysis prompts.Profile
	answer   prompts.Profile
}

func (h *researchHandler) Handle(ctx context.Context, s *model.RequestState) error {
	request, err := prompts.RenderResearchAnalysis(ctx, s.Query)
	if err != nil {
		return err
	}
	s.ResearchContext = h.call.complete(ctx, h.analysis, request)
	logx.Ctx(ctx).Debug().Int("context_len", len(s.ResearchContext)).Msg("Research context gathered")

	synthesis, err := prompts.RenderResearchSynthesis(ctx, s.ResearchContext, s.Query)
	if err != nil {
		return err
	}
	s.Response = h.call.complete(ctx, h.answer, synthesis)
	return nil
}

// planningHandler records a step list, then answers the original query on its own.
type planningHandler struct {
	call     CallConfig
	analysis prompts.Profile
	answer   prompts.Profile
}

func (h *planningHandler) Handle(ctx context.Context, s *model.RequestState) error {
	request, err := prompts.RenderPlanRequest(ctx, s.Query)
	if err != nil {
		return err
	}
	s.Plan = splitPlanSteps(h.call.complete(ctx, h.analysis, request))
	logx.Ctx(ctx).Debug().Int("plan_steps", len(s.Plan)).Msg("Plan drafted")

	// the plan is not fed back into the answer
	s.Response = h.call.complete(ctx, h.answer, s.Query)
	return nil
}

// splitPlanSteps keeps every non-blank line, trimmed, in order.
func splitPlanSteps(text string) []string {
	steps := []string{}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			steps = append(steps, line)
		}
	}
	return steps
}
