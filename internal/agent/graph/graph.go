package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/Chative-multiagent/server/internal/agent/graph/nodes"
	"github.com/Chative-multiagent/server/internal/agent/model"
	logx "github.com/Chative-multiagent/server/pkg/logger"
)

const (
	graphName = "multiagent"
	// classifier, one handler, finalizer, plus the virtual start and end
	maxRunSteps = 10
)

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	Classifier *nodes.Classifier
	Handlers   nodes.Handlers
}

// GraphBuilder handles the construction of the routing graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[*model.RequestState, *model.RequestState]
	errs   []error
}

// BuildGraph constructs and returns the compiled graph
// START -> classifier -> (dispatch) -> one of 8 handlers -> finalizer -> END.
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[*model.RequestState, *model.RequestState], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.Classifier == nil {
		return nil, fmt.Errorf("classifier is nil")
	}
	if err := config.Handlers.Validate(); err != nil {
		return nil, fmt.Errorf("handler table: %w", err)
	}

	builder := &GraphBuilder{
		config: config,
		graph:  compose.NewGraph[*model.RequestState, *model.RequestState](),
	}

	builder.addNodes()
	builder.addEdges()
	builder.addBranches()
	if err := errors.Join(builder.errs...); err != nil {
		logx.Error().Err(err).Msg("Error assembling graph")
		return nil, fmt.Errorf("error assembling graph: %w", err)
	}

	return builder.compile(ctx)
}

// addNodes adds the classifier, every handler and the finalizer, each behind a fault guard
func (b *GraphBuilder) addNodes() {
	b.addStep(nodes.NodeClassifier, b.config.Classifier.Classify)

	for _, c := range model.Categories() {
		node := nodes.HandlerNode(c)
		b.addStep(node, nodes.HandlerStep(c, b.config.Handlers[c]))
	}

	b.addStep(nodes.NodeFinalizer, nodes.FinalizeNode)
}

func (b *GraphBuilder) addStep(name string, step nodes.Step) {
	guarded := nodes.Guard(name, step)
	err := b.graph.AddLambdaNode(name,
		compose.InvokableLambda(func(ctx context.Context, s *model.RequestState) (*model.RequestState, error) {
			return guarded(ctx, s)
		}),
		compose.WithNodeName(name),
	)
	b.collect(err)
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeClassifier},
		{nodes.NodeFinalizer, compose.END},
	}
	for _, c := range model.Categories() {
		edges = append(edges, [2]string{nodes.HandlerNode(c), nodes.NodeFinalizer})
	}

	for _, edge := range edges {
		b.collect(b.graph.AddEdge(edge[0], edge[1]))
	}
}

// addBranches adds the dispatcher as the only conditional edge
func (b *GraphBuilder) addBranches() {
	dispatch := compose.NewGraphBranch[*model.RequestState](nodes.Dispatch, nodes.HandlerNodes())
	if err := b.graph.AddBranch(nodes.NodeClassifier, dispatch); err != nil {
		logx.Error().Err(err).Msg("Error adding dispatch branch")
		b.collect(fmt.Errorf("error adding dispatch branch: %w", err))
	}
}

func (b *GraphBuilder) collect(err error) {
	if err != nil {
		b.errs = append(b.errs, err)
	}
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[*model.RequestState, *model.RequestState], error) {
	runnable, err := b.graph.Compile(ctx,
		compose.WithGraphName(graphName),
		compose.WithMaxRunSteps(maxRunSteps),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
