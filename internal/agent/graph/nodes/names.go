package nodes

// Graph node names.
const (
	NodeClassifier = "classifier"
	NodeFinalizer  = "finalizer"

	NodeGeneralHandler      = "general_handler"
	NodeCodingHandler       = "coding_handler"
	NodeGrammarHandler      = "grammar_handler"
	NodeResearchHandler     = "research_handler"
	NodePlanningHandler     = "planning_handler"
	NodeCreativeHandler     = "creative_handler"
	NodeMathHandler         = "math_handler"
	NodeConversationHandler = "conversation_handler"
)
