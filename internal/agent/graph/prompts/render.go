package prompts

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

const (
	generalContextTemplate = "Context: {{.Context}}\n\nQuestion: {{.Query}}"

	researchAnalysisTemplate = `Analyze this query and identify:
1. Key concepts to explore
2. Important aspects to cover
3. Potential sub-questions to answer

Query: {{.Query}}`

	researchSynthesisTemplate = `Research context and aspects to cover:
{{.Context}}

User's question: {{.Query}}

Provide a comprehensive, well-researched response.`

	planRequestTemplate = `Create a detailed plan for: {{.Query}}

List the steps needed to accomplish this task.`

	titleRequestTemplate = "User asked: {{.UserMessage}}\n\nAssistant replied: {{.AssistantReply}}"
)

// titleReplyRunes bounds how much of the assistant reply feeds the title request.
const titleReplyRunes = 200

// RenderGeneralQuestion prefixes the query with research context when there is any.
func RenderGeneralQuestion(ctx context.Context, researchContext, query string) (string, error) {
	if researchContext == "" {
		return query, nil
	}
	return render(ctx, "general question", generalContextTemplate, map[string]any{
		"Context": researchContext,
		"Query":   query,
	})
}

// RenderResearchAnalysis renders the first-phase research request.
func RenderResearchAnalysis(ctx context.Context, query string) (string, error) {
	return render(ctx, "research analysis", researchAnalysisTemplate, map[string]any{"Query": query})
}

// RenderResearchSynthesis embeds the gathered context and the original query.
func RenderResearchSynthesis(ctx context.Context, researchContext, query string) (string, error) {
	return render(ctx, "research synthesis", researchSynthesisTemplate, map[string]any{
		"Context": researchContext,
		"Query":   query,
	})
}

// RenderPlanRequest renders the first-phase planning request.
func RenderPlanRequest(ctx context.Context, query string) (string, error) {
	return render(ctx, "plan request", planRequestTemplate, map[string]any{"Query": query})
}

// RenderTitleRequest renders the session title request from the first exchange.
func RenderTitleRequest(ctx context.Context, userMessage, assistantReply string) (string, error) {
	if r := []rune(assistantReply); len(r) > titleReplyRunes {
		assistantReply = string(r[:titleReplyRunes])
	}
	return render(ctx, "title request", titleRequestTemplate, map[string]any{
		"UserMessage":    userMessage,
		"AssistantReply": assistantReply,
	})
}

// render formats a single user message through the eino prompt component so
// prompt callbacks fire for every rendered request.
func render(ctx context.Context, name, tpl string, vars map[string]any) (string, error) {
	msgs, err := prompt.FromMessages(schema.GoTemplate, schema.UserMessage(tpl)).Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("%s prompt render: %w", name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("%s prompt render: empty result", name)
	}
	return msgs[0].Content, nil
}
