package model

import (
	"github.com/cloudwego/eino/schema"
)

// Message is one prior turn handed to the engine by its caller. Any role is
// accepted since history never reaches a prompt.
type Message struct {
	Role    schema.RoleType `json:"role"`
	Content string          `json:"content"`
}

// QueryInput is the engine entry point payload.
type QueryInput struct {
	Query   string    `json:"query" validate:"required"`
	History []Message `json:"history,omitempty"`
}

// RequestState is the record threaded through every graph node of one invocation.
// Ownership:
//   - Created by the engine for exactly one invocation and discarded after packaging.
//   - Nodes run strictly in sequence and mutate it in place through the pointer
//     handed along the graph edges, so no locking is required.
//   - Never share a RequestState between invocations.
//
// Empty strings and nil slices stand for "not set".
type RequestState struct {
	Query   string    // immutable after creation
	History []Message // reserved, not injected into prompts

	Category        Category // written by the classifier
	SelectedHandler Category // always equal to Category today

	Plan            []string // planning handler only
	ResearchContext string   // research handler only

	Response string // one handler, then the finalizer
	Error    string // hard failures only
}

// NewRequestState builds the initial state for one invocation.
func NewRequestState(in QueryInput) *RequestState {
	history := make([]Message, len(in.History))
	copy(history, in.History)
	return &RequestState{
		Query:   in.Query,
		History: history,
	}
}

// Usage aggregates completion accounting for one invocation.
type Usage struct {
	Calls            int     `json:"calls"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalCostUSD     float64 `json:"total_cost_usd"`
}

// Result is the packaged outcome of one invocation.
type Result struct {
	InvocationID    string   `json:"invocation_id"`
	Response        string   `json:"response"`
	Category        Category `json:"category,omitempty"`
	SelectedHandler Category `json:"selected_handler,omitempty"`
	Plan            []string `json:"plan,omitempty"`
	Success         bool     `json:"success"`
	Error           string   `json:"error,omitempty"`
	Usage           Usage    `json:"usage"`
}

// Package converts a terminal state into a Result. A failed state never
// carries a plan.
func (s *RequestState) Package(invocationID string, usage Usage) *Result {
	var plan []string
	if s.Plan != nil && s.Error == "" {
		plan = make([]string, len(s.Plan))
		copy(plan, s.Plan)
	}
	return &Result{
		InvocationID:    invocationID,
		Response:        s.Response,
		Category:        s.Category,
		SelectedHandler: s.SelectedHandler,
		Plan:            plan,
		Success:         s.Error == "",
		Error:           s.Error,
		Usage:           usage,
	}
}
