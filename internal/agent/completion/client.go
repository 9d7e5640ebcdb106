// Package completion wraps the external text-completion service behind a
// blocking request/response Client. Failures never surface as Go errors:
// they come back as text starting with ErrorMarker.
package completion

import (
	"context"
	"strings"
)

// ErrorMarker prefixes every failure text returned by a Client.
const ErrorMarker = "Error:"

// Request is a single system + user completion call.
type Request struct {
	System      string
	User        string
	Model       string
	Temperature float32
	// MaxTokens caps the reply; zero leaves the provider default.
	MaxTokens int
}

// Client performs one completion call. Implementations must be safe for
// concurrent use and must not panic or return Go errors to the caller.
type Client interface {
	Complete(ctx context.Context, req Request) string
}

// Failure renders err as in-band failure text.
func Failure(err error) string {
	if err == nil {
		return ErrorMarker + " unknown failure"
	}
	return ErrorMarker + " " + err.Error()
}

// IsFailure reports whether text is in-band failure text produced by Failure.
func IsFailure(text string) bool {
	return strings.HasPrefix(text, ErrorMarker)
}
