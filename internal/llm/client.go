// Package llm sends prompts to a hosted chat-completion model.
package llm

import (
	"context"
	"errors"
)

// ErrMissingAPIKey is returned when no provider key has been configured.
var ErrMissingAPIKey = errors.New("llm api key is not configured")

// NoResponse is returned when the provider answers without any content.
const NoResponse = "No response"

// Client turns a single prompt into a single completion.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
