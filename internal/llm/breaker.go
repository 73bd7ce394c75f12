package llm

import (
	"context"
	"errors"

	"github.com/jwalitptl/emr-assistant/pkg/circuitbreaker"
)

// BreakerClient stops calling the provider after repeated failures and fails
// fast until the breaker's timeout elapses.
type BreakerClient struct {
	next Client
	cb   *circuitbreaker.CircuitBreaker
}

func NewBreakerClient(next Client, settings circuitbreaker.Settings) *BreakerClient {
	if settings.IsFailure == nil {
		// A caller hanging up says nothing about the provider's health.
		settings.IsFailure = func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, ErrMissingAPIKey)
		}
	}
	return &BreakerClient{next: next, cb: circuitbreaker.NewCircuitBreaker(settings)}
}

func (c *BreakerClient) Complete(ctx context.Context, prompt string) (string, error) {
	var out string
	err := c.cb.Execute(func() error {
		var err error
		out, err = c.next.Complete(ctx, prompt)
		return err
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// State reports the breaker state for readiness checks.
func (c *BreakerClient) State() string {
	return c.cb.State()
}
