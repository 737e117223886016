// Package llm talks to the reasoning engine behind classification, skill
// extraction, resume tailoring and reply composition.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Completer sends one prompt to a model and returns its text response
type Completer interface {
	Complete(ctx context.Context, model string, maxTokens int, prompt string) (string, error)
}

// Models names the two capability tiers
type Models struct {
	Fast    string
	Quality string
}

// ErrEmptyResponse is returned when the engine answers without any text
var ErrEmptyResponse = errors.New("llm response empty content")

// Observer receives the outcome of every completion call
type Observer interface {
	ObserveLLMCall(model string, elapsed time.Duration, err error)
}

type boundedCompleter struct {
	next     Completer
	timeout  time.Duration
	observer Observer
}

// Bounded wraps a completer so that each call is limited to timeout and
// reported to observer. A zero timeout or nil observer disables that part.
func Bounded(next Completer, timeout time.Duration, observer Observer) Completer {
	return &boundedCompleter{next: next, timeout: timeout, observer: observer}
}

func (b *boundedCompleter) Complete(ctx context.Context, model string, maxTokens int, prompt string) (string, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := b.next.Complete(ctx, model, maxTokens, prompt)
	if err == nil && strings.TrimSpace(out) == "" {
		err = ErrEmptyResponse
	}
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("llm request timeout after %s: %w", b.timeout, err)
	}
	if b.observer != nil {
		b.observer.ObserveLLMCall(model, time.Since(start), err)
	}
	return out, err
}
