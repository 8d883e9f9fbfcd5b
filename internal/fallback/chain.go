// Package fallback runs an ordered list of named strategies until one succeeds.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrExhausted is returned when every strategy in a chain failed.
var ErrExhausted = errors.New("all strategies failed")

// Strategy is one named way of producing a value.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Outcome records the result of one attempted strategy. Err is nil for the
// strategy that produced the value.
type Outcome struct {
	Strategy string
	Err      error
}

// Succeeded reports whether the strategy produced the value.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Chain is an ordered list of strategies.
type Chain[T any] struct {
	strategies []Strategy[T]
}

// New creates a chain that tries strategies in the given order.
func New[T any](strategies ...Strategy[T]) *Chain[T] {
	return &Chain[T]{strategies: strategies}
}

// Names returns the strategy names in order.
func (c *Chain[T]) Names() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name
	}
	return names
}

// Run tries each strategy in order and stops at the first success. Outcomes
// holds one entry per attempted strategy. A cancelled context stops the chain
// before the next attempt.
func (c *Chain[T]) Run(ctx context.Context) (T, []Outcome, error) {
	var zero T
	outcomes := make([]Outcome, 0, len(c.strategies))

	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return zero, outcomes, err
		}

		value, err := s.Run(ctx)
		outcomes = append(outcomes, Outcome{Strategy: s.Name, Err: err})
		if err == nil {
			return value, outcomes, nil
		}
	}

	return zero, outcomes, fmt.Errorf("%w: %s", ErrExhausted, describe(outcomes))
}

// Failures returns only the failed outcomes.
func Failures(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if !o.Succeeded() {
			failed = append(failed, o)
		}
	}
	return failed
}

func describe(outcomes []Outcome) string {
	parts := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		parts = append(parts, fmt.Sprintf("%s: %v", o.Strategy, o.Err))
	}
	return strings.Join(parts, "; ")
}
