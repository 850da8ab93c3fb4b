// Package fallback runs an ordered list of strategies and returns the first
// success. It replaces the nested recover-and-retry blocks each dashboard
// producer would otherwise carry, and makes fallback order testable on its
// own.
package fallback

import (
	"context"
	"errors"
	"fmt"
)

// Step is one named stage in a fallback chain.
type Step[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// ErrExhausted is returned when every step failed.
var ErrExhausted = errors.New("all fallback steps failed")

// First executes steps in order and returns the first successful value along
// with the name of the step that produced it. A panicking step is recovered
// and treated as a failed step. When every step fails the zero value,
// an empty name, and an error wrapping ErrExhausted and the last failure are
// returned; chains whose final step cannot fail never see that error.
func First[T any](ctx context.Context, steps ...Step[T]) (T, string, error) {
	var zero T
	var lastErr error
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}
		v, err := runStep(ctx, step)
		if err == nil {
			return v, step.Name, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no steps provided")
	}
	return zero, "", fmt.Errorf("%w: %w", ErrExhausted, lastErr)
}

// runStep invokes one step, converting a panic into an error so a misbehaving
// stage cannot take down the chain.
func runStep[T any](ctx context.Context, step Step[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step %s panicked: %v", step.Name, r)
		}
	}()
	return step.Run(ctx)
}
