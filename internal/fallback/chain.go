// Package fallback runs an ordered list of unreliable backends until one
// produces a result.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrExhausted wraps the joined step errors when no step succeeded.
var ErrExhausted = errors.New("all backends failed")

// Step is one backend attempt. A nil error means the value is the result.
type Step[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Chain runs steps strictly one after another, never in parallel, so that
// backends sharing an exclusive device do not contend for it.
type Chain[T any] struct {
	logger *zap.Logger
	// Sticky moves the last successful step to the front of later runs.
	sticky bool

	mu   sync.Mutex
	last string
}

// New returns a chain. A nil logger disables logging.
func New[T any](logger *zap.Logger, sticky bool) *Chain[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain[T]{logger: logger, sticky: sticky}
}

// Run returns the first successful step's value and name. Step errors are
// logged and swallowed; if every step fails, the returned error wraps
// ErrExhausted and every step error, so errors.Is works on each of them.
func (c *Chain[T]) Run(ctx context.Context, steps []Step[T]) (T, string, error) {
	var zero T
	if len(steps) == 0 {
		return zero, "", fmt.Errorf("%w: no backends", ErrExhausted)
	}

	var errs []error
	for _, step := range c.order(steps) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		v, err := step.Run(ctx)
		if err == nil {
			c.remember(step.Name)
			return v, step.Name, nil
		}
		c.logger.Warn("backend failed", zap.String("backend", step.Name), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", step.Name, err))
	}

	return zero, "", fmt.Errorf("%w: %w", ErrExhausted, errors.Join(errs...))
}

// Last returns the name of the most recent successful step.
func (c *Chain[T]) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *Chain[T]) remember(name string) {
	c.mu.Lock()
	c.last = name
	c.mu.Unlock()
}

func (c *Chain[T]) order(steps []Step[T]) []Step[T] {
	if !c.sticky {
		return steps
	}
	last := c.Last()
	if last == "" {
		return steps
	}

	out := make([]Step[T], 0, len(steps))
	for _, s := range steps {
		if s.Name == last {
			out = append(out, s)
		}
	}
	for _, s := range steps {
		if s.Name != last {
			out = append(out, s)
		}
	}
	return out
}
