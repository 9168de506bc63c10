package resilience

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/errors"
)

// WithTimeout gives each call of fn its own deadline. An expired deadline is
// reported as both apperrors.ErrTimeout and context.DeadlineExceeded; a
// cancelled parent is reported as its own cause and is not a timeout. A
// zero timeout runs fn unbounded.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(attemptCtx)
	}()
	select {
	case err := <-done:
		return err
	case <-attemptCtx.Done():
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return fmt.Errorf("%s: %w after %v: %w", name, apperrors.ErrTimeout, timeout, context.DeadlineExceeded)
	}
}
