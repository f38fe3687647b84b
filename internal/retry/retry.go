// Package retry provides the bounded retry-with-backoff combinator shared
// by the embedding and generation providers.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Default policy values.
const (
	DefaultMaxAttempts = 3
	DefaultDelay       = time.Second
)

// Policy bounds a retry loop. Attempts are separated by a fixed delay.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int

	// Delay is the pause between attempts.
	Delay time.Duration
}

// DefaultPolicy returns 3 attempts one second apart.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, Delay: DefaultDelay}
}

// FromSettings builds a policy from retry settings.
func FromSettings(s domain.RetrySettings) Policy {
	return Policy{MaxAttempts: s.MaxAttempts, Delay: s.Delay}.normalise()
}

func (p Policy) normalise() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	return p
}

// Permanent marks err as not worth retrying. Do returns it unchanged.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Do calls op until it succeeds, returns a permanent error, the attempts
// are exhausted, or ctx is done. An exhausted loop returns the last error
// wrapped with domain.ErrTransientProvider.
func Do[T any](ctx context.Context, p Policy, name string, op func() (T, error)) (T, error) {
	p = p.normalise()

	var (
		attempts  int
		permanent bool
	)
	wrapped := func() (T, error) {
		attempts++
		v, err := op()
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			permanent = true
		}
		return v, err
	}

	v, err := backoff.Retry(ctx, wrapped,
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Delay)),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Debug("%s: attempt %d/%d failed, retrying in %s: %v", name, attempts, p.MaxAttempts, next, err)
		}),
	)
	if err == nil {
		return v, nil
	}

	var zero T
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, ctxErr
	}
	if permanent {
		return zero, err
	}
	return zero, fmt.Errorf("%w: %s failed after %d attempts: %w", domain.ErrTransientProvider, name, attempts, err)
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p Policy, name string, op func() error) error {
	_, err := Do(ctx, p, name, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}
