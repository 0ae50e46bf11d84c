package retry

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/meshilogapp/meshilog-backend/pkg/config"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
)

// Policy is the one retry policy applied to external-service calls:
// exponential backoff from BaseDelay, capped at MaxAttempts total attempts.
type Policy struct {
	maxAttempts uint64
	baseDelay   time.Duration
}

// NewPolicy builds a Policy from configuration, falling back to defaults for
// zero values.
func NewPolicy(cfg config.RetryConfig) Policy {
	p := Policy{maxAttempts: cfg.MaxAttempts, baseDelay: cfg.BaseDelay}
	if p.maxAttempts == 0 {
		p.maxAttempts = defaultMaxAttempts
	}
	if p.baseDelay <= 0 {
		p.baseDelay = defaultBaseDelay
	}
	return p
}

// Do runs fn until it succeeds, returns a non-retryable error, or the attempt
// budget is exhausted. fn signals a retryable failure by wrapping its error
// with RetryableError.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(p.maxAttempts-1, retry.NewExponential(p.baseDelay))
	return retry.Do(ctx, backoff, fn)
}

// RetryableError marks err as retryable for Policy.Do.
func RetryableError(err error) error {
	return retry.RetryableError(err)
}
