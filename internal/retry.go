package internal

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go"
	"github.com/aws/smithy-go"
)

// RetryPolicy bounds how remote calls are retried. The zero value and
// Attempts == 1 both mean a single attempt.
type RetryPolicy struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
}

// NoRetry performs every call exactly once.
var NoRetry = RetryPolicy{Attempts: 1}

var retryableCodes = map[string]bool{
	"RequestLimitExceeded": true,
	"Throttling":           true,
	"ThrottlingException":  true,
	"ServiceUnavailable":   true,
	"Unavailable":          true,
	"InternalError":        true,
}

// Retryable reports whether err is a transient provider error.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var canceled *smithy.CanceledError
	if errors.As(err, &canceled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return retryableCodes[apiErrorCode(err)]
}

func (p RetryPolicy) attempts() uint {
	if p.Attempts == 0 {
		return 1
	}
	return p.Attempts
}

// Do runs fn until it succeeds, fails with a non retryable error, or the
// policy's attempts are used up. The last error is returned unwrapped.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(p.attempts()),
		retry.Delay(p.Delay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(Retryable),
		retry.LastErrorOnly(true),
	}
	if p.MaxDelay > 0 {
		opts = append(opts, retry.MaxDelay(p.MaxDelay))
	}
	return retry.Do(fn, opts...)
}

func call[T any](ctx context.Context, p RetryPolicy, fn func() (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func() error {
		var err error
		out, err = fn()
		return err
	})
	return out, err
}
