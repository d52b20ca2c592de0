package backoff

import (
	"context"

	"github.com/cenkalti/backoff/v4"
)

// Retry runs op with exponential backoff until it succeeds, returns a
// permanent error, the context is done or maxRetries is exhausted.
func Retry(ctx context.Context, maxRetries uint64, op backoff.Operation) (err error) {
	err = backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(),
			maxRetries),
		ctx))
	return err
}

// Permanent stops the retry loop with err.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
