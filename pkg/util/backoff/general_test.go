package backoff

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetry(t *testing.T) {
	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), 3, func() error {
			calls++
			if calls < 2 {
				return errors.New("temporary")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("permanent error stops", func(t *testing.T) {
		notFound := errors.New("not found")
		calls := 0
		err := Retry(context.Background(), 3, func() error {
			calls++
			return Permanent(notFound)
		})
		assert.ErrorIs(t, err, notFound)
		assert.Equal(t, 1, calls)
	})

	t.Run("no retries", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), 0, func() error {
			calls++
			return errors.New("failed")
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
