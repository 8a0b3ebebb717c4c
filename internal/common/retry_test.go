package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithRetry(t *testing.T) {
	opts := RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		}, opts)
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		sentinel := errors.New("boom")
		err := WithRetry(context.Background(), func() error {
			calls++
			return sentinel
		}, opts)
		assert.ErrorIs(t, err, ErrMaxRetries)
		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return &RetryableError{Err: errors.New("bad request"), Retryable: false}
		}, opts)
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestUserError(t *testing.T) {
	err := NewUserError("transaction not found", ErrNotFound)
	assert.True(t, IsUserError(err))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "transaction not found: not found", err.Error())
	assert.False(t, IsUserError(ErrNotFound))
}
