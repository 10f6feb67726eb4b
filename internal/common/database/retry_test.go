package database

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/shopease/shopease/internal/common/shoperrors"
)

var fastRetry = RetryPolicy{Attempts: 3, Delay: time.Millisecond, MaxDelay: time.Millisecond}

func TestWithRetry_SucceedsAfterTransientError(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetry, func() error {
		calls++
		if calls == 1 {
			return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetry_NonRetryableReturnsImmediately(t *testing.T) {
	calls := 0
	expected := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	err := WithRetry(context.Background(), fastRetry, func() error {
		calls++
		return expected
	})
	assert.Equal(t, 1, calls)
	assert.True(t, errors.Is(err, expected))
}

func TestWithRetry_GivesUp(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetry, func() error {
		calls++
		return &pgconn.PgError{Code: pgerrcode.ConnectionFailure}
	})
	assert.Equal(t, 3, calls)
	var maxErr *shoperrors.ErrMaxRetriesExceeded
	assert.True(t, errors.As(err, &maxErr))
}
