package database

import (
	"context"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/shopease/shopease/internal/common/shoperrors"
)

type RetryPolicy struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	Attempts: 10,
	Delay:    time.Second,
	MaxDelay: 60 * time.Second,
}

// IsRetryable reports whether err is worth retrying: the database was unreachable or rejected
// the statement for a transient reason.
func IsRetryable(err error) bool {
	return shoperrors.IsNetworkError(err) || shoperrors.IsRetryablePostgresError(err)
}

// WithRetry executes a database function, retrying with exponential backoff until it succeeds,
// encounters a non-retryable error or runs out of attempts.
// Non-retryable errors are returned as is; running out of attempts gives *shoperrors.ErrMaxRetriesExceeded.
func WithRetry(ctx context.Context, policy RetryPolicy, executeDb func() error) error {
	err := retry.Do(
		executeDb,
		retry.Context(ctx),
		retry.Attempts(policy.Attempts),
		retry.Delay(policy.Delay),
		retry.MaxDelay(policy.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			log.Warnf("Retryable error encountered executing sql (attempt %d of %d). Error was %v", n+1, policy.Attempts, err)
		}),
	)
	if err != nil && IsRetryable(err) {
		return errors.WithStack(&shoperrors.ErrMaxRetriesExceeded{
			Message:   "gave up running database query",
			LastError: err,
		})
	}
	return err
}
