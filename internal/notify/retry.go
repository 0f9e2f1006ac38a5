package notify

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// RetryPolicy bounds redelivery of a single task.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy retries a failed delivery three times.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, p.MaxRetries), ctx)
}

// deliver sends a task, retrying transient failures. Errors wrapped with
// backoff.Permanent stop the retries immediately.
func deliver(ctx context.Context, senders Senders, task Task, policy RetryPolicy, logger zerolog.Logger) error {
	attempt := 0
	op := func() error {
		attempt++
		return senders.send(ctx, task)
	}
	notifyFn := func(err error, wait time.Duration) {
		logger.Warn().
			Err(err).
			Str("task_id", task.ID).
			Str("channel", string(task.Channel)).
			Int("attempt", attempt).
			Dur("retry_in", wait).
			Msg("notification delivery failed, retrying")
	}

	if err := backoff.RetryNotify(op, policy.backOff(ctx), notifyFn); err != nil {
		logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Str("order_id", task.Notification.OrderID).
			Str("channel", string(task.Channel)).
			Int("attempts", attempt).
			Msg("notification delivery abandoned")
		return err
	}

	logger.Info().
		Str("task_id", task.ID).
		Str("order_id", task.Notification.OrderID).
		Str("channel", string(task.Channel)).
		Int("attempts", attempt).
		Msg("notification delivered")
	return nil
}
