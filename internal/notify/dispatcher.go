package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Dispatcher fans a guest notification out to every configured channel.
type Dispatcher struct {
	executor Executor
	channels []Channel
	logger   zerolog.Logger
}

// NewDispatcher creates a dispatcher scheduling tasks for channels.
func NewDispatcher(executor Executor, channels []Channel, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		executor: executor,
		channels: channels,
		logger:   logger.With().Str("component", "notification-dispatcher").Logger(),
	}
}

// Dispatch schedules one task per channel and returns without waiting for
// delivery. Registered customers are skipped; they track orders in their
// account. Scheduling failures are logged, never returned, so a checkout
// cannot fail because of a notification.
func (d *Dispatcher) Dispatch(ctx context.Context, n GuestNotification) {
	logger := d.logger.With().Str("order_id", n.OrderID).Logger()

	if !n.Guest() {
		logger.Debug().Msg("registered customer, tracking available in account")
		return
	}

	for _, channel := range d.channels {
		if !hasAddress(channel, n.Recipient) {
			logger.Debug().Str("channel", string(channel)).Msg("no address for channel, skipping")
			continue
		}

		task := NewTask(channel, n)
		if err := d.executor.Submit(ctx, task); err != nil {
			logger.Error().
				Err(err).
				Str("channel", string(channel)).
				Str("task_id", task.ID).
				Msg("failed to schedule guest notification")
			continue
		}

		logger.Debug().
			Str("channel", string(channel)).
			Str("task_id", task.ID).
			Msg("guest notification scheduled")
	}
}

func hasAddress(channel Channel, r Recipient) bool {
	switch channel {
	case ChannelEmail:
		return r.Email != ""
	case ChannelWhatsApp:
		return r.Phone != ""
	}
	return false
}
