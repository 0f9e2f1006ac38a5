package notify

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingSender holds every delivery until release is closed.
type blockingSender struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingSender) Channel() Channel { return ChannelEmail }

func (b *blockingSender) Send(ctx context.Context, n GuestNotification) error {
	b.started <- struct{}{}
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestPoolExecutor_DeliversAndDrains(t *testing.T) {
	sender := &fakeSender{channel: ChannelEmail, failures: 1}
	pool := NewPoolExecutor(NewSenders(sender), PoolConfig{Workers: 2, QueueSize: 8, Retry: fastRetry(3)}, zerolog.Nop())

	for i := 0; i < 5; i++ {
		require.NoError(t, pool.Submit(context.Background(), NewTask(ChannelEmail, guestNotification())))
	}

	require.NoError(t, pool.Close(context.Background()))
	assert.Len(t, sender.Sent(), 5)
}

func TestPoolExecutor_SubmitAfterClose(t *testing.T) {
	pool := NewPoolExecutor(Senders{}, PoolConfig{Workers: 1, QueueSize: 1}, zerolog.Nop())
	require.NoError(t, pool.Close(context.Background()))

	err := pool.Submit(context.Background(), NewTask(ChannelEmail, guestNotification()))
	assert.ErrorIs(t, err, ErrClosed)

	// Closing twice is harmless.
	assert.NoError(t, pool.Close(context.Background()))
}

func TestPoolExecutor_QueueFull(t *testing.T) {
	sender := &blockingSender{started: make(chan struct{}, 4), release: make(chan struct{})}
	pool := NewPoolExecutor(NewSenders(sender), PoolConfig{Workers: 1, QueueSize: 1, Retry: fastRetry(0)}, zerolog.Nop())

	require.NoError(t, pool.Submit(context.Background(), NewTask(ChannelEmail, guestNotification())))
	<-sender.started // the worker holds the first task

	require.NoError(t, pool.Submit(context.Background(), NewTask(ChannelEmail, guestNotification())))
	err := pool.Submit(context.Background(), NewTask(ChannelEmail, guestNotification()))
	assert.ErrorIs(t, err, ErrQueueFull)

	close(sender.release)
	require.NoError(t, pool.Close(context.Background()))
}

func TestPoolExecutor_CloseTimesOut(t *testing.T) {
	sender := &blockingSender{started: make(chan struct{}, 4), release: make(chan struct{})}
	pool := NewPoolExecutor(NewSenders(sender), PoolConfig{Workers: 1, QueueSize: 2, Retry: fastRetry(0)}, zerolog.Nop())

	require.NoError(t, pool.Submit(context.Background(), NewTask(ChannelEmail, guestNotification())))
	<-sender.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := pool.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
