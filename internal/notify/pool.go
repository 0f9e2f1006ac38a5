package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// PoolConfig sizes the in-process executor.
type PoolConfig struct {
	Workers   int
	QueueSize int
	Retry     RetryPolicy
}

// PoolExecutor delivers tasks on a fixed set of goroutines fed by a bounded
// queue. Submit never blocks; a full queue drops the task.
type PoolExecutor struct {
	senders Senders
	retry   RetryPolicy
	queue   chan Task
	logger  zerolog.Logger

	// ctx governs in-flight deliveries; cancel aborts their retries.
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewPoolExecutor starts cfg.Workers delivery goroutines.
func NewPoolExecutor(senders Senders, cfg PoolConfig, logger zerolog.Logger) *PoolExecutor {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &PoolExecutor{
		senders: senders,
		retry:   cfg.Retry,
		queue:   make(chan Task, cfg.QueueSize),
		logger:  logger.With().Str("component", "notification-pool").Logger(),
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < cfg.Workers; i++ {
		e.wg.Add(1)
		go e.worker(i)
	}

	e.logger.Info().
		Int("workers", cfg.Workers).
		Int("queue_size", cfg.QueueSize).
		Msg("notification pool started")

	return e
}

func (e *PoolExecutor) worker(id int) {
	defer e.wg.Done()
	logger := e.logger.With().Int("worker", id).Logger()

	for task := range e.queue {
		_ = deliver(e.ctx, e.senders, task, e.retry, logger)
	}
}

// Submit enqueues a task.
func (e *PoolExecutor) Submit(ctx context.Context, task Task) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return ErrClosed
	}

	select {
	case e.queue <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Close stops intake and waits for queued tasks to drain. When ctx expires
// first, outstanding retries are cancelled and ctx's error is returned.
func (e *PoolExecutor) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.cancel()
		e.logger.Info().Msg("notification pool drained")
		return nil
	case <-ctx.Done():
		e.cancel()
		<-done
		e.logger.Warn().Msg("notification pool closed before draining")
		return ctx.Err()
	}
}
