package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const consumerTag = "storefront-notify"

// amqpChannel is the subset of *amqp091.Channel used for task transport.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
}

// AMQPClient owns the broker connection and the channel shared by the
// executor and the consumer.
type AMQPClient struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	Queue   string
}

// DialAMQP connects to the broker and declares the durable task queue.
func DialAMQP(url, queue string, logger zerolog.Logger) (*AMQPClient, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	logger.Info().Str("queue", queue).Msg("connected to notification broker")

	return &AMQPClient{conn: conn, channel: ch, Queue: queue}, nil
}

// Channel returns the underlying AMQP channel.
func (c *AMQPClient) Channel() *amqp091.Channel {
	return c.channel
}

// Close closes the channel and connection.
func (c *AMQPClient) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			return err
		}
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// AMQPExecutor publishes tasks to a durable queue; a Consumer delivers them.
type AMQPExecutor struct {
	ch     amqpChannel
	queue  string
	logger zerolog.Logger
}

// NewAMQPExecutor creates an executor publishing to queue on ch.
func NewAMQPExecutor(ch amqpChannel, queue string, logger zerolog.Logger) *AMQPExecutor {
	return &AMQPExecutor{
		ch:     ch,
		queue:  queue,
		logger: logger.With().Str("component", "notification-publisher").Logger(),
	}
}

// Submit publishes the task as a persistent JSON message.
func (e *AMQPExecutor) Submit(ctx context.Context, task Task) error {
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task: %w", err)
	}

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    task.ID,
		Timestamp:    task.CreatedAt,
		Type:         string(task.Channel),
		Body:         body,
	}

	if err := e.ch.PublishWithContext(ctx, "", e.queue, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish task: %w", err)
	}

	e.logger.Debug().Str("task_id", task.ID).Str("queue", e.queue).Msg("task published")
	return nil
}

// Close is a no-op; published tasks are owned by the broker.
func (e *AMQPExecutor) Close(ctx context.Context) error {
	return nil
}

// Consumer drains the task queue and delivers each task with the retry
// policy. Tasks that still fail, or cannot be decoded, are dropped.
type Consumer struct {
	ch      amqpChannel
	queue   string
	senders Senders
	retry   RetryPolicy
	logger  zerolog.Logger
}

// NewConsumer creates a consumer for queue.
func NewConsumer(ch amqpChannel, queue string, senders Senders, retry RetryPolicy, logger zerolog.Logger) *Consumer {
	return &Consumer{
		ch:      ch,
		queue:   queue,
		senders: senders,
		retry:   retry,
		logger:  logger.With().Str("component", "notification-consumer").Logger(),
	}
}

// Run consumes until ctx is cancelled or the broker closes the channel.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	msgs, err := c.ch.Consume(c.queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume queue %s: %w", c.queue, err)
	}

	c.logger.Info().Str("queue", c.queue).Msg("consuming notification tasks")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				c.logger.Warn().Msg("delivery channel closed")
				return nil
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp091.Delivery) {
	var task Task
	if err := json.Unmarshal(d.Body, &task); err != nil {
		c.logger.Error().Err(err).Str("message_id", d.MessageId).Msg("discarding undecodable task")
		_ = d.Nack(false, false)
		return
	}

	if err := deliver(ctx, c.senders, task, c.retry, c.logger); err != nil {
		_ = d.Nack(false, false)
		return
	}

	if err := d.Ack(false); err != nil {
		c.logger.Error().Err(err).Str("task_id", task.ID).Msg("failed to ack task")
	}
}
