package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"pawpop-backend/internal/metrics"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads tasks and runs them. A message is committed once its
// task finished or gave up; failed orders are picked up again by the
// retry sweep.
type Consumer struct {
	r           messageReader
	handle      Handler
	metrics     *metrics.Registry
	logger      *slog.Logger
	maxAttempts int
	backoff     time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, handle Handler, m *metrics.Registry, logger *slog.Logger) *Consumer {
	return NewConsumerWithReader(kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 1e6,
		MaxWait:  500 * time.Millisecond,
	}), handle, m, logger)
}

func NewConsumerWithReader(r messageReader, handle Handler, m *metrics.Registry, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		r:           r,
		handle:      handle,
		metrics:     m,
		logger:      logger,
		maxAttempts: 5,
		backoff:     2 * time.Second,
	}
}

// WithRetry sets how often a task asking for a retry is attempted.
func (c *Consumer) WithRetry(maxAttempts int, backoff time.Duration) *Consumer {
	c.maxAttempts = maxAttempts
	c.backoff = backoff
	return c
}

func (c *Consumer) Close() error { return c.r.Close() }

// Run consumes until ctx is cancelled or the reader fails.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		c.process(ctx, m)

		if err := c.r.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("failed to commit task", "partition", m.Partition, "offset", m.Offset, "error", err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, m kafka.Message) {
	var task Task
	if err := json.Unmarshal(m.Value, &task); err != nil {
		c.logger.Error("dropping undecodable task", "offset", m.Offset, "error", err)
		c.metrics.QueueTask("unknown", "invalid")
		return
	}
	log := c.logger.With("task_type", task.Type, "session_id", task.SessionID)

	for attempt := 1; ; attempt++ {
		err := c.handle(ctx, task)
		if err == nil {
			c.metrics.QueueTask(task.Type, "ok")
			return
		}
		if !errors.Is(err, ErrRetry) || attempt >= c.maxAttempts {
			log.Error("task failed", "attempt", attempt, "error", err)
			c.metrics.QueueTask(task.Type, "error")
			return
		}

		log.Info("task busy, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.backoff * time.Duration(attempt)):
		}
	}
}
