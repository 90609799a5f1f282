package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes tasks to Kafka keyed by session id.
type Producer struct {
	w messageWriter
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			MaxAttempts:            5,
			WriteTimeout:           5 * time.Second,
			ReadTimeout:            5 * time.Second,
			BatchTimeout:           20 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

func NewProducerWithWriter(w messageWriter) *Producer {
	return &Producer{w: w}
}

func (p *Producer) Close() error { return p.w.Close() }

func (p *Producer) Enqueue(ctx context.Context, task Task) error {
	b, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task: %w", err)
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.SessionID),
		Value: b,
		Headers: []kafka.Header{
			{Key: "task_type", Value: []byte(task.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s task: %w", task.Type, err)
	}
	return nil
}
