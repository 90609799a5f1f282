package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pawpop-backend/internal/models"
	"pawpop-backend/internal/queue"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	mu        sync.Mutex
	pending   []kafka.Message
	committed []kafka.Message
	drained   chan struct{}
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	return &fakeReader{pending: msgs, drained: make(chan struct{})}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.pending) > 0 {
		m := r.pending[0]
		r.pending = r.pending[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	if len(r.pending) == 0 {
		select {
		case <-r.drained:
		default:
			close(r.drained)
		}
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func session() *models.CheckoutSession {
	return &models.CheckoutSession{
		ID:            "cs_test_123",
		CustomerEmail: "buyer@example.com",
		Metadata:      map[string]string{"artwork_id": "a1", "product_type": "digital"},
	}
}

func encode(t *testing.T, task queue.Task) kafka.Message {
	t.Helper()
	b, err := json.Marshal(task)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(task.SessionID), Value: b}
}

func runUntilDrained(t *testing.T, c *queue.Consumer, r *fakeReader) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case <-r.drained:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not drain messages")
	}
	cancel()
	require.NoError(t, <-done)
}

func TestProducer_EnqueueKeysBySession(t *testing.T) {
	w := &fakeWriter{}
	p := queue.NewProducerWithWriter(w)

	require.NoError(t, p.Enqueue(context.Background(), queue.NewProcessPaidOrderTask(session())))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "cs_test_123", string(w.msgs[0].Key))

	var got queue.Task
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, queue.TaskProcessPaidOrder, got.Type)
	require.NotNil(t, got.Session)
	assert.Equal(t, "a1", got.Session.Metadata["artwork_id"])
}

func TestProducer_EnqueueError(t *testing.T) {
	p := queue.NewProducerWithWriter(&fakeWriter{err: errors.New("broker down")})
	err := p.Enqueue(context.Background(), queue.NewProcessPaidOrderTask(session()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestConsumer_HandlesAndCommits(t *testing.T) {
	r := newFakeReader(encode(t, queue.NewProcessPaidOrderTask(session())))
	var handled atomic.Int32
	c := queue.NewConsumerWithReader(r, func(_ context.Context, task queue.Task) error {
		handled.Add(1)
		assert.Equal(t, "cs_test_123", task.SessionID)
		return nil
	}, nil, nil)

	runUntilDrained(t, c, r)

	assert.EqualValues(t, 1, handled.Load())
	assert.Len(t, r.committed, 1)
}

func TestConsumer_RetriesBusyTasks(t *testing.T) {
	r := newFakeReader(encode(t, queue.NewProcessPaidOrderTask(session())))
	var calls atomic.Int32
	c := queue.NewConsumerWithReader(r, func(context.Context, queue.Task) error {
		if calls.Add(1) < 3 {
			return queue.ErrRetry
		}
		return nil
	}, nil, nil).WithRetry(5, time.Millisecond)

	runUntilDrained(t, c, r)

	assert.EqualValues(t, 3, calls.Load())
	assert.Len(t, r.committed, 1)
}

func TestConsumer_GivesUpAfterMaxAttempts(t *testing.T) {
	r := newFakeReader(encode(t, queue.NewProcessPaidOrderTask(session())))
	var calls atomic.Int32
	c := queue.NewConsumerWithReader(r, func(context.Context, queue.Task) error {
		calls.Add(1)
		return queue.ErrRetry
	}, nil, nil).WithRetry(2, time.Millisecond)

	runUntilDrained(t, c, r)

	assert.EqualValues(t, 2, calls.Load())
	assert.Len(t, r.committed, 1)
}

func TestConsumer_DoesNotRetryPermanentErrors(t *testing.T) {
	r := newFakeReader(encode(t, queue.NewProcessPaidOrderTask(session())))
	var calls atomic.Int32
	c := queue.NewConsumerWithReader(r, func(context.Context, queue.Task) error {
		calls.Add(1)
		return errors.New("validation failed")
	}, nil, nil).WithRetry(5, time.Millisecond)

	runUntilDrained(t, c, r)

	assert.EqualValues(t, 1, calls.Load())
}

func TestConsumer_SkipsUndecodableMessages(t *testing.T) {
	r := newFakeReader(kafka.Message{Value: []byte("{not json")})
	var calls atomic.Int32
	c := queue.NewConsumerWithReader(r, func(context.Context, queue.Task) error {
		calls.Add(1)
		return nil
	}, nil, nil)

	runUntilDrained(t, c, r)

	assert.Zero(t, calls.Load())
	assert.Len(t, r.committed, 1)
}

type processorFunc func(ctx context.Context, s *models.CheckoutSession) error

func (f processorFunc) ProcessPaidOrder(ctx context.Context, s *models.CheckoutSession) error {
	return f(ctx, s)
}

func TestWorkflowHandler(t *testing.T) {
	busy := errors.New("busy")

	t.Run("busy maps to retry", func(t *testing.T) {
		h := queue.WorkflowHandler(processorFunc(func(context.Context, *models.CheckoutSession) error {
			return busy
		}), busy)
		err := h(context.Background(), queue.NewProcessPaidOrderTask(session()))
		assert.ErrorIs(t, err, queue.ErrRetry)
		assert.ErrorIs(t, err, busy)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		boom := errors.New("boom")
		h := queue.WorkflowHandler(processorFunc(func(context.Context, *models.CheckoutSession) error {
			return boom
		}), busy)
		err := h(context.Background(), queue.NewProcessPaidOrderTask(session()))
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, queue.ErrRetry)
	})

	t.Run("missing session", func(t *testing.T) {
		h := queue.WorkflowHandler(processorFunc(func(context.Context, *models.CheckoutSession) error {
			t.Fatal("should not be called")
			return nil
		}), busy)
		assert.Error(t, h(context.Background(), queue.Task{Type: queue.TaskProcessPaidOrder, SessionID: "cs_1"}))
	})

	t.Run("unknown type", func(t *testing.T) {
		h := queue.WorkflowHandler(processorFunc(func(context.Context, *models.CheckoutSession) error {
			return nil
		}), busy)
		assert.Error(t, h(context.Background(), queue.Task{Type: "resize"}))
	})
}

func TestInlineRunner_RunsDetachedFromRequest(t *testing.T) {
	done := make(chan error, 1)
	r := queue.NewInlineRunner(func(ctx context.Context, task queue.Task) error {
		time.Sleep(10 * time.Millisecond)
		done <- ctx.Err()
		return nil
	}, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, r.Enqueue(ctx, queue.NewProcessPaidOrderTask(session())))
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("inline task did not run")
	}
}
