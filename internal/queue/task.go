package queue

import (
	"context"
	"errors"
	"time"

	"pawpop-backend/internal/models"
)

const TaskProcessPaidOrder = "process_paid_order"

// Task is one unit of background work. Tasks for the same session share a
// partition key so they are handled in order.
type Task struct {
	Type       string                  `json:"type"`
	SessionID  string                  `json:"session_id"`
	Session    *models.CheckoutSession `json:"session,omitempty"`
	EnqueuedAt time.Time               `json:"enqueued_at"`
}

func NewProcessPaidOrderTask(session *models.CheckoutSession) Task {
	return Task{
		Type:       TaskProcessPaidOrder,
		SessionID:  session.ID,
		Session:    session,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Handler runs a task. Returning an error wrapping ErrRetry asks the
// consumer to try again.
type Handler func(ctx context.Context, task Task) error

var ErrRetry = errors.New("task should be retried")

// Enqueuer accepts tasks for background processing.
type Enqueuer interface {
	Enqueue(ctx context.Context, task Task) error
}

type PaidOrderProcessor interface {
	ProcessPaidOrder(ctx context.Context, session *models.CheckoutSession) error
}

// WorkflowHandler routes tasks to the order workflow. busy is the error the
// workflow returns when another run holds the session.
func WorkflowHandler(workflow PaidOrderProcessor, busy error) Handler {
	return func(ctx context.Context, task Task) error {
		switch task.Type {
		case TaskProcessPaidOrder:
			if task.Session == nil {
				return errors.New("process_paid_order task has no session")
			}
			err := workflow.ProcessPaidOrder(ctx, task.Session)
			if busy != nil && errors.Is(err, busy) {
				return errors.Join(ErrRetry, err)
			}
			return err
		default:
			return errors.New("unknown task type " + task.Type)
		}
	}
}
