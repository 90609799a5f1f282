package queue

import (
	"context"
	"log/slog"
	"time"
)

// InlineRunner runs tasks on a goroutine in this process. It stands in for
// Kafka when no brokers are configured.
type InlineRunner struct {
	handle  Handler
	timeout time.Duration
	logger  *slog.Logger
}

func NewInlineRunner(handle Handler, timeout time.Duration, logger *slog.Logger) *InlineRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &InlineRunner{
		handle:  handle,
		timeout: timeout,
		logger:  logger,
	}
}

// Enqueue returns at once. The task runs detached from ctx so it survives
// the end of the HTTP request.
func (r *InlineRunner) Enqueue(ctx context.Context, task Task) error {
	go func() {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		if err := r.handle(runCtx, task); err != nil {
			r.logger.Error("background task failed", "task_type", task.Type, "session_id", task.SessionID, "error", err)
		}
	}()
	return nil
}
