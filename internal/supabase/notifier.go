package supabase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/supabase-community/supabase-go"
	"pawpop-backend/internal/services"
)

const outboxTable = "email_outbox"

type outboxRow struct {
	Event     string                 `json:"event"`
	Recipient string                 `json:"recipient"`
	Payload   map[string]interface{} `json:"payload"`
}

// OutboxNotifier queues notification emails in the email_outbox table. A
// separate mailer delivers them.
type OutboxNotifier struct {
	client       *supabase.Client
	supportEmail string
	logger       *slog.Logger
}

func NewOutboxNotifier(client *supabase.Client, supportEmail string, logger *slog.Logger) *OutboxNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutboxNotifier{
		client:       client,
		supportEmail: supportEmail,
		logger:       logger,
	}
}

func (n *OutboxNotifier) Notify(ctx context.Context, event string, payload map[string]interface{}) error {
	row := outboxRow{
		Event:     event,
		Recipient: Recipient(event, payload, n.supportEmail),
		Payload:   payload,
	}

	_, _, err := n.client.From(outboxTable).Insert(row, false, "", "minimal", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to queue %s notification: %w", event, err)
	}

	n.logger.Debug("notification queued", "event", event, "recipient", row.Recipient)
	return nil
}

// Recipient picks who an event is addressed to. Customer-facing events go
// to the buyer, everything else to support.
func Recipient(event string, payload map[string]interface{}, supportEmail string) string {
	switch event {
	case services.EventDigitalOrderReady, services.EventOrderShipped, services.EventOrderDelivered:
		if email, ok := payload["customer_email"].(string); ok && email != "" {
			return email
		}
	}
	return supportEmail
}
