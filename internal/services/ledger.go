package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"pawpop-backend/internal/models"
)

// Ledger is the append-only order status history.
type Ledger struct {
	store LedgerStore
}

func NewLedger(store LedgerStore) *Ledger {
	return &Ledger{store: store}
}

func (l *Ledger) Append(ctx context.Context, orderID uuid.UUID, status models.OrderStatus, note string) error {
	if err := l.store.AppendStatusHistory(ctx, orderID, status, note); err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}
	return nil
}

// History returns the entries for an order, newest first.
func (l *Ledger) History(ctx context.Context, orderID uuid.UUID) ([]models.StatusHistory, error) {
	entries, err := l.store.GetStatusHistory(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}
	return entries, nil
}
