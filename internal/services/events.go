package services

import (
	"context"
	"log/slog"

	"accountbook/internal/amqp"
)

// ChangePublisher announces committed ledger mutations.
type ChangePublisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

// Invalidator drops data derived from the ledger.
type Invalidator interface {
	Purge()
}

type notifier struct {
	events  ChangePublisher
	reports Invalidator
}

// changed runs after a committed mutation. Publishing is best effort: the
// change is already stored, so failures are only logged.
func (n notifier) changed(ctx context.Context, msg *amqp.ChangeMessage) {
	slog.InfoContext(ctx, "Ledger changed",
		"entity", msg.Entity,
		"action", msg.Action,
		"entity_id", msg.EntityID)

	if n.reports != nil {
		n.reports.Purge()
	}
	if n.events == nil {
		return
	}
	if err := n.events.PublishChange(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger change",
			"message_id", msg.ID,
			"entity", msg.Entity,
			"entity_id", msg.EntityID,
			"error", err)
	}
}
