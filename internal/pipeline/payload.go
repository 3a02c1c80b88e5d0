package pipeline

import (
	"context"

	"github.com/txsentinel/txsentinel/internal/addrwatch"
)

// Broadcast event types pushed to websocket subscribers.
const (
	eventTypeTransaction = "transaction"
	eventTypeFraud       = "fraud"
)

// eventPayload is the wire shape of every broadcast message:
// {"type": ..., "data": <transaction>}.
type eventPayload struct {
	Type string                `json:"type"`
	Data addrwatch.Transaction `json:"data"`
}

// transactionBroadcaster adapts the hub into an addrwatch sink, pushing a
// "transaction" event for every newly observed transaction.
type transactionBroadcaster struct {
	broadcaster Broadcaster
}

var _ addrwatch.TransactionNotifier = (*transactionBroadcaster)(nil)

// NewTransactionBroadcaster wraps a Broadcaster as a monitor sink so all
// observed transactions reach live subscribers, flagged or not.
func NewTransactionBroadcaster(b Broadcaster) *transactionBroadcaster {
	return &transactionBroadcaster{broadcaster: b}
}

func (t *transactionBroadcaster) NotifyTransaction(ctx context.Context, network string, tx addrwatch.Transaction) error {
	return t.broadcaster.BroadcastJSON(ctx, eventPayload{
		Type: eventTypeTransaction,
		Data: tx,
	})
}
