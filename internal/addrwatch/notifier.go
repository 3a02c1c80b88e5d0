package addrwatch

import "context"

// TransactionNotifier delivers a newly observed transaction to an external
// sink (webhook endpoint, broadcast hub). Each registered notifier is
// invoked independently per transaction: one sink failing must not prevent
// delivery to the others.
type TransactionNotifier interface {
	NotifyTransaction(ctx context.Context, network string, tx Transaction) error
}
