package addrwatch

import "context"

// Explorer fetches the full transaction list for an address from an upstream
// block explorer. One call returns one consistent snapshot; there is no
// pagination at this layer.
type Explorer interface {
	// ListTransactions returns every transaction known upstream for the
	// given address, in the order the explorer reports them. A transport
	// failure or an undecodable/incomplete response must surface as an
	// error with no partial result.
	ListTransactions(ctx context.Context, address string) ([]Transaction, error)
}
