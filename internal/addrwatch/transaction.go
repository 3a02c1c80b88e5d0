package addrwatch

import "math/big"

// Transaction is a confirmed transaction reported by the explorer for a
// monitored address. Instances are immutable once fetched. Value carries
// native-unit integer precision (wei, satoshi) so no amount is lost to
// floating point.
type Transaction struct {
	Hash        string   `json:"hash"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Value       *big.Int `json:"value"`
	BlockNumber int64    `json:"blockNumber"`
	Timestamp   int64    `json:"timestamp,omitempty"`
}
