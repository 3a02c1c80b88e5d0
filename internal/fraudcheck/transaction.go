package fraudcheck

import "math/big"

// Transaction is the view of a blockchain transaction that rules evaluate.
// Values use native-unit integer precision (wei, satoshi) so threshold
// comparisons are exact. Rules never mutate it.
type Transaction struct {
	Hash        string   // unique transaction hash
	From        string   // sender address
	To          string   // recipient address
	Value       *big.Int // transferred amount in native units
	BlockNumber int64    // height of the containing block
}
