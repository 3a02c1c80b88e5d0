package explorer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strconv"

	"github.com/txsentinel/txsentinel/internal/addrwatch"
	"github.com/txsentinel/txsentinel/internal/pkg/validator"
)

// txRecord is the raw shape of one transaction in an explorer response. The
// explorer reports numbers as decimal strings. Required fields are enforced
// before conversion: a record missing any of them fails the whole poll
// instead of being silently dropped, which would corrupt the watermark.
type txRecord struct {
	Hash        string `json:"hash" validate:"required"`
	From        string `json:"from" validate:"required"`
	To          string `json:"to"`
	Value       string `json:"value" validate:"required"`
	BlockNumber string `json:"blockNumber" validate:"required"`
	TimeStamp   string `json:"timeStamp"`
}

// toTransaction converts a validated raw record into the domain model.
func (r txRecord) toTransaction() (addrwatch.Transaction, error) {
	value, ok := new(big.Int).SetString(r.Value, 10)
	if !ok {
		return addrwatch.Transaction{}, fmt.Errorf("transaction %s: unparseable value %q", r.Hash, r.Value)
	}

	blockNumber, err := strconv.ParseInt(r.BlockNumber, 10, 64)
	if err != nil {
		return addrwatch.Transaction{}, fmt.Errorf("transaction %s: unparseable block number %q", r.Hash, r.BlockNumber)
	}

	// The timestamp is optional upstream; zero means unknown.
	var timestamp int64
	if r.TimeStamp != "" {
		timestamp, err = strconv.ParseInt(r.TimeStamp, 10, 64)
		if err != nil {
			return addrwatch.Transaction{}, fmt.Errorf("transaction %s: unparseable timestamp %q", r.Hash, r.TimeStamp)
		}
	}

	return addrwatch.Transaction{
		Hash:        r.Hash,
		From:        r.From,
		To:          r.To,
		Value:       value,
		BlockNumber: blockNumber,
		Timestamp:   timestamp,
	}, nil
}

func (c *client) ListTransactions(ctx context.Context, address string) ([]addrwatch.Transaction, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "txlist")
	params.Set("address", address)
	params.Set("sort", "asc")

	var records []txRecord
	if err := c.get(ctx, params, &records); err != nil {
		if errors.Is(err, errNoResults) {
			return nil, nil
		}
		return nil, err
	}

	txs := make([]addrwatch.Transaction, 0, len(records))
	for _, record := range records {
		if err := validator.Validate(record); err != nil {
			return nil, fmt.Errorf("%w: incomplete transaction record: %v", ErrExplorerFailure, err)
		}

		tx, err := record.toTransaction()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExplorerFailure, err)
		}
		txs = append(txs, tx)
	}

	return txs, nil
}
