package explorer

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// txInfo is the raw shape of a transaction info response.
type txInfo struct {
	Hash          string `json:"hash"`
	Confirmations string `json:"confirmations"`
}

// GetConfirmations returns how many blocks have been mined on top of the
// block containing the transaction. The client is bound to one network at
// construction; asking for another one is a configuration mistake.
func (c *client) GetConfirmations(ctx context.Context, txHash, network string) (int, error) {
	if network != c.network {
		return 0, fmt.Errorf("%w: client serves %q, got %q", ErrUnknownNetwork, c.network, network)
	}

	params := url.Values{}
	params.Set("module", "transaction")
	params.Set("action", "gettxinfo")
	params.Set("txhash", txHash)

	var info txInfo
	if err := c.get(ctx, params, &info); err != nil {
		return 0, err
	}

	confirmations, err := strconv.Atoi(info.Confirmations)
	if err != nil {
		return 0, fmt.Errorf("%w: unparseable confirmation count %q", ErrExplorerFailure, info.Confirmations)
	}

	return confirmations, nil
}
