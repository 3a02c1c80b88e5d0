package compliance

import (
	"context"
	"math/big"
)

// ScreeningStatus is the outcome of screening an address against a
// provider's risk intelligence.
type ScreeningStatus string

const (
	ScreeningClean      ScreeningStatus = "clean"
	ScreeningSuspicious ScreeningStatus = "suspicious"
	ScreeningBlocked    ScreeningStatus = "blocked"
	ScreeningUnknown    ScreeningStatus = "unknown"
)

// SanctionsResult is the outcome of a sanctions list check.
type SanctionsResult struct {
	Sanctioned bool     `json:"sanctioned"`
	Lists      []string `json:"lists"`
}

// TransactionRecord is the provider's view of a historical transaction, as
// used by the report generators.
type TransactionRecord struct {
	Hash        string   `json:"hash"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Value       *big.Int `json:"value"`
	BlockNumber int64    `json:"blockNumber"`
}

// ConfirmationSource reports how many blocks have been mined on top of the
// block containing a transaction. It is the only provider capability the
// confirmation gate needs.
type ConfirmationSource interface {
	GetConfirmations(ctx context.Context, txHash, network string) (int, error)
}

// Provider is the full blockchain intelligence surface consumed by the
// report generators.
type Provider interface {
	ConfirmationSource

	// CalculateRiskScore returns a risk score in [0, 1] for the address.
	CalculateRiskScore(ctx context.Context, address string) (float64, error)

	// GetTransactionHistory returns the known transactions for the address.
	GetTransactionHistory(ctx context.Context, address string) ([]TransactionRecord, error)

	// CheckSanctionsList checks the address against sanctions lists.
	CheckSanctionsList(ctx context.Context, address string) (SanctionsResult, error)

	// ScreenAddress classifies the address.
	ScreenAddress(ctx context.Context, address string) (ScreeningStatus, error)
}
