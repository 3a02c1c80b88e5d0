// Package screening assembles a compliance.Provider from an explorer-backed
// transaction history and locally configured sanctions lists. Risk scoring
// is heuristic: it looks at counterparty sanctions exposure and account
// activity, not chain analysis.
package screening

import (
	"context"

	"github.com/txsentinel/txsentinel/internal/addrwatch"
	"github.com/txsentinel/txsentinel/internal/compliance"
	"github.com/txsentinel/txsentinel/internal/pkg/types"
)

// Explorer is the upstream data the provider needs: per-address history and
// per-transaction confirmation depth.
type Explorer interface {
	ListTransactions(ctx context.Context, address string) ([]addrwatch.Transaction, error)
	GetConfirmations(ctx context.Context, txHash, network string) (int, error)
}

// Risk scoring weights. Scores are clamped to [0, 1].
const (
	baseRiskScore           = 0.1
	unknownHistoryRiskScore = 0.5
	sanctionedCounterparty  = 0.3
	sanctionedSelfRiskScore = 1.0
	suspiciousRiskThreshold = 0.7
)

type provider struct {
	explorer      Explorer
	sanctionLists map[string]types.Set[string]
}

var _ compliance.Provider = (*provider)(nil)

// New builds a provider. sanctionLists maps a list name (e.g. "OFAC SDN")
// to the addresses it designates.
func New(explorer Explorer, sanctionLists map[string][]string) *provider {
	lists := make(map[string]types.Set[string], len(sanctionLists))
	for name, addresses := range sanctionLists {
		lists[name] = types.NewSet(addresses...)
	}

	return &provider{
		explorer:      explorer,
		sanctionLists: lists,
	}
}

func (p *provider) GetConfirmations(ctx context.Context, txHash, network string) (int, error) {
	return p.explorer.GetConfirmations(ctx, txHash, network)
}

// sanctioned returns the names of every list designating the address.
func (p *provider) sanctioned(address string) []string {
	lists := make([]string, 0)
	for name, members := range p.sanctionLists {
		if members.Contains(address) {
			lists = append(lists, name)
		}
	}
	return lists
}

func (p *provider) CheckSanctionsList(ctx context.Context, address string) (compliance.SanctionsResult, error) {
	lists := p.sanctioned(address)
	return compliance.SanctionsResult{
		Sanctioned: len(lists) > 0,
		Lists:      lists,
	}, nil
}

func (p *provider) GetTransactionHistory(ctx context.Context, address string) ([]compliance.TransactionRecord, error) {
	txs, err := p.explorer.ListTransactions(ctx, address)
	if err != nil {
		return nil, err
	}

	records := make([]compliance.TransactionRecord, 0, len(txs))
	for _, tx := range txs {
		records = append(records, compliance.TransactionRecord{
			Hash:        tx.Hash,
			From:        tx.From,
			To:          tx.To,
			Value:       tx.Value,
			BlockNumber: tx.BlockNumber,
		})
	}

	return records, nil
}

func (p *provider) CalculateRiskScore(ctx context.Context, address string) (float64, error) {
	if len(p.sanctioned(address)) > 0 {
		return sanctionedSelfRiskScore, nil
	}

	history, err := p.GetTransactionHistory(ctx, address)
	if err != nil {
		return 0, err
	}

	// No observable history gives nothing to score on; treat as medium
	// risk rather than clean.
	if len(history) == 0 {
		return unknownHistoryRiskScore, nil
	}

	score := baseRiskScore
	for _, record := range history {
		counterparty := record.To
		if record.To == address {
			counterparty = record.From
		}

		if len(p.sanctioned(counterparty)) > 0 {
			score += sanctionedCounterparty
		}
	}

	if score > 1 {
		score = 1
	}
	return score, nil
}

func (p *provider) ScreenAddress(ctx context.Context, address string) (compliance.ScreeningStatus, error) {
	if len(p.sanctioned(address)) > 0 {
		return compliance.ScreeningBlocked, nil
	}

	history, err := p.GetTransactionHistory(ctx, address)
	if err != nil {
		return "", err
	}
	if len(history) == 0 {
		return compliance.ScreeningUnknown, nil
	}

	score, err := p.CalculateRiskScore(ctx, address)
	if err != nil {
		return "", err
	}
	if score >= suspiciousRiskThreshold {
		return compliance.ScreeningSuspicious, nil
	}

	return compliance.ScreeningClean, nil
}
