package screening

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/txsentinel/txsentinel/internal/addrwatch"
	"github.com/txsentinel/txsentinel/internal/compliance"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type explorerFake struct {
	listTransactions func(ctx context.Context, address string) ([]addrwatch.Transaction, error)
	getConfirmations func(ctx context.Context, txHash, network string) (int, error)
}

func (e *explorerFake) ListTransactions(ctx context.Context, address string) ([]addrwatch.Transaction, error) {
	return e.listTransactions(ctx, address)
}

func (e *explorerFake) GetConfirmations(ctx context.Context, txHash, network string) (int, error) {
	return e.getConfirmations(ctx, txHash, network)
}

func historyOf(counterparties ...string) func(context.Context, string) ([]addrwatch.Transaction, error) {
	return func(_ context.Context, address string) ([]addrwatch.Transaction, error) {
		txs := make([]addrwatch.Transaction, 0, len(counterparties))
		for i, counterparty := range counterparties {
			txs = append(txs, addrwatch.Transaction{
				Hash:        "0x" + string(rune('1'+i)),
				From:        counterparty,
				To:          address,
				Value:       big.NewInt(100),
				BlockNumber: int64(10 + i),
			})
		}
		return txs, nil
	}
}

func TestCheckSanctionsList(t *testing.T) {
	p := New(&explorerFake{}, map[string][]string{
		"OFAC SDN": {"0xbad"},
		"EU":       {"0xbad", "0xworse"},
	})

	t.Run("reports every designating list", func(t *testing.T) {
		result, err := p.CheckSanctionsList(t.Context(), "0xbad")
		require.NoError(t, err)

		assert.True(t, result.Sanctioned)
		assert.ElementsMatch(t, []string{"OFAC SDN", "EU"}, result.Lists)
	})

	t.Run("clean address is not sanctioned", func(t *testing.T) {
		result, err := p.CheckSanctionsList(t.Context(), "0xclean")
		require.NoError(t, err)

		assert.False(t, result.Sanctioned)
		assert.Empty(t, result.Lists)
	})
}

func TestCalculateRiskScore(t *testing.T) {
	t.Run("sanctioned address scores maximum regardless of history", func(t *testing.T) {
		explorer := &explorerFake{
			listTransactions: func(context.Context, string) ([]addrwatch.Transaction, error) {
				t.Fatal("history should not be fetched for a sanctioned address")
				return nil, nil
			},
		}
		p := New(explorer, map[string][]string{"OFAC SDN": {"0xbad"}})

		score, err := p.CalculateRiskScore(t.Context(), "0xbad")
		require.NoError(t, err)
		assert.Equal(t, 1.0, score)
	})

	t.Run("no history scores medium risk", func(t *testing.T) {
		p := New(&explorerFake{listTransactions: historyOf()}, nil)

		score, err := p.CalculateRiskScore(t.Context(), "0xnew")
		require.NoError(t, err)
		assert.Equal(t, 0.5, score)
	})

	t.Run("clean counterparties stay near the base score", func(t *testing.T) {
		p := New(&explorerFake{listTransactions: historyOf("0xa", "0xb")}, map[string][]string{"OFAC SDN": {"0xbad"}})

		score, err := p.CalculateRiskScore(t.Context(), "0xwatched")
		require.NoError(t, err)
		assert.InDelta(t, 0.1, score, 1e-9)
	})

	t.Run("each sanctioned counterparty raises the score", func(t *testing.T) {
		p := New(&explorerFake{listTransactions: historyOf("0xbad", "0xclean")}, map[string][]string{"OFAC SDN": {"0xbad"}})

		score, err := p.CalculateRiskScore(t.Context(), "0xwatched")
		require.NoError(t, err)
		assert.InDelta(t, 0.4, score, 1e-9)
	})

	t.Run("score is clamped at one", func(t *testing.T) {
		p := New(&explorerFake{listTransactions: historyOf("0xbad", "0xbad", "0xbad", "0xbad")},
			map[string][]string{"OFAC SDN": {"0xbad"}})

		score, err := p.CalculateRiskScore(t.Context(), "0xwatched")
		require.NoError(t, err)
		assert.Equal(t, 1.0, score)
	})

	t.Run("explorer failure propagates", func(t *testing.T) {
		explorerErr := errors.New("explorer down")
		p := New(&explorerFake{
			listTransactions: func(context.Context, string) ([]addrwatch.Transaction, error) {
				return nil, explorerErr
			},
		}, nil)

		_, err := p.CalculateRiskScore(t.Context(), "0xwatched")
		require.ErrorIs(t, err, explorerErr)
	})
}

func TestScreenAddress(t *testing.T) {
	t.Run("sanctioned address is blocked", func(t *testing.T) {
		p := New(&explorerFake{}, map[string][]string{"OFAC SDN": {"0xbad"}})

		status, err := p.ScreenAddress(t.Context(), "0xbad")
		require.NoError(t, err)
		assert.Equal(t, compliance.ScreeningBlocked, status)
	})

	t.Run("no history is unknown", func(t *testing.T) {
		p := New(&explorerFake{listTransactions: historyOf()}, nil)

		status, err := p.ScreenAddress(t.Context(), "0xnew")
		require.NoError(t, err)
		assert.Equal(t, compliance.ScreeningUnknown, status)
	})

	t.Run("heavy sanctioned exposure is suspicious", func(t *testing.T) {
		p := New(&explorerFake{listTransactions: historyOf("0xbad", "0xbad")},
			map[string][]string{"OFAC SDN": {"0xbad"}})

		status, err := p.ScreenAddress(t.Context(), "0xwatched")
		require.NoError(t, err)
		assert.Equal(t, compliance.ScreeningSuspicious, status)
	})

	t.Run("ordinary activity is clean", func(t *testing.T) {
		p := New(&explorerFake{listTransactions: historyOf("0xa", "0xb")}, nil)

		status, err := p.ScreenAddress(t.Context(), "0xwatched")
		require.NoError(t, err)
		assert.Equal(t, compliance.ScreeningClean, status)
	})
}

func TestGetTransactionHistory(t *testing.T) {
	t.Run("projects explorer transactions into provider records", func(t *testing.T) {
		p := New(&explorerFake{
			listTransactions: func(context.Context, string) ([]addrwatch.Transaction, error) {
				return []addrwatch.Transaction{{
					Hash:        "0x1",
					From:        "0xa",
					To:          "0xb",
					Value:       big.NewInt(1000),
					BlockNumber: 17,
				}}, nil
			},
		}, nil)

		history, err := p.GetTransactionHistory(t.Context(), "0xb")
		require.NoError(t, err)

		require.Len(t, history, 1)
		assert.Equal(t, compliance.TransactionRecord{
			Hash:        "0x1",
			From:        "0xa",
			To:          "0xb",
			Value:       big.NewInt(1000),
			BlockNumber: 17,
		}, history[0])
	})
}

func TestGetConfirmations(t *testing.T) {
	t.Run("delegates to the explorer", func(t *testing.T) {
		p := New(&explorerFake{
			getConfirmations: func(_ context.Context, txHash, network string) (int, error) {
				assert.Equal(t, "0xabc", txHash)
				assert.Equal(t, "eth", network)
				return 9, nil
			},
		}, nil)

		confirmations, err := p.GetConfirmations(t.Context(), "0xabc", "eth")
		require.NoError(t, err)
		assert.Equal(t, 9, confirmations)
	})
}
