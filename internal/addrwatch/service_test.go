package addrwatch

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/txsentinel/txsentinel/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Initialize the global logger so sink failure logging does not panic.
	_ = logger.Init(logger.WithLevel("error"))
}

// explorerFake replays a scripted sequence of responses, one per call.
type explorerFake struct {
	responses [][]Transaction
	errs      []error
	calls     int
}

func (e *explorerFake) ListTransactions(ctx context.Context, address string) ([]Transaction, error) {
	i := e.calls
	e.calls++

	if i < len(e.errs) && e.errs[i] != nil {
		return nil, e.errs[i]
	}
	if i < len(e.responses) {
		return e.responses[i], nil
	}
	return nil, nil
}

// watermarkFake is an in-memory WatermarkStorage recording every save.
type watermarkFake struct {
	stored  map[string]int64
	saves   []int64
	loadErr error
	saveErr error
}

func newWatermarkFake() *watermarkFake {
	return &watermarkFake{stored: make(map[string]int64)}
}

func (w *watermarkFake) SaveWatermark(ctx context.Context, network, address string, height int64) error {
	if w.saveErr != nil {
		return w.saveErr
	}
	w.stored[network+":"+address] = height
	w.saves = append(w.saves, height)
	return nil
}

func (w *watermarkFake) LoadWatermark(ctx context.Context, network, address string) (int64, error) {
	if w.loadErr != nil {
		return 0, w.loadErr
	}
	height, ok := w.stored[network+":"+address]
	if !ok {
		return 0, ErrNoWatermarkFound
	}
	return height, nil
}

// notifierFake records deliveries and optionally fails every call.
type notifierFake struct {
	delivered []Transaction
	err       error
}

func (n *notifierFake) NotifyTransaction(ctx context.Context, network string, tx Transaction) error {
	if n.err != nil {
		return n.err
	}
	n.delivered = append(n.delivered, tx)
	return nil
}

func mkTx(hash string, block int64) Transaction {
	return Transaction{
		Hash:        hash,
		From:        "0xsender",
		To:          "0xrecipient",
		Value:       big.NewInt(1),
		BlockNumber: block,
	}
}

func TestPoll(t *testing.T) {
	t.Run("reports only transactions above the watermark and advances to the fetched max", func(t *testing.T) {
		storage := newWatermarkFake()
		storage.stored["eth:0xabc"] = 100

		explorer := &explorerFake{responses: [][]Transaction{{
			mkTx("0x1", 101),
			mkTx("0x2", 103),
			mkTx("0x3", 99),
		}}}

		svc := New("eth", explorer, WithWatermarkStorage(storage))

		txs, err := svc.Poll(t.Context(), "0xabc")
		require.NoError(t, err)

		require.Len(t, txs, 2)
		assert.Equal(t, "0x1", txs[0].Hash)
		assert.Equal(t, "0x2", txs[1].Hash)

		// The watermark moves to the max of the whole fetched set.
		assert.Equal(t, []int64{103}, storage.saves)
	})

	t.Run("a sibling with a lower block number is still reported once", func(t *testing.T) {
		explorer := &explorerFake{responses: [][]Transaction{{
			mkTx("0x1", 50),
			mkTx("0x2", 10),
		}}}

		svc := New("eth", explorer)

		txs, err := svc.Poll(t.Context(), "0xabc")
		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, "0x2", txs[1].Hash)
	})

	t.Run("empty upstream response leaves the watermark untouched", func(t *testing.T) {
		storage := newWatermarkFake()
		storage.stored["eth:0xabc"] = 100

		explorer := &explorerFake{responses: [][]Transaction{nil}}
		svc := New("eth", explorer, WithWatermarkStorage(storage))

		txs, err := svc.Poll(t.Context(), "0xabc")
		require.NoError(t, err)
		assert.Empty(t, txs)
		assert.Empty(t, storage.saves)
	})

	t.Run("second poll with no new transactions returns nothing and keeps the watermark", func(t *testing.T) {
		batch := []Transaction{mkTx("0x1", 101), mkTx("0x2", 103)}
		explorer := &explorerFake{responses: [][]Transaction{batch, batch}}
		storage := newWatermarkFake()

		svc := New("eth", explorer, WithWatermarkStorage(storage))

		first, err := svc.Poll(t.Context(), "0xabc")
		require.NoError(t, err)
		require.Len(t, first, 2)

		second, err := svc.Poll(t.Context(), "0xabc")
		require.NoError(t, err)
		assert.Empty(t, second)
		assert.Equal(t, []int64{103}, storage.saves)
	})

	t.Run("transport failure aborts the poll without touching the watermark", func(t *testing.T) {
		storage := newWatermarkFake()
		storage.stored["eth:0xabc"] = 100

		explorer := &explorerFake{
			errs:      []error{errors.New("connection refused")},
			responses: [][]Transaction{nil, {mkTx("0x1", 101)}},
		}
		svc := New("eth", explorer, WithWatermarkStorage(storage))

		_, err := svc.Poll(t.Context(), "0xabc")
		require.Error(t, err)
		assert.Empty(t, storage.saves)

		// The next cycle retries from the same watermark.
		txs, err := svc.Poll(t.Context(), "0xabc")
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, "0x1", txs[0].Hash)
	})

	t.Run("watermark storage read failure fails the poll", func(t *testing.T) {
		storage := newWatermarkFake()
		storage.loadErr = errors.New("storage down")

		explorer := &explorerFake{responses: [][]Transaction{{mkTx("0x1", 101)}}}
		svc := New("eth", explorer, WithWatermarkStorage(storage))

		_, err := svc.Poll(t.Context(), "0xabc")
		require.Error(t, err)
		assert.Equal(t, 0, explorer.calls)
	})

	t.Run("callback runs per new transaction in discovery order", func(t *testing.T) {
		explorer := &explorerFake{responses: [][]Transaction{{
			mkTx("0x1", 101),
			mkTx("0x2", 103),
			mkTx("0x3", 102),
		}}}

		var seen []string
		svc := New("eth", explorer, WithTransactionCallback(func(tx Transaction) {
			seen = append(seen, tx.Hash)
		}))

		_, err := svc.Poll(t.Context(), "0xabc")
		require.NoError(t, err)
		assert.Equal(t, []string{"0x1", "0x2", "0x3"}, seen)
	})

	t.Run("one failing sink does not block the others or the poll", func(t *testing.T) {
		explorer := &explorerFake{responses: [][]Transaction{{mkTx("0x1", 101)}}}

		failing := &notifierFake{err: errors.New("webhook down")}
		healthy := &notifierFake{}
		svc := New("eth", explorer, WithTransactionNotifiers(failing, healthy))

		txs, err := svc.Poll(t.Context(), "0xabc")
		require.NoError(t, err)
		require.Len(t, txs, 1)
		require.Len(t, healthy.delivered, 1)
		assert.Equal(t, "0x1", healthy.delivered[0].Hash)
	})

	t.Run("watermark persistence failure does not fail the poll", func(t *testing.T) {
		storage := newWatermarkFake()
		storage.saveErr = errors.New("storage down")

		explorer := &explorerFake{responses: [][]Transaction{{mkTx("0x1", 101)}}}
		svc := New("eth", explorer, WithWatermarkStorage(storage))

		txs, err := svc.Poll(t.Context(), "0xabc")
		require.NoError(t, err)
		assert.Len(t, txs, 1)
	})

	t.Run("addresses are tracked independently", func(t *testing.T) {
		explorer := &explorerFake{responses: [][]Transaction{
			{mkTx("0x1", 101)},
			{mkTx("0x2", 55)},
		}}
		svc := New("eth", explorer)

		first, err := svc.Poll(t.Context(), "0xabc")
		require.NoError(t, err)
		require.Len(t, first, 1)

		// A lower block on another address is still new for that address.
		second, err := svc.Poll(t.Context(), "0xdef")
		require.NoError(t, err)
		require.Len(t, second, 1)
		assert.Equal(t, "0x2", second[0].Hash)
	})
}
