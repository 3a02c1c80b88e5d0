// Package addrwatch polls an upstream block explorer for transactions on
// monitored addresses and reports only those newer than a per-address
// watermark. The watermark is the highest block number already seen for an
// address; it only moves forward, which makes delivery at-most-once per
// monitor instance. A chain reorganization that lowers observed block
// numbers can therefore cause re-delivery; this is a known limitation rather
// than a dedup bug.
package addrwatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/txsentinel/txsentinel/internal/pkg/logger"
)

// Service is the monitor's single-shot polling contract. A driver loop owns
// all interval timing and calls Poll repeatedly; the service itself never
// sleeps.
type Service interface {
	// Poll fetches the address's transaction list and returns the
	// transactions above the current watermark, in upstream order. Any
	// upstream failure aborts the whole call with the watermark untouched;
	// the next cycle simply retries.
	Poll(ctx context.Context, address string) ([]Transaction, error)
}

type service struct {
	network          string
	explorer         Explorer
	watermarkStorage WatermarkStorage
	notifiers        []TransactionNotifier
	callback         func(Transaction)

	// watermarks is the per-address high-water map. Single writer: one
	// monitor instance owns its addresses and Poll is never called
	// concurrently for the same service.
	watermarks map[string]int64
}

var _ Service = (*service)(nil)

type config struct {
	watermarkStorage WatermarkStorage
	notifiers        []TransactionNotifier
	callback         func(Transaction)
}

// Option configures the monitor at construction.
type Option func(*config)

// WithWatermarkStorage persists watermarks across restarts. Without it the
// monitor keeps watermarks in memory only and every address starts from
// block zero.
func WithWatermarkStorage(ws WatermarkStorage) Option {
	return func(c *config) {
		c.watermarkStorage = ws
	}
}

// WithTransactionNotifiers registers sinks invoked for every new
// transaction. Sink failures are logged and never abort the poll or block
// the remaining sinks.
func WithTransactionNotifiers(notifiers ...TransactionNotifier) Option {
	return func(c *config) {
		c.notifiers = append(c.notifiers, notifiers...)
	}
}

// WithTransactionCallback registers a callback invoked synchronously for
// each new transaction, in upstream discovery order, before the sinks run.
func WithTransactionCallback(f func(Transaction)) Option {
	return func(c *config) {
		c.callback = f
	}
}

// New creates a monitor for the given network using the provided explorer.
func New(network string, explorer Explorer, opts ...Option) *service {
	cfg := config{
		watermarkStorage: nopWatermark{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		network:          network,
		explorer:         explorer,
		watermarkStorage: cfg.watermarkStorage,
		notifiers:        cfg.notifiers,
		callback:         cfg.callback,
		watermarks:       make(map[string]int64),
	}
}

// watermark returns the current watermark for address, loading it from
// storage the first time the address is polled. A storage read failure fails
// the poll: starting from a guessed height would silently lose accuracy.
func (s *service) watermark(ctx context.Context, address string) (int64, error) {
	if last, ok := s.watermarks[address]; ok {
		return last, nil
	}

	last, err := s.watermarkStorage.LoadWatermark(ctx, s.network, address)
	if err != nil {
		if !errors.Is(err, ErrNoWatermarkFound) {
			return 0, fmt.Errorf("loading watermark for %s: %w", address, err)
		}
		last = 0
	}

	s.watermarks[address] = last
	return last, nil
}

// notify fans a transaction out to every registered sink. Each sink is
// independent: an error is logged and the remaining sinks still run.
func (s *service) notify(ctx context.Context, tx Transaction) {
	for _, notifier := range s.notifiers {
		if err := notifier.NotifyTransaction(ctx, s.network, tx); err != nil {
			logger.Error(ctx, "transaction sink delivery failed",
				"network", s.network,
				"tx.hash", tx.Hash,
				"error", err,
			)
		}
	}
}

func (s *service) Poll(ctx context.Context, address string) ([]Transaction, error) {
	last, err := s.watermark(ctx, address)
	if err != nil {
		return nil, err
	}

	txs, err := s.explorer.ListTransactions(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("listing transactions for %s: %w", address, err)
	}

	// An empty upstream response leaves the watermark untouched.
	if len(txs) == 0 {
		return nil, nil
	}

	// The watermark advances to the maximum block number of the whole
	// fetched set, not just the reported subset, matching the upstream
	// "highest known" semantics. This happens once per cycle so a
	// transaction with a lower block number than a sibling in the same
	// batch is still reported.
	maxSeen := last
	fresh := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.BlockNumber > maxSeen {
			maxSeen = tx.BlockNumber
		}
		if tx.BlockNumber > last {
			fresh = append(fresh, tx)
		}
	}

	for _, tx := range fresh {
		if s.callback != nil {
			s.callback(tx)
		}
		s.notify(ctx, tx)
	}

	s.watermarks[address] = maxSeen
	if maxSeen > last {
		if err := s.watermarkStorage.SaveWatermark(ctx, s.network, address, maxSeen); err != nil {
			// The in-memory watermark is authoritative for this instance;
			// a persistence failure only matters after a restart.
			logger.Error(ctx, "persisting watermark failed",
				"network", s.network,
				"address", address,
				"watermark", maxSeen,
				"error", err,
			)
		}
	}

	return fresh, nil
}
