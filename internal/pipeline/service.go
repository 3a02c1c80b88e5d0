// Package pipeline drives the poll/evaluate/broadcast cycle for a set of
// monitored addresses on a fixed interval. Each cycle is synchronous end to
// end: polling, rule evaluation and all broadcast side effects finish before
// the next cycle starts, so at most one poll is ever in flight.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/txsentinel/txsentinel/internal/addrwatch"
	"github.com/txsentinel/txsentinel/internal/fraudcheck"
	"github.com/txsentinel/txsentinel/internal/pkg/logger"
	"github.com/txsentinel/txsentinel/internal/pkg/types"
	"github.com/txsentinel/txsentinel/internal/pkg/x/chflow"

	"github.com/google/uuid"
)

// ErrServiceAlreadyStarted is returned when Start is called twice without an
// intervening Close.
var ErrServiceAlreadyStarted = errors.New("service already started")

// Monitor is the address monitor capability the pipeline drives.
type Monitor interface {
	Poll(ctx context.Context, address string) ([]addrwatch.Transaction, error)
}

// RuleEvaluator decides whether a transaction should be flagged as
// fraudulent. *fraudcheck.Chain satisfies it.
type RuleEvaluator interface {
	Evaluate(tx fraudcheck.Transaction) bool
}

// Broadcaster pushes JSON documents to live websocket subscribers.
type Broadcaster interface {
	BroadcastJSON(ctx context.Context, v any) error
}

// Service is the pipeline's public contract.
type Service interface {
	// Start launches the interval loop. The first cycle runs immediately;
	// subsequent cycles run every interval until ctx is canceled or Close
	// is called.
	Start(ctx context.Context) error
	Close()

	// RunCycle executes one complete poll/evaluate/broadcast cycle. It is
	// exposed so callers (and tests) can drive the pipeline without any
	// real clock.
	RunCycle(ctx context.Context)
}

type service struct {
	mu        sync.Mutex
	isStarted bool
	closeFunc func()

	network     string
	addresses   []string
	interval    time.Duration
	monitor     Monitor
	rules       RuleEvaluator
	broadcaster Broadcaster
}

var _ Service = (*service)(nil)

// New creates a pipeline polling the given addresses on the given network.
func New(network string, addresses []string, interval time.Duration, monitor Monitor, rules RuleEvaluator, broadcaster Broadcaster) *service {
	return &service{
		network:     network,
		addresses:   addresses,
		interval:    interval,
		monitor:     monitor,
		rules:       rules,
		broadcaster: broadcaster,
	}
}

func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return ErrServiceAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.closeFunc = cancel

	go s.run(ctx)

	s.isStarted = true
	return nil
}

func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeFunc != nil {
		s.closeFunc()
	}
	s.isStarted = false
	s.closeFunc = nil
}

// run owns all interval timing. Cycles execute sequentially in this one
// goroutine, which is what bounds the pipeline to a single in-flight poll.
func (s *service) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunCycle(ctx)
	for {
		if _, ok := chflow.Receive(ctx, ticker.C); !ok {
			return
		}
		s.RunCycle(ctx)
	}
}

// toRuleTransaction projects a monitored transaction into the rule engine's
// view.
func toRuleTransaction(tx addrwatch.Transaction) fraudcheck.Transaction {
	return fraudcheck.Transaction{
		Hash:        tx.Hash,
		From:        tx.From,
		To:          tx.To,
		Value:       tx.Value,
		BlockNumber: tx.BlockNumber,
	}
}

func (s *service) RunCycle(ctx context.Context) {
	var (
		cycleID = uuid.NewString()
		total   = 0
		flagged = types.NewDefaultMap[string](func() int { return 0 })
	)

	for _, address := range s.addresses {
		txs, err := s.monitor.Poll(ctx, address)
		if err != nil {
			// A failed poll aborts this address for this cycle only; the
			// next interval retries with the watermark unchanged.
			logger.Error(ctx, "poll failed",
				"cycle.id", cycleID,
				"network", s.network,
				"address", address,
				"error", err,
			)
			continue
		}

		total += len(txs)
		for _, tx := range txs {
			if !s.rules.Evaluate(toRuleTransaction(tx)) {
				continue
			}

			flagged.Set(address, flagged.Get(address)+1)
			logger.Warn(ctx, "transaction flagged",
				"cycle.id", cycleID,
				"network", s.network,
				"address", address,
				"tx.hash", tx.Hash,
				"tx.value", tx.Value.String(),
			)

			payload := eventPayload{Type: eventTypeFraud, Data: tx}
			if err := s.broadcaster.BroadcastJSON(ctx, payload); err != nil {
				logger.Error(ctx, "fraud broadcast failed",
					"cycle.id", cycleID,
					"tx.hash", tx.Hash,
					"error", err,
				)
			}
		}
	}

	flaggedTotal := 0
	for _, n := range flagged.ToMap() {
		flaggedTotal += n
	}

	logger.Info(ctx, "poll cycle finished",
		"cycle.id", cycleID,
		"network", s.network,
		"transactions.new", total,
		"transactions.flagged", flaggedTotal,
	)
}
