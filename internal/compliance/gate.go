package compliance

import (
	"context"
	"fmt"
	"time"
)

func (s *service) WaitForConfirmations(ctx context.Context, txHash, network string, required int, timeout time.Duration) error {
	deadline := s.now().Add(timeout)

	// Actual tracks the last observed confirmation count so a timeout can
	// report how far the transaction got.
	actual := 0
	for s.now().Before(deadline) {
		count, err := s.provider.GetConfirmations(ctx, txHash, network)
		if err != nil {
			return fmt.Errorf("fetching confirmations for %s: %w", txHash, err)
		}
		actual = count

		if actual >= required {
			return nil
		}

		if err := s.sleeper.Sleep(ctx, s.checkInterval); err != nil {
			return err
		}
	}

	return &ComplianceViolation{
		TxHash:   txHash,
		Required: required,
		Actual:   actual,
	}
}
