package addrwatch

import (
	"context"
	"errors"
)

// ErrNoWatermarkFound is returned by LoadWatermark when no watermark has
// been persisted yet for the requested address.
var ErrNoWatermarkFound = errors.New("no watermark found for address")

// WatermarkStorage persists the highest block number already processed for
// each monitored address, so a restarted monitor does not replay history.
// The in-memory watermark remains authoritative within a monitor instance;
// storage is only read when an address is first seen.
type WatermarkStorage interface {
	// SaveWatermark records height as the latest processed block for the
	// address on the given network, overwriting any previous value.
	SaveWatermark(ctx context.Context, network, address string, height int64) error

	// LoadWatermark returns the last saved height for the address, or
	// ErrNoWatermarkFound when none exists.
	LoadWatermark(ctx context.Context, network, address string) (int64, error)
}

// nopWatermark is the default storage: nothing is persisted and every
// address starts from block zero.
type nopWatermark struct{}

var _ WatermarkStorage = nopWatermark{}

func (nopWatermark) SaveWatermark(ctx context.Context, network, address string, height int64) error {
	return nil
}

func (nopWatermark) LoadWatermark(ctx context.Context, network, address string) (int64, error) {
	return 0, ErrNoWatermarkFound
}
