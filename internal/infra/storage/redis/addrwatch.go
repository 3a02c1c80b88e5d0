package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/txsentinel/txsentinel/internal/addrwatch"

	"github.com/redis/go-redis/v9"
)

// addrwatchKeyPrefix is the Redis key namespace for address monitor state.
const addrwatchKeyPrefix = "addrwatch"

// watermarkKey builds the key holding the highest processed block number for
// an address on a network.
func watermarkKey(network, address string) string {
	return fmt.Sprintf("%s:watermark:%s:%s", addrwatchKeyPrefix, network, address)
}

// SaveWatermark stores height as the latest processed block for the address.
// The key has no expiration: a stale watermark only means redundant
// re-delivery, while a lost one replays the whole history.
func (s *client) SaveWatermark(ctx context.Context, network, address string, height int64) error {
	return s.conn.Set(ctx, watermarkKey(network, address), strconv.FormatInt(height, 10), 0).Err()
}

// LoadWatermark returns the stored watermark for the address, or
// addrwatch.ErrNoWatermarkFound when the address has never been polled.
func (s *client) LoadWatermark(ctx context.Context, network, address string) (int64, error) {
	val, err := s.conn.Get(ctx, watermarkKey(network, address)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, addrwatch.ErrNoWatermarkFound
		}
		return 0, err
	}

	height, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt watermark for %s on %s: %w", address, network, err)
	}

	return height, nil
}

var _ addrwatch.WatermarkStorage = new(client)
