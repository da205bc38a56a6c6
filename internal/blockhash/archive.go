package blockhash

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

// ArchiveKeyFmt is the Redis key holding one archived block hash.
const ArchiveKeyFmt = "vrf:blockhash:%d"

// RedisArchive is the historical block-hash store. It satisfies
// coordinator.BlockHashArchive.
type RedisArchive struct {
	rdb *redis.Client
}

func NewRedisArchive(rdb *redis.Client) *RedisArchive {
	return &RedisArchive{rdb: rdb}
}

// Store archives a hash, replacing any earlier one recorded for height. The
// poller re-stores a height when a reorg replaced its block.
func (a *RedisArchive) Store(ctx context.Context, height uint64, hash common.Hash) error {
	return a.rdb.Set(ctx, fmt.Sprintf(ArchiveKeyFmt, height), hash.Hex(), 0).Err()
}

func (a *RedisArchive) BlockHash(ctx context.Context, height uint64) (common.Hash, bool, error) {
	s, err := a.rdb.Get(ctx, fmt.Sprintf(ArchiveKeyFmt, height)).Result()
	if errors.Is(err, redis.Nil) {
		return common.Hash{}, false, nil
	}
	if err != nil {
		return common.Hash{}, false, fmt.Errorf("archive get %d: %w", height, err)
	}
	return common.HexToHash(s), true, nil
}
