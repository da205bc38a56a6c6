package blockhash

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/metrics"
)

// HeaderSource is the subset of ethclient.Client the poller needs.
// A nil number asks for the latest header.
type HeaderSource interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// Run polls the chain head every interval, feeding every new block into
// recent and archiving its hash. It returns when ctx is cancelled.
func Run(ctx context.Context, src HeaderSource, recent *Recent, archive *RedisArchive, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("block hash poller started", zap.Duration("interval", interval))

	for {
		if err := Poll(ctx, src, recent, archive); err != nil && ctx.Err() == nil {
			log.Error("poller: sync headers", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			log.Info("block hash poller stopped")
			return
		case <-ticker.C:
		}
	}
}

// Poll performs one sync pass: it fetches the latest header, re-records blocks
// a reorg replaced and backfills any blocks since the previous head, at most
// one window's worth.
func Poll(ctx context.Context, src HeaderSource, recent *Recent, archive *RedisArchive) error {
	latest, err := src.HeaderByNumber(ctx, nil)
	if err != nil {
		return err
	}
	tip := latest.Number.Uint64()

	if head, ok := recent.Head(); ok && head <= tip {
		if err := reconcile(ctx, src, recent, archive, head, latest); err != nil {
			return err
		}
	}

	from := tip
	if head, ok := recent.Head(); ok && head < tip {
		from = head + 1
	}
	if tip-from >= Window {
		from = tip - Window + 1
	}

	for h := from; h < tip; h++ {
		hdr, err := src.HeaderByNumber(ctx, new(big.Int).SetUint64(h))
		if err != nil {
			return err
		}
		if err := record(ctx, recent, archive, h, hdr); err != nil {
			return err
		}
	}
	return record(ctx, recent, archive, tip, latest)
}

// reconcile walks down from the previous head, overwriting every recorded hash
// the chain has since replaced. It stops at the first block that still matches.
func reconcile(ctx context.Context, src HeaderSource, recent *Recent, archive *RedisArchive, head uint64, latest *types.Header) error {
	h := head
	for n := 0; n < Window; n++ {
		known, ok := recent.RecentBlockHash(h)
		if !ok {
			return nil
		}
		hdr := latest
		if h != latest.Number.Uint64() {
			var err error
			if hdr, err = src.HeaderByNumber(ctx, new(big.Int).SetUint64(h)); err != nil {
				return err
			}
		}
		if hdr.Hash() == known {
			return nil
		}
		if err := record(ctx, recent, archive, h, hdr); err != nil {
			return err
		}
		metrics.IncReorged()
		if h == 0 {
			return nil
		}
		h--
	}
	return nil
}

func record(ctx context.Context, recent *Recent, archive *RedisArchive, height uint64, hdr *types.Header) error {
	hash := hdr.Hash()
	if archive != nil {
		if err := archive.Store(ctx, height, hash); err != nil {
			return err
		}
		metrics.IncArchived()
	}
	recent.Observe(height, hash)
	metrics.SetChainHead(height)
	return nil
}
