// Package blockhash tracks recent block hashes in memory and archives older
// ones in Redis so fulfillments can still resolve them after they leave the
// native window.
package blockhash

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Window is how many sealed blocks the native view can answer for.
const Window = 256

// Recent is the native recent-block view. It satisfies coordinator.BlockSource.
type Recent struct {
	mu     sync.RWMutex
	head   uint64
	seen   bool
	hashes *lru.Cache[uint64, common.Hash]
}

func NewRecent() *Recent {
	c, err := lru.New[uint64, common.Hash](Window)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	return &Recent{hashes: c}
}

// Observe records a sealed block. Heights below the current head are accepted
// (backfill) but never move the head backwards.
func (r *Recent) Observe(height uint64, hash common.Hash) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hashes.Add(height, hash)
	if !r.seen || height > r.head {
		r.head = height
		r.seen = true
	}
}

// Head returns the latest sealed block and whether any block was observed.
func (r *Recent) Head() (uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.head, r.seen
}

// Height is the height of the block currently being built. It reports false
// until the first block has been observed.
func (r *Recent) Height() (uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.seen {
		return 0, false
	}
	return r.head + 1, true
}

func (r *Recent) RecentBlockHash(height uint64) (common.Hash, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.seen || height > r.head || r.head-height >= Window {
		return common.Hash{}, false
	}
	return r.hashes.Peek(height)
}
