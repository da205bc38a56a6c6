// Package callback delivers fulfilled random words to consumers, either to
// handlers registered in process or to a webhook URL the consumer registered.
package callback

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Func is an in-process consumer. It returns the gas it consumed.
type Func func(ctx context.Context, requestID common.Hash, words []*big.Int) (uint64, error)

// Invoker is the delivery contract shared by Registry and Webhook; it matches
// coordinator.CallbackInvoker.
type Invoker interface {
	Invoke(ctx context.Context, consumer common.Address, gasLimit uint32, requestID common.Hash, words []*big.Int) (uint64, error)
}

// Registry routes deliveries to in-process handlers and falls back to another
// invoker for consumers it does not know.
type Registry struct {
	mu       sync.RWMutex
	handlers map[common.Address]Func
	fallback Invoker
}

func NewRegistry(fallback Invoker) *Registry {
	return &Registry{handlers: make(map[common.Address]Func), fallback: fallback}
}

func (r *Registry) Register(consumer common.Address, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[consumer] = fn
}

func (r *Registry) Unregister(consumer common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, consumer)
}

func (r *Registry) Invoke(ctx context.Context, consumer common.Address, gasLimit uint32, requestID common.Hash, words []*big.Int) (uint64, error) {
	r.mu.RLock()
	fn, ok := r.handlers[consumer]
	r.mu.RUnlock()
	if ok {
		return fn(ctx, requestID, words)
	}
	if r.fallback != nil {
		return r.fallback.Invoke(ctx, consumer, gasLimit, requestID, words)
	}
	return 0, fmt.Errorf("no callback registered for %s", consumer.Hex())
}
