// Package coordinator is the verifiable-randomness coordinator: the
// subscription ledger, proving-key registry, request commitments, fulfillment
// and payment settlement.
//
// All state lives in one Coordinator value. Public operations are atomic: each
// either applies all of its changes or none of them.
package coordinator

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/events"
)

// Backends are the external collaborators the coordinator calls into.
// Archive and Sink are optional.
type Backends struct {
	Tokens    TokenLedger
	Prices    PriceOracle
	Blocks    BlockSource
	Archive   BlockHashArchive
	Verifier  ProofVerifier
	Callbacks CallbackInvoker
	Sink      EventSink
	Clock     func() time.Time
}

type Coordinator struct {
	mu sync.Mutex
	st *state

	self  common.Address
	admin common.Address

	tokens    TokenLedger
	prices    PriceOracle
	blocks    BlockSource
	archive   BlockHashArchive
	verifier  ProofVerifier
	callbacks CallbackInvoker
	sink      EventSink
	now       func() time.Time
	log       *zap.Logger
}

type nopSink struct{}

func (nopSink) Publish(context.Context, []events.Event) error { return nil }

// New builds a coordinator. self is the token account holding subscription
// funds; admin is the only identity allowed to register keys and set config.
func New(self, admin common.Address, cfg Config, b Backends, log *zap.Logger) (*Coordinator, error) {
	if b.Tokens == nil || b.Prices == nil || b.Blocks == nil || b.Verifier == nil || b.Callbacks == nil {
		return nil, errors.New("coordinator: tokens, prices, blocks, verifier and callbacks are required")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if b.Sink == nil {
		b.Sink = nopSink{}
	}
	if b.Clock == nil {
		b.Clock = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		st:        newState(cfg.clone()),
		self:      self,
		admin:     admin,
		tokens:    b.Tokens,
		prices:    b.Prices,
		blocks:    b.Blocks,
		archive:   b.Archive,
		verifier:  b.Verifier,
		callbacks: b.Callbacks,
		sink:      b.Sink,
		now:       b.Clock,
		log:       log,
	}, nil
}

// Admin returns the administrative identity.
func (c *Coordinator) Admin() common.Address { return c.admin }

// Address returns the coordinator's own token account.
func (c *Coordinator) Address() common.Address { return c.self }

// GetCommitment returns the pending commitment for requestID, if any.
func (c *Coordinator) GetCommitment(ctx context.Context, requestID common.Hash) (common.Hash, bool) {
	var (
		h  common.Hash
		ok bool
	)
	c.view(ctx, func(st *state) { h, ok = st.commitments[requestID] })
	return h, ok
}

// WithdrawableBalance returns an operator's accrued, not yet withdrawn payment.
func (c *Coordinator) WithdrawableBalance(ctx context.Context, operator common.Address) *big.Int {
	out := new(big.Int)
	c.view(ctx, func(st *state) {
		if v, ok := st.withdrawable[operator]; ok {
			out.Set(v)
		}
	})
	return out
}

// Nonce returns the last nonce used by requester against keyHash.
func (c *Coordinator) Nonce(ctx context.Context, keyHash common.Hash, requester common.Address) uint64 {
	var n uint64
	c.view(ctx, func(st *state) { n = st.nonces[nonceKey{keyHash, requester}] })
	return n
}

// Withdraw pays out an operator's accrued balance.
func (c *Coordinator) Withdraw(ctx context.Context, operator, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return c.atomic(ctx, func(ctx context.Context, t *tx) error {
		have := t.st.withdrawable[operator]
		if have == nil || have.Cmp(amount) < 0 {
			return ErrInsufficientBalance
		}
		t.setWithdrawable(operator, new(big.Int).Sub(have, amount))
		t.emit(events.FundsWithdrawn, events.FundsWithdrawnData{
			Operator: operator,
			To:       to,
			Amount:   new(big.Int).Set(amount),
		})
		t.push(to, amount)
		return nil
	})
}
