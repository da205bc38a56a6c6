package coordinator

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/events"
)

type nonceKey struct {
	keyHash   common.Hash
	requester common.Address
}

// state is the ledger owned by one Coordinator. Subscriptions stored in subs
// are never mutated in place; writers replace them with a modified clone.
type state struct {
	cfg          Config
	currentSubID uint64
	subs         map[uint64]*Subscription
	keys         map[common.Hash]common.Address
	keyOrder     []common.Hash
	commitments  map[common.Hash]common.Hash
	nonces       map[nonceKey]uint64
	withdrawable map[common.Address]*big.Int
}

func newState(cfg Config) *state {
	return &state{
		cfg:          cfg,
		subs:         make(map[uint64]*Subscription),
		keys:         make(map[common.Hash]common.Address),
		commitments:  make(map[common.Hash]common.Hash),
		nonces:       make(map[nonceKey]uint64),
		withdrawable: make(map[common.Address]*big.Int),
	}
}

// tx journals every mutation of state so an operation can be rolled back to
// any savepoint. Events and token transfers are buffered; transfers settle when
// the outermost operation commits and events are published after that.
type tx struct {
	c         *Coordinator
	st        *state
	undo      []func()
	events    []events.Event
	transfers []transfer
	done      bool
}

// transfer is a token movement between the coordinator account and party.
// pull moves party -> coordinator, otherwise coordinator -> party.
type transfer struct {
	pull   bool
	party  common.Address
	amount *big.Int
}

type savepoint struct {
	undo      int
	events    int
	transfers int
}

type txKey struct{}

func (t *tx) savepoint() savepoint {
	return savepoint{undo: len(t.undo), events: len(t.events), transfers: len(t.transfers)}
}

func (t *tx) rollback(sp savepoint) {
	for i := len(t.undo) - 1; i >= sp.undo; i-- {
		t.undo[i]()
	}
	t.undo = t.undo[:sp.undo]
	t.events = t.events[:sp.events]
	t.transfers = t.transfers[:sp.transfers]
}

// atomic runs fn as one all-or-nothing operation. When ctx already carries a
// live transaction of this coordinator (a consumer callback calling back in),
// fn runs nested inside it behind a savepoint instead of taking the lock.
func (c *Coordinator) atomic(ctx context.Context, fn func(ctx context.Context, t *tx) error) error {
	if t, ok := ctx.Value(txKey{}).(*tx); ok && t.c == c && !t.done {
		sp := t.savepoint()
		if err := fn(ctx, t); err != nil {
			t.rollback(sp)
			return err
		}
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	t := &tx{c: c, st: c.st}
	ctx = context.WithValue(ctx, txKey{}, t)
	err := fn(ctx, t)
	if err == nil {
		err = c.settle(ctx, t.transfers)
	}
	if err != nil {
		t.rollback(savepoint{})
		t.done = true
		return err
	}
	t.done = true
	if len(t.events) > 0 {
		if err := c.sink.Publish(ctx, t.events); err != nil {
			c.log.Error("publish audit events", zap.Int("count", len(t.events)), zap.Error(err))
		}
	}
	return nil
}

// settle executes the buffered transfers, pulls first so payouts never draw on
// funds that have not arrived yet. When one fails, the transfers already made
// are reversed and the whole operation fails.
func (c *Coordinator) settle(ctx context.Context, transfers []transfer) error {
	ordered := make([]transfer, 0, len(transfers))
	for _, tr := range transfers {
		if tr.pull {
			ordered = append(ordered, tr)
		}
	}
	for _, tr := range transfers {
		if !tr.pull {
			ordered = append(ordered, tr)
		}
	}

	for i, tr := range ordered {
		if err := c.move(ctx, tr); err != nil {
			for j := i - 1; j >= 0; j-- {
				back := ordered[j]
				back.pull = !back.pull
				if rerr := c.move(ctx, back); rerr != nil {
					c.log.Error("reverse token transfer",
						zap.String("party", back.party.Hex()),
						zap.String("amount", back.amount.String()),
						zap.Error(rerr),
					)
				}
			}
			return errors.Join(ErrTokenTransferFailed, err)
		}
	}
	return nil
}

func (c *Coordinator) move(ctx context.Context, tr transfer) error {
	if tr.pull {
		return c.tokens.TransferFrom(ctx, tr.party, c.self, tr.amount)
	}
	return c.tokens.Transfer(ctx, c.self, tr.party, tr.amount)
}

// view runs a read-only fn against state, joining a live transaction if any.
func (c *Coordinator) view(ctx context.Context, fn func(st *state)) {
	if t, ok := ctx.Value(txKey{}).(*tx); ok && t.c == c && !t.done {
		fn(t.st)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.st)
}

// ── Journaled mutators ────────────────────────────────────────────────────────

func (t *tx) emit(typ events.Type, data any) {
	t.events = append(t.events, events.New(typ, t.c.now(), data))
}

// pull schedules amount to move from payer into the coordinator account.
func (t *tx) pull(payer common.Address, amount *big.Int) {
	if amount.Sign() > 0 {
		t.transfers = append(t.transfers, transfer{pull: true, party: payer, amount: new(big.Int).Set(amount)})
	}
}

// push schedules amount to move from the coordinator account to recipient.
func (t *tx) push(recipient common.Address, amount *big.Int) {
	if amount.Sign() > 0 {
		t.transfers = append(t.transfers, transfer{party: recipient, amount: new(big.Int).Set(amount)})
	}
}

func (t *tx) setConfig(cfg Config) {
	prev := t.st.cfg
	t.st.cfg = cfg
	t.undo = append(t.undo, func() { t.st.cfg = prev })
}

func (t *tx) nextSubID() uint64 {
	prev := t.st.currentSubID
	t.st.currentSubID++
	t.undo = append(t.undo, func() { t.st.currentSubID = prev })
	return t.st.currentSubID
}

func (t *tx) putSub(s *Subscription) {
	prev, had := t.st.subs[s.ID]
	t.st.subs[s.ID] = s
	t.undo = append(t.undo, func() {
		if had {
			t.st.subs[s.ID] = prev
		} else {
			delete(t.st.subs, s.ID)
		}
	})
}

func (t *tx) deleteSub(id uint64) {
	prev, had := t.st.subs[id]
	if !had {
		return
	}
	delete(t.st.subs, id)
	t.undo = append(t.undo, func() { t.st.subs[id] = prev })
}

func (t *tx) putKey(keyHash common.Hash, operator common.Address) {
	t.st.keys[keyHash] = operator
	t.st.keyOrder = append(t.st.keyOrder, keyHash)
	t.undo = append(t.undo, func() {
		delete(t.st.keys, keyHash)
		t.st.keyOrder = t.st.keyOrder[:len(t.st.keyOrder)-1]
	})
}

func (t *tx) putCommitment(requestID, commitment common.Hash) {
	prev, had := t.st.commitments[requestID]
	t.st.commitments[requestID] = commitment
	t.undo = append(t.undo, func() {
		if had {
			t.st.commitments[requestID] = prev
		} else {
			delete(t.st.commitments, requestID)
		}
	})
}

func (t *tx) deleteCommitment(requestID common.Hash) {
	prev, had := t.st.commitments[requestID]
	if !had {
		return
	}
	delete(t.st.commitments, requestID)
	t.undo = append(t.undo, func() { t.st.commitments[requestID] = prev })
}

func (t *tx) setNonce(k nonceKey, n uint64) {
	prev, had := t.st.nonces[k]
	t.st.nonces[k] = n
	t.undo = append(t.undo, func() {
		if had {
			t.st.nonces[k] = prev
		} else {
			delete(t.st.nonces, k)
		}
	})
}

func (t *tx) setWithdrawable(operator common.Address, amount *big.Int) {
	prev, had := t.st.withdrawable[operator]
	t.st.withdrawable[operator] = amount
	t.undo = append(t.undo, func() {
		if had {
			t.st.withdrawable[operator] = prev
		} else {
			delete(t.st.withdrawable, operator)
		}
	})
}
