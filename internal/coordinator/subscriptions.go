package coordinator

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/events"
)

// CreateSubscription opens an empty subscription owned by caller.
func (c *Coordinator) CreateSubscription(ctx context.Context, caller common.Address, consumers []common.Address) (uint64, error) {
	var id uint64
	err := c.atomic(ctx, func(ctx context.Context, t *tx) error {
		set, err := normalizeConsumers(t.st.cfg, consumers)
		if err != nil {
			return err
		}
		id = t.nextSubID()
		t.putSub(&Subscription{
			ID:        id,
			Owner:     caller,
			Balance:   new(big.Int),
			Consumers: set,
		})
		t.emit(events.SubscriptionCreated, events.SubscriptionCreatedData{
			SubID:     id,
			Owner:     caller,
			Consumers: append([]common.Address(nil), set...),
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetSubscription returns a copy of the subscription record.
func (c *Coordinator) GetSubscription(ctx context.Context, subID uint64) (*Subscription, error) {
	var sub *Subscription
	c.view(ctx, func(st *state) {
		if s, ok := st.subs[subID]; ok {
			sub = s.clone()
		}
	})
	if sub == nil {
		return nil, ErrInvalidSubscription
	}
	return sub, nil
}

// FundSubscription pulls amount from caller into the subscription.
// Anyone may fund any existing subscription.
func (c *Coordinator) FundSubscription(ctx context.Context, caller common.Address, subID uint64, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return c.atomic(ctx, func(ctx context.Context, t *tx) error {
		sub, ok := t.st.subs[subID]
		if !ok {
			return ErrInvalidSubscription
		}
		next := sub.clone()
		next.Balance.Add(next.Balance, amount)
		t.putSub(next)
		t.emit(events.SubscriptionFunded, events.SubscriptionFundedData{
			SubID:      subID,
			OldBalance: new(big.Int).Set(sub.Balance),
			NewBalance: new(big.Int).Set(next.Balance),
		})
		t.pull(caller, amount)
		return nil
	})
}

// WithdrawFromSubscription moves amount out of the subscription to to.
func (c *Coordinator) WithdrawFromSubscription(ctx context.Context, caller common.Address, subID uint64, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return c.atomic(ctx, func(ctx context.Context, t *tx) error {
		sub, err := ownedSub(t.st, caller, subID)
		if err != nil {
			return err
		}
		if sub.Balance.Cmp(amount) < 0 {
			return fmt.Errorf("%w: have %s, want %s", ErrInsufficientBalance, sub.Balance, amount)
		}
		next := sub.clone()
		next.Balance.Sub(next.Balance, amount)
		t.putSub(next)
		t.emit(events.SubscriptionWithdrawn, events.SubscriptionWithdrawnData{
			SubID:      subID,
			To:         to,
			OldBalance: new(big.Int).Set(sub.Balance),
			NewBalance: new(big.Int).Set(next.Balance),
		})
		t.push(to, amount)
		return nil
	})
}

// UpdateSubscription replaces the consumer set.
func (c *Coordinator) UpdateSubscription(ctx context.Context, caller common.Address, subID uint64, consumers []common.Address) error {
	return c.atomic(ctx, func(ctx context.Context, t *tx) error {
		sub, err := ownedSub(t.st, caller, subID)
		if err != nil {
			return err
		}
		set, err := normalizeConsumers(t.st.cfg, consumers)
		if err != nil {
			return err
		}
		next := sub.clone()
		next.Consumers = set
		t.putSub(next)
		t.emit(events.SubscriptionConsumersUpdated, events.SubscriptionConsumersUpdatedData{
			SubID:        subID,
			OldConsumers: append([]common.Address(nil), sub.Consumers...),
			NewConsumers: append([]common.Address(nil), set...),
		})
		return nil
	})
}

// AddConsumer authorizes one more consumer. Adding an existing consumer is a no-op.
func (c *Coordinator) AddConsumer(ctx context.Context, caller common.Address, subID uint64, consumer common.Address) error {
	return c.atomic(ctx, func(ctx context.Context, t *tx) error {
		sub, err := ownedSub(t.st, caller, subID)
		if err != nil {
			return err
		}
		if sub.hasConsumer(consumer) {
			return nil
		}
		if len(sub.Consumers)+1 > int(t.st.cfg.MaxConsumers) {
			return ErrTooManyConsumers
		}
		next := sub.clone()
		next.Consumers = append(next.Consumers, consumer)
		t.putSub(next)
		t.emit(events.SubscriptionConsumerAdded, events.SubscriptionConsumerData{SubID: subID, Consumer: consumer})
		return nil
	})
}

// RemoveConsumer revokes a consumer, keeping the order of the rest.
func (c *Coordinator) RemoveConsumer(ctx context.Context, caller common.Address, subID uint64, consumer common.Address) error {
	return c.atomic(ctx, func(ctx context.Context, t *tx) error {
		sub, err := ownedSub(t.st, caller, subID)
		if err != nil {
			return err
		}
		if !sub.hasConsumer(consumer) {
			return ErrInvalidConsumer
		}
		next := sub.clone()
		next.Consumers = next.Consumers[:0]
		for _, a := range sub.Consumers {
			if a != consumer {
				next.Consumers = append(next.Consumers, a)
			}
		}
		t.putSub(next)
		t.emit(events.SubscriptionConsumerRemoved, events.SubscriptionConsumerData{SubID: subID, Consumer: consumer})
		return nil
	})
}

// CancelSubscription deletes the subscription and refunds its full balance to to.
func (c *Coordinator) CancelSubscription(ctx context.Context, caller common.Address, subID uint64, to common.Address) error {
	return c.atomic(ctx, func(ctx context.Context, t *tx) error {
		sub, err := ownedSub(t.st, caller, subID)
		if err != nil {
			return err
		}
		refund := new(big.Int).Set(sub.Balance)
		t.deleteSub(subID)
		t.emit(events.SubscriptionCanceled, events.SubscriptionCanceledData{
			SubID:  subID,
			To:     to,
			Amount: new(big.Int).Set(refund),
		})
		t.push(to, refund)
		return nil
	})
}

// RequestSubscriptionOwnerTransfer nominates newOwner; the transfer completes
// when newOwner accepts.
func (c *Coordinator) RequestSubscriptionOwnerTransfer(ctx context.Context, caller common.Address, subID uint64, newOwner common.Address) error {
	return c.atomic(ctx, func(ctx context.Context, t *tx) error {
		sub, err := ownedSub(t.st, caller, subID)
		if err != nil {
			return err
		}
		if sub.RequestedOwner == newOwner {
			return nil
		}
		next := sub.clone()
		next.RequestedOwner = newOwner
		t.putSub(next)
		t.emit(events.SubscriptionOwnerTransferRequested, events.SubscriptionOwnerTransferData{
			SubID: subID, From: caller, To: newOwner,
		})
		return nil
	})
}

func (c *Coordinator) AcceptSubscriptionOwnerTransfer(ctx context.Context, caller common.Address, subID uint64) error {
	return c.atomic(ctx, func(ctx context.Context, t *tx) error {
		sub, ok := t.st.subs[subID]
		if !ok {
			return ErrInvalidSubscription
		}
		if sub.RequestedOwner != caller || caller == (common.Address{}) {
			return ErrMustBeRequestedOwner
		}
		next := sub.clone()
		next.Owner = caller
		next.RequestedOwner = common.Address{}
		t.putSub(next)
		t.emit(events.SubscriptionOwnerTransferred, events.SubscriptionOwnerTransferData{
			SubID: subID, From: sub.Owner, To: caller,
		})
		return nil
	})
}

func ownedSub(st *state, caller common.Address, subID uint64) (*Subscription, error) {
	sub, ok := st.subs[subID]
	if !ok {
		return nil, ErrInvalidSubscription
	}
	if sub.Owner != caller {
		return nil, ErrMustBeSubOwner
	}
	return sub, nil
}

// normalizeConsumers drops duplicates, keeping first-seen order, and enforces the cap.
func normalizeConsumers(cfg Config, consumers []common.Address) ([]common.Address, error) {
	out := make([]common.Address, 0, len(consumers))
	seen := make(map[common.Address]struct{}, len(consumers))
	for _, a := range consumers {
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	if len(out) > int(cfg.MaxConsumers) {
		return nil, fmt.Errorf("%w: have %d, max %d", ErrTooManyConsumers, len(out), cfg.MaxConsumers)
	}
	return out, nil
}
