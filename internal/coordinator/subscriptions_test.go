package coordinator

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/events"
)

func TestSubscription_CreateAssignsSequentialIDs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a, err := h.c.CreateSubscription(ctx, testOwner, nil)
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}
	b, err := h.c.CreateSubscription(ctx, testOwner, nil)
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}
	if a != 1 || b != 2 {
		t.Errorf("ids: got %d,%d want 1,2", a, b)
	}
	sub, err := h.c.GetSubscription(ctx, a)
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if sub.Owner != testOwner || sub.Balance.Sign() != 0 || len(sub.Consumers) != 0 {
		t.Errorf("unexpected sub: %+v", sub)
	}
}

func TestSubscription_ConsumersDedupedBeforeCap(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cfg := testConfig()
	cfg.MaxConsumers = 2
	if err := h.c.SetConfig(ctx, testAdmin, cfg); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}

	id, err := h.c.CreateSubscription(ctx, testOwner, []common.Address{testConsumerB, testConsumerA, testConsumerB})
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}
	sub, _ := h.c.GetSubscription(ctx, id)
	if len(sub.Consumers) != 2 || sub.Consumers[0] != testConsumerB || sub.Consumers[1] != testConsumerA {
		t.Errorf("consumers: got %v", sub.Consumers)
	}

	_, err = h.c.CreateSubscription(ctx, testOwner, []common.Address{testConsumerA, testConsumerB, testOwner})
	if !errors.Is(err, ErrTooManyConsumers) {
		t.Errorf("expected ErrTooManyConsumers, got %v", err)
	}
}

func TestSubscription_FundAndWithdraw(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.fundedSub(t, 500)

	if got := h.tokens.balance(testSelf); got.Cmp(big.NewInt(500)) != 0 {
		t.Errorf("coordinator tokens: got %s want 500", got)
	}
	if err := h.c.WithdrawFromSubscription(ctx, testOwner, id, testConsumerA, big.NewInt(501)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := h.c.WithdrawFromSubscription(ctx, testConsumerA, id, testConsumerA, big.NewInt(1)); !errors.Is(err, ErrMustBeSubOwner) {
		t.Fatalf("expected ErrMustBeSubOwner, got %v", err)
	}
	if err := h.c.WithdrawFromSubscription(ctx, testOwner, id, testConsumerA, big.NewInt(200)); err != nil {
		t.Fatalf("WithdrawFromSubscription: %v", err)
	}
	if got := h.balance(t, id); got.Cmp(big.NewInt(300)) != 0 {
		t.Errorf("balance: got %s want 300", got)
	}
	if got := h.tokens.balance(testConsumerA); got.Cmp(big.NewInt(200)) != 0 {
		t.Errorf("recipient tokens: got %s want 200", got)
	}
}

func TestSubscription_FundFailureRollsBack(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.fundedSub(t, 0)

	// payer holds nothing
	err := h.c.FundSubscription(ctx, testOwner, id, big.NewInt(10))
	if !errors.Is(err, ErrTokenTransferFailed) {
		t.Fatalf("expected ErrTokenTransferFailed, got %v", err)
	}
	if h.balance(t, id).Sign() != 0 {
		t.Error("balance must be unchanged")
	}
	if len(h.sink.OfType(events.SubscriptionFunded)) != 0 {
		t.Error("no funded event on failure")
	}
	if err := h.c.FundSubscription(ctx, testOwner, id, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
	if err := h.c.FundSubscription(ctx, testOwner, 42, big.NewInt(1)); !errors.Is(err, ErrInvalidSubscription) {
		t.Errorf("expected ErrInvalidSubscription, got %v", err)
	}
}

func TestSubscription_BalanceNeverNegative(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.fundedSub(t, 100)

	for i := 0; i < 5; i++ {
		_ = h.c.WithdrawFromSubscription(ctx, testOwner, id, testOwner, big.NewInt(30))
		if h.balance(t, id).Sign() < 0 {
			t.Fatalf("balance went negative after withdrawal %d", i)
		}
	}
	if got := h.balance(t, id); got.Cmp(big.NewInt(10)) != 0 {
		t.Errorf("balance: got %s want 10", got)
	}
}

func TestSubscription_UpdateAddRemoveConsumers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.fundedSub(t, 0, testConsumerA)

	if err := h.c.AddConsumer(ctx, testOwner, id, testConsumerB); err != nil {
		t.Fatalf("AddConsumer: %v", err)
	}
	if err := h.c.AddConsumer(ctx, testOwner, id, testConsumerB); err != nil {
		t.Fatalf("AddConsumer twice: %v", err)
	}
	sub, _ := h.c.GetSubscription(ctx, id)
	if len(sub.Consumers) != 2 {
		t.Fatalf("consumers: got %v", sub.Consumers)
	}

	if err := h.c.RemoveConsumer(ctx, testOwner, id, testConsumerA); err != nil {
		t.Fatalf("RemoveConsumer: %v", err)
	}
	if err := h.c.RemoveConsumer(ctx, testOwner, id, testConsumerA); !errors.Is(err, ErrInvalidConsumer) {
		t.Errorf("expected ErrInvalidConsumer, got %v", err)
	}
	sub, _ = h.c.GetSubscription(ctx, id)
	if len(sub.Consumers) != 1 || sub.Consumers[0] != testConsumerB {
		t.Errorf("consumers: got %v", sub.Consumers)
	}

	if err := h.c.UpdateSubscription(ctx, testOwner, id, []common.Address{testConsumerA}); err != nil {
		t.Fatalf("UpdateSubscription: %v", err)
	}
	sub, _ = h.c.GetSubscription(ctx, id)
	if len(sub.Consumers) != 1 || sub.Consumers[0] != testConsumerA {
		t.Errorf("consumers: got %v", sub.Consumers)
	}
	if err := h.c.UpdateSubscription(ctx, testConsumerA, id, nil); !errors.Is(err, ErrMustBeSubOwner) {
		t.Errorf("expected ErrMustBeSubOwner, got %v", err)
	}

	// a removed consumer can no longer request
	_, err := h.c.RequestRandomWords(ctx, testConsumerB, Request{
		KeyHash: h.keyHash, SubID: id, MinConfirmations: 3, CallbackGasLimit: testCallbackGas, NumWords: 1,
	})
	if !errors.Is(err, ErrInvalidConsumer) {
		t.Errorf("expected ErrInvalidConsumer, got %v", err)
	}
}

func TestSubscription_CancelRefundsOwnerTarget(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.fundedSub(t, 700, testConsumerA)
	target := common.HexToAddress("0x7777777777777777777777777777777777777777")

	if err := h.c.CancelSubscription(ctx, testConsumerA, id, target); !errors.Is(err, ErrMustBeSubOwner) {
		t.Fatalf("expected ErrMustBeSubOwner, got %v", err)
	}
	if err := h.c.CancelSubscription(ctx, testOwner, id, target); err != nil {
		t.Fatalf("CancelSubscription: %v", err)
	}
	if got := h.tokens.balance(target); got.Cmp(big.NewInt(700)) != 0 {
		t.Errorf("refund: got %s want 700", got)
	}
	if _, err := h.c.GetSubscription(ctx, id); !errors.Is(err, ErrInvalidSubscription) {
		t.Errorf("expected ErrInvalidSubscription after cancel, got %v", err)
	}
	evs := h.sink.OfType(events.SubscriptionCanceled)
	if len(evs) != 1 || evs[0].Data.(events.SubscriptionCanceledData).Amount.Cmp(big.NewInt(700)) != 0 {
		t.Errorf("unexpected cancel events: %+v", evs)
	}
}

func TestSubscription_CancelTransferFailureKeepsSub(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.fundedSub(t, 700)
	h.tokens.fail = errors.New("ledger offline")

	if err := h.c.CancelSubscription(ctx, testOwner, id, testOwner); !errors.Is(err, ErrTokenTransferFailed) {
		t.Fatalf("expected ErrTokenTransferFailed, got %v", err)
	}
	if got := h.balance(t, id); got.Cmp(big.NewInt(700)) != 0 {
		t.Errorf("balance: got %s want 700", got)
	}
}

func TestSubscription_OwnerTransfer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.fundedSub(t, 0)
	newOwner := testConsumerB

	if err := h.c.AcceptSubscriptionOwnerTransfer(ctx, newOwner, id); !errors.Is(err, ErrMustBeRequestedOwner) {
		t.Fatalf("expected ErrMustBeRequestedOwner, got %v", err)
	}
	if err := h.c.RequestSubscriptionOwnerTransfer(ctx, newOwner, id, newOwner); !errors.Is(err, ErrMustBeSubOwner) {
		t.Fatalf("expected ErrMustBeSubOwner, got %v", err)
	}
	if err := h.c.RequestSubscriptionOwnerTransfer(ctx, testOwner, id, newOwner); err != nil {
		t.Fatalf("RequestSubscriptionOwnerTransfer: %v", err)
	}
	if err := h.c.AcceptSubscriptionOwnerTransfer(ctx, testConsumerA, id); !errors.Is(err, ErrMustBeRequestedOwner) {
		t.Fatalf("expected ErrMustBeRequestedOwner, got %v", err)
	}
	if err := h.c.AcceptSubscriptionOwnerTransfer(ctx, newOwner, id); err != nil {
		t.Fatalf("AcceptSubscriptionOwnerTransfer: %v", err)
	}
	sub, _ := h.c.GetSubscription(ctx, id)
	if sub.Owner != newOwner || sub.RequestedOwner != (common.Address{}) {
		t.Errorf("unexpected sub after transfer: %+v", sub)
	}
	if len(h.sink.OfType(events.SubscriptionOwnerTransferred)) != 1 {
		t.Error("expected one transferred event")
	}
}

func TestSubscription_GetReturnsCopy(t *testing.T) {
	h := newHarness(t)
	id := h.fundedSub(t, 50, testConsumerA)

	sub, _ := h.c.GetSubscription(context.Background(), id)
	sub.Balance.SetInt64(1_000_000)
	sub.Consumers[0] = testConsumerB

	again, _ := h.c.GetSubscription(context.Background(), id)
	if again.Balance.Cmp(big.NewInt(50)) != 0 || again.Consumers[0] != testConsumerA {
		t.Error("GetSubscription must return an independent copy")
	}
}
