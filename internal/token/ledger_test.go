package token

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

var (
	alice = common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	bob   = common.HexToAddress("0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB")
)

func newTestLedger(t *testing.T) (*miniredis.Miniredis, *RedisLedger) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, NewRedisLedger(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func mustBalance(t *testing.T, l *RedisLedger, a common.Address) *big.Int {
	t.Helper()
	b, err := l.BalanceOf(context.Background(), a)
	if err != nil {
		t.Fatalf("BalanceOf: %v", err)
	}
	return b
}

func TestLedger_MintAndTransfer(t *testing.T) {
	_, l := newTestLedger(t)
	ctx := context.Background()

	if err := l.Mint(ctx, alice, big.NewInt(100)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := l.Transfer(ctx, alice, bob, big.NewInt(30)); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if err := l.TransferFrom(ctx, bob, alice, big.NewInt(10)); err != nil {
		t.Fatalf("TransferFrom: %v", err)
	}
	if got := mustBalance(t, l, alice); got.Int64() != 80 {
		t.Errorf("alice: got %s want 80", got)
	}
	if got := mustBalance(t, l, bob); got.Int64() != 20 {
		t.Errorf("bob: got %s want 20", got)
	}
}

func TestLedger_InsufficientFundsChangesNothing(t *testing.T) {
	_, l := newTestLedger(t)
	ctx := context.Background()
	l.Mint(ctx, alice, big.NewInt(5)) //nolint:errcheck

	err := l.Transfer(ctx, alice, bob, big.NewInt(6))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if mustBalance(t, l, alice).Int64() != 5 || mustBalance(t, l, bob).Sign() != 0 {
		t.Error("balances must be unchanged")
	}
}

func TestLedger_InvalidAmounts(t *testing.T) {
	_, l := newTestLedger(t)
	ctx := context.Background()
	if err := l.Mint(ctx, alice, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("mint 0: got %v", err)
	}
	if err := l.Transfer(ctx, alice, bob, big.NewInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative transfer: got %v", err)
	}
	if err := l.Transfer(ctx, alice, bob, big.NewInt(0)); err != nil {
		t.Errorf("zero transfer should be a no-op, got %v", err)
	}
}

func TestLedger_LargeValues(t *testing.T) {
	_, l := newTestLedger(t)
	ctx := context.Background()
	supply, _ := new(big.Int).SetString("1000000000000000000000000000", 10) // 1e27
	if err := l.Mint(ctx, alice, supply); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if got := mustBalance(t, l, alice); got.Cmp(supply) != 0 {
		t.Errorf("got %s want %s", got, supply)
	}
}

func TestLedger_CorruptBalance(t *testing.T) {
	mr, l := newTestLedger(t)
	mr.Set(balanceKey(alice), "not-a-number")
	if _, err := l.BalanceOf(context.Background(), alice); !errors.Is(err, ErrCorruptBalance) {
		t.Fatalf("expected ErrCorruptBalance, got %v", err)
	}
}

func TestLedger_ConcurrentTransfersConserveSupply(t *testing.T) {
	_, l := newTestLedger(t)
	ctx := context.Background()
	l.Mint(ctx, alice, big.NewInt(50)) //nolint:errcheck

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Transfer(ctx, alice, bob, big.NewInt(5))
		}()
	}
	wg.Wait()

	a, b := mustBalance(t, l, alice), mustBalance(t, l, bob)
	if a.Sign() < 0 {
		t.Fatalf("alice went negative: %s", a)
	}
	if total := new(big.Int).Add(a, b); total.Int64() != 50 {
		t.Errorf("supply not conserved: %s", total)
	}
}
