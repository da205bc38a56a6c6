package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
)

func TestDevChain_ClockDrivesHeight(t *testing.T) {
	genesis := time.Unix(1_700_000_000, 0)
	d := NewDevChain(genesis, 2*time.Second, "test")
	d.now = func() time.Time { return genesis.Add(21 * time.Second) }

	latest, err := d.HeaderByNumber(context.Background(), nil)
	if err != nil {
		t.Fatalf("HeaderByNumber: %v", err)
	}
	if latest.Number.Uint64() != 10 {
		t.Errorf("latest: got %d want 10", latest.Number.Uint64())
	}
	if _, err := d.HeaderByNumber(context.Background(), big.NewInt(11)); !errors.Is(err, ethereum.NotFound) {
		t.Errorf("future block: expected NotFound, got %v", err)
	}
}

func TestDevChain_HashesStablePerSeed(t *testing.T) {
	genesis := time.Unix(1_700_000_000, 0)
	a := NewDevChain(genesis, time.Second, "a")
	b := NewDevChain(genesis, time.Second, "b")
	a.now = func() time.Time { return genesis.Add(time.Minute) }
	b.now = a.now

	ctx := context.Background()
	a1, _ := a.HeaderByNumber(ctx, big.NewInt(5))
	a2, _ := a.HeaderByNumber(ctx, big.NewInt(5))
	b1, _ := b.HeaderByNumber(ctx, big.NewInt(5))
	if a1.Hash() != a2.Hash() {
		t.Error("same height must hash the same")
	}
	if a1.Hash() == b1.Hash() {
		t.Error("different seeds must hash differently")
	}
}

func TestStaticPrice(t *testing.T) {
	p := NewStaticPrice(big.NewInt(42))
	q, err := p.LatestQuote(context.Background())
	if err != nil {
		t.Fatalf("LatestQuote: %v", err)
	}
	if q.Price.Int64() != 42 || time.Since(q.UpdatedAt) > time.Minute {
		t.Errorf("unexpected quote: %+v", q)
	}
	q.Price.SetInt64(1)
	q2, _ := p.LatestQuote(context.Background())
	if q2.Price.Int64() != 42 {
		t.Error("quote must not alias internal state")
	}
}
