package coordinator

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/events"
	"github.com/0gfoundation/0g-vrf-coordinator/internal/proof"
)

var (
	testAdmin     = common.HexToAddress("0xADADADADADADADADADADADADADADADADADADADAD")
	testSelf      = common.HexToAddress("0xC0C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0")
	testOwner     = common.HexToAddress("0x0A0A0A0A0A0A0A0A0A0A0A0A0A0A0A0A0A0A0A0A")
	testConsumerA = common.HexToAddress("0xA1A1A1A1A1A1A1A1A1A1A1A1A1A1A1A1A1A1A1A1")
	testConsumerB = common.HexToAddress("0xB2B2B2B2B2B2B2B2B2B2B2B2B2B2B2B2B2B2B2B2")
	testOperator  = common.HexToAddress("0x0B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0B")
	testPK        = [2]*big.Int{big.NewInt(101), big.NewInt(202)}

	// 1 unit of subscription currency buys 1000 gas at 1 wei/gas.
	testRate     = new(big.Int).Mul(big.NewInt(1e18), big.NewInt(1000))
	testGasPrice = big.NewInt(1)
)

const (
	testRequestHeight = 100
	testFulfillGas    = 1_000_000
	testCallbackGas   = 100_000
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

type fakeTokens struct {
	mu       sync.Mutex
	balances map[common.Address]*big.Int
	fail     error
	blocked  common.Address // transfers to this address fail when set
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{balances: make(map[common.Address]*big.Int)}
}

func (f *fakeTokens) balance(a common.Address) *big.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.balances[a]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (f *fakeTokens) mint(a common.Address, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.balances[a]
	if !ok {
		b = new(big.Int)
		f.balances[a] = b
	}
	b.Add(b, big.NewInt(amount))
}

func (f *fakeTokens) move(from, to common.Address, amount *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	if f.blocked != (common.Address{}) && to == f.blocked {
		return errors.New("token: recipient blocked")
	}
	fb, ok := f.balances[from]
	if !ok || fb.Cmp(amount) < 0 {
		return errors.New("token: insufficient balance")
	}
	fb.Sub(fb, amount)
	tb, ok := f.balances[to]
	if !ok {
		tb = new(big.Int)
		f.balances[to] = tb
	}
	tb.Add(tb, amount)
	return nil
}

func (f *fakeTokens) Transfer(_ context.Context, from, to common.Address, amount *big.Int) error {
	return f.move(from, to, amount)
}

func (f *fakeTokens) TransferFrom(_ context.Context, from, to common.Address, amount *big.Int) error {
	return f.move(from, to, amount)
}

type fakePrices struct {
	quote Quote
	err   error
}

func (f *fakePrices) LatestQuote(context.Context) (Quote, error) { return f.quote, f.err }

type fakeBlocks struct {
	height   uint64
	hashes   map[uint64]common.Hash
	unsynced bool
}

func (f *fakeBlocks) Height() (uint64, bool) { return f.height, !f.unsynced }

func (f *fakeBlocks) RecentBlockHash(h uint64) (common.Hash, bool) {
	v, ok := f.hashes[h]
	return v, ok
}

type fakeArchive struct {
	hashes map[uint64]common.Hash
	err    error
}

func (f *fakeArchive) BlockHash(_ context.Context, h uint64) (common.Hash, bool, error) {
	if f.err != nil {
		return common.Hash{}, false, f.err
	}
	v, ok := f.hashes[h]
	return v, ok, nil
}

// fakeVerifier accepts any proof of the right size; randomness = keccak(seed).
type fakeVerifier struct {
	err   error
	seeds []*big.Int
}

func (f *fakeVerifier) Verify(_ context.Context, p []byte, seed *big.Int) (*big.Int, error) {
	if len(p) != proof.Length {
		return nil, errors.New("verifier: wrong proof size")
	}
	if f.err != nil {
		return nil, f.err
	}
	f.seeds = append(f.seeds, seed)
	return new(big.Int).SetBytes(crypto.Keccak256(common.BigToHash(seed).Bytes())), nil
}

type callbackCall struct {
	consumer  common.Address
	gasLimit  uint32
	requestID common.Hash
	words     []*big.Int
}

// fakeCallbacks records deliveries; fn, when set, decides the outcome.
type fakeCallbacks struct {
	calls []callbackCall
	fn    func(ctx context.Context, requestID common.Hash, words []*big.Int) (uint64, error)
}

func (f *fakeCallbacks) Invoke(ctx context.Context, consumer common.Address, gasLimit uint32, requestID common.Hash, words []*big.Int) (uint64, error) {
	f.calls = append(f.calls, callbackCall{consumer, gasLimit, requestID, words})
	if f.fn != nil {
		return f.fn(ctx, requestID, words)
	}
	return 50_000, nil
}

// ── Harness ───────────────────────────────────────────────────────────────────

type harness struct {
	c        *Coordinator
	tokens   *fakeTokens
	prices   *fakePrices
	blocks   *fakeBlocks
	archive  *fakeArchive
	verifier *fakeVerifier
	cbs      *fakeCallbacks
	sink     *events.MemorySink
	now      time.Time
	keyHash  common.Hash
}

func testConfig() Config {
	return Config{
		MinimumRequestConfirmations: 3,
		MaxConsumers:                10,
		StalenessSeconds:            3600,
		GasAfterPaymentCalculation:  33_285,
		FallbackWeiPerUnitLink:      new(big.Int).Mul(big.NewInt(1e18), big.NewInt(2000)),
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		tokens:   newFakeTokens(),
		blocks:   &fakeBlocks{height: testRequestHeight, hashes: make(map[uint64]common.Hash)},
		archive:  &fakeArchive{hashes: make(map[uint64]common.Hash)},
		verifier: &fakeVerifier{},
		cbs:      &fakeCallbacks{},
		sink:     &events.MemorySink{},
		now:      time.Unix(1_700_000_000, 0),
	}
	h.prices = &fakePrices{quote: Quote{Price: testRate, UpdatedAt: h.now.Add(-time.Minute)}}
	c, err := New(testSelf, testAdmin, testConfig(), Backends{
		Tokens:    h.tokens,
		Prices:    h.prices,
		Blocks:    h.blocks,
		Archive:   h.archive,
		Verifier:  h.verifier,
		Callbacks: h.cbs,
		Sink:      h.sink,
		Clock:     func() time.Time { return h.now },
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.c = c
	h.keyHash, err = c.RegisterProvingKey(context.Background(), testAdmin, testOperator, testPK)
	if err != nil {
		t.Fatalf("RegisterProvingKey: %v", err)
	}
	return h
}

// fundedSub creates a subscription owned by testOwner with the given consumers
// and balance.
func (h *harness) fundedSub(t *testing.T, balance int64, consumers ...common.Address) uint64 {
	t.Helper()
	ctx := context.Background()
	id, err := h.c.CreateSubscription(ctx, testOwner, consumers)
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}
	if balance > 0 {
		h.tokens.mint(testOwner, balance)
		if err := h.c.FundSubscription(ctx, testOwner, id, big.NewInt(balance)); err != nil {
			t.Fatalf("FundSubscription: %v", err)
		}
	}
	return id
}

func (h *harness) request(t *testing.T, subID uint64, consumer common.Address, numWords uint32) common.Hash {
	t.Helper()
	id, err := h.c.RequestRandomWords(context.Background(), consumer, Request{
		KeyHash:          h.keyHash,
		SubID:            subID,
		MinConfirmations: 3,
		CallbackGasLimit: testCallbackGas,
		NumWords:         numWords,
	})
	if err != nil {
		t.Fatalf("RequestRandomWords: %v", err)
	}
	return id
}

// sealBlock makes the request block's hash visible in the native window.
func (h *harness) sealBlock(height uint64) common.Hash {
	hash := crypto.Keccak256Hash(new(big.Int).SetUint64(height).Bytes())
	h.blocks.hashes[height] = hash
	h.blocks.height = height + 1
	return hash
}

func (h *harness) proofFor(t *testing.T, requestID common.Hash, subID uint64, sender common.Address, numWords uint32) []byte {
	t.Helper()
	b, err := proof.Encode(&proof.Proof{
		PublicKey:        testPK,
		Gamma:            [2]*big.Int{big.NewInt(1), big.NewInt(2)},
		C:                big.NewInt(3),
		S:                big.NewInt(4),
		PreSeed:          requestID.Big(),
		BlockNum:         testRequestHeight,
		SubID:            subID,
		CallbackGasLimit: testCallbackGas,
		NumWords:         numWords,
		Sender:           sender,
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return b
}

func (h *harness) fulfill(p []byte) (*FulfillmentResult, error) {
	return h.c.FulfillRandomWords(context.Background(), Fulfillment{
		Proof:    p,
		GasLimit: testFulfillGas,
		GasPrice: testGasPrice,
	})
}

func (h *harness) balance(t *testing.T, subID uint64) *big.Int {
	t.Helper()
	sub, err := h.c.GetSubscription(context.Background(), subID)
	if err != nil {
		t.Fatalf("GetSubscription(%d): %v", subID, err)
	}
	return sub.Balance
}
