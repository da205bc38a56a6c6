package chain

import (
	"context"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/coordinator"
)

// DevChain is a clock-driven header source for running without a node
// (MOCK_CHAIN). Block n is sealed at genesis + n*blockTime and its hash is a
// pure function of n and the seed.
type DevChain struct {
	genesis   time.Time
	blockTime time.Duration
	seed      []byte
	gasPrice  *big.Int
	now       func() time.Time
}

func NewDevChain(genesis time.Time, blockTime time.Duration, seed string) *DevChain {
	return &DevChain{
		genesis:   genesis,
		blockTime: blockTime,
		seed:      crypto.Keccak256([]byte(seed)),
		gasPrice:  big.NewInt(1_000_000_000),
		now:       time.Now,
	}
}

func (d *DevChain) latest() uint64 {
	elapsed := d.now().Sub(d.genesis)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / d.blockTime)
}

func (d *DevChain) header(n uint64) *types.Header {
	num := new(big.Int).SetUint64(n)
	var parent [32]byte
	if n > 0 {
		parent = crypto.Keccak256Hash(d.seed, new(big.Int).SetUint64(n-1).Bytes())
	}
	return &types.Header{
		ParentHash: parent,
		Number:     num,
		Difficulty: big.NewInt(0),
		Time:       uint64(d.genesis.Add(time.Duration(n) * d.blockTime).Unix()),
		Extra:      crypto.Keccak256(d.seed, num.Bytes()),
	}
}

func (d *DevChain) HeaderByNumber(_ context.Context, number *big.Int) (*types.Header, error) {
	tip := d.latest()
	if number == nil {
		return d.header(tip), nil
	}
	if !number.IsUint64() || number.Uint64() > tip {
		return nil, ethereum.NotFound
	}
	return d.header(number.Uint64()), nil
}

func (d *DevChain) SuggestGasPrice(context.Context) (*big.Int, error) {
	return new(big.Int).Set(d.gasPrice), nil
}

// StaticPrice is a fixed price oracle whose quote is always fresh.
type StaticPrice struct {
	price *big.Int
	now   func() time.Time
}

func NewStaticPrice(price *big.Int) *StaticPrice {
	return &StaticPrice{price: new(big.Int).Set(price), now: time.Now}
}

func (s *StaticPrice) LatestQuote(context.Context) (coordinator.Quote, error) {
	return coordinator.Quote{Price: new(big.Int).Set(s.price), UpdatedAt: s.now()}, nil
}
