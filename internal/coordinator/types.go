package coordinator

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/events"
)

// Subscription is a prepaid balance plus the consumers allowed to draw on it.
type Subscription struct {
	ID             uint64           `json:"id"`
	Owner          common.Address   `json:"owner"`
	RequestedOwner common.Address   `json:"requested_owner"`
	Balance        *big.Int         `json:"balance"`
	Consumers      []common.Address `json:"consumers"`
}

func (s *Subscription) clone() *Subscription {
	out := *s
	out.Balance = new(big.Int).Set(s.Balance)
	out.Consumers = append([]common.Address(nil), s.Consumers...)
	return &out
}

func (s *Subscription) hasConsumer(a common.Address) bool {
	for _, c := range s.Consumers {
		if c == a {
			return true
		}
	}
	return false
}

// Request is the caller-supplied part of requestRandomWords.
type Request struct {
	KeyHash          common.Hash
	SubID            uint64
	MinConfirmations uint16
	CallbackGasLimit uint32
	NumWords         uint32
}

// Fulfillment is a provider submission. GasLimit seeds the resource meter and
// GasPrice is the unit price the payment is computed from.
type Fulfillment struct {
	Proof    []byte
	GasLimit uint64
	GasPrice *big.Int
}

// FulfillmentResult reports what a successful fulfillment did.
type FulfillmentResult struct {
	RequestID common.Hash
	Words     []*big.Int
	Success   bool
	Payment   *big.Int
	Operator  common.Address
	GasUsed   uint64
}

// Quote is a price-feed answer: subscription-currency wei per unit of gas currency.
type Quote struct {
	Price     *big.Int
	UpdatedAt time.Time
}

// ── External collaborators ────────────────────────────────────────────────────

// TokenLedger moves subscription currency. TransferFrom pulls from a payer into
// the coordinator's account; Transfer pushes from the coordinator to a recipient.
type TokenLedger interface {
	Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error
	TransferFrom(ctx context.Context, from, to common.Address, amount *big.Int) error
}

type PriceOracle interface {
	LatestQuote(ctx context.Context) (Quote, error)
}

// BlockSource is the native view of the chain. Height is the height of the
// block currently being built and reports false until the source has seen a
// block; RecentBlockHash only answers for a bounded window of sealed blocks.
type BlockSource interface {
	Height() (uint64, bool)
	RecentBlockHash(height uint64) (common.Hash, bool)
}

// BlockHashArchive is consulted when the native window misses.
type BlockHashArchive interface {
	BlockHash(ctx context.Context, height uint64) (common.Hash, bool, error)
}

// ProofVerifier checks a VRF proof against the actual seed and returns the
// verified randomness.
type ProofVerifier interface {
	Verify(ctx context.Context, proof []byte, seed *big.Int) (*big.Int, error)
}

// CallbackInvoker delivers words to a consumer and reports the gas it used.
type CallbackInvoker interface {
	Invoke(ctx context.Context, consumer common.Address, gasLimit uint32, requestID common.Hash, words []*big.Int) (uint64, error)
}

type EventSink interface {
	Publish(ctx context.Context, evs []events.Event) error
}
