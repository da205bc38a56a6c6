// Package events defines the append-only audit records emitted by the
// coordinator and the sinks that deliver them to indexers.
package events

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Type names an audit record.
type Type string

const (
	SubscriptionCreated                Type = "SubscriptionCreated"
	SubscriptionFunded                 Type = "SubscriptionFunded"
	SubscriptionConsumersUpdated       Type = "SubscriptionConsumersUpdated"
	SubscriptionConsumerAdded          Type = "SubscriptionConsumerAdded"
	SubscriptionConsumerRemoved        Type = "SubscriptionConsumerRemoved"
	SubscriptionWithdrawn              Type = "SubscriptionWithdrawn"
	SubscriptionCanceled               Type = "SubscriptionCanceled"
	SubscriptionOwnerTransferRequested Type = "SubscriptionOwnerTransferRequested"
	SubscriptionOwnerTransferred       Type = "SubscriptionOwnerTransferred"
	ProvingKeyRegistered               Type = "ProvingKeyRegistered"
	RandomWordsRequested               Type = "RandomWordsRequested"
	RandomWordsFulfilled               Type = "RandomWordsFulfilled"
	ConfigSet                          Type = "ConfigSet"
	FundsWithdrawn                     Type = "FundsWithdrawn"
)

// Event is one audit record. Data holds one of the payload structs below.
type Event struct {
	ID   string    `json:"id"`
	Type Type      `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

// New stamps a payload with a fresh id and timestamp.
func New(typ Type, at time.Time, data any) Event {
	return Event{ID: uuid.NewString(), Type: typ, At: at, Data: data}
}

// ── Payloads ──────────────────────────────────────────────────────────────────

type SubscriptionCreatedData struct {
	SubID     uint64           `json:"sub_id"`
	Owner     common.Address   `json:"owner"`
	Consumers []common.Address `json:"consumers"`
}

type SubscriptionFundedData struct {
	SubID      uint64   `json:"sub_id"`
	OldBalance *big.Int `json:"old_balance"`
	NewBalance *big.Int `json:"new_balance"`
}

type SubscriptionConsumersUpdatedData struct {
	SubID        uint64           `json:"sub_id"`
	OldConsumers []common.Address `json:"old_consumers"`
	NewConsumers []common.Address `json:"new_consumers"`
}

type SubscriptionConsumerData struct {
	SubID    uint64         `json:"sub_id"`
	Consumer common.Address `json:"consumer"`
}

type SubscriptionWithdrawnData struct {
	SubID      uint64         `json:"sub_id"`
	To         common.Address `json:"to"`
	OldBalance *big.Int       `json:"old_balance"`
	NewBalance *big.Int       `json:"new_balance"`
}

type SubscriptionCanceledData struct {
	SubID  uint64         `json:"sub_id"`
	To     common.Address `json:"to"`
	Amount *big.Int       `json:"amount"`
}

type SubscriptionOwnerTransferData struct {
	SubID uint64         `json:"sub_id"`
	From  common.Address `json:"from"`
	To    common.Address `json:"to"`
}

type ProvingKeyRegisteredData struct {
	KeyHash  common.Hash    `json:"key_hash"`
	Operator common.Address `json:"operator"`
}

// RandomWordsRequestedData carries every field a provider needs to build a proof.
type RandomWordsRequestedData struct {
	KeyHash          common.Hash    `json:"key_hash"`
	RequestID        common.Hash    `json:"request_id"`
	PreSeed          *big.Int       `json:"pre_seed"`
	SubID            uint64         `json:"sub_id"`
	MinConfirmations uint16         `json:"min_confirmations"`
	CallbackGasLimit uint32         `json:"callback_gas_limit"`
	NumWords         uint32         `json:"num_words"`
	Sender           common.Address `json:"sender"`
	BlockNum         uint64         `json:"block_num"`
}

type RandomWordsFulfilledData struct {
	RequestID common.Hash `json:"request_id"`
	Outputs   []*big.Int  `json:"outputs"`
	Payment   *big.Int    `json:"payment"`
	Success   bool        `json:"success"`
}

type ConfigSetData struct {
	MinimumRequestConfirmations uint16   `json:"minimum_request_confirmations"`
	MaxConsumers                uint16   `json:"max_consumers"`
	StalenessSeconds            uint32   `json:"staleness_seconds"`
	GasAfterPaymentCalculation  uint32   `json:"gas_after_payment_calculation"`
	FallbackWeiPerUnitLink      *big.Int `json:"fallback_wei_per_unit_link"`
}

type FundsWithdrawnData struct {
	Operator common.Address `json:"operator"`
	To       common.Address `json:"to"`
	Amount   *big.Int       `json:"amount"`
}
