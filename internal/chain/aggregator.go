package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/coordinator"
)

// AggregatorMetaData is the read-only slice of the AggregatorV3Interface ABI
// the coordinator calls.
var AggregatorMetaData = &bind.MetaData{
	ABI: `[
	{"type":"function","name":"latestRoundData","inputs":[],"outputs":[
		{"name":"roundId","type":"uint80"},
		{"name":"answer","type":"int256"},
		{"name":"startedAt","type":"uint256"},
		{"name":"updatedAt","type":"uint256"},
		{"name":"answeredInRound","type":"uint80"}],"stateMutability":"view"},
	{"type":"function","name":"decimals","inputs":[],"outputs":[{"name":"","type":"uint8"}],"stateMutability":"view"}
]`,
}

// RoundData mirrors the latestRoundData return tuple.
type RoundData struct {
	RoundID         *big.Int
	Answer          *big.Int
	StartedAt       *big.Int
	UpdatedAt       *big.Int
	AnsweredInRound *big.Int
}

// Aggregator is a binding to an on-chain price feed reporting
// subscription-currency wei per unit of gas currency. It satisfies
// coordinator.PriceOracle.
type Aggregator struct {
	address  common.Address
	contract *bind.BoundContract
}

func NewAggregator(address common.Address, caller bind.ContractCaller) (*Aggregator, error) {
	parsed, err := AggregatorMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	if parsed == nil {
		return nil, errors.New("aggregator: GetABI returned nil")
	}
	return &Aggregator{
		address:  address,
		contract: bind.NewBoundContract(address, *parsed, caller, nil, nil),
	}, nil
}

func (a *Aggregator) Address() common.Address { return a.address }

// LatestRoundData calls latestRoundData().
func (a *Aggregator) LatestRoundData(opts *bind.CallOpts) (RoundData, error) {
	var out []interface{}
	if err := a.contract.Call(opts, &out, "latestRoundData"); err != nil {
		return RoundData{}, err
	}
	if len(out) != 5 {
		return RoundData{}, fmt.Errorf("latestRoundData: %d return values", len(out))
	}
	return RoundData{
		RoundID:         *abi.ConvertType(out[0], new(*big.Int)).(**big.Int),
		Answer:          *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
		StartedAt:       *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
		UpdatedAt:       *abi.ConvertType(out[3], new(*big.Int)).(**big.Int),
		AnsweredInRound: *abi.ConvertType(out[4], new(*big.Int)).(**big.Int),
	}, nil
}

// Decimals calls decimals().
func (a *Aggregator) Decimals(opts *bind.CallOpts) (uint8, error) {
	var out []interface{}
	if err := a.contract.Call(opts, &out, "decimals"); err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("decimals: %d return values", len(out))
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

func (a *Aggregator) LatestQuote(ctx context.Context) (coordinator.Quote, error) {
	rd, err := a.LatestRoundData(&bind.CallOpts{Context: ctx})
	if err != nil {
		return coordinator.Quote{}, fmt.Errorf("aggregator %s: %w", a.address.Hex(), err)
	}
	return coordinator.Quote{
		Price:     rd.Answer,
		UpdatedAt: time.Unix(rd.UpdatedAt.Int64(), 0),
	}, nil
}
