package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Backend is what the coordinator needs from a node: headers for the block
// hash poller, a gas price hint for the settler and read-only contract calls
// for the price feed. *ethclient.Client and the simulated backend's client
// both satisfy it.
type Backend interface {
	bind.ContractCaller
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// Client is a thin wrapper over a node connection.
type Client struct {
	Backend
	closer func()
}

// Dial connects to an RPC endpoint.
func Dial(ctx context.Context, rpcURL string) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	return &Client{Backend: eth, closer: eth.Close}, nil
}

// NewClient wraps an existing backend.
func NewClient(b Backend) *Client {
	return &Client{Backend: b}
}

// LatestHeight returns the number of the latest sealed block.
func (c *Client) LatestHeight(ctx context.Context) (uint64, error) {
	h, err := c.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("latest header: %w", err)
	}
	return h.Number.Uint64(), nil
}

func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}
