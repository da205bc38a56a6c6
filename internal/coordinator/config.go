package coordinator

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/events"
)

const (
	// MaxRequestConfirmations bounds both the configured floor and per-request confirmations.
	MaxRequestConfirmations = 200
	// MaxNumWords bounds the words a single request may ask for.
	MaxNumWords = 500
)

// Config is the global policy snapshot. Only the admin mutates it.
type Config struct {
	MinimumRequestConfirmations uint16
	MaxConsumers                uint16
	// StalenessSeconds of 0 disables the staleness fallback.
	StalenessSeconds           uint32
	GasAfterPaymentCalculation uint32
	FallbackWeiPerUnitLink     *big.Int
}

func (c Config) clone() Config {
	out := c
	if c.FallbackWeiPerUnitLink != nil {
		out.FallbackWeiPerUnitLink = new(big.Int).Set(c.FallbackWeiPerUnitLink)
	}
	return out
}

func (c Config) validate() error {
	if c.MinimumRequestConfirmations > MaxRequestConfirmations {
		return fmt.Errorf("%w: have %d, max %d", ErrRequestBlockConfsTooHigh,
			c.MinimumRequestConfirmations, MaxRequestConfirmations)
	}
	if c.FallbackWeiPerUnitLink == nil || c.FallbackWeiPerUnitLink.Sign() <= 0 {
		return fmt.Errorf("%w: fallback price must be positive", ErrInvalidFeedResponse)
	}
	return nil
}

// SetConfig replaces the policy snapshot.
func (c *Coordinator) SetConfig(ctx context.Context, caller common.Address, cfg Config) error {
	return c.atomic(ctx, func(ctx context.Context, t *tx) error {
		if err := c.onlyAdmin(caller); err != nil {
			return err
		}
		if err := cfg.validate(); err != nil {
			return err
		}
		t.setConfig(cfg.clone())
		t.emit(events.ConfigSet, events.ConfigSetData{
			MinimumRequestConfirmations: cfg.MinimumRequestConfirmations,
			MaxConsumers:                cfg.MaxConsumers,
			StalenessSeconds:            cfg.StalenessSeconds,
			GasAfterPaymentCalculation:  cfg.GasAfterPaymentCalculation,
			FallbackWeiPerUnitLink:      new(big.Int).Set(cfg.FallbackWeiPerUnitLink),
		})
		return nil
	})
}

// GetConfig returns a copy of the current policy.
func (c *Coordinator) GetConfig(ctx context.Context) Config {
	var cfg Config
	c.view(ctx, func(st *state) { cfg = st.cfg.clone() })
	return cfg
}

func (c *Coordinator) onlyAdmin(caller common.Address) error {
	if caller != c.admin {
		return ErrOnlyAdmin
	}
	return nil
}
