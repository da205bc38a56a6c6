package coordinator

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"
)

var (
	// linkFixedPoint normalises the 18-decimal subscription currency.
	linkFixedPoint = big.NewInt(1e18)
	// maxPayment is the total supply of the subscription currency (1e9 * 1e18).
	maxPayment = new(big.Int).Mul(big.NewInt(1e9), big.NewInt(1e18))
)

// PaymentAmount is 1e18 * weiPerUnitGas * (overhead + gasUsed) / weiPerUnitLink.
func PaymentAmount(weiPerUnitLink, weiPerUnitGas *big.Int, gasUsed uint64, overhead uint32) *big.Int {
	total := new(big.Int).SetUint64(gasUsed)
	total.Add(total, big.NewInt(int64(overhead)))
	amount := new(big.Int).Mul(linkFixedPoint, weiPerUnitGas)
	amount.Mul(amount, total)
	return amount.Div(amount, weiPerUnitLink)
}

// calculatePayment prices everything consumed since startGas plus the fixed
// post-callback overhead.
func (c *Coordinator) calculatePayment(ctx context.Context, cfg Config, startGas uint64, meter *Meter, weiPerUnitGas *big.Int) (*big.Int, error) {
	if weiPerUnitGas == nil || weiPerUnitGas.Sign() < 0 {
		weiPerUnitGas = new(big.Int)
	}
	rate, err := c.currentRate(ctx, cfg)
	if err != nil {
		return nil, err
	}
	amount := PaymentAmount(rate, weiPerUnitGas, startGas-meter.Remaining(), cfg.GasAfterPaymentCalculation)
	if amount.Cmp(maxPayment) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrPaymentTooLarge, amount)
	}
	return amount, nil
}

// currentRate returns the feed price, or the configured fallback when the
// quote is older than the staleness window.
func (c *Coordinator) currentRate(ctx context.Context, cfg Config) (*big.Int, error) {
	q, err := c.prices.LatestQuote(ctx)
	if err != nil {
		return nil, errors.Join(ErrInvalidFeedResponse, err)
	}
	price := q.Price
	if cfg.StalenessSeconds > 0 {
		window := time.Duration(cfg.StalenessSeconds) * time.Second
		if c.now().Sub(q.UpdatedAt) > window {
			price = cfg.FallbackWeiPerUnitLink
		}
	}
	if price == nil || price.Sign() <= 0 {
		return nil, ErrInvalidFeedResponse
	}
	return price, nil
}
