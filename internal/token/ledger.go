// Package token keeps subscription-currency balances in Redis. Balances are
// decimal strings under one key per holder; transfers run under WATCH so two
// concurrent transfers from the same holder cannot both spend the same funds.
package token

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

// BalanceKeyFmt is the Redis key of one holder's balance.
const BalanceKeyFmt = "vrf:token:balance:%s"

const maxRetries = 8

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrCorruptBalance    = errors.New("corrupt balance")
)

// RedisLedger satisfies coordinator.TokenLedger.
type RedisLedger struct {
	rdb *redis.Client
}

func NewRedisLedger(rdb *redis.Client) *RedisLedger {
	return &RedisLedger{rdb: rdb}
}

func balanceKey(a common.Address) string {
	return fmt.Sprintf(BalanceKeyFmt, strings.ToLower(a.Hex()))
}

// BalanceOf returns the holder's balance; unknown holders have zero.
func (l *RedisLedger) BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error) {
	return readBalance(ctx, l.rdb, balanceKey(holder))
}

// Mint credits amount to holder out of thin air. Only the admin surface and
// dev tooling call it.
func (l *RedisLedger) Mint(ctx context.Context, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	key := balanceKey(to)
	return l.watch(ctx, func(tx *redis.Tx) error {
		bal, err := readBalance(ctx, tx, key)
		if err != nil {
			return err
		}
		bal.Add(bal, amount)
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, bal.String(), 0)
			return nil
		})
		return err
	}, key)
}

// Transfer moves amount from one holder to another.
func (l *RedisLedger) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	return l.move(ctx, from, to, amount)
}

// TransferFrom pulls amount from a payer. The ledger has no allowances: a
// signed request from the payer is the authorization.
func (l *RedisLedger) TransferFrom(ctx context.Context, from, to common.Address, amount *big.Int) error {
	return l.move(ctx, from, to, amount)
}

func (l *RedisLedger) move(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	fromKey, toKey := balanceKey(from), balanceKey(to)
	return l.watch(ctx, func(tx *redis.Tx) error {
		fromBal, err := readBalance(ctx, tx, fromKey)
		if err != nil {
			return err
		}
		if fromBal.Cmp(amount) < 0 {
			return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientFunds, from.Hex(), fromBal, amount)
		}
		toBal, err := readBalance(ctx, tx, toKey)
		if err != nil {
			return err
		}
		fromBal.Sub(fromBal, amount)
		toBal.Add(toBal, amount)
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, fromKey, fromBal.String(), 0)
			p.Set(ctx, toKey, toBal.String(), 0)
			return nil
		})
		return err
	}, fromKey, toKey)
}

// watch retries fn while another client modifies a watched key.
func (l *RedisLedger) watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < maxRetries; i++ {
		err := l.rdb.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("token: gave up after %d contended attempts", maxRetries)
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readBalance(ctx context.Context, c getter, key string) (*big.Int, error) {
	s, err := c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, err
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w at %s: %q", ErrCorruptBalance, key, s)
	}
	return v, nil
}
